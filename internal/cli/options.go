package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/doublemover/activationgate/internal/fsutil"
	"github.com/doublemover/activationgate/internal/gate"
	"github.com/doublemover/activationgate/internal/model"
)

const (
	flagRoot            = "root"
	flagConfig          = "config"
	flagCatalogJSON     = "catalog-json"
	flagLogLevel        = "log-level"
	flagOverlayJSON     = "t4-governance-overlay-json"
	flagNewScopePublish = "t4-new-scope-publish"
)

type checkOptions struct {
	root       string
	configPath string
	logLevel   string
	output     string
	format     string

	issuesJSON       string
	milestonesJSON   string
	catalogJSON      string
	openBlockersJSON string
	overlayJSON      string
	newScopePublish  bool

	issuesMaxAge       nonNegativeInt
	milestonesMaxAge   nonNegativeInt
	actionableStatuses []string
}

func (o *checkOptions) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.issuesJSON, "issues-json", "", "path to JSON snapshot containing currently open issues")
	f.StringVar(&o.milestonesJSON, "milestones-json", "", "path to JSON snapshot containing currently open milestones")
	f.StringVar(&o.catalogJSON, flagCatalogJSON, model.DefaultCatalogJSON, "path to remaining-task catalog JSON")
	f.StringVar(&o.openBlockersJSON, "open-blockers-json", "",
		"optional open blockers JSON (object with 'open_blockers' array and 'open_blocker_count' or legacy 'count')")
	f.Var(&o.issuesMaxAge, strings.TrimPrefix(gate.IssuesMaxAgeFlag, "--"),
		"optional freshness gate for the issues snapshot, based on its 'generated_at_utc'")
	f.Var(&o.milestonesMaxAge, strings.TrimPrefix(gate.MilestonesMaxAgeFlag, "--"),
		"optional freshness gate for the milestones snapshot, based on its 'generated_at_utc'")
	f.StringArrayVar(&o.actionableStatuses, "actionable-status", nil,
		"repeatable actionable status value (default open, open-blocked, blocked)")
	f.StringVar(&o.overlayJSON, flagOverlayJSON, "",
		"optional T4 governance overlay JSON (boolean root, or object with boolean 't4_new_scope_publish')")
	f.BoolVar(&o.newScopePublish, flagNewScopePublish, false, "force T4_NEW_SCOPE_PUBLISH=true without an overlay file")
	f.StringVar(&o.format, "format", "json", "output format: json or markdown")
	f.StringVar(&o.output, "output", "", "also write the rendered report to this path")
	f.StringVar(&o.root, flagRoot, "", "repository root anchoring relative paths (default current directory)")
	f.StringVar(&o.configPath, flagConfig, "", "config file (default <root>/"+model.DefaultConfigFile+")")
	f.StringVar(&o.logLevel, flagLogLevel, model.DefaultLogLevel, "log level: debug, info, warn or error")

	_ = cmd.MarkFlagRequired("issues-json")
	_ = cmd.MarkFlagRequired("milestones-json")
	cmd.MarkFlagsMutuallyExclusive(flagOverlayJSON, flagNewScopePublish)
}

func (o *checkOptions) request(root string, cfg model.Config) gate.Request {
	return gate.Request{
		Root:               root,
		IssuesJSON:         o.issuesJSON,
		MilestonesJSON:     o.milestonesJSON,
		CatalogJSON:        cfg.CatalogJSON,
		OpenBlockersJSON:   o.openBlockersJSON,
		OverlayJSON:        o.overlayJSON,
		NewScopePublish:    o.newScopePublish,
		IssuesMaxAge:       o.issuesMaxAge.value,
		MilestonesMaxAge:   o.milestonesMaxAge.value,
		ActionableStatuses: o.actionableStatuses,
	}
}

// nonNegativeInt is an optional integer flag; value stays nil when unset.
type nonNegativeInt struct {
	value *int64
}

var errNotNonNegative = errors.New("must be a non-negative integer")

func (n *nonNegativeInt) String() string {
	if n.value == nil {
		return ""
	}
	return strconv.FormatInt(*n.value, 10)
}

func (n *nonNegativeInt) Set(s string) error {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || v < 0 {
		return errNotNonNegative
	}
	n.value = &v
	return nil
}

func (n *nonNegativeInt) Type() string { return "seconds" }

// locationEnv holds the settings that locate the config file and so cannot
// live inside it.
type locationEnv struct {
	Root   string `env:"ACTIVATION_GATE_ROOT"`
	Config string `env:"ACTIVATION_GATE_CONFIG"`
}

func parseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return model.InputErrorf("parse env: %v", err)
	}
	return nil
}

// loadSettings layers built-in defaults, the config file, the environment
// and finally explicitly set flags.
func loadSettings(flags *pflag.FlagSet, o *checkOptions) (string, model.Config, error) {
	var loc locationEnv
	if err := parseEnv(&loc); err != nil {
		return "", model.Config{}, err
	}

	root := loc.Root
	if flags.Changed(flagRoot) {
		root = o.root
	}
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", model.Config{}, model.InputErrorf("resolve working directory: %v", err)
		}
		root = wd
	}
	root = fsutil.Canonical(root)
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return "", model.Config{}, model.InputErrorf("repository root is not a directory: %s", filepath.ToSlash(root))
	}

	configPath, required := filepath.Join(root, model.DefaultConfigFile), false
	if loc.Config != "" {
		configPath, required = fsutil.Resolve(root, loc.Config), true
	}
	if flags.Changed(flagConfig) {
		configPath, required = fsutil.Resolve(root, o.configPath), true
	}

	cfg := model.DefaultConfig()
	if err := model.LoadConfigFile(configPath, &cfg, required); err != nil {
		return "", model.Config{}, model.InputErrorf("%v", err)
	}
	if err := parseEnv(&cfg); err != nil {
		return "", model.Config{}, err
	}
	if flags.Changed(flagCatalogJSON) {
		cfg.CatalogJSON = o.catalogJSON
	}
	if flags.Changed(flagLogLevel) {
		cfg.Logging.Level = o.logLevel
	}
	return root, cfg, nil
}
