package gate

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/doublemover/activationgate/internal/catalog"
	"github.com/doublemover/activationgate/internal/freshness"
	"github.com/doublemover/activationgate/internal/fsutil"
	"github.com/doublemover/activationgate/internal/jsonv"
	"github.com/doublemover/activationgate/internal/model"
	"github.com/doublemover/activationgate/internal/overlay"
	"github.com/doublemover/activationgate/internal/program"
	"github.com/doublemover/activationgate/internal/snapshot"
	"github.com/doublemover/activationgate/internal/trigger"
)

const (
	IssuesMaxAgeFlag     = "--issues-max-age-seconds"
	MilestonesMaxAgeFlag = "--milestones-max-age-seconds"
)

// Request holds the inputs of one evaluation. Relative paths resolve against
// Root; optional paths are empty when not supplied.
type Request struct {
	Root             string
	IssuesJSON       string
	MilestonesJSON   string
	CatalogJSON      string
	OpenBlockersJSON string
	OverlayJSON      string
	NewScopePublish  bool

	IssuesMaxAge     *int64
	MilestonesMaxAge *int64

	ActionableStatuses []string
}

// Evaluator runs the linear evaluation pipeline. It holds no state between
// runs, so repeated evaluations of unchanged inputs are identical.
type Evaluator struct {
	programs *program.Table
	defaults []string
	clock    func() time.Time
	logger   *log.Logger
	logLevel model.LogLevel
}

type Option func(*Evaluator)

// WithDefaultStatuses replaces the actionable statuses used when a request
// names none.
func WithDefaultStatuses(statuses []string) Option {
	return func(e *Evaluator) { e.defaults = append([]string(nil), statuses...) }
}

// WithClock replaces the wall clock read once per evaluation.
func WithClock(clock func() time.Time) Option {
	return func(e *Evaluator) { e.clock = clock }
}

// WithLogger sends debug and info lines to w at or above level.
func WithLogger(w io.Writer, level model.LogLevel) Option {
	return func(e *Evaluator) {
		e.logger = log.New(w, "", 0)
		e.logLevel = level
	}
}

func NewEvaluator(programs *program.Table, opts ...Option) *Evaluator {
	e := &Evaluator{
		programs: programs,
		defaults: trigger.DefaultActionableStatuses,
		clock:    time.Now,
		logger:   log.New(io.Discard, "", 0),
		logLevel: model.LogLevelError,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate validates every input and builds the report. The first failure
// aborts the run; no partial report is returned.
func (e *Evaluator) Evaluate(req Request) (*model.Report, error) {
	statuses, err := trigger.NormalizeActionableStatuses(req.ActionableStatuses, e.defaults)
	if err != nil {
		return nil, err
	}

	root := req.Root
	catalogRaw := req.CatalogJSON
	if catalogRaw == "" {
		catalogRaw = model.DefaultCatalogJSON
	}
	issuesPath := fsutil.Resolve(root, req.IssuesJSON)
	milestonesPath := fsutil.Resolve(root, req.MilestonesJSON)
	catalogPath := fsutil.Resolve(root, catalogRaw)
	var blockersPath, overlayPath string
	if req.OpenBlockersJSON != "" {
		blockersPath = fsutil.Resolve(root, req.OpenBlockersJSON)
	}
	if req.OverlayJSON != "" {
		overlayPath = fsutil.Resolve(root, req.OverlayJSON)
	}
	display := func(path string) string { return fsutil.Display(root, path) }

	now := e.clock().UTC().Truncate(time.Second)
	e.log(model.LogLevelDebug, "evaluation started now_utc=%s root=%s", snapshot.FormatUTC(now), root)

	issuesPayload, err := load(issuesPath, "open issues snapshot", display(issuesPath))
	if err != nil {
		return nil, err
	}
	milestonesPayload, err := load(milestonesPath, "open milestones snapshot", display(milestonesPath))
	if err != nil {
		return nil, err
	}
	catalogPayload, err := load(catalogPath, "remaining-task catalog", display(catalogPath))
	if err != nil {
		return nil, err
	}

	issues, err := snapshot.ParseOpen(issuesPayload, snapshot.LabelIssues, display(issuesPath))
	if err != nil {
		return nil, err
	}
	milestones, err := snapshot.ParseOpen(milestonesPayload, snapshot.LabelMilestones, display(milestonesPath))
	if err != nil {
		return nil, err
	}
	catalogShell, err := snapshot.ParseCatalog(catalogPayload, display(catalogPath))
	if err != nil {
		return nil, err
	}
	validator := &catalog.Validator{Root: root, Programs: e.programs}
	catalogResult, err := validator.Validate(catalogShell, trigger.StatusSet(statuses), display(catalogPath))
	if err != nil {
		return nil, err
	}
	e.log(model.LogLevelDebug, "snapshots validated open_issues=%d open_milestones=%d catalog_tasks=%d actionable_rows=%d",
		issues.Count, milestones.Count, catalogResult.Tasks, catalogResult.ActionableRows)

	blockers := model.OpenBlockersState{}
	if blockersPath != "" {
		payload, err := load(blockersPath, "open blockers snapshot", display(blockersPath))
		if err != nil {
			return nil, err
		}
		rows, err := snapshot.ParseBlockers(payload, display(blockersPath))
		if err != nil {
			return nil, err
		}
		blockers = model.OpenBlockersState{Count: len(rows), Path: blockersPath}
		e.log(model.LogLevelDebug, "open blockers validated count=%d", blockers.Count)
	}

	issuesFreshness, err := freshness.Evaluate(issuesPayload, freshness.Check{
		Label:   snapshot.LabelIssues,
		Display: display(issuesPath),
		Flag:    IssuesMaxAgeFlag,
		MaxAge:  req.IssuesMaxAge,
	}, now)
	if err != nil {
		return nil, err
	}
	milestonesFreshness, err := freshness.Evaluate(milestonesPayload, freshness.Check{
		Label:   snapshot.LabelMilestones,
		Display: display(milestonesPath),
		Flag:    MilestonesMaxAgeFlag,
		MaxAge:  req.MilestonesMaxAge,
	}, now)
	if err != nil {
		return nil, err
	}

	var overlayDisplay string
	if overlayPath != "" {
		overlayDisplay = display(overlayPath)
	}
	overlayState, err := overlay.Resolve(req.NewScopePublish, overlayPath, overlayDisplay)
	if err != nil {
		return nil, err
	}

	triggers, err := trigger.Evaluate(trigger.Counts{
		OpenIssues:     issues.Count,
		OpenMilestones: milestones.Count,
		ActionableRows: catalogResult.ActionableRows,
		OpenBlockers:   blockers.Count,
	})
	if err != nil {
		return nil, err
	}
	decision := Reduce(triggers, overlayState)
	e.log(model.LogLevelInfo, "gate evaluated gate_open=%t active=%v overlay_source=%s",
		decision.GateOpen, decision.ActiveTriggerIDs, overlayState.Source)

	inputs := model.ReportInputs{
		IssuesJSON:     display(issuesPath),
		MilestonesJSON: display(milestonesPath),
		CatalogJSON:    display(catalogPath),
	}
	if blockers.Path != "" {
		p := display(blockers.Path)
		inputs.OpenBlockersJSON = &p
	}
	if overlayState.Path != "" {
		p := display(overlayState.Path)
		inputs.OverlayJSON = &p
	}

	return &model.Report{
		Mode:               model.ReportMode,
		ContractID:         model.ContractID,
		FailClosed:         true,
		Inputs:             inputs,
		ActionableStatuses: statuses,
		TriggerOrder:       append([]model.TriggerID(nil), trigger.Order...),
		Freshness: model.ReportFreshness{
			Issues:     issuesFreshness,
			Milestones: milestonesFreshness,
		},
		Triggers:           triggers,
		ActiveTriggerIDs:   decision.ActiveTriggerIDs,
		ActivationRequired: decision.ActivationRequired,
		OpenBlockers: model.OpenBlockersSummary{
			Count:        blockers.Count,
			TriggerID:    model.TriggerOpenBlockers,
			TriggerFired: blockers.Count > 0,
		},
		Overlay: model.OverlaySummary{
			NewScopePublish: overlayState.NewScopePublish,
			Source:          overlayState.Source,
		},
		GateOpen:   decision.GateOpen,
		QueueState: decision.QueueState,
		ExitCode:   decision.ExitCode,
	}, nil
}

func load(path, label, display string) (*jsonv.Value, error) {
	v, err := jsonv.Load(path, label, display)
	if err != nil {
		return nil, model.AsKind(err, model.KindInput)
	}
	return v, nil
}

func (e *Evaluator) log(level model.LogLevel, format string, args ...any) {
	if level < e.logLevel {
		return
	}
	msg := fmt.Sprintf(format, args...)
	e.logger.Printf("%s %s gate: %s", e.clock().UTC().Format(time.RFC3339), level, msg)
}
