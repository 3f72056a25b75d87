package cli

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/doublemover/activationgate/internal/fsutil"
	"github.com/doublemover/activationgate/internal/gate"
	"github.com/doublemover/activationgate/internal/model"
	"github.com/doublemover/activationgate/internal/program"
	"github.com/doublemover/activationgate/internal/report"
)

// runner evaluates one fully configured request. It is shared by check and
// watch.
type runner struct {
	evaluator *gate.Evaluator
	request   gate.Request
	format    report.Format
	output    string

	stdout   io.Writer
	stderr   io.Writer
	clock    func() time.Time
	logger   *log.Logger
	logLevel model.LogLevel
}

// clock is replaced in tests.
var clock = time.Now

func newRunner(cmd *cobra.Command, opts *checkOptions, stdout, stderr io.Writer) (*runner, error) {
	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return nil, model.InputErrorf("argument --format: %v", err)
	}

	root, cfg, err := loadSettings(cmd.Flags(), opts)
	if err != nil {
		return nil, err
	}
	level := model.ParseLogLevel(cfg.Logging.Level)

	r := &runner{
		format:   format,
		stdout:   stdout,
		stderr:   stderr,
		clock:    clock,
		logger:   log.New(stderr, "", 0),
		logLevel: level,
	}
	if opts.output != "" {
		r.output = fsutil.Resolve(root, opts.output)
	}

	programs, err := loadPrograms(root, cfg.ProgramsFile)
	if err != nil {
		return nil, err
	}
	evalOpts := []gate.Option{
		gate.WithClock(r.clock),
		gate.WithLogger(stderr, level),
	}
	if len(cfg.ActionableStatuses) > 0 {
		evalOpts = append(evalOpts, gate.WithDefaultStatuses(cfg.ActionableStatuses))
	}
	r.evaluator = gate.NewEvaluator(programs, evalOpts...)
	r.request = opts.request(root, cfg)
	r.log(model.LogLevelDebug, "settings resolved root=%s catalog=%s programs=%d format=%s",
		root, cfg.CatalogJSON, len(programs.Programs), format)
	return r, nil
}

func loadPrograms(root, file string) (*program.Table, error) {
	if file == "" {
		t, err := program.Default()
		if err != nil {
			return nil, model.InternalErrorf("%v", err)
		}
		return t, nil
	}
	t, err := program.LoadFile(fsutil.Resolve(root, file))
	if err != nil {
		return nil, model.InputErrorf("%v", err)
	}
	return t, nil
}

// evaluateOnce runs the pipeline and writes the rendered report. Nothing is
// written to stdout when evaluation fails.
func (r *runner) evaluateOnce() (int, error) {
	rep, err := r.evaluator.Evaluate(r.request)
	if err != nil {
		r.log(model.LogLevelDebug, "evaluation failed kind=%s", model.KindOf(err))
		return model.ExitInputError, err
	}

	out, err := report.Render(rep, r.format)
	if err != nil {
		return model.ExitInputError, err
	}
	if r.output != "" {
		if err := fsutil.AtomicWrite(r.output, out, report.Validate(r.format)); err != nil {
			return model.ExitInputError, model.InputErrorf("unable to write report %s: %v",
				fsutil.Display(r.request.Root, r.output), err)
		}
		r.log(model.LogLevelInfo, "report written path=%s", fsutil.Display(r.request.Root, r.output))
	}
	if _, err := r.stdout.Write(out); err != nil {
		return model.ExitInputError, model.InputErrorf("write report: %v", err)
	}
	return rep.ExitCode, nil
}

func (r *runner) log(level model.LogLevel, format string, args ...any) {
	if level < r.logLevel {
		return
	}
	msg := fmt.Sprintf(format, args...)
	r.logger.Printf("%s %s cli: %s", r.clock().UTC().Format(time.RFC3339), level, msg)
}
