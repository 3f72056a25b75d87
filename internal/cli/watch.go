package cli

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/fsnotify/fsnotify"

	"github.com/doublemover/activationgate/internal/fsutil"
	"github.com/doublemover/activationgate/internal/model"
)

func (r *runner) watchUntilSignal(ctx context.Context, exitCode *int) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return r.watch(ctx, exitCode)
}

// watchTargets lists the cleaned absolute paths of every input snapshot.
func (r *runner) watchTargets() map[string]bool {
	req := r.request
	catalogPath := req.CatalogJSON
	if catalogPath == "" {
		catalogPath = model.DefaultCatalogJSON
	}
	targets := make(map[string]bool)
	for _, raw := range []string{req.IssuesJSON, req.MilestonesJSON, catalogPath, req.OpenBlockersJSON, req.OverlayJSON} {
		if raw == "" {
			continue
		}
		targets[filepath.Clean(fsutil.Resolve(req.Root, raw))] = true
	}
	return targets
}

// watch evaluates once and then again after every write to an input
// snapshot, until ctx is done. Parent directories are watched so snapshots
// replaced by rename are still seen.
func (r *runner) watch(ctx context.Context, exitCode *int) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return model.InternalErrorf("create fsnotify watcher: %v", err)
	}
	defer watcher.Close()

	if r.output != "" {
		outputLock, err := fsutil.LockOutput(r.output)
		if err != nil {
			return model.InputErrorf("unable to lock report %s: %v", fsutil.Display(r.request.Root, r.output), err)
		}
		defer outputLock.Release()
	}

	targets := r.watchTargets()
	dirs := make(map[string]bool)
	for path := range targets {
		dirs[filepath.Dir(path)] = true
	}
	sorted := make([]string, 0, len(dirs))
	for dir := range dirs {
		sorted = append(sorted, dir)
	}
	sort.Strings(sorted)
	for _, dir := range sorted {
		if err := watcher.Add(dir); err != nil {
			return model.InputErrorf("unable to watch %s: %v", fsutil.Display(r.request.Root, dir), err)
		}
	}
	r.log(model.LogLevelInfo, "watching inputs=%d dirs=%d", len(targets), len(sorted))

	r.evaluateAndReport(exitCode)
	for {
		select {
		case <-ctx.Done():
			r.log(model.LogLevelInfo, "watch stopped")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !targets[filepath.Clean(event.Name)] {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				r.log(model.LogLevelDebug, "fsnotify event=%s file=%s", event.Op, event.Name)
				r.evaluateAndReport(exitCode)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.log(model.LogLevelError, "fsnotify error=%v", err)
		}
	}
}

func (r *runner) evaluateAndReport(exitCode *int) {
	code, err := r.evaluateOnce()
	if err != nil {
		fmt.Fprint(r.stderr, formatError(err))
	}
	*exitCode = code
}
