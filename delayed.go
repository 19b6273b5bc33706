package pageload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/alnah/go-pageload/internal/aria"
	"github.com/alnah/go-pageload/internal/blocks"
)

// Snapshot is the state of a page at the end of the remediation phase.
// Delayed tasks only see the snapshot, never the live document.
type Snapshot struct {
	HTML         string
	URL          string
	Report       *aria.Report
	ScrollTarget string
	FontsLoaded  bool
	TakenAt      time.Time
}

// DelayedTask is work that must not compete with page rendering, such as
// analytics or archiving. Tasks run one after the other.
type DelayedTask func(ctx context.Context, snap Snapshot) error

// scheduleFunc runs fn after d and returns a function canceling it.
type scheduleFunc func(d time.Duration, fn func()) (stop func() bool)

func afterFunc(d time.Duration, fn func()) func() bool {
	return time.AfterFunc(d, fn).Stop
}

// DelayedRun tracks the delayed work of one page load.
type DelayedRun struct {
	stop func() bool
	done chan struct{}

	mu       sync.Mutex
	err      error
	finished bool
}

// Done is closed once the delayed work finished or was stopped.
func (r *DelayedRun) Done() <-chan struct{} { return r.done }

// Err returns the joined task failures, ErrDelayedCanceled after Stop, or
// nil. It is only meaningful once Done is closed.
func (r *DelayedRun) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Wait blocks until the delayed work finishes or ctx is done.
func (r *DelayedRun) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop cancels the delayed work if it has not started yet.
// It reports whether the call canceled it.
func (r *DelayedRun) Stop() bool {
	if r.stop == nil || !r.stop() {
		return false
	}
	r.finish(ErrDelayedCanceled)
	return true
}

func (r *DelayedRun) finish(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished {
		return
	}
	r.finished = true
	r.err = err
	close(r.done)
}

func (l *Loader) scheduleDelayed(snap Snapshot, env Environment) *DelayedRun {
	run := &DelayedRun{done: make(chan struct{})}
	run.stop = l.schedule(l.delay, func() {
		run.finish(l.runDelayed(snap, env))
	})
	return run
}

// runDelayed executes the tasks detached from the request that loaded the page.
func (l *Loader) runDelayed(snap Snapshot, env Environment) (err error) {
	ctx := context.Background()
	if l.delayedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.delayedTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: delayed phase: %v", ErrInternal, r)
		}
		l.hooks.delayed(err)
	}()

	var errs []error
	for i, task := range l.tasks {
		if err := runTask(ctx, task, snap); err != nil {
			err = fmt.Errorf("%w: task %d: %w", ErrDelayedTask, i, err)
			o := Outcome{Phase: PhaseDelayed, Step: StepDelayed, Err: err}
			env.Diagnostics.Report(ctx, o)
			l.hooks.outcome(ctx, o)
			l.logger.Warn("delayed task failed", "task", i, "url", snap.URL, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func runTask(ctx context.Context, task DelayedTask, snap Snapshot) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return err
	}
	return task(ctx, snap)
}

// LogSnapshot returns a task logging a summary of the loaded page.
func LogSnapshot(logger *slog.Logger) DelayedTask {
	return func(ctx context.Context, snap Snapshot) error {
		logger.InfoContext(ctx, "page settled",
			"url", snap.URL,
			"bytes", len(snap.HTML),
			"remediations", snap.Report.Changes(),
			"fonts", snap.FontsLoaded,
			"scroll_target", snap.ScrollTarget)
		return nil
	}
}

// WriteSnapshot returns a task archiving the snapshot HTML in dir, under a
// name derived from the page URL and the snapshot time.
func WriteSnapshot(dir string) DelayedTask {
	return func(ctx context.Context, snap Snapshot) error {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating snapshot directory: %w", err)
		}
		path := filepath.Join(dir, SnapshotFileName(snap))
		if err := os.WriteFile(path, []byte(snap.HTML), 0o644); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
		return nil
	}
}

// SnapshotFileName names the archive of snap, e.g. "docs-intro-20260102T150405.html".
func SnapshotFileName(snap Snapshot) string {
	name := snap.URL
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	if i := strings.Index(name, "://"); i >= 0 {
		name = name[i+3:]
		if j := strings.IndexByte(name, '/'); j >= 0 {
			name = name[j:]
		} else {
			name = ""
		}
	}
	name = blocks.ToClassName(strings.ReplaceAll(name, "/", "-"))
	if name == "" {
		name = "index"
	}
	return name + "-" + snap.TakenAt.UTC().Format("20060102T150405") + ".html"
}
