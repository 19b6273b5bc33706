package pageload

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Step names the cosmetic operation an Outcome comes from.
type Step string

const (
	StepTemplate    Step = "template"
	StepAutoBlocks  Step = "auto-blocks"
	StepFonts       Step = "fonts"
	StepLazyStyles  Step = "lazy-styles"
	StepSession     Step = "session"
	StepRemediation Step = "remediation"
	StepDelayed     Step = "delayed"
)

// Outcome is a failure that did not abort the page load.
type Outcome struct {
	Phase Phase
	Step  Step
	Err   error
}

func (o Outcome) String() string {
	return fmt.Sprintf("%s/%s: %v", o.Phase, o.Step, o.Err)
}

// DiagnosticSink receives the Outcomes of a page load.
// Implementations must be safe for concurrent use.
type DiagnosticSink interface {
	Report(ctx context.Context, o Outcome)
}

// SinkFunc adapts a function to DiagnosticSink.
type SinkFunc func(ctx context.Context, o Outcome)

// Report calls f(ctx, o).
func (f SinkFunc) Report(ctx context.Context, o Outcome) { f(ctx, o) }

// Discard drops every Outcome.
var Discard DiagnosticSink = SinkFunc(func(context.Context, Outcome) {})

// NewLogSink returns a sink logging each Outcome at warn level.
func NewLogSink(logger *slog.Logger) DiagnosticSink {
	return SinkFunc(func(ctx context.Context, o Outcome) {
		logger.WarnContext(ctx, "page load step failed",
			"phase", o.Phase.String(),
			"step", string(o.Step),
			"error", o.Err)
	})
}

// Recorder is a DiagnosticSink that keeps every Outcome in memory.
type Recorder struct {
	mu       sync.Mutex
	outcomes []Outcome
}

// Report records o.
func (r *Recorder) Report(_ context.Context, o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

// Outcomes returns a copy of the recorded outcomes in report order.
func (r *Recorder) Outcomes() []Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Outcome(nil), r.outcomes...)
}

// Steps returns the step of every recorded outcome in report order.
func (r *Recorder) Steps() []Step {
	r.mu.Lock()
	defer r.mu.Unlock()
	steps := make([]Step, len(r.outcomes))
	for i, o := range r.outcomes {
		steps[i] = o.Step
	}
	return steps
}

// Tee returns a sink forwarding every Outcome to each non-nil sink.
func Tee(sinks ...DiagnosticSink) DiagnosticSink {
	return SinkFunc(func(ctx context.Context, o Outcome) {
		for _, s := range sinks {
			if s != nil {
				s.Report(ctx, o)
			}
		}
	})
}

var (
	_ DiagnosticSink = SinkFunc(nil)
	_ DiagnosticSink = (*Recorder)(nil)
)
