package pageload

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one browser is available.
	MinPoolSize = 1

	// MaxPoolSize caps browser instances to limit memory (~200MB each).
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// ErrPoolClosed is returned by captures on a closed pool.
var ErrPoolClosed = errors.New("snapshotter pool closed")

// SnapshotterPool shares a bounded set of browsers between goroutines.
// Each Capturer owns one browser. Capturers are created lazily on first
// acquire to avoid startup delay.
type SnapshotterPool struct {
	size      int
	newWorker func() Capturer
	workers   []Capturer
	sem       chan Capturer
	mu        sync.Mutex
	created   int
	closed    bool
}

// NewSnapshotterPool creates a pool of up to n Snapshotters using timeout.
func NewSnapshotterPool(n int, timeout time.Duration) *SnapshotterPool {
	return newPool(n, func() Capturer { return NewSnapshotter(timeout) })
}

func newPool(n int, newWorker func() Capturer) *SnapshotterPool {
	if n < MinPoolSize {
		n = MinPoolSize
	}
	return &SnapshotterPool{
		size:      n,
		newWorker: newWorker,
		workers:   make([]Capturer, 0, n),
		sem:       make(chan Capturer, n),
	}
}

// Acquire gets a Capturer from the pool, creating one if capacity allows.
// It blocks until one is free or ctx is done.
func (p *SnapshotterPool) Acquire(ctx context.Context) (Capturer, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	select {
	case w := <-p.sem:
		p.mu.Unlock()
		return w, nil
	default:
	}
	if p.created < p.size {
		p.created++
		w := p.newWorker()
		p.workers = append(p.workers, w)
		p.mu.Unlock()
		return w, nil
	}
	p.mu.Unlock()

	select {
	case w, ok := <-p.sem:
		if !ok || p.isClosed() {
			return nil, ErrPoolClosed
		}
		return w, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *SnapshotterPool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Release returns a Capturer to the pool.
// The lock is held while sending so Close cannot close the channel
// underneath; the channel never fills since it holds every worker.
func (p *SnapshotterPool) Release(w Capturer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.sem <- w
}

// Capture runs a capture on a pooled Capturer.
func (p *SnapshotterPool) Capture(ctx context.Context, html string, opts *CaptureOptions) ([]byte, error) {
	w, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.Release(w)
	return w.Capture(ctx, html, opts)
}

// Close releases all browser resources.
// Returns an aggregated error if several browsers fail to close.
func (p *SnapshotterPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sem)
	workers := p.workers
	p.mu.Unlock()

	var errs []error
	for _, w := range workers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *SnapshotterPool) Size() int {
	return p.size
}

var _ Capturer = (*SnapshotterPool)(nil)

// ResolvePoolSize determines the pool size.
// Priority: explicit workers > GOMAXPROCS-based calculation.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is adjusted by automaxprocs in containers
	n := runtime.GOMAXPROCS(0) / cpuDivisor
	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
