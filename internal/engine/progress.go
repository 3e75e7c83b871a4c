package engine

import "sync"

// ProgressFunc receives progress fractions in [0,1] at defined
// checkpoints. Values are reported strictly increasing; out-of-order
// reports from concurrent sub-tasks are suppressed by the tracker.
type ProgressFunc func(fraction float64)

// Progress checkpoints of the processing state machine
const (
	progressDispatched = 0.1
	progressFirstPath  = 0.5
	progressReconciled = 0.9
	progressCompleted  = 1.0
)

// progressTracker enforces the monotonicity contract around a caller
// supplied ProgressFunc
type progressTracker struct {
	mu   sync.Mutex
	last float64
	fn   ProgressFunc
}

func newProgressTracker(fn ProgressFunc) *progressTracker {
	return &progressTracker{fn: fn}
}

func (p *progressTracker) report(fraction float64) {
	if p.fn == nil {
		return
	}
	if fraction > 1 {
		fraction = 1
	}
	p.mu.Lock()
	if fraction <= p.last {
		p.mu.Unlock()
		return
	}
	p.last = fraction
	p.mu.Unlock()
	p.fn(fraction)
}
