// Package progress implements the progress-observable capability design
// note 9 calls for: a (fraction, status) pair that phases report through,
// plus a Filter adapter that lets an inner phase's [0,1] fraction be
// reported as a sub-range of an outer, multi-phase fraction.
package progress

import "sync"

// Sink receives progress updates. fraction is in [-1, 1]: negative values
// signal an indeterminate/unknown-total phase (spec's "-1 means
// indeterminate"), 0..1 is determinate completion.
type Sink func(fraction float64, status string)

// Reporter is the small capability every phase is handed; phases never see
// the orchestrator, only this narrow interface, so they can be swapped
// between sequential phases without coupling them together.
type Reporter interface {
	Report(fraction float64, status string)
}

// Observable is a Reporter that fans updates out to a replaceable Sink; the
// sink can be swapped (for example between phases) while updates are being
// reported. The installer does not swap sinks: it hands each phase a Filter
// over the Reporter it was given.
type Observable struct {
	mu   sync.Mutex
	sink Sink
}

// New creates an Observable with no sink; updates are dropped until one is
// set via SetSink.
func New() *Observable {
	return &Observable{}
}

// SetSink replaces the current sink. Safe to call while updates are being
// reported from another goroutine.
func (o *Observable) SetSink(sink Sink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sink = sink
}

// Report implements Reporter.
func (o *Observable) Report(fraction float64, status string) {
	o.mu.Lock()
	sink := o.sink
	o.mu.Unlock()
	if sink != nil {
		sink(fraction, status)
	}
}

// Filter returns a Reporter that linearly maps its own [0,1] domain into
// the [lo, hi] sub-range of parent, so a phase that only knows its own
// completion can be composed into a multi-phase overall fraction without
// knowing about the other phases. Indeterminate reports (fraction < 0) pass
// through unchanged.
func Filter(parent Reporter, lo, hi float64) Reporter {
	return filterReporter{parent: parent, lo: lo, hi: hi}
}

type filterReporter struct {
	parent Reporter
	lo, hi float64
}

func (f filterReporter) Report(fraction float64, status string) {
	if fraction < 0 {
		f.parent.Report(fraction, status)
		return
	}
	mapped := f.lo + fraction*(f.hi-f.lo)
	f.parent.Report(mapped, status)
}

// Noop is a Reporter that discards every update, used by callers that don't
// care about progress (tests, one-shot CLI invocations without a bar).
var Noop Reporter = noopReporter{}

type noopReporter struct{}

func (noopReporter) Report(float64, string) {}
