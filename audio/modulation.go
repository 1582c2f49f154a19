package audio

import "sync/atomic"

// ModSource identifies a modulation signal origin.
type ModSource int

const (
	SourceLFO1 ModSource = iota
	SourceLFO2
	SourceEnvelope
	SourceVelocity
	SourceAftertouch
	SourceModWheel
)

// ModDestination identifies a modulatable parameter target.
type ModDestination int

const (
	DestPitch ModDestination = iota
	DestFilterCutoff
	DestAmplitude
	DestPan
)

// modRoute is one source->destination link with a signed depth.
type modRoute struct {
	source ModSource
	dest   ModDestination
	amount float64 // -1..1
}

// ModulationMatrix routes modulation sources to destinations with a scalar
// amount each. Routes are mutated only from the control thread; the audio
// thread reads an immutable snapshot slice via Snapshot, published through
// an atomic pointer swap — the same handoff pattern the effects chain uses.
type ModulationMatrix struct {
	routes []modRoute // control-thread-owned working copy
	snap   atomic.Pointer[[]modRoute]
}

// NewModulationMatrix returns an empty matrix.
func NewModulationMatrix() *ModulationMatrix {
	m := &ModulationMatrix{}
	m.publish()
	return m
}

// publish copies the working route set into a fresh slice and swaps it in.
// Allocates — control thread only.
func (m *ModulationMatrix) publish() {
	snapshot := make([]modRoute, len(m.routes))
	copy(snapshot, m.routes)
	m.snap.Store(&snapshot)
}

// AddRoute adds or updates the amount for a source/destination pair.
// O(n) in current route count, which in practice stays small: the handful
// of sources and destinations in the taxonomy bounds it, not a big-O
// promise beyond that.
func (m *ModulationMatrix) AddRoute(source ModSource, dest ModDestination, amount float64) {
	amount = clamp(amount, -1, 1)
	for i := range m.routes {
		if m.routes[i].source == source && m.routes[i].dest == dest {
			m.routes[i].amount = amount
			m.publish()
			return
		}
	}
	m.routes = append(m.routes, modRoute{source: source, dest: dest, amount: amount})
	m.publish()
}

// RemoveRoute deletes the route for a source/destination pair, if any.
func (m *ModulationMatrix) RemoveRoute(source ModSource, dest ModDestination) {
	for i := range m.routes {
		if m.routes[i].source == source && m.routes[i].dest == dest {
			m.routes = append(m.routes[:i], m.routes[i+1:]...)
			m.publish()
			return
		}
	}
}

// Clear removes every route.
func (m *ModulationMatrix) Clear() {
	m.routes = m.routes[:0]
	m.publish()
}

// Snapshot returns the most recently published route set. Wait-free — a
// single atomic pointer load, never an allocation — so it is safe to call
// once per sample from the audio thread. The returned slice is immutable;
// a concurrent control-thread edit publishes a new one instead of touching
// it.
func (m *ModulationMatrix) Snapshot() []modRoute {
	if p := m.snap.Load(); p != nil {
		return *p
	}
	return nil
}

// Apply evaluates every route against the given source values and
// accumulates the signed modulation total for each destination into out.
// values must be indexed by ModSource; out is indexed by ModDestination.
// Both are caller-owned fixed arrays to keep this call allocation-free.
func Apply(routes []modRoute, values [6]float64, out *[4]float64) {
	for _, r := range routes {
		out[r.dest] += values[r.source] * r.amount
	}
}
