package audio

import (
	"math"
	"sync/atomic"
)

// SmoothParameter ramps a control value toward a target to avoid zipper
// noise on the audio thread, with a linear snap threshold: once within
// snapThreshold of the target the value
// jumps the rest of the way, so it actually reaches the target in finite
// time instead of approaching it asymptotically forever.
//
// target is a plain atomic float (stored as bits behind atomic.Uint64, Go
// having no native atomic float64) so any control thread can call
// SetTarget without a lock while the audio thread's Process reads it with
// a single relaxed load — the exact split needed between a control-thread
// writer and an audio-thread reader of SmoothParameter.target. current is
// audio-thread-only and needs no synchronization.
type SmoothParameter struct {
	current float64
	target  atomic.Uint64 // math.Float64bits(target)
	coeff   float64       // per-sample exponential coefficient, 0..1

	snapThreshold float64
}

// NewSmoothParameter creates a parameter at initial with the given
// per-sample smoothing coefficient (closer to 1 = slower ramp).
func NewSmoothParameter(initial, coeff float64) *SmoothParameter {
	p := &SmoothParameter{
		current:       initial,
		coeff:         clamp(coeff, 0, 0.999999),
		snapThreshold: 1e-5,
	}
	p.target.Store(math.Float64bits(initial))
	return p
}

// SetTarget schedules a new target value for the ramp to approach. Safe
// from any thread.
func (p *SmoothParameter) SetTarget(v float64) { p.target.Store(math.Float64bits(v)) }

// SetImmediate sets both current and target to v, bypassing the ramp.
// Audio-thread only — current is not synchronized.
func (p *SmoothParameter) SetImmediate(v float64) {
	p.current = v
	p.target.Store(math.Float64bits(v))
}

// SetCoefficient changes the ramp speed. 0 means snap-immediately smoothing
// (current tracks target every sample); values near 1 ramp very slowly.
func (p *SmoothParameter) SetCoefficient(coeff float64) {
	p.coeff = clamp(coeff, 0, 0.999999)
}

// SetSnapThreshold sets the distance below which the ramp snaps current
// straight to target instead of continuing the exponential approach.
func (p *SmoothParameter) SetSnapThreshold(t float64) {
	if t > 0 {
		p.snapThreshold = t
	}
}

// Current returns the last computed value without advancing the ramp.
// Audio-thread only.
func (p *SmoothParameter) Current() float64 { return p.current }

// Target returns the value the ramp is approaching, via a relaxed atomic
// load. Safe from any thread.
func (p *SmoothParameter) Target() float64 { return math.Float64frombits(p.target.Load()) }

// IsSmoothing reports whether current has not yet snapped to target.
func (p *SmoothParameter) IsSmoothing() bool {
	diff := p.Target() - p.current
	return math.Abs(diff) > p.snapThreshold
}

// Process advances the ramp by one sample and returns the new current
// value. Audio-thread only.
func (p *SmoothParameter) Process() float64 {
	target := p.Target()
	diff := target - p.current
	if diff < 0 {
		diff = -diff
	}
	if diff <= p.snapThreshold {
		p.current = target
		return p.current
	}
	p.current = target + (p.current-target)*p.coeff
	return p.current
}

// ProcessBuffer advances the ramp len(out) times, filling out with each
// successive value. Caches the target once up front rather than calling Process, which would reload it
// every sample.
func (p *SmoothParameter) ProcessBuffer(out []float64) {
	target := p.Target()
	for i := range out {
		diff := target - p.current
		if diff < 0 {
			diff = -diff
		}
		if diff <= p.snapThreshold {
			p.current = target
		} else {
			p.current = target + (p.current-target)*p.coeff
		}
		out[i] = p.current
	}
}

// smoothingCoeffForMs converts a ramp time in milliseconds to the
// per-sample exponential coefficient at sampleRate, following the standard
// time-constant approximation coeff = exp(-1/(tau*sr)) used throughout the
// effects in this package (e.g. compressor attack/release).
func smoothingCoeffForMs(ms float64, sampleRate int) float64 {
	if ms <= 0 {
		return 0
	}
	tau := ms / 1000.0
	return math.Exp(-1.0 / (tau * float64(sampleRate)))
}
