// Package audio implements the real-time synthesis core: sixteen-channel
// multi-timbral voice engine, sample-accurate sequencer, and reorderable
// effects chain. Everything reachable from Engine.Render must be wait-free;
// see the package-level comment on Engine for the RT/non-RT boundary.
package audio

import "math"

// Waveform selects the oscillator shape a Voice evaluates each sample.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveSquare
	WaveSaw
	WaveTriangle
	WaveNoise
)

func (w Waveform) String() string {
	switch w {
	case WaveSine:
		return "sine"
	case WaveSquare:
		return "square"
	case WaveSaw:
		return "saw"
	case WaveTriangle:
		return "triangle"
	case WaveNoise:
		return "noise"
	default:
		return "unknown"
	}
}

// EnvelopeStage is the ADSR phase a Voice's envelope is currently in.
type EnvelopeStage int

const (
	StageIdle EnvelopeStage = iota
	StageAttack
	StageDecay
	StageSustain
	StageRelease
)

// ADSR holds envelope timing in seconds, with Sustain expressed as a level
// in [0,1] rather than a duration.
type ADSR struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

// DefaultADSR returns the engine-wide fallback envelope used when a note-on
// carries no per-event override.
func DefaultADSR() ADSR {
	return ADSR{Attack: 0.01, Decay: 0.1, Sustain: 0.7, Release: 0.3}
}

// NoteEvent is the decoded note-on/off payload: pitch, velocity, channel,
// and an optional per-event envelope override.
type NoteEvent struct {
	Pitch    int     // 0..127
	Velocity float64 // 0..1
	Channel  int     // 0..15
	Envelope *ADSR   // optional per-event override
}

// VoiceStealStrategy selects which voice is sacrificed when a channel's
// pool is exhausted and a new note-on arrives.
type VoiceStealStrategy int

const (
	// StealOldest picks the voice with the lowest remaining envelope value,
	// i.e. furthest into its decay/release — the metric this engine uses
	// for "oldest".
	StealOldest VoiceStealStrategy = iota
	StealQuietest
)

// VoiceBudgetStrategy selects how MultiTimbralEngine divides max_total_voices
// across active channels.
type VoiceBudgetStrategy int

const (
	BudgetEqual VoiceBudgetStrategy = iota
	BudgetPriority
	BudgetDynamic
)

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// equalPowerPan returns (left, right) gains for pan in [-1,1] such that
// left*left + right*right == 1 (equal-power panning law).
func equalPowerPan(pan float64) (left, right float64) {
	pan = clamp(pan, -1, 1)
	angle := (pan + 1) * math.Pi / 4
	return math.Cos(angle), math.Sin(angle)
}

// sinTable evaluates a sine oscillator at phase in [0,1). Voice is on the
// RT path but math.Sin is allocation-free, so a lookup table buys nothing
// here.
func sinTable(phase float64) float64 {
	return math.Sin(2 * math.Pi * phase)
}

// pow2 computes 2^x, used to convert cents/semitone offsets (fine tune,
// pitch bend) to frequency multipliers.
func pow2(x float64) float64 {
	return math.Pow(2, x)
}
