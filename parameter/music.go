// Package parameter collects tuning constants shared across the audio
// engine, sequencer, and effects chain — the numbers a sound designer would
// want in one place rather than scattered through the component files that
// use them.
package parameter

import "time"

// Audio hardware defaults
const (
	AudioSampleRate = 44100
	AudioChannels   = 2
)

// Voice and channel limits
const (
	MaxMIDIChannels      = 16
	MaxVoicesPerChannel  = 16
	MaxTotalVoices       = 64
	DefaultBendRangeSemi = 2 //  Open Questions: pitch-bend range default
)

// Default ADSR (seconds, except Sustain which is a level) applied when a
// note-on carries no per-event envelope override.
const (
	DefaultAttack  = 0.01
	DefaultDecay   = 0.1
	DefaultSustain = 0.7
	DefaultRelease = 0.3
)

// Tempo and timing
const (
	DefaultBPM    = 120
	MinBPM        = 20
	MaxBPM        = 300
	StepsPerBeat  = 4                          // 16th notes
	BeatsPerBar   = 4                          // 4/4 time
	StepsPerBar   = StepsPerBeat * BeatsPerBar // 16 steps
	MaxPatternLen = 256                        // max distinct notes per pattern
)

// SamplesPerStep returns the sample count of one sequencer step at bpm.
func SamplesPerStep(bpm int) int {
	if bpm <= 0 {
		bpm = DefaultBPM
	}
	return AudioSampleRate * 60 / (bpm * StepsPerBeat)
}

// SamplesPerBar returns the sample count of one bar at bpm.
func SamplesPerBar(bpm int) int {
	return SamplesPerStep(bpm) * StepsPerBar
}

// Error handler timing budgets
const (
	RealtimeRecoveryTimeout   = 100 * time.Microsecond
	ControlRecoveryTimeoutMin = time.Millisecond
	ControlRecoveryTimeoutMax = time.Second
	DefaultMaxHistory         = 512
	DefaultRTQueueCapacity    = 256
)

// Safety
const (
	DefaultClipThreshold = 1.0
	ClipHeadroom         = 0.05
)

// pow2 computes 2^x via a truncated Taylor series, avoiding a math import
// for the one call site that needs it before init-time tables exist.
func pow2(x float64) float64 {
	const ln2 = 0.693147180559945
	y := x * ln2
	sum := 1.0
	term := 1.0
	for i := 1; i < 20; i++ {
		term *= y / float64(i)
		sum += term
	}
	return sum
}

// NoteFrequencies holds precomputed equal-temperament frequencies for every
// MIDI note 0-127 (A4 = note 69 = 440Hz).
var NoteFrequencies [128]float64

func init() {
	for i := range NoteFrequencies {
		NoteFrequencies[i] = 440.0 * pow2((float64(i)-69.0)/12.0)
	}
}

// NoteFreq returns the frequency in Hz for a MIDI note number, clamping out
// of range input to the nearest valid note.
func NoteFreq(midi int) float64 {
	if midi < 0 {
		midi = 0
	} else if midi > 127 {
		midi = 127
	}
	return NoteFrequencies[midi]
}

// Note names (semitone offset within an octave), kept for readable test
// fixtures and demo scenarios.
const (
	NoteC  = 0
	NoteCs = 1
	NoteDb = 1
	NoteD  = 2
	NoteDs = 3
	NoteEb = 3
	NoteE  = 4
	NoteF  = 5
	NoteFs = 6
	NoteGb = 6
	NoteG  = 7
	NoteGs = 8
	NoteAb = 8
	NoteA  = 9
	NoteAs = 10
	NoteBb = 10
	NoteB  = 11
)

// MIDINote computes a MIDI note number from a note name and octave using
// MIDI octave numbering (C-1 = 0, C4 = 60 = middle C).
func MIDINote(note, octave int) int {
	return (octave+1)*12 + note
}
