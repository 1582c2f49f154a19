package audio

import "sync/atomic"

// PatternNote is one scheduled event in a Pattern.
type PatternNote struct {
	Pitch         int
	Velocity      float64
	StartBeat     float64
	DurationBeats float64
	Channel       int
	Envelope      *ADSR // optional per-note override
}

// Pattern is an ordered sequence of notes played by the Sequencer. Start
// and duration are fractional beats; the sequence itself need not be
// sorted by StartBeat (process scans the whole pattern every tick, which
// is cheap at the pattern sizes this module targets — parameter.MaxPatternLen).
type Pattern struct {
	Notes []PatternNote
}

// sequencerState is the immutable, atomically-swapped snapshot the RT
// thread reads each Process call — mirrors the chain/modulation-matrix
// handoff pattern.
type sequencerState struct {
	pattern *Pattern
}

// noteOnFunc/noteOffFunc/tickFunc are the Sequencer's three callbacks into
// the engine. The sequencer holds no owning reference to the
// engine — these are injected at wiring time.
type noteOnFunc func(pitch int, velocity float64, channel int, env *ADSR)
type noteOffFunc func(pitch int, channel int)
type tickFunc func(positionBeats float64, bar, beat int)

// Sequencer drives note-on/off callbacks with musical-time precision,
// synchronized to the audio stream's frame clock.
type Sequencer struct {
	state atomic.Pointer[sequencerState]

	patterns []*Pattern
	current  int

	tempoBPM       float64
	timeSigNum     int
	timeSigDen     int
	positionBeats  float64
	playing        bool
	looping        bool
	loopLengthBeats float64

	OnNoteOn  noteOnFunc
	OnNoteOff noteOffFunc
	OnTick    tickFunc

	lastTickBar  int
	lastTickBeat int
}

// NewSequencer returns a stopped sequencer at 120 BPM, 4/4, with no
// patterns loaded.
func NewSequencer() *Sequencer {
	s := &Sequencer{
		tempoBPM:        120,
		timeSigNum:      4,
		timeSigDen:      4,
		looping:         false,
		loopLengthBeats: 4,
		current:         -1,
	}
	s.state.Store(&sequencerState{})
	return s
}

// AddPattern appends p and returns its index.
func (s *Sequencer) AddPattern(p *Pattern) int {
	s.patterns = append(s.patterns, p)
	if s.current < 0 {
		s.SetCurrentPattern(0)
	}
	return len(s.patterns) - 1
}

// SetCurrentPattern selects pattern i for playback by swapping the atomic
// snapshot pointer. An out-of-range index leaves the transport unchanged.
func (s *Sequencer) SetCurrentPattern(i int) {
	if i < 0 || i >= len(s.patterns) {
		return
	}
	s.current = i
	s.state.Store(&sequencerState{pattern: s.patterns[i]})
}

// Start begins playback without resetting position.
func (s *Sequencer) Start() { s.playing = true }

// Stop halts playback and resets position to the top.
func (s *Sequencer) Stop() {
	s.playing = false
	s.positionBeats = 0
}

// Pause halts playback, preserving position.
func (s *Sequencer) Pause() { s.playing = false }

// IsPlaying reports transport state.
func (s *Sequencer) IsPlaying() bool { return s.playing }

// SetTempo sets BPM. A non-positive value is ignored.
func (s *Sequencer) SetTempo(bpm float64) {
	if bpm <= 0 {
		return
	}
	s.tempoBPM = bpm
}

// Tempo returns the current BPM.
func (s *Sequencer) Tempo() float64 { return s.tempoBPM }

// SetTimeSignature sets num/den for advisory tick reporting.
func (s *Sequencer) SetTimeSignature(num, den int) {
	if num > 0 {
		s.timeSigNum = num
	}
	if den > 0 {
		s.timeSigDen = den
	}
}

// SetLooping toggles loop playback.
func (s *Sequencer) SetLooping(on bool) { s.looping = on }

// SetLoopLength sets the loop length in beats.
func (s *Sequencer) SetLoopLength(beats float64) {
	if beats > 0 {
		s.loopLengthBeats = beats
	}
}

// Position returns the current transport position in beats.
func (s *Sequencer) Position() float64 { return s.positionBeats }

// Synchronize reconciles position with an externally-tracked time in
// seconds, correcting accumulated drift.
func (s *Sequencer) Synchronize(externalSeconds float64) {
	s.positionBeats = externalSeconds * s.tempoBPM / 60.0
}

// Process advances the transport by deltaSeconds and fires note callbacks
// for every event whose start/end falls in the traversed interval. This is
// the RT entry point called once per audio callback with
// delta = frames/sampleRate; it performs no allocation beyond reading the
// already-swapped snapshot pointer.
func (s *Sequencer) Process(deltaSeconds float64) {
	if !s.playing {
		return
	}
	st := s.state.Load()
	if st == nil || st.pattern == nil {
		s.positionBeats += deltaSeconds * s.tempoBPM / 60.0
		return
	}

	prev := s.positionBeats
	next := prev + deltaSeconds*s.tempoBPM/60.0

	if s.looping && s.loopLengthBeats > 0 && next >= wrapBoundary(prev, s.loopLengthBeats) {
		// Split the interval at the wrap point so both halves of the loop
		// are scanned.
		boundary := wrapBoundary(prev, s.loopLengthBeats)
		s.fireInterval(st.pattern, prev, boundary)
		wrappedPrev := 0.0
		wrappedNext := next - boundary
		for wrappedNext >= s.loopLengthBeats {
			s.fireInterval(st.pattern, wrappedPrev, s.loopLengthBeats)
			wrappedNext -= s.loopLengthBeats
			wrappedPrev = 0
		}
		s.fireInterval(st.pattern, wrappedPrev, wrappedNext)
		next = wrappedNext
	} else {
		s.fireInterval(st.pattern, prev, next)
	}

	s.positionBeats = next
	s.emitTick()
}

// wrapBoundary returns the next multiple of loopLen strictly greater than
// prev — the position at which the loop wraps.
func wrapBoundary(prev, loopLen float64) float64 {
	n := float64(int(prev/loopLen)) + 1
	return n * loopLen
}

// fireInterval fires note-on for every note whose StartBeat lies in
// [from, to) and note-off for every note whose end lies in [from, to).
func (s *Sequencer) fireInterval(p *Pattern, from, to float64) {
	if to <= from {
		return
	}
	for i := range p.Notes {
		n := &p.Notes[i]
		if n.StartBeat >= from && n.StartBeat < to {
			if s.OnNoteOn != nil {
				s.OnNoteOn(n.Pitch, n.Velocity, n.Channel, n.Envelope)
			}
		}
		end := n.StartBeat + n.DurationBeats
		if end >= from && end < to {
			if s.OnNoteOff != nil {
				s.OnNoteOff(n.Pitch, n.Channel)
			}
		}
	}
}

func (s *Sequencer) emitTick() {
	if s.OnTick == nil {
		return
	}
	beatsPerBar := float64(s.timeSigNum)
	if beatsPerBar <= 0 {
		beatsPerBar = 4
	}
	bar := int(s.positionBeats / beatsPerBar)
	beat := int(s.positionBeats) % int(beatsPerBar)
	if bar != s.lastTickBar || beat != s.lastTickBeat {
		s.OnTick(s.positionBeats, bar, beat)
		s.lastTickBar, s.lastTickBeat = bar, beat
	}
}
