package audio

// VoiceManager owns a fixed-capacity pool of Voice and implements the
// first-idle-else-steal allocation policy. One VoiceManager backs one
// ChannelSynthesizer; capacity changes happen off the RT thread and take
// effect by rebuilding the pool.
type VoiceManager struct {
	voices   []*Voice
	strategy VoiceStealStrategy

	seq uint64 // monotonically increasing allocation stamp

	sampleRate int
}

// NewVoiceManager builds a pool of count idle voices at sampleRate.
func NewVoiceManager(count, sampleRate int, strategy VoiceStealStrategy) *VoiceManager {
	vm := &VoiceManager{strategy: strategy, sampleRate: sampleRate}
	vm.SetVoiceCount(count)
	return vm
}

// SetVoiceCount resizes the pool. Growing adds idle voices; shrinking drops
// the excess, forcing any sounding notes among them to stop immediately.
// Not RT-safe — call only from the control thread.
func (vm *VoiceManager) SetVoiceCount(count int) {
	if count < 0 {
		count = 0
	}
	if count == len(vm.voices) {
		return
	}
	if count < len(vm.voices) {
		vm.voices = vm.voices[:count]
		return
	}
	for len(vm.voices) < count {
		vm.voices = append(vm.voices, NewVoice(vm.sampleRate))
	}
}

// Count returns pool capacity.
func (vm *VoiceManager) Count() int { return len(vm.voices) }

// ActiveCount returns the number of currently sounding voices.
func (vm *VoiceManager) ActiveCount() int {
	n := 0
	for _, v := range vm.voices {
		if v.Active() {
			n++
		}
	}
	return n
}

// SetSampleRate propagates a sample-rate change to every pooled voice.
func (vm *VoiceManager) SetSampleRate(sr int) {
	vm.sampleRate = sr
	for _, v := range vm.voices {
		v.SetSampleRate(sr)
	}
}

// SetStealStrategy changes which voice is sacrificed on pool exhaustion.
func (vm *VoiceManager) SetStealStrategy(s VoiceStealStrategy) { vm.strategy = s }

// findIdle returns the first idle voice, or nil if the pool is full.
func (vm *VoiceManager) findIdle() *Voice {
	for _, v := range vm.voices {
		if !v.Active() {
			return v
		}
	}
	return nil
}

// steal picks a victim among active voices per the configured strategy.
// StealOldest picks the voice furthest into decay/release (lowest envelope
// value); StealQuietest picks the voice with the lowest audible level,
// i.e. envelope value scaled by velocity — the metric this engine uses to
// approximate perceived loudness.
func (vm *VoiceManager) steal() *Voice {
	var victim *Voice
	best := -1.0
	for _, v := range vm.voices {
		metric := v.EnvValue()
		if vm.strategy == StealQuietest {
			metric = v.EnvValue() * v.amp
		}
		if victim == nil || metric < best {
			victim = v
			best = metric
		}
	}
	return victim
}

// Allocate finds a voice for a new note-on: an idle voice if one exists,
// otherwise a stolen active voice. The returned voice carries a fresh
// allocation stamp so note-off can identify the oldest of several voices
// sounding the same pitch. Returns nil only if the pool has zero capacity.
func (vm *VoiceManager) Allocate() *Voice {
	if len(vm.voices) == 0 {
		return nil
	}
	v := vm.findIdle()
	if v == nil {
		v = vm.steal()
	}
	if v != nil {
		v.startSeq = vm.seq
		vm.seq++
	}
	return v
}

// FindByPitch returns the active, non-sustained voice sounding pitch on the
// given channel, for note-off matching. Sustained voices are excluded so a
// note-off arriving while the pedal is held doesn't retrigger a steal.
func (vm *VoiceManager) FindByPitch(channel, pitch int) *Voice {
	for _, v := range vm.voices {
		if v.Active() && v.Channel() == channel && v.Pitch() == pitch {
			return v
		}
	}
	return nil
}

// AllActive returns every currently sounding voice, most recent last.
// Allocates — control-thread callers only (e.g. pitch-bend retuning); the
// RT-reachable mono-mode path in ChannelSynthesizer uses FirstActive
// instead.
func (vm *VoiceManager) AllActive() []*Voice {
	out := make([]*Voice, 0, len(vm.voices))
	for _, v := range vm.voices {
		if v.Active() {
			out = append(out, v)
		}
	}
	return out
}

// FirstActive returns the first currently sounding voice, or nil if none.
// Allocation-free, so it's safe on the sequencer's RT-thread note
// callbacks — used by mono-mode channels, which only ever have one voice
// sounding at a time.
func (vm *VoiceManager) FirstActive() *Voice {
	for _, v := range vm.voices {
		if v.Active() {
			return v
		}
	}
	return nil
}

// ReleaseAll forces every voice in the pool to Idle, bypassing the release
// stage — used by all_notes_off / panic handling.
func (vm *VoiceManager) ReleaseAll() {
	for _, v := range vm.voices {
		v.Reset()
	}
}

// NoteOff releases the single oldest voice (lowest allocation stamp)
// sounding pitch on channel. When the same pitch was retriggered before
// its first release, repeated note-offs peel voices off oldest-first.
// Voices already releasing, or already pedal-held, are skipped so each
// note-off lands on a distinct sounding voice. With sustainHeld the voice
// is flagged instead, for SustainOff to release later.
func (vm *VoiceManager) NoteOff(channel, pitch int, sustainHeld bool) {
	var oldest *Voice
	for _, v := range vm.voices {
		if !v.Active() || v.Channel() != channel || v.Pitch() != pitch {
			continue
		}
		if v.Stage() == StageRelease || v.Sustained() {
			continue
		}
		if oldest == nil || v.startSeq < oldest.startSeq {
			oldest = v
		}
	}
	if oldest == nil {
		return
	}
	if sustainHeld {
		oldest.Sustain()
		return
	}
	oldest.NoteOff()
}

// SustainOff releases every sustained voice on channel.
func (vm *VoiceManager) SustainOff(channel int) {
	for _, v := range vm.voices {
		if v.Active() && v.Channel() == channel && v.Sustained() {
			v.NoteOff()
		}
	}
}

// Render sums one sample across every active voice in the pool.
func (vm *VoiceManager) Render() float64 {
	return vm.RenderPitched(1.0)
}

// RenderPitched sums one sample across the pool with every voice's phase
// increment scaled by freqRatio — the channel-wide pitch-modulation path.
func (vm *VoiceManager) RenderPitched(freqRatio float64) float64 {
	var sum float64
	for _, v := range vm.voices {
		sum += v.RenderSamplePitched(freqRatio)
	}
	return sum
}
