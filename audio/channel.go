package audio

import "github.com/lixenwraith/synthcore/parameter"

// ChannelSynthesizer is one of the sixteen multi-timbral parts.
// It owns a VoiceManager, transposition/tuning, mono/poly mode with legato,
// sustain-pedal bookkeeping, pitch bend, and a sparse CC map.
type ChannelSynthesizer struct {
	index int
	vm    *VoiceManager
	mod   *ModulationMatrix

	waveform Waveform
	env      ADSR

	volume float64 // 0..1, CC7-derived
	pan    float64 // -1..1, CC10-derived

	noteLow, noteHigh int // key range for split/layer routing

	transposition int // semitones
	fineTuneCents int // cents, -100..100

	mono      bool
	heldStack []int // pitch stack for mono legato, most recent last

	lastVelocity float64 // carried into mono legato retriggers

	sustainHeld bool

	// live modulation state: two free-running LFOs plus the per-sample
	// scratch the matrix accumulates into. panMod and cutoffMod hold the
	// last computed block values for consumers outside the channel (the
	// engine's pan stage, a host wiring cutoff to a chain filter).
	lfo1, lfo2        *lfo
	modPitchDepthSemi float64
	panMod            float64
	cutoffMod         float64

	bendSemitones float64 // current pitch bend in semitones
	bendRangeSemi int

	program int
	cc      map[int]int

	channelPressure float64 // 0..1, last channel-pressure (mono aftertouch) value
	keyPressure     map[int]float64

	sampleRate int
}

// NewChannelSynthesizer builds channel index with voiceCount voices.
func NewChannelSynthesizer(index, voiceCount, sampleRate int) *ChannelSynthesizer {
	return &ChannelSynthesizer{
		index:             index,
		vm:                NewVoiceManager(voiceCount, sampleRate, StealOldest),
		mod:               NewModulationMatrix(),
		waveform:          WaveSine,
		env:               DefaultADSR(),
		volume:            1.0,
		pan:               0.0,
		noteLow:           0,
		noteHigh:          127,
		lastVelocity:      1.0,
		bendRangeSemi:     parameter.DefaultBendRangeSemi,
		lfo1:              newLFO(5.0, sampleRate),
		lfo2:              newLFO(0.5, sampleRate),
		modPitchDepthSemi: float64(parameter.DefaultBendRangeSemi),
		cc:                make(map[int]int),
		keyPressure:       make(map[int]float64),
		sampleRate:        sampleRate,
	}
}

// SetSampleRate propagates to the voice pool and modulation LFOs.
func (c *ChannelSynthesizer) SetSampleRate(sr int) {
	c.sampleRate = sr
	c.vm.SetSampleRate(sr)
	c.lfo1.sampleRate = sr
	c.lfo2.sampleRate = sr
}

// SetVoiceCount resizes the channel's voice pool (control thread only).
func (c *ChannelSynthesizer) SetVoiceCount(n int) { c.vm.SetVoiceCount(n) }

// VoiceCount returns pool capacity.
func (c *ChannelSynthesizer) VoiceCount() int { return c.vm.Count() }

// ActiveVoiceCount returns the number of currently sounding voices.
func (c *ChannelSynthesizer) ActiveVoiceCount() int { return c.vm.ActiveCount() }

// SetNoteRange restricts which pitches this channel responds to, for
// keyboard-split routing.
func (c *ChannelSynthesizer) SetNoteRange(low, high int) {
	c.noteLow, c.noteHigh = clampInt(low, 0, 127), clampInt(high, 0, 127)
}

// InRange reports whether pitch falls within this channel's note range.
func (c *ChannelSynthesizer) InRange(pitch int) bool {
	return pitch >= c.noteLow && pitch <= c.noteHigh
}

// SetMono toggles monophonic mode. Switching to mono clears the legato
// stack; switching to poly has no immediate effect on sounding voices.
func (c *ChannelSynthesizer) SetMono(mono bool) {
	c.mono = mono
	if mono {
		c.heldStack = c.heldStack[:0]
	}
}

// SetTransposition sets the whole-semitone transpose applied to every
// note-on frequency.
func (c *ChannelSynthesizer) SetTransposition(semitones int) { c.transposition = semitones }

// SetFineTune sets additional tuning in cents, -100..100.
func (c *ChannelSynthesizer) SetFineTune(cents int) { c.fineTuneCents = clampInt(cents, -100, 100) }

// SetPitchBendRange sets the semitone span of full pitch-bend deflection.
func (c *ChannelSynthesizer) SetPitchBendRange(semi int) { c.bendRangeSemi = semi }

// SetProgram records the active program/preset index. The engine maps this to waveform/ADSR selection; the
// channel itself only stores the number.
func (c *ChannelSynthesizer) SetProgram(p int) { c.program = p }

// Program returns the active program number.
func (c *ChannelSynthesizer) Program() int { return c.program }

// SetSound sets the oscillator waveform and envelope new notes use.
func (c *ChannelSynthesizer) SetSound(ws Waveform, env ADSR) {
	c.waveform = ws
	c.env = env
}

// SetVolume sets channel volume, 0..1 (CC7).
func (c *ChannelSynthesizer) SetVolume(v float64) { c.volume = clamp(v, 0, 1) }

// Volume returns the current channel volume, 0..1.
func (c *ChannelSynthesizer) Volume() float64 { return c.volume }

// SetPan sets channel pan, -1..1 (CC10).
func (c *ChannelSynthesizer) SetPan(p float64) { c.pan = clamp(p, -1, 1) }

// Pan returns the current channel pan, -1..1.
func (c *ChannelSynthesizer) Pan() float64 { return c.pan }

// SetCC records a raw MIDI continuous-controller value, 0..127.
func (c *ChannelSynthesizer) SetCC(controller, value int) {
	c.cc[controller] = clampInt(value, 0, 127)
}

// CC returns the last recorded value for controller, or 0 if never set.
func (c *ChannelSynthesizer) CC(controller int) int { return c.cc[controller] }

// Known MIDI continuous-controller numbers this channel maps to engine
// behavior directly; everything else lands in the
// raw cc map as "cc<n>".
const (
	ccVolume      = 7
	ccPan         = 10
	ccSustain     = 64
	ccAllNotesOff = 123
)

// ProcessCC dispatches one MIDI CC message: known
// controllers update channel state directly, unknown ones are stored in
// the raw cc map addressable as the modulation-matrix/preset parameter
// name "cc<n>" in [0,1].
func (c *ChannelSynthesizer) ProcessCC(controller, value int) {
	c.SetCC(controller, value)
	switch controller {
	case ccVolume:
		c.SetVolume(float64(value) / 127.0)
	case ccPan:
		c.SetPan(float64(value)/63.5 - 1.0)
	case ccSustain:
		c.SetSustain(value >= 64)
	case ccAllNotesOff:
		c.AllNotesOff()
	}
}

// CCParameter returns the named cc<n> value in [0,1] for controllers with
// no dedicated mapping, used by the preset/parameter-by-name surface.
func (c *ChannelSynthesizer) CCParameter(controller int) float64 {
	return float64(c.cc[controller]) / 127.0
}

// SetKeyPressure records polyphonic key pressure (aftertouch) for pitch,
// 0..1.
func (c *ChannelSynthesizer) SetKeyPressure(pitch int, value float64) {
	c.keyPressure[pitch] = clamp(value, 0, 1)
}

// SetChannelPressure records mono channel pressure, 0..1.
func (c *ChannelSynthesizer) SetChannelPressure(value float64) {
	c.channelPressure = clamp(value, 0, 1)
}

// ChannelPressure returns the last channel-pressure value, 0..1.
func (c *ChannelSynthesizer) ChannelPressure() float64 { return c.channelPressure }

// SetPitchBend sets the 14-bit bend value (0..16383, 8192 = center) and
// recomputes the semitone offset against the configured bend range.
func (c *ChannelSynthesizer) SetPitchBend(value14 int) {
	normalized := (float64(value14) - 8192) / 8192.0
	c.bendSemitones = normalized * float64(c.bendRangeSemi)
	c.retuneActiveVoices()
}

func (c *ChannelSynthesizer) retuneActiveVoices() {
	for _, v := range c.vm.AllActive() {
		v.SetFrequency(c.frequencyFor(v.Pitch()))
	}
}

// frequencyFor computes the sounding frequency for pitch after
// transposition, fine tune, and pitch bend.
func (c *ChannelSynthesizer) frequencyFor(pitch int) float64 {
	p := pitch + c.transposition
	cents := float64(c.fineTuneCents) + c.bendSemitones*100
	base := parameter.NoteFreq(clampInt(p, 0, 127))
	return base * pow2Cents(cents)
}

// pow2Cents converts a cents offset to a frequency multiplier: 2^(cents/1200).
func pow2Cents(cents float64) float64 {
	return pow2(cents / 1200.0)
}

// NoteOn triggers pitch at velocity. In mono mode, a held note already
// sounding is retuned in place (legato) rather than allocating a second
// voice.
func (c *ChannelSynthesizer) NoteOn(pitch int, velocity float64, envOverride *ADSR) {
	if !c.InRange(pitch) {
		return
	}
	env := c.env
	if envOverride != nil {
		env = *envOverride
	}
	c.lastVelocity = clamp(velocity, 0, 1)
	freq := c.frequencyFor(pitch)

	if c.mono {
		c.heldStack = append(c.heldStack, pitch)
		if v := c.vm.FirstActive(); v != nil {
			v.Retrigger(pitch, freq, velocity)
			return
		}
		v := c.vm.Allocate()
		if v == nil {
			return
		}
		v.NoteOn(c.index, pitch, freq, velocity, c.waveform, env)
		return
	}

	v := c.vm.Allocate()
	if v == nil {
		return
	}
	v.NoteOn(c.index, pitch, freq, velocity, c.waveform, env)
}

// NoteOff releases pitch. In mono mode with a legato stack, the voice
// retunes to the next most-recently-held note instead of stopping, unless
// the stack is now empty.
func (c *ChannelSynthesizer) NoteOff(pitch int) {
	if c.mono {
		c.popHeld(pitch)
		v := c.vm.FirstActive()
		if v == nil {
			return
		}
		if len(c.heldStack) > 0 {
			next := c.heldStack[len(c.heldStack)-1]
			v.Retrigger(next, c.frequencyFor(next), c.lastVelocity)
			return
		}
		if c.sustainHeld {
			v.Sustain()
			return
		}
		v.NoteOff()
		return
	}
	c.vm.NoteOff(c.index, pitch, c.sustainHeld)
}

func (c *ChannelSynthesizer) popHeld(pitch int) {
	for i := len(c.heldStack) - 1; i >= 0; i-- {
		if c.heldStack[i] == pitch {
			c.heldStack = append(c.heldStack[:i], c.heldStack[i+1:]...)
			return
		}
	}
}

// SetSustain sets the sustain pedal state (CC64). Releasing the pedal
// releases every voice that was held only by the pedal.
func (c *ChannelSynthesizer) SetSustain(down bool) {
	c.sustainHeld = down
	if !down {
		c.vm.SustainOff(c.index)
	}
}

// AllNotesOff forces every voice on this channel idle immediately.
func (c *ChannelSynthesizer) AllNotesOff() {
	c.vm.ReleaseAll()
	c.heldStack = c.heldStack[:0]
	c.sustainHeld = false
}

// Render sums one sample across this channel's voice pool, volume-scaled
// but not yet panned — the engine applies pan and the active-channel gain
// compensation at mixdown, not per channel, so a channel's contribution
// can be weighted against the rest of the mix before it's placed in the
// stereo field.
//
// When the modulation matrix carries routes, the sources are evaluated
// here once per sample and applied on top of the channel's base values:
// pitch as a phase-increment ratio across the whole pool, amplitude as a
// gain offset, pan and filter cutoff latched for their consumers (the
// engine's pan stage and whatever a host wires cutoffMod into).
func (c *ChannelSynthesizer) Render() float64 {
	routes := c.mod.Snapshot()
	if len(routes) == 0 {
		c.panMod = 0
		c.cutoffMod = 0
		return c.vm.Render() * c.volume
	}

	var values [6]float64
	values[SourceLFO1] = c.lfo1.next()
	values[SourceLFO2] = c.lfo2.next()
	if v := c.vm.FirstActive(); v != nil {
		values[SourceEnvelope] = v.EnvValue()
	}
	values[SourceVelocity] = c.lastVelocity
	values[SourceAftertouch] = c.channelPressure
	values[SourceModWheel] = c.CCParameter(1)

	var out [4]float64
	Apply(routes, values, &out)

	c.panMod = clamp(out[DestPan], -1, 1)
	c.cutoffMod = out[DestFilterCutoff]

	ratio := pow2(out[DestPitch] * c.modPitchDepthSemi / 12.0)
	gain := clamp(c.volume+out[DestAmplitude], 0, 1)
	return c.vm.RenderPitched(ratio) * gain
}

// PanEffective returns the channel's pan after modulation, the value the
// engine's equal-power pan stage consumes.
func (c *ChannelSynthesizer) PanEffective() float64 {
	return clamp(c.pan+c.panMod, -1, 1)
}

// FilterCutoffModulation returns the last accumulated DestFilterCutoff
// total, for a host routing channel modulation into a chain filter's
// frequency parameter.
func (c *ChannelSynthesizer) FilterCutoffModulation() float64 { return c.cutoffMod }

// SetLFORate sets the rate in Hz of LFO 1 or 2.
func (c *ChannelSynthesizer) SetLFORate(which int, rateHz float64) {
	switch which {
	case 1:
		c.lfo1.rateHz = rateHz
	case 2:
		c.lfo2.rateHz = rateHz
	}
}

// SetPitchModulationDepth sets how many semitones a full-scale DestPitch
// total bends the channel.
func (c *ChannelSynthesizer) SetPitchModulationDepth(semitones float64) {
	c.modPitchDepthSemi = semitones
}

// Modulation exposes the channel's modulation matrix for route editing.
func (c *ChannelSynthesizer) Modulation() *ModulationMatrix { return c.mod }
