package audio

import (
	"math"

	"github.com/lixenwraith/synthcore/parameter"
)

// PerformanceConfig describes keyboard-split or channel-layer routing
// across the sixteen channels. Split and
// layer are mutually exclusive — enabling one clears the other.
type PerformanceConfig struct {
	SplitEnabled bool
	SplitPoint   int
	LowerChannel int
	UpperChannel int
	LayerEnabled bool
	LayeredChans []int
}

// EnableSplit configures keyboard-split routing and clears layering.
func (p *PerformanceConfig) EnableSplit(splitPoint, lower, upper int) {
	p.SplitEnabled = true
	p.SplitPoint = splitPoint
	p.LowerChannel = lower
	p.UpperChannel = upper
	p.LayerEnabled = false
	p.LayeredChans = nil
}

// EnableLayer configures multicast layering across channels and clears
// split routing.
func (p *PerformanceConfig) EnableLayer(channels []int) {
	p.LayerEnabled = true
	p.LayeredChans = append([]int(nil), channels...)
	p.SplitEnabled = false
}

// Disable clears both split and layer routing, returning to direct
// channel-addressed note events.
func (p *PerformanceConfig) Disable() {
	p.SplitEnabled = false
	p.LayerEnabled = false
	p.LayeredChans = nil
}

// Engine is the multi-timbral top-level voice engine: sixteen
// ChannelSynthesizer instances sharing a voice budget, mixed down to a
// stereo pair with per-channel equal-power pan and 1/sqrt(active channel
// count) gain compensation so polyphony across channels doesn't raise
// perceived loudness, then scaled by master volume.
//
// Render is the RT entry point and must stay wait-free: no allocation, no
// locks, no syscalls. Every control-thread setter below this point in the
// file either writes a plain field (single-writer, single-reader per
// channel, safe under Go's memory model for the append-only-at-control-rate
// pattern used here) or swaps an atomic pointer, never a mutex.
type Engine struct {
	channels   [parameter.MaxMIDIChannels]*ChannelSynthesizer
	active     [parameter.MaxMIDIChannels]bool
	budget     VoiceBudgetStrategy
	maxTotal   int
	maxPerChan int
	sampleRate int

	masterVolume float64

	perf PerformanceConfig

	priority [parameter.MaxMIDIChannels]int // used by BudgetPriority

	// routeBuf backs routeChannels' single-target results so note routing
	// never allocates — note events arrive on the RT thread via the
	// sequencer's callbacks mid-Render.
	routeBuf [1]int
}

// NewEngine builds sixteen channels sharing maxTotal voices, each capped at
// maxPerChan, at sampleRate. Every channel starts active.
func NewEngine(maxTotal, maxPerChan, sampleRate int) *Engine {
	e := &Engine{
		budget:       BudgetEqual,
		maxTotal:     maxTotal,
		maxPerChan:   maxPerChan,
		sampleRate:   sampleRate,
		masterVolume: 1.0,
	}
	perChannel := maxTotal / parameter.MaxMIDIChannels
	if perChannel > maxPerChan {
		perChannel = maxPerChan
	}
	if perChannel < 1 {
		perChannel = 1
	}
	for i := range e.channels {
		e.channels[i] = NewChannelSynthesizer(i, perChannel, sampleRate)
		e.priority[i] = 1
		e.active[i] = true
	}
	return e
}

// Channel returns the ChannelSynthesizer for a 0-based MIDI channel index.
func (e *Engine) Channel(i int) *ChannelSynthesizer {
	if i < 0 || i >= parameter.MaxMIDIChannels {
		return nil
	}
	return e.channels[i]
}

// SetChannelActive marks channel active or inactive for mixing and voice
// budgeting purposes. An inactive
// channel still accepts MIDI but contributes nothing to Render.
func (e *Engine) SetChannelActive(channel int, active bool) {
	if channel < 0 || channel >= parameter.MaxMIDIChannels {
		return
	}
	e.active[channel] = active
}

// ChannelActive reports whether channel currently contributes to the mix.
func (e *Engine) ChannelActive(channel int) bool {
	if channel < 0 || channel >= parameter.MaxMIDIChannels {
		return false
	}
	return e.active[channel]
}

// ActiveChannelCount returns the number of channels currently marked
// active, used for the render-stage gain compensation.
func (e *Engine) ActiveChannelCount() int {
	n := 0
	for _, a := range e.active {
		if a {
			n++
		}
	}
	return n
}

// SetMasterVolume sets the final output gain applied after per-channel
// mixing, 0..1.
func (e *Engine) SetMasterVolume(v float64) { e.masterVolume = clamp(v, 0, 1) }

// MasterVolume returns the current master output gain.
func (e *Engine) MasterVolume() float64 { return e.masterVolume }

// Performance returns the engine's split/layer routing config for direct
// mutation.
func (e *Engine) Performance() *PerformanceConfig { return &e.perf }

// SetSampleRate propagates a sample-rate change to every channel.
func (e *Engine) SetSampleRate(sr int) {
	e.sampleRate = sr
	for _, c := range e.channels {
		c.SetSampleRate(sr)
	}
}

// SetChannelPriority sets the priority weight used by BudgetPriority.
func (e *Engine) SetChannelPriority(channel, priority int) {
	if channel < 0 || channel >= parameter.MaxMIDIChannels {
		return
	}
	e.priority[channel] = priority
}

// SetVoiceBudgetStrategy selects how the total voice budget is redivided
// across channels on the next Rebalance call.
func (e *Engine) SetVoiceBudgetStrategy(s VoiceBudgetStrategy) { e.budget = s }

// Rebalance redistributes maxTotal voices across the sixteen channels per
// the configured strategy. Not RT-safe — resizes voice pools, so call only
// from the control thread (e.g. on program change or channel activity
// shift), never from inside Render.
func (e *Engine) Rebalance() {
	switch e.budget {
	case BudgetPriority:
		e.rebalancePriority()
	case BudgetDynamic:
		e.rebalanceDynamic()
	default:
		e.rebalanceEqual()
	}
}

// rebalanceEqual gives each active channel floor(total/activeCount) voices
// and hands the remainder out one voice at a time to the lowest-indexed
// active channels. Inactive channels drop to zero.
func (e *Engine) rebalanceEqual() {
	activeCount := e.ActiveChannelCount()
	if activeCount == 0 {
		for _, c := range e.channels {
			c.SetVoiceCount(0)
		}
		return
	}
	per := e.maxTotal / activeCount
	rem := e.maxTotal % activeCount
	for i, c := range e.channels {
		if !e.active[i] {
			c.SetVoiceCount(0)
			continue
		}
		n := per
		if rem > 0 {
			n++
			rem--
		}
		if n > e.maxPerChan {
			n = e.maxPerChan
		}
		if n < 1 {
			n = 1
		}
		c.SetVoiceCount(n)
	}
}

// rebalancePriority divides the budget across active channels in
// proportion to their priority weights, guarantees each active channel at
// least one voice, and hands any remainder to the highest-priority active
// channels first.
func (e *Engine) rebalancePriority() {
	totalWeight := 0
	for i, p := range e.priority {
		if e.active[i] {
			totalWeight += p
		}
	}
	if totalWeight <= 0 {
		e.rebalanceEqual()
		return
	}

	var counts [parameter.MaxMIDIChannels]int
	assigned := 0
	for i := range e.channels {
		if !e.active[i] {
			continue
		}
		share := e.maxTotal * e.priority[i] / totalWeight
		if share > e.maxPerChan {
			share = e.maxPerChan
		}
		if share < 1 {
			share = 1
		}
		counts[i] = share
		assigned += share
	}

	for rem := e.maxTotal - assigned; rem > 0; rem-- {
		best := -1
		for i := range e.channels {
			if !e.active[i] || counts[i] >= e.maxPerChan {
				continue
			}
			if best < 0 || e.priority[i] > e.priority[best] {
				best = i
			}
		}
		if best < 0 {
			break
		}
		counts[best]++
	}

	for i, c := range e.channels {
		c.SetVoiceCount(counts[i])
	}
}

// rebalanceDynamic weights allocation toward active channels with more
// currently sounding voices, approximating demand-based allocation. It
// falls back to Equal when no channel has established activity yet (the
// first render before any notes have played).
func (e *Engine) rebalanceDynamic() {
	activeCount := e.ActiveChannelCount()
	totalSounding := 0
	var sounding [parameter.MaxMIDIChannels]int
	for i, c := range e.channels {
		if !e.active[i] {
			continue
		}
		sounding[i] = c.ActiveVoiceCount()
		totalSounding += sounding[i]
	}
	if totalSounding == 0 || activeCount == 0 {
		e.rebalanceEqual()
		return
	}
	remaining := e.maxTotal
	for i, c := range e.channels {
		if !e.active[i] {
			c.SetVoiceCount(0)
			continue
		}
		share := e.maxTotal * (sounding[i] + 1) / (totalSounding + activeCount)
		if share > e.maxPerChan {
			share = e.maxPerChan
		}
		if share < 1 {
			share = 1
		}
		if share > remaining {
			share = remaining
		}
		c.SetVoiceCount(share)
		remaining -= share
	}
}

// ActiveVoiceCount returns the sum of active voices across every channel.
func (e *Engine) ActiveVoiceCount() int {
	n := 0
	for _, c := range e.channels {
		n += c.ActiveVoiceCount()
	}
	return n
}

// TotalVoiceCount returns the sum of pool capacities across every channel,
// which must never exceed maxTotal.
func (e *Engine) TotalVoiceCount() int {
	n := 0
	for _, c := range e.channels {
		n += c.VoiceCount()
	}
	return n
}

// routeChannels resolves which channel indices a note event targets, given
// the performance config:
//  1. split: channel is replaced by lower/upper depending on pitch
//  2. layer: multicast to every channel in layeredChannels
//  3. else: the event's own channel, unmodified
func (e *Engine) routeChannels(channel, pitch int) []int {
	if e.perf.SplitEnabled {
		e.routeBuf[0] = e.perf.UpperChannel
		if pitch < e.perf.SplitPoint {
			e.routeBuf[0] = e.perf.LowerChannel
		}
		return e.routeBuf[:]
	}
	if e.perf.LayerEnabled && len(e.perf.LayeredChans) > 0 {
		return e.perf.LayeredChans
	}
	e.routeBuf[0] = channel
	return e.routeBuf[:]
}

// NoteOn routes a note-on through split/layer performance config. Other
// channel-scoped events below always address the exact channel named in
// the message, bypassing routing.
func (e *Engine) NoteOn(channel, pitch int, velocity float64) {
	for _, ch := range e.routeChannels(channel, pitch) {
		if c := e.Channel(ch); c != nil {
			c.NoteOn(pitch, velocity, nil)
		}
	}
}

// NoteOnWithEnvelope routes a note-on carrying a per-event envelope
// override, used by the sequencer's note callback.
func (e *Engine) NoteOnWithEnvelope(channel, pitch int, velocity float64, env *ADSR) {
	for _, ch := range e.routeChannels(channel, pitch) {
		if c := e.Channel(ch); c != nil {
			c.NoteOn(pitch, velocity, env)
		}
	}
}

// NoteOff routes a note-off through the same split/layer rule a matching
// note-on used, so a held note always finds its sounding channel(s).
func (e *Engine) NoteOff(channel, pitch int) {
	for _, ch := range e.routeChannels(channel, pitch) {
		if c := e.Channel(ch); c != nil {
			c.NoteOff(pitch)
		}
	}
}

// ControlChange dispatches a CC message to the exact channel named,
// regardless of split/layer routing.
func (e *Engine) ControlChange(channel, controller, value int) {
	if c := e.Channel(channel); c != nil {
		c.ProcessCC(controller, value)
	}
}

// PitchBend dispatches a normalized bend value in [-1,1] to channel.
func (e *Engine) PitchBend(channel int, normalized float64) {
	if c := e.Channel(channel); c != nil {
		value14 := int((normalized+1.0)*8192.0 + 0.5)
		c.SetPitchBend(clampInt(value14, 0, 16383))
	}
}

// Aftertouch dispatches polyphonic key pressure to channel.
func (e *Engine) Aftertouch(channel, pitch int, value float64) {
	if c := e.Channel(channel); c != nil {
		c.SetKeyPressure(pitch, value)
	}
}

// ChannelPressure dispatches mono channel pressure to channel.
func (e *Engine) ChannelPressure(channel int, value float64) {
	if c := e.Channel(channel); c != nil {
		c.SetChannelPressure(value)
	}
}

// ProgramChange dispatches a program number to channel.
func (e *Engine) ProgramChange(channel, program int) {
	if c := e.Channel(channel); c != nil {
		c.SetProgram(program)
	}
}

// AllNotesOff silences every voice on every channel.
func (e *Engine) AllNotesOff() {
	for _, c := range e.channels {
		c.AllNotesOff()
	}
}

// Render mixes one stereo sample across every active channel: each
// channel's mono contribution is scaled by 1/sqrt(activeChannelCount) to
// keep the sum bounded as polyphony across channels grows, then placed in
// the stereo field by equal-power pan, summed, and finally scaled by
// master volume.
func (e *Engine) Render() (left, right float64) {
	activeChannels := e.ActiveChannelCount()
	comp := 1.0
	if activeChannels > 1 {
		comp = 1.0 / math.Sqrt(float64(activeChannels))
	}
	for i, c := range e.channels {
		if !e.active[i] {
			continue
		}
		sample := c.Render() * comp
		l, r := equalPowerPan(c.PanEffective())
		left += sample * l
		right += sample * r
	}
	return left * e.masterVolume, right * e.masterVolume
}
