package audio

import "sync/atomic"

// chainEntry pairs an Effect with its type tag, enabled flag, and wet/dry
// mix. typeName is captured once at insertion so reordering and host-facing
// listings never call into the effect from the control thread while the
// audio thread is processing it.
type chainEntry struct {
	effect   Effect
	typeName string
	enabled  bool
	mix      float64
}

// ReorderableChain is an ordered, runtime-editable sequence of effects.
// Every structural edit below runs on the control thread and builds a
// brand new entries slice, published via an atomic pointer swap; the
// audio thread only ever loads that pointer, so Render's per-callback
// read is allocation-free.
type ReorderableChain struct {
	order []chainEntry // control-thread-owned working copy
	snap  atomic.Pointer[[]chainEntry]
}

// NewReorderableChain returns an empty chain.
func NewReorderableChain() *ReorderableChain {
	c := &ReorderableChain{}
	c.publish()
	return c
}

// publish copies the working order into a fresh slice and swaps it in for
// the audio thread to pick up on its next Load call. Allocates — control
// thread only.
func (c *ReorderableChain) publish() {
	snapshot := make([]chainEntry, len(c.order))
	copy(snapshot, c.order)
	c.snap.Store(&snapshot)
}

// Load returns the most recently published snapshot for the audio thread
// to process one render block against. Wait-free: a single atomic pointer
// load, never an allocation.
func (c *ReorderableChain) Load() []chainEntry {
	if p := c.snap.Load(); p != nil {
		return *p
	}
	return nil
}

// Add appends effect to the end of the chain, enabled, at full wet mix,
// and returns its index.
func (c *ReorderableChain) Add(e Effect) int {
	return c.AddAt(e, -1)
}

// AddAt inserts effect at index, shifting later entries; index -1 (or any
// out-of-range value) appends. Returns the index the effect landed at.
func (c *ReorderableChain) AddAt(e Effect, index int) int {
	entry := chainEntry{effect: e, typeName: e.Name(), enabled: true, mix: 1.0}
	if index < 0 || index >= len(c.order) {
		c.order = append(c.order, entry)
		index = len(c.order) - 1
	} else {
		c.order = append(c.order[:index], append([]chainEntry{entry}, c.order[index:]...)...)
	}
	c.publish()
	return index
}

// Remove deletes the entry at index. No-op if out of range.
func (c *ReorderableChain) Remove(index int) {
	if index < 0 || index >= len(c.order) {
		return
	}
	c.order = append(c.order[:index], c.order[index+1:]...)
	c.publish()
}

// Move relocates the entry at from to position to, shifting the entries
// between them. No-op if either index is out of range.
func (c *ReorderableChain) Move(from, to int) {
	if from < 0 || from >= len(c.order) || to < 0 || to >= len(c.order) || from == to {
		return
	}
	e := c.order[from]
	c.order = append(c.order[:from], c.order[from+1:]...)
	c.order = append(c.order[:to], append([]chainEntry{e}, c.order[to:]...)...)
	c.publish()
}

// SetEnabled toggles whether the entry at index runs its Process step.
// Disabled entries are a true bypass (state preserved, signal untouched).
func (c *ReorderableChain) SetEnabled(index int, enabled bool) {
	if index < 0 || index >= len(c.order) {
		return
	}
	c.order[index].enabled = enabled
	c.publish()
}

// SetMix sets the wet/dry mix, 0..1, for the entry at index.
func (c *ReorderableChain) SetMix(index int, mix float64) {
	if index < 0 || index >= len(c.order) {
		return
	}
	c.order[index].mix = clamp(mix, 0, 1)
	c.publish()
}

// Mix returns the wet/dry mix for the entry at index, or (0, false) if out
// of range.
func (c *ReorderableChain) Mix(index int) (float64, bool) {
	if index < 0 || index >= len(c.order) {
		return 0, false
	}
	return c.order[index].mix, true
}

// Enabled reports whether the entry at index currently runs its Process
// step.
func (c *ReorderableChain) Enabled(index int) bool {
	if index < 0 || index >= len(c.order) {
		return false
	}
	return c.order[index].enabled
}

// Clear removes every entry.
func (c *ReorderableChain) Clear() {
	c.order = c.order[:0]
	c.publish()
}

// Len returns the number of entries, enabled or not.
func (c *ReorderableChain) Len() int { return len(c.order) }

// EffectAt returns the effect at index, or nil if out of range.
func (c *ReorderableChain) EffectAt(index int) Effect {
	if index < 0 || index >= len(c.order) {
		return nil
	}
	return c.order[index].effect
}

// TypeName returns the type tag recorded when the entry at index was
// added, or "" if out of range.
func (c *ReorderableChain) TypeName(index int) string {
	if index < 0 || index >= len(c.order) {
		return ""
	}
	return c.order[index].typeName
}

// SetSampleRate propagates a sample-rate change to every effect in the
// chain. Not RT-safe.
func (c *ReorderableChain) SetSampleRate(sr int) {
	for i := range c.order {
		c.order[i].effect.SetSampleRate(sr)
	}
}

// Process runs left/right through every enabled entry in order, in place.
// Disabled entries are skipped entirely — not even called with mix 0 —
// since disabling an entry is a structural bypass, not a parameter.
func Process(entries []chainEntry, left, right float64) (float64, float64) {
	for _, e := range entries {
		if !e.enabled {
			continue
		}
		left, right = e.effect.Process(left, right, e.mix)
	}
	return left, right
}
