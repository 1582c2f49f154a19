package audio

import (
	"sync/atomic"

	"github.com/lixenwraith/synthcore/parameter"
)

// RenderGraph orchestrates the per-callback pipeline: sequencer advance
// (which may fire note callbacks into the engine), engine mix, effects
// chain, then master gain and a safety clip check. It is the single RT
// entry point a host audio driver binding calls once per callback;
// everything it touches is wait-free.
type RenderGraph struct {
	Sequencer *Sequencer
	Engine    *Engine
	Chain     *ReorderableChain
	Errors    *ErrorHandler

	sampleRate int

	clipThreshold float64
	softClamp     bool

	muted atomic.Bool // emergency mute, settable from any thread

	masterSmooth *SmoothParameter
}

// NewRenderGraph wires a sequencer, engine, and chain into one callback
// pipeline at sampleRate. seq and errs may be nil: a render graph with no
// sequencer just renders the engine's currently-held notes every block,
// and with no error handler silently skips fault reporting (both are
// convenient for unit tests exercising the engine/chain alone).
func NewRenderGraph(seq *Sequencer, eng *Engine, chain *ReorderableChain, errs *ErrorHandler, sampleRate int) *RenderGraph {
	return &RenderGraph{
		Sequencer:     seq,
		Engine:        eng,
		Chain:         chain,
		Errors:        errs,
		sampleRate:    sampleRate,
		clipThreshold: parameter.DefaultClipThreshold,
		masterSmooth:  NewSmoothParameter(1.0, 0.99),
	}
}

// SetClipThreshold sets the |sample| ceiling the safety step checks
// against.
func (g *RenderGraph) SetClipThreshold(t float64) { g.clipThreshold = t }

// SetSoftClamp toggles whether out-of-range samples are clamped in place
// (true) or merely reported (false, the default — non-critical errors
// stay silent except for statistics).
func (g *RenderGraph) SetSoftClamp(on bool) { g.softClamp = on }

// MasterGain exposes the top-level smoothed master gain stage applied
// after the effects chain.
func (g *RenderGraph) MasterGain() *SmoothParameter { return g.masterSmooth }

// SetEmergencyMute engages or releases the safety mute. While engaged,
// Render writes silence after running the full pipeline, so engine and
// effect state keep advancing and un-muting doesn't replay a stale tail.
// Engaging reports an EmergencyMute event through the handler.
func (g *RenderGraph) SetEmergencyMute(on bool) {
	was := g.muted.Swap(on)
	if on && !was && g.Errors != nil {
		g.Errors.ReportRT(CodeEmergencyMute, "emergency mute engaged")
	}
}

// EmergencyMuted reports whether the safety mute is engaged.
func (g *RenderGraph) EmergencyMuted() bool { return g.muted.Load() }

// Render fills buf (interleaved stereo, len == frames*2) for one callback,
// running the full pipeline: (1) sequencer.Process, (2)
// engine.Render per sample, (3) chain.Process per sample, (4) master gain
// and safety clamp. buf must be pre-allocated by the caller — Render
// itself never allocates.
func (g *RenderGraph) Render(buf []float64, frames int) {
	if g.Sequencer != nil {
		g.Sequencer.Process(float64(frames) / float64(g.sampleRate))
	}

	snapshot := []chainEntry(nil)
	if g.Chain != nil {
		snapshot = g.Chain.Load()
	}

	for i := 0; i < frames; i++ {
		var l, r float64
		if g.Engine != nil {
			l, r = g.Engine.Render()
		}

		if snapshot != nil {
			l, r = Process(snapshot, l, r)
		}

		gain := g.masterSmooth.Process()
		l *= gain
		r *= gain

		l, r = g.applySafety(l, r)

		buf[i*2] = l
		buf[i*2+1] = r
	}

	if g.muted.Load() {
		for i := range buf[:frames*2] {
			buf[i] = 0
		}
	}
}

// applySafety checks |sample| against the clip threshold, optionally
// clamping, and reports an AudioClipping error through the handler.
func (g *RenderGraph) applySafety(l, r float64) (float64, float64) {
	limit := g.clipThreshold + parameter.ClipHeadroom
	clipped := false
	if l > limit || l < -limit {
		clipped = true
		if g.softClamp {
			l = clamp(l, -g.clipThreshold, g.clipThreshold)
		}
	}
	if r > limit || r < -limit {
		clipped = true
		if g.softClamp {
			r = clamp(r, -g.clipThreshold, g.clipThreshold)
		}
	}
	if clipped && g.Errors != nil {
		g.Errors.ReportRT(CodeAudioClipping, "clip")
	}
	return l, r
}

// WireSequencer connects seq's note callbacks to eng via explicit
// callback injection at wiring time, instead of the sequencer owning
// the engine.
func WireSequencer(seq *Sequencer, eng *Engine) {
	seq.OnNoteOn = func(pitch int, velocity float64, channel int, env *ADSR) {
		eng.NoteOnWithEnvelope(channel, pitch, velocity, env)
	}
	seq.OnNoteOff = func(pitch int, channel int) {
		eng.NoteOff(channel, pitch)
	}
}
