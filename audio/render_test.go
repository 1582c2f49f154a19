package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderGraphProducesNonZeroOutputForSoundingVoice(t *testing.T) {
	eng := NewEngine(64, 8, 44100)
	eng.NoteOn(0, 60, 1.0)

	g := NewRenderGraph(nil, eng, nil, nil, 44100)
	buf := make([]float64, 64*2)
	g.Render(buf, 64)

	nonZero := false
	for _, s := range buf {
		if s != 0 {
			nonZero = true
			break
		}
	}
	assert.True(t, nonZero)
}

func TestRenderGraphSequencerFiresIntoEngine(t *testing.T) {
	eng := NewEngine(64, 8, 44100)
	seq := NewSequencer()
	seq.AddPattern(&Pattern{Notes: []PatternNote{{Pitch: 60, Velocity: 1.0, StartBeat: 0, DurationBeats: 4}}})
	seq.SetTempo(120)
	WireSequencer(seq, eng)
	seq.Start()

	g := NewRenderGraph(seq, eng, nil, nil, 44100)
	buf := make([]float64, 512*2)
	g.Render(buf, 512) // ~0.0116s, well within the note duration

	assert.Equal(t, 1, eng.Channel(0).ActiveVoiceCount())
}

func TestRenderGraphSoftClampLimitsSamples(t *testing.T) {
	eng := NewEngine(64, 8, 44100)
	eng.NoteOn(0, 60, 1.0)
	eng.SetMasterVolume(1.0)

	h := NewErrorHandler(16)
	g := NewRenderGraph(nil, eng, nil, h, 44100)
	g.SetClipThreshold(0.0001) // force clipping on any nonzero sample
	g.SetSoftClamp(true)
	g.MasterGain().SetImmediate(10.0) // push samples well past the threshold

	buf := make([]float64, 32*2)
	g.Render(buf, 32)

	for _, s := range buf {
		assert.LessOrEqual(t, s, 0.0001+1e-9)
		assert.GreaterOrEqual(t, s, -0.0001-1e-9)
	}

	h.DrainRT()
	snap := h.Snapshot()
	assert.Greater(t, snap.RTErrorsQueued, uint64(0))
}

func TestRenderGraphEmergencyMuteSilencesOutput(t *testing.T) {
	eng := NewEngine(64, 8, 44100)
	eng.NoteOn(0, 60, 1.0)

	h := NewErrorHandler(16)
	g := NewRenderGraph(nil, eng, nil, h, 44100)
	g.SetEmergencyMute(true)

	buf := make([]float64, 64*2)
	g.Render(buf, 64)
	for _, s := range buf {
		assert.Equal(t, 0.0, s)
	}

	h.DrainRT()
	snap := h.Snapshot()
	assert.Equal(t, 1, snap.TotalByCode[CodeEmergencyMute])

	g.SetEmergencyMute(false)
	g.Render(buf, 64)
	nonZero := false
	for _, s := range buf {
		if s != 0 {
			nonZero = true
			break
		}
	}
	assert.True(t, nonZero, "releasing the mute restores audio")
}

func TestRenderGraphNilSequencerAndChainDoesNotPanic(t *testing.T) {
	eng := NewEngine(64, 8, 44100)
	g := NewRenderGraph(nil, eng, nil, nil, 44100)
	buf := make([]float64, 16*2)
	require.NotPanics(t, func() { g.Render(buf, 16) })
}
