package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModulationMatrixAddUpdateRemove(t *testing.T) {
	m := NewModulationMatrix()
	m.AddRoute(SourceLFO1, DestPitch, 0.5)
	require := assert.New(t)
	require.Len(m.Snapshot(), 1)

	m.AddRoute(SourceLFO1, DestPitch, 0.9)
	snap := m.Snapshot()
	require.Len(snap, 1)
	require.InDelta(0.9, snap[0].amount, 1e-9)

	m.RemoveRoute(SourceLFO1, DestPitch)
	require.Len(m.Snapshot(), 0)
}

func TestModulationMatrixAmountClamped(t *testing.T) {
	m := NewModulationMatrix()
	m.AddRoute(SourceModWheel, DestFilterCutoff, 5.0)
	snap := m.Snapshot()
	assert.InDelta(t, 1.0, snap[0].amount, 1e-9)
}

func TestModulationSnapshotIsImmutableAcrossEdits(t *testing.T) {
	m := NewModulationMatrix()
	m.AddRoute(SourceLFO1, DestPitch, 0.5)
	snap := m.Snapshot()

	m.AddRoute(SourceLFO2, DestPan, 0.3)
	assert.Len(t, snap, 1, "a held snapshot must not observe later edits")
	assert.Len(t, m.Snapshot(), 2)
}

func TestChannelModulationPanAndCutoffLatch(t *testing.T) {
	c := NewChannelSynthesizer(0, 4, 44100)
	c.Modulation().AddRoute(SourceModWheel, DestPan, 1.0)
	c.Modulation().AddRoute(SourceModWheel, DestFilterCutoff, 0.5)
	c.SetCC(1, 127) // mod wheel fully up

	c.NoteOn(60, 0.8, nil)
	c.Render()

	assert.InDelta(t, 1.0, c.PanEffective(), 1e-9)
	assert.InDelta(t, 0.5, c.FilterCutoffModulation(), 1e-9)
}

func TestChannelModulationAmplitudeScalesOutput(t *testing.T) {
	c := NewChannelSynthesizer(0, 4, 44100)
	c.SetSound(WaveSquare, ADSR{Attack: 0, Decay: 0, Sustain: 1, Release: 0.1})
	c.NoteOn(60, 1.0, nil)

	// A velocity-driven negative amplitude route cuts the channel gain
	// from 1.0 to 1.0 - 1.0*0.75 = 0.25.
	c.Modulation().AddRoute(SourceVelocity, DestAmplitude, -0.75)
	for i := 0; i < 100; i++ {
		mod := c.Render()
		if mod != 0 {
			assert.InDelta(t, 0.25, math.Abs(mod), 1e-9,
				"square wave at full velocity should render at the modulated gain")
			return
		}
	}
	t.Fatal("channel never produced a nonzero sample")
}

func TestChannelNoModulationRoutesClearsLatchedValues(t *testing.T) {
	c := NewChannelSynthesizer(0, 4, 44100)
	c.Modulation().AddRoute(SourceModWheel, DestPan, 1.0)
	c.SetCC(1, 127)
	c.Render()
	assert.InDelta(t, 1.0, c.PanEffective(), 1e-9)

	c.Modulation().Clear()
	c.Render()
	assert.InDelta(t, 0.0, c.PanEffective(), 1e-9)
}

func TestModulationApplyAccumulatesPerDestination(t *testing.T) {
	m := NewModulationMatrix()
	m.AddRoute(SourceLFO1, DestPitch, 0.5)
	m.AddRoute(SourceEnvelope, DestPitch, 0.25)
	m.AddRoute(SourceVelocity, DestAmplitude, 1.0)

	values := [6]float64{}
	values[SourceLFO1] = 1.0
	values[SourceEnvelope] = 1.0
	values[SourceVelocity] = 0.8

	var out [4]float64
	Apply(m.Snapshot(), values, &out)

	assert.InDelta(t, 0.75, out[DestPitch], 1e-9)
	assert.InDelta(t, 0.8, out[DestAmplitude], 1e-9)
}
