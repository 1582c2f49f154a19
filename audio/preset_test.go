package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyParametersSetsKnownFields(t *testing.T) {
	e := NewEngine(64, 8, 44100)
	chain := NewReorderableChain()
	chain.Add(NewDistortion())

	params := map[string]float64{
		"engine.master_volume":       0.5,
		"channel.0.volume":           0.6,
		"channel.0.pan":              -0.25,
		"channel.0.transposition":    12,
		"channel.0.fine_tune_cents":  -5,
		"chain.0.mix":                0.8,
		"chain.0.enabled":            0,
	}
	require.NoError(t, ApplyParameters(e, chain, params))

	assert.InDelta(t, 0.5, e.MasterVolume(), 1e-9)
	assert.InDelta(t, 0.6, e.Channel(0).Volume(), 1e-9)
	assert.InDelta(t, -0.25, e.Channel(0).Pan(), 1e-9)
	mix, ok := chain.Mix(0)
	require.True(t, ok)
	assert.InDelta(t, 0.8, mix, 1e-9)
	assert.False(t, chain.Enabled(0))
}

func TestApplyParametersIgnoresUnknownKeys(t *testing.T) {
	e := NewEngine(64, 8, 44100)
	err := ApplyParameters(e, nil, map[string]float64{"totally.unknown.thing": 1})
	assert.NoError(t, err)
}

func TestApplyParametersRejectsOutOfRangeChannel(t *testing.T) {
	e := NewEngine(64, 8, 44100)
	err := ApplyParameters(e, nil, map[string]float64{"channel.99.volume": 1})
	assert.Error(t, err)
}

func TestExportParametersRoundTripsThroughApply(t *testing.T) {
	e := NewEngine(64, 8, 44100)
	chain := NewReorderableChain()
	chain.Add(NewDistortion())

	e.SetMasterVolume(0.42)
	e.Channel(3).SetVolume(0.33)
	e.Channel(3).SetPan(0.9)
	chain.SetMix(0, 0.25)
	chain.SetEnabled(0, false)

	exported := ExportParameters(e, chain)

	e2 := NewEngine(64, 8, 44100)
	chain2 := NewReorderableChain()
	chain2.Add(NewDistortion())
	require.NoError(t, ApplyParameters(e2, chain2, exported))

	assert.InDelta(t, e.MasterVolume(), e2.MasterVolume(), 1e-9)
	assert.InDelta(t, e.Channel(3).Volume(), e2.Channel(3).Volume(), 1e-9)
	assert.InDelta(t, e.Channel(3).Pan(), e2.Channel(3).Pan(), 1e-9)

	mix1, _ := chain.Mix(0)
	mix2, _ := chain2.Mix(0)
	assert.InDelta(t, mix1, mix2, 1e-9)
	assert.Equal(t, chain.Enabled(0), chain2.Enabled(0))
}
