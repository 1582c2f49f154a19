package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/synthcore/parameter"
)

func TestDefaultFillsEveryChannel(t *testing.T) {
	cfg := Default()
	require.Len(t, cfg.Channels, parameter.MaxMIDIChannels)
	assert.Equal(t, parameter.AudioSampleRate, cfg.SampleRate)
	assert.Equal(t, "equal", cfg.VoiceBudgetStrategy)
	for _, ch := range cfg.Channels {
		assert.InDelta(t, 1.0, ch.Volume, 1e-9)
		assert.Equal(t, 1, ch.Priority)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default().SampleRate, cfg.SampleRate)
}

func TestLoadAppliesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synth.toml")
	doc := `sample_rate = 48000
master_volume = 0.5
voice_budget_strategy = "priority"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 48000, cfg.SampleRate)
	assert.InDelta(t, 0.5, cfg.MasterVolume, 1e-9)
	assert.Equal(t, "priority", cfg.VoiceBudgetStrategy)
	assert.Equal(t, parameter.MaxTotalVoices, cfg.MaxTotalVoices, "unset fields keep defaults")
}

func TestBuildChainConstructsConfiguredEffects(t *testing.T) {
	cfg := Default()
	cfg.Effects = []EffectDefault{
		{Type: "delay", Enabled: true, Parameters: map[string]float64{"time_ms": 250, "mix": 0.3}},
		{Type: "reverb", Enabled: false, Parameters: map[string]float64{"room_size": 0.7}},
	}

	chain, err := cfg.BuildChain()
	require.NoError(t, err)
	require.Equal(t, 2, chain.Len())

	assert.Equal(t, "delay", chain.TypeName(0))
	mix, ok := chain.Mix(0)
	require.True(t, ok)
	assert.InDelta(t, 0.3, mix, 1e-9)
	v, ok := chain.EffectAt(0).GetParameter("time_ms")
	require.True(t, ok)
	assert.InDelta(t, 250, v, 1e-9)

	assert.Equal(t, "reverb", chain.TypeName(1))
	assert.False(t, chain.Enabled(1))
}

func TestBuildChainUnknownTypeFails(t *testing.T) {
	cfg := Default()
	cfg.Effects = []EffectDefault{{Type: "theremin", Enabled: true}}
	_, err := cfg.BuildChain()
	assert.Error(t, err)
}
