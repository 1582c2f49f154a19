// Package config loads the ambient, non-RT-facing settings for a synthcore
// instance: sample rate, voice budget, default channel mix, and effect
// chain defaults. It never touches the RT thread directly — callers read a
// *Config once at startup (or on a reload command) and hand the derived
// values to audio.NewEngine / Config.BuildChain.
package config

import (
	"os"

	"github.com/pkg/errors"

	"github.com/lixenwraith/synthcore/parameter"
	"github.com/lixenwraith/synthcore/toml"
)

// ChannelDefaults mirrors the control-side fields of a channel synthesizer
// that make sense to preconfigure.
type ChannelDefaults struct {
	Volume        float64 `toml:"volume"`
	Pan           float64 `toml:"pan"`
	Priority      int     `toml:"priority"`
	Mono          bool    `toml:"mono"`
	Transposition int     `toml:"transposition"`
	FineTuneCents int     `toml:"fine_tune_cents"`
}

// EffectDefault names one chain entry to build at startup with its initial
// parameter set.
type EffectDefault struct {
	Type       string             `toml:"type"`
	Enabled    bool               `toml:"enabled"`
	Parameters map[string]float64 `toml:"parameters"`
}

// Config is the root document loaded from a .toml file.
type Config struct {
	SampleRate          int               `toml:"sample_rate"`
	MasterVolume        float64           `toml:"master_volume"`
	MaxTotalVoices      int               `toml:"max_total_voices"`
	MaxVoicesPerChannel int               `toml:"max_voices_per_channel"`
	VoiceBudgetStrategy string            `toml:"voice_budget_strategy"` // "equal", "priority", "dynamic"
	BendRangeSemitones  int               `toml:"bend_range_semitones"`
	Channels            []ChannelDefaults `toml:"channels"`
	Effects             []EffectDefault   `toml:"effects"`
	ClipThreshold       float64           `toml:"clip_threshold"`
	MaxErrorHistory     int               `toml:"max_error_history"`
	RTQueueCapacity     int               `toml:"rt_queue_capacity"`
}

// Default returns the zero-config fallback: one channel's worth of sane
// defaults repeated across all 16 channels, equal voice budgeting, and an
// empty effects chain.
func Default() *Config {
	channels := make([]ChannelDefaults, parameter.MaxMIDIChannels)
	for i := range channels {
		channels[i] = ChannelDefaults{
			Volume:   1.0,
			Pan:      0.0,
			Priority: 1,
		}
	}
	return &Config{
		SampleRate:          parameter.AudioSampleRate,
		MasterVolume:        0.8,
		MaxTotalVoices:      parameter.MaxTotalVoices,
		MaxVoicesPerChannel: parameter.MaxVoicesPerChannel,
		VoiceBudgetStrategy: "equal",
		BendRangeSemitones:  parameter.DefaultBendRangeSemi,
		Channels:            channels,
		ClipThreshold:       parameter.DefaultClipThreshold,
		MaxErrorHistory:     parameter.DefaultMaxHistory,
		RTQueueCapacity:     parameter.DefaultRTQueueCapacity,
	}
}

// Load reads and decodes a TOML config file, filling any zero-valued field
// from Default(). A missing file is not an error — it's equivalent to an
// empty document, so Load(nonexistent) == Default() with overrides applied
// from nothing.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "config: read %s", path)
	}

	var doc Config
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "config: parse %s", path)
	}

	applyOverrides(cfg, &doc)
	return cfg, nil
}

func applyOverrides(base, override *Config) {
	if override.SampleRate > 0 {
		base.SampleRate = override.SampleRate
	}
	if override.MasterVolume > 0 {
		base.MasterVolume = override.MasterVolume
	}
	if override.MaxTotalVoices > 0 {
		base.MaxTotalVoices = override.MaxTotalVoices
	}
	if override.MaxVoicesPerChannel > 0 {
		base.MaxVoicesPerChannel = override.MaxVoicesPerChannel
	}
	if override.VoiceBudgetStrategy != "" {
		base.VoiceBudgetStrategy = override.VoiceBudgetStrategy
	}
	if override.BendRangeSemitones > 0 {
		base.BendRangeSemitones = override.BendRangeSemitones
	}
	if len(override.Channels) > 0 {
		base.Channels = override.Channels
	}
	if len(override.Effects) > 0 {
		base.Effects = override.Effects
	}
	if override.ClipThreshold > 0 {
		base.ClipThreshold = override.ClipThreshold
	}
	if override.MaxErrorHistory > 0 {
		base.MaxErrorHistory = override.MaxErrorHistory
	}
	if override.RTQueueCapacity > 0 {
		base.RTQueueCapacity = override.RTQueueCapacity
	}
}
