package audio

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/lixenwraith/synthcore/parameter"
)

// Metadata is the descriptive header of a preset document. The core defines the shape; concrete JSON (de)serialization of
// a full preset document onto disk is delegated to an external collaborator.
type Metadata struct {
	Name        string
	Author      string
	Category    string
	Description string
	Version     string
}

// ApplyParameters sets every engine/channel/chain value named in params by
// its flat dotted-path name, ignoring unknown
// keys. Keys follow the scheme documented in ExportParameters.
func ApplyParameters(e *Engine, chain *ReorderableChain, params map[string]float64) error {
	for name, value := range params {
		if err := applyOne(e, chain, name, value); err != nil {
			return err
		}
	}
	return nil
}

func applyOne(e *Engine, chain *ReorderableChain, name string, value float64) error {
	if name == "engine.master_volume" {
		e.SetMasterVolume(value)
		return nil
	}

	parts := strings.SplitN(name, ".", 3)
	if len(parts) != 3 {
		return nil // unknown key shape: ignored
	}
	index, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil
	}
	field := parts[2]

	switch parts[0] {
	case "channel":
		c := e.Channel(index)
		if c == nil {
			return errors.Errorf("preset: apply_parameters: channel %d out of range", index)
		}
		switch field {
		case "volume":
			c.SetVolume(value)
		case "pan":
			c.SetPan(value)
		case "transposition":
			c.SetTransposition(int(value))
		case "fine_tune_cents":
			c.SetFineTune(int(value))
		}
	case "chain":
		if chain == nil {
			return nil
		}
		switch field {
		case "mix":
			chain.SetMix(index, value)
		case "enabled":
			chain.SetEnabled(index, value != 0)
		}
	}
	return nil
}

// ExportParameters returns a flat dotted-path map of every externally
// addressable engine/channel/chain value, the
// inverse of ApplyParameters — applying the exported map must round-trip
// the engine's observable state.
func ExportParameters(e *Engine, chain *ReorderableChain) map[string]float64 {
	out := make(map[string]float64)
	out["engine.master_volume"] = e.MasterVolume()

	for i := 0; i < parameter.MaxMIDIChannels; i++ {
		c := e.Channel(i)
		if c == nil {
			continue
		}
		out[fmt.Sprintf("channel.%d.volume", i)] = c.Volume()
		out[fmt.Sprintf("channel.%d.pan", i)] = c.Pan()
		out[fmt.Sprintf("channel.%d.transposition", i)] = float64(c.transposition)
		out[fmt.Sprintf("channel.%d.fine_tune_cents", i)] = float64(c.fineTuneCents)
	}

	if chain != nil {
		for i := 0; i < chain.Len(); i++ {
			mix, _ := chain.Mix(i)
			out[fmt.Sprintf("chain.%d.mix", i)] = mix
			enabled := 0.0
			if chain.Enabled(i) {
				enabled = 1.0
			}
			out[fmt.Sprintf("chain.%d.enabled", i)] = enabled
		}
	}
	return out
}
