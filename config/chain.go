package config

import (
	"github.com/pkg/errors"

	"github.com/lixenwraith/synthcore/audio"
)

// BuildChain constructs the effects chain described by the config's
// [[effects]] entries, in document order: each entry's type names an
// audio.CreateEffect type, its parameters are applied by name ("mix" is
// routed to the chain entry's wet/dry rather than the effect itself), and
// its enabled flag becomes the entry's bypass state. An unknown effect
// type fails the whole build — a config that names an effect that doesn't
// exist is a typo the operator wants surfaced, not skipped.
func (c *Config) BuildChain() (*audio.ReorderableChain, error) {
	chain := audio.NewReorderableChain()
	for i, def := range c.Effects {
		e, err := audio.CreateEffect(def.Type, c.SampleRate)
		if err != nil {
			return nil, errors.Wrapf(err, "config: effects[%d]", i)
		}
		idx := chain.Add(e)
		for name, v := range def.Parameters {
			if name == "mix" {
				chain.SetMix(idx, v)
				continue
			}
			e.SetParameter(name, v)
		}
		chain.SetEnabled(idx, def.Enabled)
	}
	return chain, nil
}
