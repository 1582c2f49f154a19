package audio

import "github.com/pkg/errors"

// CreateEffect builds a concrete effect by its type name at sampleRate,
// with each type's conventional starting parameters. Names match what the
// returned effect's Name() reports, so a chain round-trips: TypeName(i) fed
// back through CreateEffect rebuilds an equivalent entry. Unknown names are
// an error, not a panic — the caller is typically deserializing a config or
// preset document and decides how loudly to fail.
func CreateEffect(typeName string, sampleRate int) (Effect, error) {
	switch typeName {
	case "biquad_lowpass":
		return NewBiquad("lowpass", 1000, 0.707, sampleRate), nil
	case "biquad_highpass":
		return NewBiquad("highpass", 200, 0.707, sampleRate), nil
	case "biquad_bandpass":
		return NewBiquad("bandpass", 800, 1.0, sampleRate), nil
	case "biquad_notch":
		return NewBiquad("notch", 1000, 2.0, sampleRate), nil
	case "ladder":
		return NewLadderFilter(false, 1000, 0.3, sampleRate), nil
	case "comb":
		return NewCombFilter(10, 0.5, sampleRate), nil
	case "formant":
		return NewFormantFilter("a", sampleRate), nil
	case "delay":
		return NewDelay(300, 0.4, sampleRate), nil
	case "reverb":
		return NewReverb(0.5, sampleRate), nil
	case "compressor":
		return NewCompressor(sampleRate), nil
	case "distortion":
		return NewDistortion(), nil
	case "saturation":
		return NewSaturation(), nil
	case "bitcrusher":
		return NewBitcrusher(), nil
	case "phaser":
		return NewPhaser(0.5, sampleRate), nil
	case "chorus":
		return NewChorus(0.8, 8, sampleRate), nil
	case "flanger":
		return NewFlanger(0.3, 3, 0.5, sampleRate), nil
	case "eq3":
		return NewThreeBandEQ(sampleRate), nil
	}
	return nil, errors.Errorf("audio: unknown effect type %q", typeName)
}
