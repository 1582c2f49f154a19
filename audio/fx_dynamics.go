package audio

import "math"

// Compressor is a stereo-linked peak-envelope compressor with soft knee,
// grounded on the reference compressor's envelope-follower design.
type Compressor struct {
	threshold float64 // dB
	ratio     float64
	attack    float64 // seconds
	release   float64
	makeup    float64 // dB
	knee      float64 // dB

	peakEnv                   float64 // dB
	attackCoeff, releaseCoeff float64

	sampleRate int
}

// NewCompressor creates a compressor with the reference implementation's
// defaults: -24dB threshold, 4:1 ratio, 10ms attack, 200ms release.
func NewCompressor(sampleRate int) *Compressor {
	c := &Compressor{
		threshold:  -24.0,
		ratio:      4.0,
		attack:     0.01,
		release:    0.2,
		makeup:     6.0,
		knee:       6.0,
		sampleRate: sampleRate,
	}
	c.recalculate()
	return c
}

func (c *Compressor) Name() string { return "compressor" }

func (c *Compressor) recalculate() {
	c.attackCoeff = math.Exp(-1.0 / (c.attack * float64(c.sampleRate)))
	c.releaseCoeff = math.Exp(-1.0 / (c.release * float64(c.sampleRate)))
}

func (c *Compressor) SetSampleRate(sr int) {
	c.sampleRate = sr
	c.recalculate()
}

func (c *Compressor) SetParameter(name string, value float64) {
	switch name {
	case "threshold":
		c.threshold = clamp(value, -60, 0)
	case "ratio":
		c.ratio = clamp(value, 1, 20)
	case "attack":
		c.attack = clamp(value, 0.001, 1.0)
		c.recalculate()
	case "release":
		c.release = clamp(value, 0.01, 3.0)
		c.recalculate()
	case "makeup":
		c.makeup = clamp(value, 0, 24)
	case "knee":
		c.knee = clamp(value, 0, 24)
	}
}

func (c *Compressor) GetParameter(name string) (float64, bool) {
	switch name {
	case "threshold":
		return c.threshold, true
	case "ratio":
		return c.ratio, true
	case "attack":
		return c.attack, true
	case "release":
		return c.release, true
	case "makeup":
		return c.makeup, true
	case "knee":
		return c.knee, true
	}
	return 0, false
}

func dbToGain(db float64) float64 { return math.Pow(10, db/20) }

// computeGain maps the envelope level to an output gain using a quadratic
// soft knee: below threshold-knee/2 no reduction, above threshold+knee/2
// the full ratio, and inside the knee the reduction follows
// slope*(over+knee/2)^2/(2*knee), which matches both the value and the
// slope of the hard-knee branches at the knee edges.
func (c *Compressor) computeGain(inputLevelDB float64) float64 {
	over := inputLevelDB - c.threshold
	slope := 1 - 1/c.ratio

	var reduction float64
	switch {
	case c.knee <= 0:
		if over > 0 {
			reduction = slope * over
		}
	case 2*over < -c.knee:
		reduction = 0
	case 2*over > c.knee:
		reduction = slope * over
	default:
		x := over + c.knee/2
		reduction = slope * x * x / (2 * c.knee)
	}
	return dbToGain(c.makeup - reduction)
}

func (c *Compressor) Process(left, right, wetDry float64) (float64, float64) {
	peak := math.Max(math.Abs(left), math.Abs(right))
	levelDB := -144.0
	if peak > 1e-6 {
		levelDB = 20 * math.Log10(peak)
	}

	if levelDB > c.peakEnv {
		c.peakEnv = c.attackCoeff*c.peakEnv + (1-c.attackCoeff)*levelDB
	} else {
		c.peakEnv = c.releaseCoeff*c.peakEnv + (1-c.releaseCoeff)*levelDB
	}

	gain := c.computeGain(c.peakEnv)
	return mixWet(left, left*gain, wetDry), mixWet(right, right*gain, wetDry)
}
