package audio

import "math"

// Distortion applies hard-knee tanh waveshaping with a pre-gain drive
// control.
type Distortion struct {
	drive float64 // 1..20
	tone  float64 // 0..1, post low-pass blend
}

// NewDistortion creates a distortion stage with unity drive.
func NewDistortion() *Distortion { return &Distortion{drive: 1.0, tone: 1.0} }

func (d *Distortion) Name() string { return "distortion" }

func (d *Distortion) SetSampleRate(int) {}

func (d *Distortion) SetParameter(name string, value float64) {
	switch name {
	case "drive":
		d.drive = clamp(value, 1, 20)
	case "tone":
		d.tone = clamp(value, 0, 1)
	}
}

func (d *Distortion) GetParameter(name string) (float64, bool) {
	switch name {
	case "drive":
		return d.drive, true
	case "tone":
		return d.tone, true
	}
	return 0, false
}

func (d *Distortion) shape(x float64) float64 {
	shaped := math.Tanh(x * d.drive)
	return x*(1-d.tone) + shaped*d.tone
}

func (d *Distortion) Process(left, right, wetDry float64) (float64, float64) {
	return mixWet(left, d.shape(left), wetDry), mixWet(right, d.shape(right), wetDry)
}

// Saturation is a gentler odd-harmonic waveshaper for analog-style warmth,
// distinct from Distortion's harder clip.
type Saturation struct {
	amount float64 // 0..1
}

// NewSaturation creates a saturation stage at amount 0.3.
func NewSaturation() *Saturation { return &Saturation{amount: 0.3} }

func (s *Saturation) Name() string { return "saturation" }

func (s *Saturation) SetSampleRate(int) {}

func (s *Saturation) SetParameter(name string, value float64) {
	if name == "amount" {
		s.amount = clamp(value, 0, 1)
	}
}

func (s *Saturation) GetParameter(name string) (float64, bool) {
	if name == "amount" {
		return s.amount, true
	}
	return 0, false
}

func (s *Saturation) shape(x float64) float64 {
	drive := 1 + s.amount*4
	return x - (drive/3)*x*x*x/(1+math.Abs(x))
}

func (s *Saturation) Process(left, right, wetDry float64) (float64, float64) {
	return mixWet(left, s.shape(left), wetDry), mixWet(right, s.shape(right), wetDry)
}

// Bitcrusher reduces bit depth and sample rate for lo-fi coloration.
type Bitcrusher struct {
	bits        int     // 1..16
	sampleHold  float64 // downsample factor, 1..50
	counter     float64
	held        [2]float64
}

// NewBitcrusher creates a bitcrusher at 16 bits, no downsampling.
func NewBitcrusher() *Bitcrusher { return &Bitcrusher{bits: 16, sampleHold: 1} }

func (b *Bitcrusher) Name() string { return "bitcrusher" }

func (b *Bitcrusher) SetSampleRate(int) {}

func (b *Bitcrusher) SetParameter(name string, value float64) {
	switch name {
	case "bits":
		b.bits = clampInt(int(value), 1, 16)
	case "downsample":
		b.sampleHold = math.Max(1, value)
	}
}

func (b *Bitcrusher) GetParameter(name string) (float64, bool) {
	switch name {
	case "bits":
		return float64(b.bits), true
	case "downsample":
		return b.sampleHold, true
	}
	return 0, false
}

func (b *Bitcrusher) quantize(x float64) float64 {
	levels := math.Pow(2, float64(b.bits))
	return math.Round(x*levels/2) / (levels / 2)
}

func (b *Bitcrusher) Process(left, right, wetDry float64) (float64, float64) {
	b.counter++
	if b.counter >= b.sampleHold {
		b.counter = 0
		b.held[0] = b.quantize(left)
		b.held[1] = b.quantize(right)
	}
	return mixWet(left, b.held[0], wetDry), mixWet(right, b.held[1], wetDry)
}
