package audio

// ThreeBandEQ splits the signal into low/mid/high bands with independent
// gain, built from the same Biquad used elsewhere in the chain.
type ThreeBandEQ struct {
	lowShelf  *Biquad
	highShelf *Biquad
	midPeak   *Biquad

	lowGain, midGain, highGain float64 // linear gain, 0..2

	sampleRate int
}

// NewThreeBandEQ creates a unity-gain 3-band EQ with crossover points at
// 300Hz and 3000Hz.
func NewThreeBandEQ(sampleRate int) *ThreeBandEQ {
	return &ThreeBandEQ{
		lowShelf:   NewBiquad("lowpass", 300, 0.707, sampleRate),
		highShelf:  NewBiquad("highpass", 3000, 0.707, sampleRate),
		midPeak:    NewBiquad("bandpass", 1000, 0.707, sampleRate),
		lowGain:    1.0,
		midGain:    1.0,
		highGain:   1.0,
		sampleRate: sampleRate,
	}
}

func (eq *ThreeBandEQ) Name() string { return "eq3" }

func (eq *ThreeBandEQ) SetSampleRate(sr int) {
	eq.sampleRate = sr
	eq.lowShelf.SetSampleRate(sr)
	eq.highShelf.SetSampleRate(sr)
	eq.midPeak.SetSampleRate(sr)
}

func (eq *ThreeBandEQ) SetParameter(name string, value float64) {
	switch name {
	case "low_gain":
		eq.lowGain = clamp(value, 0, 2)
	case "mid_gain":
		eq.midGain = clamp(value, 0, 2)
	case "high_gain":
		eq.highGain = clamp(value, 0, 2)
	case "low_freq":
		eq.lowShelf.SetParameter("frequency", value)
	case "high_freq":
		eq.highShelf.SetParameter("frequency", value)
	case "mid_freq":
		eq.midPeak.SetParameter("frequency", value)
	}
}

func (eq *ThreeBandEQ) GetParameter(name string) (float64, bool) {
	switch name {
	case "low_gain":
		return eq.lowGain, true
	case "mid_gain":
		return eq.midGain, true
	case "high_gain":
		return eq.highGain, true
	}
	return 0, false
}

func (eq *ThreeBandEQ) processChannel(low, mid, high [2]float64, ch int) float64 {
	return low[ch]*eq.lowGain + mid[ch]*eq.midGain + high[ch]*eq.highGain
}

func (eq *ThreeBandEQ) Process(left, right, wetDry float64) (float64, float64) {
	lowL, lowR := eq.lowShelf.Process(left, right, 1.0)
	highL, highR := eq.highShelf.Process(left, right, 1.0)
	midL, midR := eq.midPeak.Process(left, right, 1.0)

	low := [2]float64{lowL, lowR}
	high := [2]float64{highL, highR}
	mid := [2]float64{midL, midR}

	wl := eq.processChannel(low, mid, high, 0)
	wr := eq.processChannel(low, mid, high, 1)
	return mixWet(left, wl, wetDry), mixWet(right, wr, wetDry)
}
