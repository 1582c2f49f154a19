package audio

import "math"

// biquadKinds maps the runtime "type" parameter's 0..3 index to a kind
// name, in the same order the reference filter enumerates them.
var biquadKinds = [4]string{"lowpass", "highpass", "bandpass", "notch"}

// Biquad implements a standard RBJ biquad in direct-form-I, configurable as
// low-pass, high-pass, band-pass, or notch.
type Biquad struct {
	kind   string // "lowpass", "highpass", "bandpass", "notch"
	freq   float64
	q      float64
	gainDB float64 // -24..24, level trim on the filtered signal

	b0, b1, b2, a1, a2 float64
	gainLin            float64

	x1, x2, y1, y2 [2]float64 // per-channel state

	sampleRate int
}

// NewBiquad creates a biquad of the given kind at freq/q, sampleRate.
func NewBiquad(kind string, freq, q float64, sampleRate int) *Biquad {
	f := &Biquad{
		kind:       kind,
		freq:       clamp(freq, 20, 20000),
		q:          clamp(q, 0.1, 10),
		sampleRate: sampleRate,
	}
	f.recalculate()
	return f
}

func (f *Biquad) Name() string { return "biquad_" + f.kind }

func (f *Biquad) recalculate() {
	w0 := 2 * math.Pi * f.freq / float64(f.sampleRate)
	alpha := math.Sin(w0) / (2 * f.q)
	cosw0 := math.Cos(w0)

	var b0, b1, b2, a0, a1, a2 float64
	switch f.kind {
	case "highpass":
		b0 = (1 + cosw0) / 2
		b1 = -(1 + cosw0)
		b2 = (1 + cosw0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	case "bandpass":
		b0 = alpha
		b1 = 0
		b2 = -alpha
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	case "notch":
		b0 = 1
		b1 = -2 * cosw0
		b2 = 1
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	default: // lowpass
		b0 = (1 - cosw0) / 2
		b1 = 1 - cosw0
		b2 = (1 - cosw0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	}
	f.b0, f.b1, f.b2 = b0/a0, b1/a0, b2/a0
	f.a1, f.a2 = a1/a0, a2/a0
	f.gainLin = dbToGain(f.gainDB)
}

func (f *Biquad) SetSampleRate(sr int) {
	f.sampleRate = sr
	f.recalculate()
}

func (f *Biquad) SetParameter(name string, value float64) {
	switch name {
	case "frequency":
		f.freq = clamp(value, 20, 20000)
	case "resonance", "q":
		f.q = clamp(value, 0.1, 10)
	case "gain":
		f.gainDB = clamp(value, -24, 24)
	case "type":
		idx := int(value)
		if idx < 0 || idx >= len(biquadKinds) {
			return
		}
		f.kind = biquadKinds[idx]
	default:
		return
	}
	f.recalculate()
}

func (f *Biquad) GetParameter(name string) (float64, bool) {
	switch name {
	case "frequency":
		return f.freq, true
	case "resonance", "q":
		return f.q, true
	case "gain":
		return f.gainDB, true
	case "type":
		for i, k := range biquadKinds {
			if k == f.kind {
				return float64(i), true
			}
		}
	}
	return 0, false
}

func (f *Biquad) processChannel(ch int, x float64) float64 {
	y := f.b0*x + f.b1*f.x1[ch] + f.b2*f.x2[ch] - f.a1*f.y1[ch] - f.a2*f.y2[ch]
	f.x2[ch], f.x1[ch] = f.x1[ch], x
	f.y2[ch], f.y1[ch] = f.y1[ch], y
	return y * f.gainLin
}

func (f *Biquad) Process(left, right, wetDry float64) (float64, float64) {
	wl := f.processChannel(0, left)
	wr := f.processChannel(1, right)
	return mixWet(left, wl, wetDry), mixWet(right, wr, wetDry)
}

// LadderFilter is a four-stage cascaded one-pole lowpass/highpass with
// resonance feedback, using the polynomial coefficient approximation for g
// in place of a transcendental tan() call.
type LadderFilter struct {
	highpass bool
	freq     float64
	resonance float64 // 0..1, internally scaled to ~0..4
	drive    float64
	poles    int // 1..4

	g               float64
	resonanceComp   float64
	cachedResonance float64 // resonance scaled to ~0..4, recomputed on parameter change

	state [2][4]float64
	delay [2]float64

	sampleRate int
}

// NewLadderFilter creates a ladder filter at freq with resonance 0..1.
func NewLadderFilter(highpass bool, freq, resonance float64, sampleRate int) *LadderFilter {
	lf := &LadderFilter{
		highpass:   highpass,
		freq:       freq,
		resonance:  resonance,
		drive:      1.0,
		poles:      4,
		sampleRate: sampleRate,
	}
	lf.recalculate()
	return lf
}

func (lf *LadderFilter) Name() string { return "ladder" }

func (lf *LadderFilter) recalculate() {
	c := clamp(2.0*lf.freq/float64(lf.sampleRate), 0, 1)
	lf.g = 0.9892*c - 0.4342*c*c + 0.1381*c*c*c - 0.0202*c*c*c*c

	res := lf.resonance * 3.99
	lf.resonanceComp = 0
	if res > 0 {
		lf.resonanceComp = 0.005 * res
	}
	lf.cachedResonance = res
}

func (lf *LadderFilter) SetSampleRate(sr int) {
	lf.sampleRate = sr
	lf.recalculate()
}

func (lf *LadderFilter) SetParameter(name string, value float64) {
	switch name {
	case "frequency":
		lf.freq = value
		lf.recalculate()
	case "resonance":
		lf.resonance = clamp(value, 0, 1)
		lf.recalculate()
	case "drive":
		lf.drive = value
	case "poles":
		lf.poles = clampInt(int(value), 1, 4)
	}
}

func (lf *LadderFilter) GetParameter(name string) (float64, bool) {
	switch name {
	case "frequency":
		return lf.freq, true
	case "resonance":
		return lf.resonance, true
	case "drive":
		return lf.drive, true
	case "poles":
		return float64(lf.poles), true
	}
	return 0, false
}

func (lf *LadderFilter) processChannel(ch int, x float64) float64 {
	input := x * lf.drive
	if lf.drive > 1.0 && math.Abs(input) > 1.0 {
		input = math.Tanh(input)
	}

	feedback := lf.cachedResonance * (1.0 - 0.15*lf.g) * lf.state[ch][3]
	compensated := input + lf.resonanceComp*input
	stage := compensated - feedback

	for i := 0; i < 4; i++ {
		stage = lf.g*stage + (1.0-lf.g)*lf.state[ch][i]
		lf.state[ch][i] = stage
	}

	idx := lf.poles - 1
	if lf.highpass {
		lf.delay[ch] = input
		return lf.delay[ch] - lf.state[ch][idx]
	}
	return lf.state[ch][idx]
}

func (lf *LadderFilter) Process(left, right, wetDry float64) (float64, float64) {
	wl := lf.processChannel(0, left)
	wr := lf.processChannel(1, right)
	return mixWet(left, wl, wetDry), mixWet(right, wr, wetDry)
}

// CombFilter implements both comb topologies: feed-forward (FIR,
// y = direct·x + g·x[n−M], notches) and feedback (IIR,
// y = direct·x + g·y[n−M], peaks), with an LFO modulating the delay time
// for flanger/chorus-adjacent coloration. The right channel's LFO runs a
// quarter cycle ahead of the left for stereo movement.
type CombFilter struct {
	buf [2][]float64
	pos [2]int

	feedForward bool
	delayMs     float64 // 0.1..100
	feedback    float64 // -0.99..0.99
	modAmount   float64 // ms, 0..10
	modRate     float64 // Hz
	directMix   float64 // 0..1

	lfoPhase [2]float64

	sampleRate int
}

// NewCombFilter creates a feed-forward comb with delayMs delay and
// feedback -0.99..0.99, modulation off.
func NewCombFilter(delayMs, feedback float64, sampleRate int) *CombFilter {
	cf := &CombFilter{
		feedForward: true,
		delayMs:     clamp(delayMs, 0.1, 100),
		feedback:    clamp(feedback, -0.99, 0.99),
		modRate:     0.5,
		directMix:   1.0,
		sampleRate:  sampleRate,
	}
	cf.lfoPhase[1] = 0.25
	cf.resize()
	return cf
}

func (cf *CombFilter) Name() string { return "comb" }

// resize rebuilds the delay lines to hold the base delay plus full
// modulation swing. Clears state — control thread only.
func (cf *CombFilter) resize() {
	n := int((cf.delayMs+cf.modAmount+1)*float64(cf.sampleRate)/1000.0) + 2
	for ch := 0; ch < 2; ch++ {
		cf.buf[ch] = make([]float64, n)
		cf.pos[ch] = 0
	}
}

func (cf *CombFilter) SetSampleRate(sr int) {
	cf.sampleRate = sr
	cf.resize()
}

func (cf *CombFilter) SetParameter(name string, value float64) {
	switch name {
	case "delay_time":
		cf.delayMs = clamp(value, 0.1, 100)
		cf.resize()
	case "feedback":
		cf.feedback = clamp(value, -0.99, 0.99)
	case "mod_amount":
		cf.modAmount = clamp(value, 0, 10)
		cf.resize()
	case "mod_rate":
		cf.modRate = clamp(value, 0.1, 10)
	case "direct_mix":
		cf.directMix = clamp(value, 0, 1)
	case "type":
		cf.feedForward = int(value) == 0
	}
}

func (cf *CombFilter) GetParameter(name string) (float64, bool) {
	switch name {
	case "delay_time":
		return cf.delayMs, true
	case "feedback":
		return cf.feedback, true
	case "mod_amount":
		return cf.modAmount, true
	case "mod_rate":
		return cf.modRate, true
	case "direct_mix":
		return cf.directMix, true
	case "type":
		if cf.feedForward {
			return 0, true
		}
		return 1, true
	}
	return 0, false
}

func (cf *CombFilter) processChannel(ch int, x float64) float64 {
	buf := cf.buf[ch]
	n := len(buf)

	lfoVal := math.Sin(2 * math.Pi * cf.lfoPhase[ch])
	cf.lfoPhase[ch] += cf.modRate / float64(cf.sampleRate)
	if cf.lfoPhase[ch] >= 1 {
		cf.lfoPhase[ch] -= 1
	}

	delaySamples := (cf.delayMs + cf.modAmount*lfoVal) * float64(cf.sampleRate) / 1000.0
	if delaySamples < 1 {
		delaySamples = 1
	}
	if limit := float64(n - 2); delaySamples > limit {
		delaySamples = limit
	}

	readPos := float64(cf.pos[ch]) - delaySamples
	for readPos < 0 {
		readPos += float64(n)
	}
	i0 := int(readPos) % n
	i1 := (i0 + 1) % n
	frac := readPos - math.Floor(readPos)
	delayed := buf[i0]*(1-frac) + buf[i1]*frac

	out := cf.directMix*x + cf.feedback*delayed
	if cf.feedForward {
		buf[cf.pos[ch]] = x
	} else {
		buf[cf.pos[ch]] = out
	}
	cf.pos[ch] = (cf.pos[ch] + 1) % n
	return out
}

func (cf *CombFilter) Process(left, right, wetDry float64) (float64, float64) {
	wl := cf.processChannel(0, left)
	wr := cf.processChannel(1, right)
	return mixWet(left, wl, wetDry), mixWet(right, wr, wetDry)
}

// FormantFilter approximates a vowel resonance by cascading three band-pass
// biquads tuned to a vowel's formant frequencies.
type FormantFilter struct {
	bands      [3]*Biquad
	vowel      string
	sampleRate int
}

var vowelFormants = map[string][3]float64{
	"a": {800, 1150, 2900},
	"e": {400, 2000, 2550},
	"i": {350, 2000, 2700},
	"o": {450, 800, 2830},
	"u": {325, 700, 2530},
}

// NewFormantFilter creates a formant filter tuned to vowel ("a","e","i","o","u").
func NewFormantFilter(vowel string, sampleRate int) *FormantFilter {
	ff := &FormantFilter{vowel: vowel, sampleRate: sampleRate}
	freqs, ok := vowelFormants[vowel]
	if !ok {
		freqs = vowelFormants["a"]
		ff.vowel = "a"
	}
	for i, f := range freqs {
		ff.bands[i] = NewBiquad("bandpass", f, 10, sampleRate)
	}
	return ff
}

func (ff *FormantFilter) Name() string { return "formant" }

func (ff *FormantFilter) SetSampleRate(sr int) {
	ff.sampleRate = sr
	for _, b := range ff.bands {
		b.SetSampleRate(sr)
	}
}

func (ff *FormantFilter) SetParameter(name string, value float64) {
	if name != "vowel_index" {
		return
	}
	vowels := []string{"a", "e", "i", "o", "u"}
	idx := clampInt(int(value), 0, len(vowels)-1)
	freqs := vowelFormants[vowels[idx]]
	ff.vowel = vowels[idx]
	for i, f := range freqs {
		ff.bands[i].SetParameter("frequency", f)
	}
}

func (ff *FormantFilter) GetParameter(name string) (float64, bool) {
	return 0, false
}

func (ff *FormantFilter) Process(left, right, wetDry float64) (float64, float64) {
	var wl, wr float64
	for _, b := range ff.bands {
		l, r := b.Process(left, right, 1.0)
		wl += l / 3
		wr += r / 3
	}
	return mixWet(left, wl, wetDry), mixWet(right, wr, wetDry)
}
