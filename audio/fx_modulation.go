package audio

import "math"

// lfo is a shared low-frequency oscillator used by the modulation effects
// below, not itself an Effect.
type lfo struct {
	phase      float64
	rateHz     float64
	sampleRate int
}

func newLFO(rateHz float64, sampleRate int) *lfo {
	return &lfo{rateHz: rateHz, sampleRate: sampleRate}
}

func (l *lfo) next() float64 {
	v := math.Sin(2 * math.Pi * l.phase)
	l.phase += l.rateHz / float64(l.sampleRate)
	if l.phase >= 1 {
		l.phase -= 1
	}
	return v
}

// Phaser sweeps a bank of all-pass stages with an LFO to produce the
// characteristic notch-sweep effect.
type Phaser struct {
	stages   [4]*onePoleAllpass
	osc      *lfo
	depth    float64
	feedback float64
	fbState  [2]float64

	sampleRate int
}

// NewPhaser creates a 4-stage phaser at rateHz sweep speed.
func NewPhaser(rateHz float64, sampleRate int) *Phaser {
	p := &Phaser{osc: newLFO(rateHz, sampleRate), depth: 1.0, feedback: 0.5, sampleRate: sampleRate}
	for i := range p.stages {
		p.stages[i] = &onePoleAllpass{}
	}
	return p
}

func (p *Phaser) Name() string { return "phaser" }

func (p *Phaser) SetSampleRate(sr int) {
	p.sampleRate = sr
	p.osc.sampleRate = sr
}

func (p *Phaser) SetParameter(name string, value float64) {
	switch name {
	case "rate":
		p.osc.rateHz = value
	case "depth":
		p.depth = clamp(value, 0, 1)
	case "feedback":
		p.feedback = clamp(value, 0, 0.95)
	}
}

func (p *Phaser) GetParameter(name string) (float64, bool) {
	switch name {
	case "rate":
		return p.osc.rateHz, true
	case "depth":
		return p.depth, true
	case "feedback":
		return p.feedback, true
	}
	return 0, false
}

func (p *Phaser) processChannel(ch int, x float64, coeff float64) float64 {
	y := x + p.fbState[ch]*p.feedback
	for _, s := range p.stages {
		y = s.process(ch, y, coeff)
	}
	p.fbState[ch] = y
	return x + (y-x)*p.depth
}

func (p *Phaser) Process(left, right, wetDry float64) (float64, float64) {
	lfoVal := p.osc.next()
	coeff := 0.1 + (lfoVal+1)/2*0.8
	wl := p.processChannel(0, left, coeff)
	wr := p.processChannel(1, right, coeff)
	return mixWet(left, wl, wetDry), mixWet(right, wr, wetDry)
}

type onePoleAllpass struct {
	z [2]float64
}

func (a *onePoleAllpass) process(ch int, x, coeff float64) float64 {
	y := -coeff*x + a.z[ch]
	a.z[ch] = x + coeff*y
	return y
}

// ModulationFX covers chorus and flanger: an LFO-modulated delay line mixed
// with the dry signal, differing only in depth/delay-time ranges.
type ModulationFX struct {
	isFlanger bool

	buf      [2][]float64
	pos      [2]int
	osc      *lfo
	depthMs  float64
	baseMs   float64
	feedback float64

	sampleRate int
}

// NewChorus creates a chorus effect: longer base delay, no feedback.
func NewChorus(rateHz, depthMs float64, sampleRate int) *ModulationFX {
	return newModulationFX(false, rateHz, depthMs, 15, 0, sampleRate)
}

// NewFlanger creates a flanger effect: short base delay with feedback.
func NewFlanger(rateHz, depthMs, feedback float64, sampleRate int) *ModulationFX {
	return newModulationFX(true, rateHz, depthMs, 2, feedback, sampleRate)
}

func newModulationFX(flanger bool, rateHz, depthMs, baseMs, feedback float64, sampleRate int) *ModulationFX {
	m := &ModulationFX{
		isFlanger:  flanger,
		osc:        newLFO(rateHz, sampleRate),
		depthMs:    depthMs,
		baseMs:     baseMs,
		feedback:   clamp(feedback, 0, 0.95),
		sampleRate: sampleRate,
	}
	m.resize()
	return m
}

func (m *ModulationFX) Name() string {
	if m.isFlanger {
		return "flanger"
	}
	return "chorus"
}

func (m *ModulationFX) resize() {
	maxMs := m.baseMs + m.depthMs + 1
	n := int(maxMs * float64(m.sampleRate) / 1000.0)
	if n < 2 {
		n = 2
	}
	for ch := 0; ch < 2; ch++ {
		m.buf[ch] = make([]float64, n)
		m.pos[ch] = 0
	}
}

func (m *ModulationFX) SetSampleRate(sr int) {
	m.sampleRate = sr
	m.osc.sampleRate = sr
	m.resize()
}

func (m *ModulationFX) SetParameter(name string, value float64) {
	switch name {
	case "rate":
		m.osc.rateHz = value
	case "depth_ms":
		m.depthMs = value
		m.resize()
	case "feedback":
		m.feedback = clamp(value, 0, 0.95)
	}
}

func (m *ModulationFX) GetParameter(name string) (float64, bool) {
	switch name {
	case "rate":
		return m.osc.rateHz, true
	case "depth_ms":
		return m.depthMs, true
	case "feedback":
		return m.feedback, true
	}
	return 0, false
}

func (m *ModulationFX) processChannel(ch int, x float64, lfoVal float64) float64 {
	buf := m.buf[ch]
	n := len(buf)

	delaySamples := (m.baseMs + m.depthMs*(lfoVal+1)/2) * float64(m.sampleRate) / 1000.0
	readPos := float64(m.pos[ch]) - delaySamples
	for readPos < 0 {
		readPos += float64(n)
	}
	i0 := int(readPos) % n
	i1 := (i0 + 1) % n
	frac := readPos - math.Floor(readPos)
	delayed := buf[i0]*(1-frac) + buf[i1]*frac

	buf[m.pos[ch]] = x + delayed*m.feedback
	m.pos[ch] = (m.pos[ch] + 1) % n

	return (x + delayed) * 0.5
}

func (m *ModulationFX) Process(left, right, wetDry float64) (float64, float64) {
	lfoVal := m.osc.next()
	wl := m.processChannel(0, left, lfoVal)
	wr := m.processChannel(1, right, lfoVal)
	return mixWet(left, wl, wetDry), mixWet(right, wr, wetDry)
}
