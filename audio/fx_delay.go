package audio

// Delay is a stereo feedback delay line with independent per-channel time,
// used standalone or as a reverb building block.
type Delay struct {
	buf      [2][]float64
	pos      [2]int
	timeMs   float64
	feedback float64

	sampleRate int
}

// NewDelay creates a delay line at timeMs with feedback 0..1.
func NewDelay(timeMs, feedback float64, sampleRate int) *Delay {
	d := &Delay{timeMs: timeMs, feedback: clamp(feedback, 0, 0.98), sampleRate: sampleRate}
	d.resize()
	return d
}

func (d *Delay) Name() string { return "delay" }

func (d *Delay) resize() {
	n := int(d.timeMs * float64(d.sampleRate) / 1000.0)
	if n < 1 {
		n = 1
	}
	for ch := 0; ch < 2; ch++ {
		if len(d.buf[ch]) != n {
			d.buf[ch] = make([]float64, n)
			d.pos[ch] = 0
		}
	}
}

func (d *Delay) SetSampleRate(sr int) {
	d.sampleRate = sr
	d.resize()
}

func (d *Delay) SetParameter(name string, value float64) {
	switch name {
	case "time_ms":
		d.timeMs = value
		d.resize()
	case "feedback":
		d.feedback = clamp(value, 0, 0.98)
	}
}

func (d *Delay) GetParameter(name string) (float64, bool) {
	switch name {
	case "time_ms":
		return d.timeMs, true
	case "feedback":
		return d.feedback, true
	}
	return 0, false
}

func (d *Delay) processChannel(ch int, x float64) float64 {
	buf := d.buf[ch]
	out := buf[d.pos[ch]]
	buf[d.pos[ch]] = x + out*d.feedback
	d.pos[ch] = (d.pos[ch] + 1) % len(buf)
	return out
}

func (d *Delay) Process(left, right, wetDry float64) (float64, float64) {
	wl := d.processChannel(0, left)
	wr := d.processChannel(1, right)
	return mixWet(left, wl, wetDry), mixWet(right, wr, wetDry)
}

// Reverb is a Schroeder-style reverb: four parallel comb filters summed
// and cleaned up by two series all-pass stages.
type Reverb struct {
	combs    [4]*CombFilter
	allpass1 *allpassFilter
	allpass2 *allpassFilter

	roomSize float64
	damping  float64

	sampleRate int
}

// NewReverb creates a reverb with roomSize 0..1 controlling comb feedback.
func NewReverb(roomSize float64, sampleRate int) *Reverb {
	delaysMs := [4]float64{29.7, 37.1, 41.1, 43.7}
	r := &Reverb{roomSize: clamp(roomSize, 0, 1), damping: 0.5, sampleRate: sampleRate}
	for i, ms := range delaysMs {
		r.combs[i] = NewCombFilter(ms, 0.6+0.35*r.roomSize, sampleRate)
	}
	r.allpass1 = newAllpassFilter(5.0, 0.5, sampleRate)
	r.allpass2 = newAllpassFilter(1.7, 0.5, sampleRate)
	return r
}

func (r *Reverb) Name() string { return "reverb" }

func (r *Reverb) SetSampleRate(sr int) {
	r.sampleRate = sr
	for _, c := range r.combs {
		c.SetSampleRate(sr)
	}
	r.allpass1.setSampleRate(sr)
	r.allpass2.setSampleRate(sr)
}

func (r *Reverb) SetParameter(name string, value float64) {
	switch name {
	case "room_size":
		r.roomSize = clamp(value, 0, 1)
		for _, c := range r.combs {
			c.SetParameter("feedback", 0.6+0.35*r.roomSize)
		}
	case "damping":
		r.damping = clamp(value, 0, 1)
	}
}

func (r *Reverb) GetParameter(name string) (float64, bool) {
	switch name {
	case "room_size":
		return r.roomSize, true
	case "damping":
		return r.damping, true
	}
	return 0, false
}

func (r *Reverb) processChannel(ch int, x float64) float64 {
	var sum float64
	for _, c := range r.combs {
		sum += c.processChannel(ch, x)
	}
	sum *= 0.25
	sum = r.allpass1.processChannel(ch, sum)
	sum = r.allpass2.processChannel(ch, sum)
	return sum
}

func (r *Reverb) Process(left, right, wetDry float64) (float64, float64) {
	wl := r.processChannel(0, left)
	wr := r.processChannel(1, right)
	return mixWet(left, wl, wetDry), mixWet(right, wr, wetDry)
}

// allpassFilter is the classic Schroeder all-pass section, a non-Effect
// helper used only inside Reverb.
type allpassFilter struct {
	buf      [2][]float64
	pos      [2]int
	feedback float64
	delayMs  float64

	sampleRate int
}

func newAllpassFilter(delayMs, feedback float64, sampleRate int) *allpassFilter {
	a := &allpassFilter{delayMs: delayMs, feedback: feedback, sampleRate: sampleRate}
	a.resize()
	return a
}

func (a *allpassFilter) resize() {
	n := int(a.delayMs * float64(a.sampleRate) / 1000.0)
	if n < 1 {
		n = 1
	}
	for ch := 0; ch < 2; ch++ {
		a.buf[ch] = make([]float64, n)
		a.pos[ch] = 0
	}
}

func (a *allpassFilter) setSampleRate(sr int) {
	a.sampleRate = sr
	a.resize()
}

func (a *allpassFilter) processChannel(ch int, x float64) float64 {
	buf := a.buf[ch]
	bufOut := buf[a.pos[ch]]
	y := -x + bufOut
	buf[a.pos[ch]] = x + bufOut*a.feedback
	a.pos[ch] = (a.pos[ch] + 1) % len(buf)
	return y
}
