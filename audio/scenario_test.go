package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/synthcore/parameter"
)

// renderStats runs the engine for seconds of audio and returns the RMS and
// peak absolute sample value across both stereo channels.
func renderStats(e *Engine, seconds float64, sampleRate int) (rms, peak float64) {
	frames := int(seconds * float64(sampleRate))
	var sum float64
	for i := 0; i < frames; i++ {
		l, r := e.Render()
		sum += l*l + r*r
		if a := math.Abs(l); a > peak {
			peak = a
		}
		if a := math.Abs(r); a > peak {
			peak = a
		}
	}
	return math.Sqrt(sum / float64(frames*2)), peak
}

func soloChannelEngine(sampleRate int) *Engine {
	e := NewEngine(parameter.MaxTotalVoices, parameter.MaxVoicesPerChannel, sampleRate)
	for ch := 1; ch < parameter.MaxMIDIChannels; ch++ {
		e.SetChannelActive(ch, false)
	}
	return e
}

func TestScenarioCMajorScale(t *testing.T) {
	const sr = 44100
	e := soloChannelEngine(sr)
	e.Channel(0).SetSound(WaveSine, ADSR{Attack: 0.01, Decay: 0.1, Sustain: 0.7, Release: 0.3})

	for _, pitch := range []int{60, 62, 64, 65, 67, 69, 71, 72} {
		e.NoteOn(0, pitch, 0.7)
		rms, peak := renderStats(e, 0.25, sr)
		assert.Greater(t, rms, 0.1, "pitch %d should sound during the note", pitch)
		assert.LessOrEqual(t, peak, 1.0)

		e.NoteOff(0, pitch)
		_, peak = renderStats(e, 0.3, sr)
		assert.LessOrEqual(t, peak, 1.0)
		rms, _ = renderStats(e, 0.1, sr)
		assert.Less(t, rms, 0.01, "pitch %d should decay to silence within 0.4s of note-off", pitch)
	}
}

func TestScenarioMonophonicLegato(t *testing.T) {
	const sr = 44100
	e := soloChannelEngine(sr)
	c := e.Channel(0)
	c.SetSound(WaveSine, ADSR{Attack: 0.01, Decay: 0.1, Sustain: 0.7, Release: 0.3})
	c.SetMono(true)

	render50ms := func() {
		for i := 0; i < sr/20; i++ {
			e.Render()
		}
	}

	e.NoteOn(0, 60, 0.8)
	render50ms()
	require.Equal(t, 1, c.ActiveVoiceCount())

	e.NoteOn(0, 64, 0.8)
	render50ms()
	require.Equal(t, 1, c.ActiveVoiceCount(), "legato must never have two sounding voices")

	e.NoteOff(0, 64)
	v := c.vm.FirstActive()
	require.NotNil(t, v)
	assert.InDelta(t, parameter.NoteFreq(60), v.freq, 0.1,
		"after releasing the second note, the voice retunes to the held pitch 60")
	assert.Greater(t, v.EnvValue(), 0.7*0.9,
		"legato retrigger must not restart the attack stage")

	render50ms()
	require.Equal(t, 1, c.ActiveVoiceCount())
	e.NoteOff(0, 60)
}

func TestScenarioKeyboardSplitRoutesNotesButNotCC(t *testing.T) {
	e := NewEngine(64, 8, 44100)
	e.Performance().EnableSplit(60, 0, 1)

	e.NoteOn(5, 59, 0.8)
	assert.Equal(t, 1, e.Channel(0).ActiveVoiceCount(), "below split point routes to lower channel")
	assert.Equal(t, 0, e.Channel(5).ActiveVoiceCount())

	e.NoteOn(5, 60, 0.8)
	assert.Equal(t, 1, e.Channel(1).ActiveVoiceCount(), "at split point routes to upper channel")

	e.ControlChange(5, 7, 100)
	assert.InDelta(t, 100.0/127.0, e.Channel(5).Volume(), 1e-9,
		"CC addresses the message's own channel, bypassing split routing")
	assert.InDelta(t, 1.0, e.Channel(0).Volume(), 1e-9)
	assert.InDelta(t, 1.0, e.Channel(1).Volume(), 1e-9)
}

func TestScenarioSmoothingConvergenceBound(t *testing.T) {
	p := NewSmoothParameter(0, 0.99)
	p.SetSnapThreshold(0.001)
	p.SetTarget(1.0)

	bound := int(math.Ceil(math.Log(0.001)/math.Log(0.99))) + 1 // ≈ 688
	prev := 0.0
	samples := 0
	for math.Abs(p.Current()-1.0) >= 0.001 {
		v := p.Process()
		assert.GreaterOrEqual(t, v, prev, "approach must be monotonic")
		prev = v
		samples++
		require.LessOrEqual(t, samples, bound, "convergence exceeded the analytic sample bound")
	}
}

func TestScenarioLoopingPatternFiresTenTimesInFiveSeconds(t *testing.T) {
	s := NewSequencer()
	s.AddPattern(&Pattern{Notes: []PatternNote{
		{Pitch: 60, Velocity: 1.0, StartBeat: 0, DurationBeats: 0.5},
	}})
	s.SetTempo(120)
	s.SetLooping(true)
	s.SetLoopLength(1)

	ons, offs := 0, 0
	s.OnNoteOn = func(pitch int, vel float64, ch int, env *ADSR) { ons++ }
	s.OnNoteOff = func(pitch, ch int) { offs++ }
	s.Start()

	for i := 0; i < 500; i++ {
		s.Process(0.01) // 5 simulated seconds at 2 beats/s
	}

	assert.InDelta(t, 10, ons, 1, "one note per beat-length loop over 5s at 120 BPM")
	assert.InDelta(t, float64(ons), float64(offs), 1, "every note-on pairs with a note-off")
}

func TestScenarioChainFullBypassIsSampleEqual(t *testing.T) {
	const sr = 44100
	chain := NewReorderableChain()
	d := NewDistortion()
	d.SetParameter("drive", 10)
	chain.Add(d)
	chain.Add(NewReverb(0.5, sr))
	chain.Add(NewBiquad("lowpass", 500, 2.0, sr))
	for i := 0; i < chain.Len(); i++ {
		chain.SetMix(i, 0)
	}

	snap := chain.Load()
	for i := 0; i < 4410; i++ {
		phase := float64(i) * 1000.0 / sr
		in := math.Sin(2 * math.Pi * phase)
		l, r := Process(snap, in, -in)
		require.Equal(t, in, l, "mix=0 chain must be bit-exact bypass")
		require.Equal(t, -in, r)
	}
}
