// Command synthdemo plays a short scripted sequence through the default
// speaker output. It exists to exercise the "host calls render(frames)"
// boundary from outside the RT-sensitive core: everything past
// engineStreamer.Stream belongs to beep/speaker, not to audio.RenderGraph.
package main

import (
	"log"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"

	"github.com/lixenwraith/synthcore/audio"
	"github.com/lixenwraith/synthcore/parameter"
)

// engineStreamer adapts a RenderGraph to beep.Streamer. It owns one scratch
// buffer sized to the largest block speaker.Init will ever request, reused
// across calls so playback itself never allocates per callback.
type engineStreamer struct {
	graph *audio.RenderGraph
	scratch []float64
}

func newEngineStreamer(g *audio.RenderGraph, maxFrames int) *engineStreamer {
	return &engineStreamer{graph: g, scratch: make([]float64, maxFrames*2)}
}

func (s *engineStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	frames := len(samples)
	buf := s.scratch
	if frames*2 > len(buf) {
		buf = make([]float64, frames*2)
	}
	s.graph.Render(buf, frames)
	for i := 0; i < frames; i++ {
		samples[i][0] = buf[i*2]
		samples[i][1] = buf[i*2+1]
	}
	return frames, true
}

func (s *engineStreamer) Err() error { return nil }

func buildPattern() *audio.Pattern {
	notes := []audio.PatternNote{
		{Pitch: parameter.MIDINote(parameter.NoteC, 4), Velocity: 0.9, StartBeat: 0, DurationBeats: 0.75},
		{Pitch: parameter.MIDINote(parameter.NoteE, 4), Velocity: 0.8, StartBeat: 1, DurationBeats: 0.75},
		{Pitch: parameter.MIDINote(parameter.NoteG, 4), Velocity: 0.8, StartBeat: 2, DurationBeats: 0.75},
		{Pitch: parameter.MIDINote(parameter.NoteC, 5), Velocity: 0.9, StartBeat: 3, DurationBeats: 0.9},
	}
	return &audio.Pattern{Notes: notes}
}

func main() {
	const sampleRate = 44100

	eng := audio.NewEngine(parameter.MaxTotalVoices, parameter.MaxVoicesPerChannel, sampleRate)
	eng.Channel(0).SetSound(audio.WaveSaw, audio.ADSR{Attack: 0.01, Decay: 0.15, Sustain: 0.6, Release: 0.25})

	chain := audio.NewReorderableChain()
	chain.Add(audio.NewDelay(300, 0.35, sampleRate))
	chain.SetMix(0, 0.25)
	chain.SetSampleRate(sampleRate)

	seq := audio.NewSequencer()
	seq.AddPattern(buildPattern())
	seq.SetTempo(100)
	seq.SetLooping(true)
	seq.SetLoopLength(4)
	audio.WireSequencer(seq, eng)
	seq.Start()

	errs := audio.NewErrorHandler(0)
	errs.SetErrorCallback(func(e audio.AudioError) {
		log.Printf("synthdemo: %s (code %d)", e.Message, e.Code)
	})

	graph := audio.NewRenderGraph(seq, eng, chain, errs, sampleRate)
	graph.MasterGain().SetImmediate(0.8)

	rate := beep.SampleRate(sampleRate)
	blockSize := rate.N(time.Second / 10)
	if err := speaker.Init(rate, blockSize); err != nil {
		log.Fatalf("synthdemo: speaker init: %v", err)
	}
	defer speaker.Close()

	streamer := newEngineStreamer(graph, blockSize)
	trimmed := &effects.Volume{Streamer: streamer, Base: 2, Volume: 0}

	speaker.Play(trimmed)
	time.Sleep(8 * time.Second)
}
