// Command wavrender renders a scripted MIDI scenario through the real
// engine, sequencer and effects chain and writes the result to a WAV file
// for offline inspection, the way a fitting/analysis tool in this corpus
// renders a candidate to disk rather than to a live device.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	synthaudio "github.com/lixenwraith/synthcore/audio"
	synthparam "github.com/lixenwraith/synthcore/parameter"
)

func buildScenario(eng *synthaudio.Engine) *synthaudio.Sequencer {
	eng.Channel(0).SetSound(synthaudio.WaveSaw, synthaudio.ADSR{Attack: 0.005, Decay: 0.1, Sustain: 0.7, Release: 0.3})
	eng.Channel(1).SetSound(synthaudio.WaveSquare, synthaudio.ADSR{Attack: 0.01, Decay: 0.2, Sustain: 0.5, Release: 0.4})
	eng.Channel(1).SetPan(-0.4)

	notes := []synthaudio.PatternNote{
		{Pitch: synthparam.MIDINote(synthparam.NoteC, 4), Velocity: 0.9, StartBeat: 0, DurationBeats: 1, Channel: 0},
		{Pitch: synthparam.MIDINote(synthparam.NoteE, 4), Velocity: 0.85, StartBeat: 0, DurationBeats: 1, Channel: 1},
		{Pitch: synthparam.MIDINote(synthparam.NoteG, 4), Velocity: 0.85, StartBeat: 1, DurationBeats: 1, Channel: 0},
		{Pitch: synthparam.MIDINote(synthparam.NoteC, 5), Velocity: 0.9, StartBeat: 2, DurationBeats: 2, Channel: 0},
		{Pitch: synthparam.MIDINote(synthparam.NoteG, 4), Velocity: 0.7, StartBeat: 2, DurationBeats: 2, Channel: 1},
	}

	seq := synthaudio.NewSequencer()
	seq.AddPattern(&synthaudio.Pattern{Notes: notes})
	seq.SetTempo(96)
	seq.SetLooping(false)
	synthaudio.WireSequencer(seq, eng)
	return seq
}

func main() {
	outPath := flag.String("out", "scenario.wav", "output WAV path")
	seconds := flag.Float64("seconds", 6.0, "render duration in seconds")
	flag.Parse()

	const sampleRate = synthparam.AudioSampleRate

	eng := synthaudio.NewEngine(synthparam.MaxTotalVoices, synthparam.MaxVoicesPerChannel, sampleRate)
	seq := buildScenario(eng)
	seq.Start()

	chain := synthaudio.NewReorderableChain()
	chain.Add(synthaudio.NewDelay(220, 0.3, sampleRate))
	chain.Add(synthaudio.NewReverb(0.4, sampleRate))
	chain.SetMix(0, 0.2)
	chain.SetMix(1, 0.25)
	chain.SetSampleRate(sampleRate)

	errs := synthaudio.NewErrorHandler(256)
	graph := synthaudio.NewRenderGraph(seq, eng, chain, errs, sampleRate)
	graph.MasterGain().SetImmediate(0.85)

	totalFrames := int(*seconds * sampleRate)
	buf := make([]float64, totalFrames*2)
	graph.Render(buf, totalFrames)

	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("wavrender: create output: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 2, 1)
	defer enc.Close()

	const fullScale = 32767
	pcm := make([]int, totalFrames*2)
	for i, s := range buf {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		pcm[i] = int(s * fullScale)
	}

	intBuf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: sampleRate},
		Data:           pcm,
		SourceBitDepth: 16,
	}
	if err := enc.Write(intBuf); err != nil {
		log.Fatalf("wavrender: write wav: %v", err)
	}

	errs.DrainRT()
	snap := errs.Snapshot()
	log.Printf("wavrender: wrote %s (%d frames, %d clipped-sample reports)", *outPath, totalFrames, snap.RTErrorsQueued)
}
