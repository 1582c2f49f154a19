package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/synthcore/parameter"
)

func TestVoiceIdleUntilTriggered(t *testing.T) {
	v := NewVoice(parameter.AudioSampleRate)
	assert.False(t, v.Active())
	assert.Equal(t, 0.0, v.RenderSample())
}

func TestVoiceNoteOnReachesSustain(t *testing.T) {
	v := NewVoice(parameter.AudioSampleRate)
	env := ADSR{Attack: 0.001, Decay: 0.001, Sustain: 0.5, Release: 0.1}
	v.NoteOn(0, 69, parameter.NoteFreq(69), 1.0, WaveSine, env)
	require.True(t, v.Active())

	for i := 0; i < parameter.AudioSampleRate; i++ {
		v.RenderSample()
		if v.Stage() == StageSustain {
			break
		}
	}
	assert.Equal(t, StageSustain, v.Stage())
	assert.InDelta(t, env.Sustain, v.EnvValue(), 1e-9)
}

func TestVoiceNoteOffReleasesToIdle(t *testing.T) {
	v := NewVoice(parameter.AudioSampleRate)
	env := ADSR{Attack: 0.0, Decay: 0.0, Sustain: 0.5, Release: 0.01}
	v.NoteOn(0, 60, parameter.NoteFreq(60), 1.0, WaveSine, env)
	v.RenderSample() // land on sustain immediately (zero attack/decay)
	v.NoteOff()
	assert.Equal(t, StageRelease, v.Stage())

	for i := 0; i < parameter.AudioSampleRate; i++ {
		v.RenderSample()
		if !v.Active() {
			break
		}
	}
	assert.False(t, v.Active())
	assert.Equal(t, StageIdle, v.Stage())
}

func TestVoiceFrequencyMatchesEqualTemperament(t *testing.T) {
	assert.InDelta(t, 440.0, parameter.NoteFreq(69), 1e-9)
	assert.InDelta(t, 880.0, parameter.NoteFreq(81), 1e-6)
	assert.InDelta(t, 220.0, parameter.NoteFreq(57), 1e-6)
}

func TestVoiceResetForcesIdleImmediately(t *testing.T) {
	v := NewVoice(parameter.AudioSampleRate)
	v.NoteOn(0, 64, parameter.NoteFreq(64), 0.8, WaveSaw, DefaultADSR())
	v.Reset()
	assert.False(t, v.Active())
	assert.Equal(t, 0.0, v.RenderSample())
}
