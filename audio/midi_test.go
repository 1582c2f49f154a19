package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMidiNoteOn(t *testing.T) {
	ev, status, ok := DecodeMidi([]byte{0x90, 60, 100}, 0, 0)
	require.True(t, ok)
	assert.Equal(t, MidiNoteOn, ev.Type)
	assert.Equal(t, 0, ev.Channel)
	assert.Equal(t, 60, ev.Data1)
	assert.Equal(t, 100, ev.Data2)
	assert.Equal(t, byte(0x90), status)
}

func TestDecodeMidiVelocityZeroNoteOnIsNoteOff(t *testing.T) {
	ev, _, ok := DecodeMidi([]byte{0x91, 60, 0}, 0, 0)
	require.True(t, ok)
	assert.Equal(t, MidiNoteOff, ev.Type)
	assert.Equal(t, 1, ev.Channel)
}

func TestDecodeMidiRunningStatus(t *testing.T) {
	_, status, ok := DecodeMidi([]byte{0x90, 60, 100}, 0, 0)
	require.True(t, ok)

	ev, status2, ok := DecodeMidi([]byte{64, 110}, status, 0)
	require.True(t, ok)
	assert.Equal(t, status, status2)
	assert.Equal(t, MidiNoteOn, ev.Type)
	assert.Equal(t, 64, ev.Data1)
	assert.Equal(t, 110, ev.Data2)
}

func TestDecodeMidiEmptyInputFails(t *testing.T) {
	_, status, ok := DecodeMidi(nil, 0x90, 0)
	assert.False(t, ok)
	assert.Equal(t, byte(0x90), status)
}

func TestDecodeMidiNoStatusAndNoRunningStatusFails(t *testing.T) {
	_, _, ok := DecodeMidi([]byte{60, 100}, 0, 0)
	assert.False(t, ok)
}

func TestPitchBendNormalizedCenterAndExtremes(t *testing.T) {
	center := MidiEvent{Data1: 0, Data2: 64} // 0 | 64<<7 = 8192
	assert.InDelta(t, 0.0, center.PitchBendNormalized(), 1e-9)

	min := MidiEvent{Data1: 0, Data2: 0}
	assert.InDelta(t, -1.0, min.PitchBendNormalized(), 1e-9)

	max := MidiEvent{Data1: 127, Data2: 127} // 16383
	assert.InDelta(t, 0.999878, max.PitchBendNormalized(), 1e-5)
}

func TestDispatchRoutesEachEventType(t *testing.T) {
	e := NewEngine(64, 8, 44100)

	Dispatch(e, MidiEvent{Type: MidiNoteOn, Channel: 0, Data1: 60, Data2: 100})
	assert.Equal(t, 1, e.Channel(0).ActiveVoiceCount())

	Dispatch(e, MidiEvent{Type: MidiNoteOff, Channel: 0, Data1: 60})

	Dispatch(e, MidiEvent{Type: MidiCC, Channel: 0, Data1: 7, Data2: 64})
	assert.InDelta(t, 64.0/127.0, e.Channel(0).Volume(), 1e-9)

	Dispatch(e, MidiEvent{Type: MidiProgramChange, Channel: 0, Data1: 5})
	assert.Equal(t, 5, e.Channel(0).Program())

	Dispatch(e, MidiEvent{Type: MidiChannelPressure, Channel: 0, Data1: 127})
	assert.InDelta(t, 1.0, e.Channel(0).ChannelPressure(), 1e-9)
}
