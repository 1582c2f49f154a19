package audio

// MidiEventType enumerates the decoded message kinds the engine accepts.
type MidiEventType int

const (
	MidiNoteOn MidiEventType = iota
	MidiNoteOff
	MidiCC
	MidiProgramChange
	MidiPitchBend
	MidiAftertouch // polyphonic key pressure
	MidiChannelPressure
)

// MidiEvent is the decoded wire-level message struct: channel 0..15,
// data1/data2 0..127 except PitchBend where they pack a 14-bit value.
type MidiEvent struct {
	Type      MidiEventType
	Channel   int
	Data1     int
	Data2     int
	Timestamp float64 // seconds
}

// PitchBendNormalized maps a MidiPitchBend event's combined 14-bit value
// (Data1 = LSB, Data2 = MSB, per the standard MIDI wire layout) to [-1,+1]
// around center 8192.
func (e MidiEvent) PitchBendNormalized() float64 {
	raw := e.Data1 | (e.Data2 << 7)
	return (float64(raw) - 8192.0) / 8192.0
}

// DecodeMidi parses one raw MIDI message (status byte plus up to two data
// bytes) into a MidiEvent. Running status (a data-only continuation of the
// previous status byte) is resolved by the caller passing the same
// lastStatus back in; DecodeMidi returns the resolved status so callers can
// thread it through a stream of messages. A velocity-0 NoteOn is folded
// into NoteOff here: NoteOn with velocity 0 is equivalent to NoteOff.
//
// raw must contain at least the status byte if status >= 0x80, or exactly
// the data bytes if running status is in effect (status < 0x80 is treated
// as "no explicit status, reuse lastStatus").
func DecodeMidi(raw []byte, lastStatus byte, timestamp float64) (event MidiEvent, resolvedStatus byte, ok bool) {
	if len(raw) == 0 {
		return MidiEvent{}, lastStatus, false
	}

	status := lastStatus
	data := raw
	if raw[0]&0x80 != 0 {
		status = raw[0]
		data = raw[1:]
	}
	if status&0x80 == 0 {
		return MidiEvent{}, lastStatus, false
	}

	channel := int(status & 0x0F)
	kind := status & 0xF0

	get := func(i int) int {
		if i < len(data) {
			return int(data[i] & 0x7F)
		}
		return 0
	}

	e := MidiEvent{Channel: channel, Timestamp: timestamp}
	switch kind {
	case 0x80:
		e.Type = MidiNoteOff
		e.Data1, e.Data2 = get(0), get(1)
	case 0x90:
		e.Data1, e.Data2 = get(0), get(1)
		if e.Data2 == 0 {
			e.Type = MidiNoteOff
		} else {
			e.Type = MidiNoteOn
		}
	case 0xA0:
		e.Type = MidiAftertouch
		e.Data1, e.Data2 = get(0), get(1)
	case 0xB0:
		e.Type = MidiCC
		e.Data1, e.Data2 = get(0), get(1)
	case 0xC0:
		e.Type = MidiProgramChange
		e.Data1 = get(0)
	case 0xD0:
		e.Type = MidiChannelPressure
		e.Data1 = get(0)
	case 0xE0:
		e.Type = MidiPitchBend
		e.Data1, e.Data2 = get(0), get(1) // LSB, MSB
	default:
		return MidiEvent{}, status, false
	}
	return e, status, true
}

// Dispatch routes a decoded MidiEvent into an Engine, covering the full
// note/CC/bend/pressure/program surface. This is the single place that
// translates the wire-level MidiEvent into the engine's per-field calls —
// MIDI device enumeration and byte-stream framing stay external, but the
// decode-to-dispatch step is core.
func Dispatch(e *Engine, ev MidiEvent) {
	switch ev.Type {
	case MidiNoteOn:
		e.NoteOn(ev.Channel, ev.Data1, float64(ev.Data2)/127.0)
	case MidiNoteOff:
		e.NoteOff(ev.Channel, ev.Data1)
	case MidiCC:
		e.ControlChange(ev.Channel, ev.Data1, ev.Data2)
	case MidiProgramChange:
		e.ProgramChange(ev.Channel, ev.Data1)
	case MidiPitchBend:
		e.PitchBend(ev.Channel, ev.PitchBendNormalized())
	case MidiAftertouch:
		e.Aftertouch(ev.Channel, ev.Data1, float64(ev.Data2)/127.0)
	case MidiChannelPressure:
		e.ChannelPressure(ev.Channel, float64(ev.Data1)/127.0)
	}
}
