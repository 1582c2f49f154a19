package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lixenwraith/synthcore/parameter"
)

func TestEngineTotalVoiceCountNeverExceedsBudget(t *testing.T) {
	e := NewEngine(parameter.MaxTotalVoices, parameter.MaxVoicesPerChannel, parameter.AudioSampleRate)
	e.Rebalance()
	assert.LessOrEqual(t, e.TotalVoiceCount(), parameter.MaxTotalVoices)
}

func TestEnginePriorityBudgetFavorsHigherPriority(t *testing.T) {
	e := NewEngine(32, parameter.MaxVoicesPerChannel, parameter.AudioSampleRate)
	e.SetVoiceBudgetStrategy(BudgetPriority)
	e.SetChannelPriority(0, 10)
	e.SetChannelPriority(1, 1)
	e.Rebalance()
	assert.GreaterOrEqual(t, e.Channel(0).VoiceCount(), e.Channel(1).VoiceCount())
}

func TestEngineDynamicFallsBackToEqualWithNoActivity(t *testing.T) {
	e := NewEngine(32, parameter.MaxVoicesPerChannel, parameter.AudioSampleRate)
	e.SetVoiceBudgetStrategy(BudgetDynamic)
	e.Rebalance()
	first := e.Channel(0).VoiceCount()
	for i := 1; i < parameter.MaxMIDIChannels; i++ {
		assert.Equal(t, first, e.Channel(i).VoiceCount())
	}
}

func TestEngineEqualBudgetDividesAcrossActiveChannelsOnly(t *testing.T) {
	e := NewEngine(64, 64, parameter.AudioSampleRate)
	for ch := 2; ch < parameter.MaxMIDIChannels; ch++ {
		e.SetChannelActive(ch, false)
	}
	e.Rebalance()

	assert.Equal(t, 32, e.Channel(0).VoiceCount())
	assert.Equal(t, 32, e.Channel(1).VoiceCount())
	assert.Equal(t, 0, e.Channel(2).VoiceCount(), "inactive channels hold no budget")
	assert.LessOrEqual(t, e.TotalVoiceCount(), 64)
}

func TestEngineEqualBudgetRemainderGoesToLowestIndexed(t *testing.T) {
	e := NewEngine(10, 16, parameter.AudioSampleRate)
	for ch := 3; ch < parameter.MaxMIDIChannels; ch++ {
		e.SetChannelActive(ch, false)
	}
	e.Rebalance()

	assert.Equal(t, 4, e.Channel(0).VoiceCount(), "10 = 3+3+3 with remainder 1 to channel 0")
	assert.Equal(t, 3, e.Channel(1).VoiceCount())
	assert.Equal(t, 3, e.Channel(2).VoiceCount())
}

func TestEnginePriorityBudgetCoversActiveSetExactly(t *testing.T) {
	e := NewEngine(8, 8, parameter.AudioSampleRate)
	for ch := 2; ch < parameter.MaxMIDIChannels; ch++ {
		e.SetChannelActive(ch, false)
	}
	e.SetVoiceBudgetStrategy(BudgetPriority)
	e.SetChannelPriority(0, 3)
	e.SetChannelPriority(1, 1)
	e.Rebalance()

	assert.Equal(t, 6, e.Channel(0).VoiceCount())
	assert.Equal(t, 2, e.Channel(1).VoiceCount())
	assert.Equal(t, 0, e.Channel(5).VoiceCount())
	assert.Equal(t, 8, e.TotalVoiceCount())
}

func TestEngineSplitRoutesOnlyInRangeChannel(t *testing.T) {
	e := NewEngine(parameter.MaxTotalVoices, parameter.MaxVoicesPerChannel, parameter.AudioSampleRate)
	e.Channel(0).SetNoteRange(0, 59)
	e.Channel(1).SetNoteRange(60, 127)

	e.NoteOn(0, 72, 1.0) // out of channel 0's range
	assert.Equal(t, 0, e.Channel(0).ActiveVoiceCount())

	e.NoteOn(1, 72, 1.0)
	assert.Equal(t, 1, e.Channel(1).ActiveVoiceCount())
}

func TestEngineRenderGainCompensationKeepsBoundedOutput(t *testing.T) {
	e := NewEngine(parameter.MaxTotalVoices, parameter.MaxVoicesPerChannel, parameter.AudioSampleRate)
	for i := 0; i < 8; i++ {
		e.NoteOn(0, 60+i, 1.0)
	}
	l, r := e.Render()
	assert.LessOrEqual(t, l*l, 4.0)
	assert.LessOrEqual(t, r*r, 4.0)
}
