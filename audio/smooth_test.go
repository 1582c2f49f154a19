package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lixenwraith/synthcore/parameter"
)

func TestSmoothParameterConvergesToTarget(t *testing.T) {
	p := NewSmoothParameter(0, smoothingCoeffForMs(SmoothClassMedium, parameter.AudioSampleRate))
	p.SetTarget(1.0)
	var last float64
	for i := 0; i < parameter.AudioSampleRate; i++ {
		last = p.Process()
	}
	assert.InDelta(t, 1.0, last, 1e-6)
}

func TestSmoothParameterMonotonicApproach(t *testing.T) {
	p := NewSmoothParameter(0, smoothingCoeffForMs(SmoothClassSlow, parameter.AudioSampleRate))
	p.SetTarget(1.0)
	prev := 0.0
	for i := 0; i < 1000; i++ {
		v := p.Process()
		assert.GreaterOrEqual(t, v, prev)
		prev = v
	}
}

func TestSmoothParameterImmediateBypassesRamp(t *testing.T) {
	p := NewSmoothParameter(0, smoothingCoeffForMs(SmoothClassSlow, parameter.AudioSampleRate))
	p.SetImmediate(0.75)
	assert.Equal(t, 0.75, p.Process())
}

func TestParameterRegistryProcessAllAdvancesEveryParam(t *testing.T) {
	reg := NewParameterRegistry(parameter.AudioSampleRate)
	reg.Register("channel.0.volume", 0, SmoothClassFast)
	reg.SetTarget("channel.0.volume", 1.0)
	for i := 0; i < parameter.AudioSampleRate; i++ {
		reg.ProcessAll()
	}
	assert.InDelta(t, 1.0, reg.Get("channel.0.volume").Current(), 1e-6)
}
