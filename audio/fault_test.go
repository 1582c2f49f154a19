package audio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRTQueuePushAndDrain(t *testing.T) {
	q := NewRTQueue()
	q.Push(CodeAudioClipping, "clip")
	q.Push(CodeAudioClipping, "clip again")
	drained := q.Drain()
	require.Len(t, drained, 2)
	assert.Equal(t, "clip", drained[0].Message)
	assert.Equal(t, 0, q.Len())
}

func TestRTQueueDropsOldestOnOverflow(t *testing.T) {
	q := NewRTQueue()
	for i := 0; i < rtQueueCapacity+5; i++ {
		q.Push(CodeAudioClipping, "x")
	}
	assert.Equal(t, uint64(5), q.Dropped())
	assert.Equal(t, rtQueueCapacity, q.Len())
}

func TestErrorHandlerReportRTIncreasesQueuedCount(t *testing.T) {
	h := NewErrorHandler(0)
	h.ReportRT(CodeAudioClipping, "clip")
	h.DrainRT()
	snap := h.Snapshot()
	assert.EqualValues(t, 1, snap.RTErrorsQueued)
}

func TestErrorHandlerCriticalInvokesCallbackSynchronously(t *testing.T) {
	h := NewErrorHandler(0)
	var seen AudioError
	h.SetCriticalCallback(func(e AudioError) { seen = e })
	h.ReportCritical(AudioError{Code: CodeEmergencyMute, Message: "panic recovered"})
	assert.Equal(t, CodeEmergencyMute, seen.Code)
	assert.Equal(t, SeverityCritical, seen.Severity)
}

func TestErrorHandlerRecoveryTriesInPriorityOrder(t *testing.T) {
	h := NewErrorHandler(0)
	var order []string
	h.RegisterRecovery(CodeVoicePoolExhaust, RecoveryAction{
		Name: "low", Priority: 1, AllowInRealtime: true, MaxRetries: 1,
		Run: func(AudioError) error { order = append(order, "low"); return errors.New("fail") },
	})
	h.RegisterRecovery(CodeVoicePoolExhaust, RecoveryAction{
		Name: "high", Priority: 10, AllowInRealtime: true, MaxRetries: 1,
		Run: func(AudioError) error { order = append(order, "high"); return nil },
	})
	h.Report(AudioError{Code: CodeVoicePoolExhaust, Severity: SeverityWarning, Recoverable: true}, false)
	require.Len(t, order, 1)
	assert.Equal(t, "high", order[0])

	snap := h.Snapshot()
	assert.Equal(t, 1, snap.RecoveryAttempts)
	assert.Equal(t, 1, snap.RecoverySuccess)
}

func TestErrorHandlerRecoverySkipsNonRTActionsInRTContext(t *testing.T) {
	h := NewErrorHandler(0)
	ran := false
	h.RegisterRecovery(CodeVoicePoolExhaust, RecoveryAction{
		Name: "control-only", Priority: 5, AllowInRealtime: false, MaxRetries: 1,
		Run: func(AudioError) error { ran = true; return nil },
	})
	h.Report(AudioError{Code: CodeVoicePoolExhaust, Severity: SeverityWarning, Recoverable: true}, true)
	assert.False(t, ran, "control-only recovery action must not run from RT context")
}

func TestErrorHandlerPerformanceUpdateRaisesThresholdError(t *testing.T) {
	h := NewErrorHandler(0)
	var got AudioError
	h.SetErrorCallback(func(e AudioError) { got = e })
	h.SetPerfThresholds(PerfThresholds{MaxCPULoad: 0.5, MaxMemoryMB: 1e9, MaxLatencyMs: 1e9, MaxJitterMs: 1e9})
	h.PerformanceUpdate(0.9, 0, 0, 0)
	assert.Equal(t, CodeCPUOverload, got.Code)
}

func TestErrorHandlerHistoryBounded(t *testing.T) {
	h := NewErrorHandler(3)
	for i := 0; i < 10; i++ {
		h.Report(AudioError{Code: CodeAudioClipping, Severity: SeverityInfo}, false)
	}
	assert.Len(t, h.History(), 3)
}
