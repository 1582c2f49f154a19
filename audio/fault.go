package audio

import (
	"sort"
	"sync"
	"time"

	"github.com/lixenwraith/synthcore/parameter"
)

// Severity classifies an AudioError by how urgently it needs attention.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
)

// Error code prefixes group failures by subsystem.
// A code's leading digit names its bucket; the exact numbering within a
// bucket is local to this package — only the thousands place is fixed.
const (
	CodeDeviceBase      = 1000
	CodeStreamBase      = 2000
	CodeCallbackBase    = 3000
	CodeProcessingBase  = 4000
	CodeResourceBase    = 5000
	CodeConcurrencyBase = 6000
	CodePerformanceBase = 7000
	CodeSafetyBase      = 8000
)

// Common synthetic codes raised internally by PerformanceUpdate and the
// render graph's safety step.
const (
	CodeCPUOverload      = CodePerformanceBase + 1
	CodeMemoryHigh       = CodePerformanceBase + 2
	CodeLatencyHigh      = CodePerformanceBase + 3
	CodeJitterHigh       = CodePerformanceBase + 4
	CodeAudioClipping    = CodeSafetyBase + 1
	CodeEmergencyMute    = CodeSafetyBase + 2
	CodeVoicePoolExhaust = CodeResourceBase + 1
)

// AudioError is the structured payload carried through the handler.
type AudioError struct {
	Code            int
	Severity        Severity
	Message         string
	Context         string
	Origin          string // function/line, e.g. "Engine.Render:214"
	Timestamp       time.Time
	Recoverable     bool
	RequiresRestart bool
	RecoverySuggest []string
}

// RecoveryAction is one registered remedy for an error code. Actions are
// tried in descending Priority order; AllowInRealtime gates whether an
// action may run when the report came from the RT fast path.
type RecoveryAction struct {
	Name            string
	Priority        int
	AllowInRealtime bool
	MaxRetries      int
	Run             func(AudioError) error
}

// Stats aggregates counters the control thread can poll for dashboards or
// the synthmonitor demo.
type Stats struct {
	TotalByCode      map[int]int
	TotalBySeverity  map[Severity]int
	RecoveryAttempts int
	RecoverySuccess  int
	RTErrorsQueued   uint64
	RTErrorsDropped  uint64

	AvgCPULoad   float64
	AvgLatencyMs float64
	MaxJitterMs  float64

	cpuSampleCount int
	latSampleCount int
}

// PerfThresholds configures PerformanceUpdate's synthetic-error triggers.
type PerfThresholds struct {
	MaxCPULoad   float64 // 0..1
	MaxMemoryMB  float64
	MaxLatencyMs float64
	MaxJitterMs  float64
}

// DefaultPerfThresholds returns conservative defaults for a desktop-class
// host; embedded targets would tighten these.
func DefaultPerfThresholds() PerfThresholds {
	return PerfThresholds{MaxCPULoad: 0.85, MaxMemoryMB: 512, MaxLatencyMs: 15, MaxJitterMs: 5}
}

// ErrorHandler is the per-engine fault-management instance.
// report_rt is wait-free and is the only method ever called from the audio
// thread; everything else runs on control threads and may take the mutex.
type ErrorHandler struct {
	mu sync.Mutex

	history    []AudioError
	maxHistory int

	recoveries map[int][]RecoveryAction

	stats Stats

	thresholds PerfThresholds

	onError    func(AudioError)
	onCritical func(AudioError)

	autoRecover bool

	rt *RTQueue

	now func() time.Time // overridable for tests
}

// NewErrorHandler returns a handler with maxHistory capacity and an empty
// recovery registry. Pass maxHistory <= 0 for parameter.DefaultMaxHistory.
func NewErrorHandler(maxHistory int) *ErrorHandler {
	if maxHistory <= 0 {
		maxHistory = parameter.DefaultMaxHistory
	}
	return &ErrorHandler{
		maxHistory:  maxHistory,
		recoveries:  make(map[int][]RecoveryAction),
		thresholds:  DefaultPerfThresholds(),
		autoRecover: true,
		rt:          NewRTQueue(),
		now:         time.Now,
		stats: Stats{
			TotalByCode:     make(map[int]int),
			TotalBySeverity: make(map[Severity]int),
		},
	}
}

// SetErrorCallback sets the user-visible hook invoked for non-critical
// reports once they leave the RT queue (host decides how to surface it).
func (h *ErrorHandler) SetErrorCallback(fn func(AudioError)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onError = fn
}

// SetCriticalCallback sets the hook invoked synchronously for every
// critical error.
func (h *ErrorHandler) SetCriticalCallback(fn func(AudioError)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onCritical = fn
}

// SetAutoRecover toggles whether Report runs the recovery registry for
// recoverable, non-critical errors.
func (h *ErrorHandler) SetAutoRecover(on bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.autoRecover = on
}

// SetPerfThresholds replaces the thresholds PerformanceUpdate checks
// against.
func (h *ErrorHandler) SetPerfThresholds(t PerfThresholds) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.thresholds = t
}

// RegisterRecovery adds action to the registry for code, re-sorting the
// per-code list by descending priority.
func (h *ErrorHandler) RegisterRecovery(code int, action RecoveryAction) {
	h.mu.Lock()
	defer h.mu.Unlock()
	list := append(h.recoveries[code], action)
	sort.SliceStable(list, func(i, j int) bool { return list[i].Priority > list[j].Priority })
	h.recoveries[code] = list
}

// ReportRT is the RT fast path: push onto the
// lock-free queue and return. O(1), no allocation, no lock. message should
// be a short, static string — it is copied into a fixed-size buffer.
func (h *ErrorHandler) ReportRT(code int, message string) {
	h.rt.Push(code, message)
}

// Report is the non-RT entry point. isRT is provided
// for callers that constructed an AudioError off the audio thread but want
// RT-context recovery-budget semantics applied; true RT callers should use
// ReportRT instead, since Report takes the mutex.
func (h *ErrorHandler) Report(err AudioError, isRT bool) {
	if err.Timestamp.IsZero() {
		err.Timestamp = h.now()
	}

	if err.Severity == SeverityCritical {
		h.ReportCritical(err)
		return
	}

	h.mu.Lock()
	h.appendHistory(err)
	cb := h.onError
	auto := h.autoRecover
	h.mu.Unlock()

	if cb != nil {
		cb(err)
	}
	if auto && err.Recoverable {
		h.runRecovery(err, isRT)
	}
}

// ReportCritical always runs synchronously: record history, invoke the
// critical callback, and — if the error is marked unrecoverable — leave
// recovery to the caller's own safety logic.
func (h *ErrorHandler) ReportCritical(err AudioError) {
	if err.Timestamp.IsZero() {
		err.Timestamp = h.now()
	}
	err.Severity = SeverityCritical

	h.mu.Lock()
	h.appendHistory(err)
	cb := h.onCritical
	h.mu.Unlock()

	if cb != nil {
		cb(err)
	}
	if err.Recoverable {
		h.runRecovery(err, false)
	}
}

func (h *ErrorHandler) appendHistory(err AudioError) {
	h.stats.TotalByCode[err.Code]++
	h.stats.TotalBySeverity[err.Severity]++

	h.history = append(h.history, err)
	if len(h.history) > h.maxHistory {
		h.history = h.history[len(h.history)-h.maxHistory:]
	}
}

// runRecovery tries each registered action for err.Code in priority order,
// skipping actions not allowed in RT context, until one succeeds or the
// budget/retry limits are exhausted.
func (h *ErrorHandler) runRecovery(err AudioError, isRT bool) {
	h.mu.Lock()
	actions := append([]RecoveryAction(nil), h.recoveries[err.Code]...)
	h.mu.Unlock()

	budget := parameter.ControlRecoveryTimeoutMax
	if isRT {
		budget = parameter.RealtimeRecoveryTimeout
	}
	deadline := h.now().Add(budget)

	for _, action := range actions {
		if isRT && !action.AllowInRealtime {
			continue
		}
		retries := action.MaxRetries
		if retries < 1 {
			retries = 1
		}
		for attempt := 0; attempt < retries; attempt++ {
			if h.now().After(deadline) {
				return
			}
			h.mu.Lock()
			h.stats.RecoveryAttempts++
			h.mu.Unlock()

			if err2 := action.Run(err); err2 == nil {
				h.mu.Lock()
				h.stats.RecoverySuccess++
				h.mu.Unlock()
				return
			}
		}
	}
}

// PerformanceUpdate latches the latest perf metrics and synthesizes a
// Warning-severity error for each that crosses its configured threshold.
func (h *ErrorHandler) PerformanceUpdate(cpuLoad, memoryMB, latencyMs, jitterMs float64) {
	h.mu.Lock()
	h.stats.AvgCPULoad = runningAvg(h.stats.AvgCPULoad, cpuLoad, h.stats.cpuSampleCount)
	h.stats.cpuSampleCount++
	h.stats.AvgLatencyMs = runningAvg(h.stats.AvgLatencyMs, latencyMs, h.stats.latSampleCount)
	h.stats.latSampleCount++
	if jitterMs > h.stats.MaxJitterMs {
		h.stats.MaxJitterMs = jitterMs
	}
	t := h.thresholds
	h.mu.Unlock()

	if cpuLoad > t.MaxCPULoad {
		h.Report(AudioError{Code: CodeCPUOverload, Severity: SeverityWarning,
			Message: "cpu load exceeds threshold", Recoverable: true}, false)
	}
	if memoryMB > t.MaxMemoryMB {
		h.Report(AudioError{Code: CodeMemoryHigh, Severity: SeverityWarning,
			Message: "memory usage exceeds threshold", Recoverable: true}, false)
	}
	if latencyMs > t.MaxLatencyMs {
		h.Report(AudioError{Code: CodeLatencyHigh, Severity: SeverityWarning,
			Message: "callback latency exceeds threshold", Recoverable: true}, false)
	}
	if jitterMs > t.MaxJitterMs {
		h.Report(AudioError{Code: CodeJitterHigh, Severity: SeverityWarning,
			Message: "callback jitter exceeds threshold", Recoverable: true}, false)
	}
}

func runningAvg(avg, sample float64, n int) float64 {
	if n == 0 {
		return sample
	}
	return avg + (sample-avg)/float64(n+1)
}

// DrainRT moves every queued RT error into history/stats and runs the
// normal (non-RT-budget) recovery path for each. Intended to be pumped
// once per callback or on a periodic control-thread timer.
func (h *ErrorHandler) DrainRT() {
	drained := h.rt.Drain()
	h.mu.Lock()
	h.stats.RTErrorsQueued += uint64(len(drained))
	h.stats.RTErrorsDropped = h.rt.Dropped()
	h.mu.Unlock()

	for _, e := range drained {
		h.Report(AudioError{Code: e.Code, Severity: SeverityWarning, Message: e.Message, Recoverable: true}, true)
	}
}

// Stats returns a snapshot of current counters. The returned maps are
// copies, safe to read without further locking.
func (h *ErrorHandler) Snapshot() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := h.stats
	out.TotalByCode = make(map[int]int, len(h.stats.TotalByCode))
	for k, v := range h.stats.TotalByCode {
		out.TotalByCode[k] = v
	}
	out.TotalBySeverity = make(map[Severity]int, len(h.stats.TotalBySeverity))
	for k, v := range h.stats.TotalBySeverity {
		out.TotalBySeverity[k] = v
	}
	out.RTErrorsDropped = h.rt.Dropped()
	return out
}

// History returns a copy of the bounded error ring, oldest first.
func (h *ErrorHandler) History() []AudioError {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]AudioError, len(h.history))
	copy(out, h.history)
	return out
}
