package audio

// Smoothing classes: broad categories of parameters that share a ramp
// speed, following the effects chain's convention of per-parameter-class
// timing rather than a single global constant.
const (
	SmoothClassFast   = 5.0   // ms — volume, pan: quick but click-free
	SmoothClassMedium = 20.0  // ms — filter cutoff, effect mix
	SmoothClassSlow   = 100.0 // ms — tempo, large structural changes
)

// ParameterRegistry owns every named SmoothParameter in a signal path,
// keyed by a flat dotted name matching the preset naming scheme.
type ParameterRegistry struct {
	params     map[string]*SmoothParameter
	classMs    map[string]float64
	sampleRate int
}

// NewParameterRegistry creates an empty registry bound to sampleRate.
func NewParameterRegistry(sampleRate int) *ParameterRegistry {
	return &ParameterRegistry{
		params:     make(map[string]*SmoothParameter),
		classMs:    make(map[string]float64),
		sampleRate: sampleRate,
	}
}

// Register adds a named parameter with an initial value and smoothing
// class (one of the SmoothClass* constants, in milliseconds). Re-registering
// an existing name replaces it.
func (r *ParameterRegistry) Register(name string, initial, classMs float64) *SmoothParameter {
	p := NewSmoothParameter(initial, smoothingCoeffForMs(classMs, r.sampleRate))
	r.params[name] = p
	r.classMs[name] = classMs
	return p
}

// Get returns the named parameter, or nil if never registered.
func (r *ParameterRegistry) Get(name string) *SmoothParameter { return r.params[name] }

// SetTarget is a convenience that looks up name and schedules v as its
// next target; a no-op if name isn't registered.
func (r *ParameterRegistry) SetTarget(name string, v float64) {
	if p := r.params[name]; p != nil {
		p.SetTarget(v)
	}
}

// ProcessAll advances every registered parameter by one sample. Called once
// per render block from the control-rate side of the chain, not per effect.
func (r *ParameterRegistry) ProcessAll() {
	for _, p := range r.params {
		p.Process()
	}
}

// SetSampleRate rebuilds every registered parameter's coefficient for a new
// sample rate, preserving current/target values. Not RT-safe.
func (r *ParameterRegistry) SetSampleRate(sr int) {
	r.sampleRate = sr
	for name, p := range r.params {
		p.SetCoefficient(smoothingCoeffForMs(r.classMs[name], sr))
	}
}
