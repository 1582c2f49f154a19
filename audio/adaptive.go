package audio

import "sort"

// TransitionType selects how AdaptiveSequencer switches between two
// MusicalStates.
type TransitionType int

const (
	TransitionImmediate TransitionType = iota
	TransitionCrossfade
	TransitionMusicalSync
	TransitionMorph
)

// AdaptiveParameter is a named, range-bounded control value with a change
// callback, grounded on the original's Parameter class. Unlike
// SmoothParameter it is control-rate only — evaluated once per Update tick,
// not per sample.
type AdaptiveParameter struct {
	Name    string
	Value   float64
	Min     float64
	Max     float64
	Default float64
	Bipolar bool

	OnChange func(name string, oldValue, newValue float64)
}

// SetValue clamps v to [Min,Max] and invokes OnChange if it differs from
// the previous value.
func (p *AdaptiveParameter) SetValue(v float64) {
	v = clamp(v, p.Min, p.Max)
	if v == p.Value {
		return
	}
	old := p.Value
	p.Value = v
	if p.OnChange != nil {
		p.OnChange(p.Name, old, v)
	}
}

// Layer is one named musical part within a MusicalState: a pattern plus
// volume/mute/solo, matching the original's TrackLayer.
type Layer struct {
	Name    string
	Pattern *Pattern
	Volume  float64
	Muted   bool
	Solo    bool
}

// MixSnapshot names a particular per-layer volume/mute configuration
// within a state.
type MixSnapshot struct {
	Name        string
	LayerVolume map[string]float64
	LayerMute   map[string]bool
}

// MusicalState is a named configuration of tempo, layers, and parameters
// the adaptive sequencer can be in.
type MusicalState struct {
	Name           string
	Tempo          float64
	TimeSigNum     int
	TimeSigDen     int
	LoopLengthBars int

	Layers         map[string]*Layer
	Snapshots      map[string]*MixSnapshot
	ActiveSnapshot string

	Parameters map[string]*AdaptiveParameter
}

// NewMusicalState returns an empty state at 120 BPM, 4/4.
func NewMusicalState(name string) *MusicalState {
	return &MusicalState{
		Name:       name,
		Tempo:      120,
		TimeSigNum: 4,
		TimeSigDen: 4,
		Layers:     make(map[string]*Layer),
		Snapshots:  make(map[string]*MixSnapshot),
		Parameters: make(map[string]*AdaptiveParameter),
	}
}

// AddLayer inserts or replaces a layer by name.
func (s *MusicalState) AddLayer(l *Layer) { s.Layers[l.Name] = l }

// AddSnapshot inserts or replaces a mix snapshot by name.
func (s *MusicalState) AddSnapshot(m *MixSnapshot) { s.Snapshots[m.Name] = m }

// ApplySnapshot copies the named snapshot's per-layer volume and mute onto
// the state's layers and records it as the active snapshot. Layers the
// snapshot doesn't mention keep their current settings. Returns false for
// an unknown snapshot name.
func (s *MusicalState) ApplySnapshot(name string) bool {
	snap, ok := s.Snapshots[name]
	if !ok {
		return false
	}
	for layerName, vol := range snap.LayerVolume {
		if l, ok := s.Layers[layerName]; ok {
			l.Volume = vol
		}
	}
	for layerName, muted := range snap.LayerMute {
		if l, ok := s.Layers[layerName]; ok {
			l.Muted = muted
		}
	}
	s.ActiveSnapshot = name
	return true
}

// EffectiveVolume returns the layer's sounding volume after mute/solo
// logic: any soloed layer silences every non-soloed layer in the state.
func (s *MusicalState) EffectiveVolume(layerName string) float64 {
	layer, ok := s.Layers[layerName]
	if !ok {
		return 0
	}
	if layer.Muted {
		return 0
	}
	anySolo := false
	for _, l := range s.Layers {
		if l.Solo {
			anySolo = true
			break
		}
	}
	if anySolo && !layer.Solo {
		return 0
	}
	return layer.Volume
}

// TransitionCondition gates when a StateTransition is eligible to fire:
// a named parameter compared against a threshold.
type TransitionCondition struct {
	Parameter   string
	Threshold   float64
	GreaterThan bool // true: param > threshold; false: param < threshold
}

// StateTransition describes a timed, possibly conditional switch between
// two named states.
type StateTransition struct {
	Name       string
	FromState  string
	ToState    string
	Type       TransitionType
	Duration   float64 // beats
	SyncBars   int
	SyncBeats  int
	Conditions []TransitionCondition

	progress float64 // 0..1, valid only while active
	active   bool
	waiting  bool // MusicalSync: armed, waiting for the sync boundary

	// armBar/armBeat record the transport position at arming time so a
	// MusicalSync transition waits for the *next* boundary rather than
	// firing instantly when armed exactly on one.
	armBar, armBeat int

	// morphStart/morphEnd capture each morphing parameter's endpoint values
	// at arming time, keyed by parameter name.
	morphStart, morphEnd map[string]float64
}

// scheduledEvent is one beat-scheduled trigger awaiting delivery.
type scheduledEvent struct {
	name        string
	triggerBeat float64
	data        map[string]float64
}

// AdaptiveSequencer owns named musical states, the transitions between
// them, and a beat-scheduled event system layered on top of the same
// musical-time clock the plain Sequencer uses.
type AdaptiveSequencer struct {
	states      map[string]*MusicalState
	active      string
	transitions []*StateTransition

	listeners map[string][]func(name string, data map[string]float64)
	scheduled []scheduledEvent

	currentBeat float64
	tempo       float64
	playing     bool

	activeTransition *StateTransition

	// transport position for MusicalSync boundary checks, in (bar, beat)
	// driven externally by whoever advances the plain Sequencer this
	// adaptive layer rides on top of.
	transportBar  int
	transportBeat int

	// OnLayersChanged is invoked whenever the active state or an
	// in-progress crossfade/morph changes per-layer effective volumes;
	// the render graph uses this to retune the engine's mix without the
	// adaptive sequencer owning the engine directly.
	OnLayersChanged func(layerVolumes map[string]float64)
}

// NewAdaptiveSequencer returns an empty adaptive sequencer at 120 BPM.
func NewAdaptiveSequencer() *AdaptiveSequencer {
	return &AdaptiveSequencer{
		states:    make(map[string]*MusicalState),
		listeners: make(map[string][]func(string, map[string]float64)),
		tempo:     120,
	}
}

// AddState registers a musical state by name.
func (a *AdaptiveSequencer) AddState(s *MusicalState) {
	a.states[s.Name] = s
	if a.active == "" {
		a.active = s.Name
		a.tempo = s.Tempo
	}
}

// State returns the named state, or nil.
func (a *AdaptiveSequencer) State(name string) *MusicalState { return a.states[name] }

// ActiveState returns the currently active state, or nil if none.
func (a *AdaptiveSequencer) ActiveState() *MusicalState { return a.states[a.active] }

// SetActiveState switches immediately to name, bypassing any transition
// machinery — used for initialization, not runtime switches (use
// AddTransition + conditions/triggers for those).
func (a *AdaptiveSequencer) SetActiveState(name string) {
	if _, ok := a.states[name]; !ok {
		return
	}
	a.active = name
	a.emitLayerVolumes()
}

// AddTransition registers a transition between two named states.
func (a *AdaptiveSequencer) AddTransition(t *StateTransition) { a.transitions = append(a.transitions, t) }

// Play/Stop/Pause mirror the plain Sequencer's transport surface so a host
// can treat either as "the transport" interchangeably.
func (a *AdaptiveSequencer) Play()  { a.playing = true }
func (a *AdaptiveSequencer) Stop()  { a.playing = false; a.currentBeat = 0 }
func (a *AdaptiveSequencer) Pause() { a.playing = false }

// IsPlaying reports transport state.
func (a *AdaptiveSequencer) IsPlaying() bool { return a.playing }

// SetTempo sets the beat-clock rate driving currentBeat advancement.
func (a *AdaptiveSequencer) SetTempo(bpm float64) {
	if bpm > 0 {
		a.tempo = bpm
	}
}

// SetTransportPosition feeds the adaptive sequencer the underlying
// transport's current bar/beat, used to evaluate MusicalSync boundaries.
func (a *AdaptiveSequencer) SetTransportPosition(bar, beat int) {
	a.transportBar, a.transportBeat = bar, beat
}

// RegisterEvent is a no-op placeholder for API symmetry with the original
// EventSystem's explicit registration step; listeners can be added for any
// name without pre-registering it, which is the idiomatic Go map-of-slices
// equivalent.
func (a *AdaptiveSequencer) RegisterEvent(name string) {
	if _, ok := a.listeners[name]; !ok {
		a.listeners[name] = nil
	}
}

// AddEventListener subscribes fn to every TriggerEvent/ScheduleEvent
// delivery for name.
func (a *AdaptiveSequencer) AddEventListener(name string, fn func(name string, data map[string]float64)) {
	a.listeners[name] = append(a.listeners[name], fn)
}

// TriggerEvent delivers name immediately to every subscribed listener.
func (a *AdaptiveSequencer) TriggerEvent(name string, data map[string]float64) {
	for _, fn := range a.listeners[name] {
		fn(name, data)
	}
}

// ScheduleEvent records name to fire delayBeats beats from now.
func (a *AdaptiveSequencer) ScheduleEvent(name string, delayBeats float64, data map[string]float64) {
	a.scheduled = append(a.scheduled, scheduledEvent{
		name:        name,
		triggerBeat: a.currentBeat + delayBeats,
		data:        data,
	})
}

// processTick delivers every scheduled event whose triggerBeat has been
// reached, in monotonic trigger order, removing them from the queue.
func (a *AdaptiveSequencer) processTick() {
	if len(a.scheduled) == 0 {
		return
	}
	sort.Slice(a.scheduled, func(i, j int) bool { return a.scheduled[i].triggerBeat < a.scheduled[j].triggerBeat })

	due := 0
	for due < len(a.scheduled) && a.scheduled[due].triggerBeat <= a.currentBeat {
		due++
	}
	for i := 0; i < due; i++ {
		a.TriggerEvent(a.scheduled[i].name, a.scheduled[i].data)
	}
	a.scheduled = a.scheduled[due:]
}

// Update advances the beat counter, delivers due scheduled events, starts
// a newly-eligible transition if none is in progress, and advances any
// active transition.
func (a *AdaptiveSequencer) Update(dt float64) {
	if a.playing {
		a.currentBeat += dt * a.tempo / 60.0
	}
	a.processTick()

	if a.activeTransition == nil {
		a.maybeStartTransition()
	} else {
		a.advanceTransition(dt)
	}
}

func (a *AdaptiveSequencer) maybeStartTransition() {
	for _, t := range a.transitions {
		if t.FromState != a.active {
			continue
		}
		if !a.conditionsHold(t) {
			continue
		}
		a.startTransition(t)
		return
	}
}

func (a *AdaptiveSequencer) conditionsHold(t *StateTransition) bool {
	from := a.states[t.FromState]
	if from == nil {
		return false
	}
	for _, c := range t.Conditions {
		p := from.Parameters[c.Parameter]
		if p == nil {
			return false
		}
		if c.GreaterThan {
			if !(p.Value > c.Threshold) {
				return false
			}
		} else {
			if !(p.Value < c.Threshold) {
				return false
			}
		}
	}
	return true
}

func (a *AdaptiveSequencer) startTransition(t *StateTransition) {
	t.progress = 0
	t.active = true
	t.waiting = t.Type == TransitionMusicalSync
	t.armBar, t.armBeat = a.transportBar, a.transportBeat
	a.activeTransition = t

	if t.Type == TransitionMorph {
		a.captureMorphEndpoints(t)
	}
	if t.Type == TransitionImmediate {
		a.completeTransition(t)
	}
}

// captureMorphEndpoints records, for every parameter name present in both
// states, the from-state value as the morph's start and the to-state value
// as its end. The interpolated value is written into the to-state's
// parameter as the morph progresses, so listeners on the destination state
// see the glide.
func (a *AdaptiveSequencer) captureMorphEndpoints(t *StateTransition) {
	from := a.states[t.FromState]
	to := a.states[t.ToState]
	t.morphStart = make(map[string]float64)
	t.morphEnd = make(map[string]float64)
	if from == nil || to == nil {
		return
	}
	for name, toParam := range to.Parameters {
		fromParam, ok := from.Parameters[name]
		if !ok {
			continue
		}
		t.morphStart[name] = fromParam.Value
		t.morphEnd[name] = toParam.Value
	}
}

func (a *AdaptiveSequencer) advanceTransition(dt float64) {
	t := a.activeTransition
	switch t.Type {
	case TransitionMusicalSync:
		if a.atSyncBoundary(t) {
			a.completeTransition(t)
		}
	case TransitionCrossfade, TransitionMorph:
		beatsElapsed := dt * a.tempo / 60.0
		if t.Duration <= 0 {
			a.completeTransition(t)
			return
		}
		t.progress += beatsElapsed / t.Duration
		if t.progress >= 1 {
			a.completeTransition(t)
			return
		}
		if t.Type == TransitionMorph {
			a.applyMorphProgress(t)
		} else {
			a.emitCrossfadeVolumes(t)
		}
	default:
		a.completeTransition(t)
	}
}

// atSyncBoundary reports whether the transport sits on the transition's
// (bars, beats) grid at a position past where the transition was armed.
func (a *AdaptiveSequencer) atSyncBoundary(t *StateTransition) bool {
	every := t.SyncBars
	if every < 1 {
		every = 1
	}
	if a.transportBar%every != 0 || a.transportBeat != t.SyncBeats {
		return false
	}
	return a.transportBar != t.armBar || a.transportBeat != t.armBeat
}

// applyMorphProgress writes the interpolated value of every captured
// parameter into the destination state. Morph is parameter-only: layer
// volumes are untouched until the state flip at completion.
func (a *AdaptiveSequencer) applyMorphProgress(t *StateTransition) {
	to := a.states[t.ToState]
	if to == nil {
		return
	}
	p := t.progress
	for name, start := range t.morphStart {
		end := t.morphEnd[name]
		if param := to.Parameters[name]; param != nil {
			param.SetValue(start + (end-start)*p)
		}
	}
}

// emitCrossfadeVolumes publishes the blended per-layer volumes for a
// transition in progress: old-state layers scale by 1-p, new-state layers
// by p.
func (a *AdaptiveSequencer) emitCrossfadeVolumes(t *StateTransition) {
	if a.OnLayersChanged == nil {
		return
	}
	from := a.states[t.FromState]
	to := a.states[t.ToState]
	out := make(map[string]float64)
	p := t.progress
	if from != nil {
		for name := range from.Layers {
			out[name] = from.EffectiveVolume(name) * (1 - p)
		}
	}
	if to != nil {
		for name := range to.Layers {
			out[name] += to.EffectiveVolume(name) * p
		}
	}
	a.OnLayersChanged(out)
}

func (a *AdaptiveSequencer) completeTransition(t *StateTransition) {
	t.active = false
	t.waiting = false
	t.progress = 1
	if t.Type == TransitionMorph {
		// Land every morphing parameter exactly on its destination value.
		if to := a.states[t.ToState]; to != nil {
			for name, end := range t.morphEnd {
				if param := to.Parameters[name]; param != nil {
					param.SetValue(end)
				}
			}
		}
	}
	a.active = t.ToState
	if s := a.states[a.active]; s != nil {
		a.tempo = s.Tempo
	}
	a.activeTransition = nil
	a.emitLayerVolumes()
}

// ApplySnapshot applies the named mix snapshot within stateName and, when
// that state is active, republishes layer volumes to the render side.
func (a *AdaptiveSequencer) ApplySnapshot(stateName, snapshotName string) bool {
	s := a.states[stateName]
	if s == nil || !s.ApplySnapshot(snapshotName) {
		return false
	}
	if stateName == a.active {
		a.emitLayerVolumes()
	}
	return true
}

func (a *AdaptiveSequencer) emitLayerVolumes() {
	if a.OnLayersChanged == nil {
		return
	}
	s := a.ActiveState()
	if s == nil {
		return
	}
	out := make(map[string]float64, len(s.Layers))
	for name := range s.Layers {
		out[name] = s.EffectiveVolume(name)
	}
	a.OnLayersChanged(out)
}

// IsTransitioning reports whether a transition is currently in progress.
func (a *AdaptiveSequencer) IsTransitioning() bool { return a.activeTransition != nil }
