package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdaptiveSequencerImmediateTransitionSwitchesState(t *testing.T) {
	a := NewAdaptiveSequencer()
	calm := NewMusicalState("calm")
	intense := NewMusicalState("intense")
	a.AddState(calm)
	a.AddState(intense)
	a.SetActiveState("calm")

	a.AddTransition(&StateTransition{Name: "t1", FromState: "calm", ToState: "intense", Type: TransitionImmediate})
	a.Update(0.1)

	assert.Equal(t, "intense", a.ActiveState().Name)
}

func TestAdaptiveSequencerConditionGatesTransition(t *testing.T) {
	a := NewAdaptiveSequencer()
	calm := NewMusicalState("calm")
	intense := NewMusicalState("intense")
	calm.Parameters["intensity"] = &AdaptiveParameter{Name: "intensity", Min: 0, Max: 1}
	a.AddState(calm)
	a.AddState(intense)
	a.SetActiveState("calm")

	a.AddTransition(&StateTransition{
		Name: "t1", FromState: "calm", ToState: "intense", Type: TransitionImmediate,
		Conditions: []TransitionCondition{{Parameter: "intensity", Threshold: 0.5, GreaterThan: true}},
	})
	a.Update(0.1)
	assert.Equal(t, "calm", a.ActiveState().Name, "transition must not fire until condition holds")

	calm.Parameters["intensity"].SetValue(0.9)
	a.Update(0.1)
	assert.Equal(t, "intense", a.ActiveState().Name)
}

func TestAdaptiveSequencerCrossfadeProgressesOverBeats(t *testing.T) {
	a := NewAdaptiveSequencer()
	from := NewMusicalState("a")
	to := NewMusicalState("b")
	from.AddLayer(&Layer{Name: "drums", Volume: 1.0})
	to.AddLayer(&Layer{Name: "drums", Volume: 1.0})
	a.AddState(from)
	a.AddState(to)
	a.SetActiveState("a")
	a.SetTempo(120)
	a.Play()

	var lastVolumes map[string]float64
	a.OnLayersChanged = func(v map[string]float64) { lastVolumes = v }

	a.AddTransition(&StateTransition{Name: "t", FromState: "a", ToState: "b", Type: TransitionCrossfade, Duration: 4})
	a.Update(0.1) // starts transition
	require.True(t, a.IsTransitioning())

	for i := 0; i < 200; i++ {
		a.Update(0.1)
	}
	assert.False(t, a.IsTransitioning(), "4-beat crossfade should complete well within 20 seconds")
	assert.Equal(t, "b", a.ActiveState().Name)
	assert.InDelta(t, 1.0, lastVolumes["drums"], 1e-9)
}

func TestAdaptiveSequencerScheduledEventFiresInOrder(t *testing.T) {
	a := NewAdaptiveSequencer()
	a.SetTempo(120)
	a.Play()

	var order []string
	a.AddEventListener("fill", func(name string, data map[string]float64) { order = append(order, name) })
	a.AddEventListener("drop", func(name string, data map[string]float64) { order = append(order, name) })

	a.ScheduleEvent("drop", 2, nil)
	a.ScheduleEvent("fill", 1, nil)

	for i := 0; i < 100; i++ {
		a.Update(0.1) // 0.1s * 2 beats/sec = 0.2 beats per tick
	}

	require.Len(t, order, 2)
	assert.Equal(t, "fill", order[0])
	assert.Equal(t, "drop", order[1])
}

func TestAdaptiveSequencerMorphInterpolatesParameters(t *testing.T) {
	a := NewAdaptiveSequencer()
	from := NewMusicalState("verse")
	to := NewMusicalState("chorus")
	from.Parameters["cutoff"] = &AdaptiveParameter{Name: "cutoff", Value: 0.2, Min: 0, Max: 1}
	to.Parameters["cutoff"] = &AdaptiveParameter{Name: "cutoff", Value: 0.8, Min: 0, Max: 1}
	a.AddState(from)
	a.AddState(to)
	a.SetActiveState("verse")
	a.SetTempo(120)
	a.Play()

	a.AddTransition(&StateTransition{Name: "m", FromState: "verse", ToState: "chorus", Type: TransitionMorph, Duration: 4})
	a.Update(0.01) // arms the transition
	require.True(t, a.IsTransitioning())

	a.Update(0.5) // one beat at 120 BPM: progress 0.25
	assert.InDelta(t, 0.2+0.6*0.25, to.Parameters["cutoff"].Value, 1e-6)

	for i := 0; i < 20; i++ {
		a.Update(0.5)
	}
	assert.False(t, a.IsTransitioning())
	assert.Equal(t, "chorus", a.ActiveState().Name)
	assert.InDelta(t, 0.8, to.Parameters["cutoff"].Value, 1e-9,
		"morph must land exactly on the destination value")
}

func TestAdaptiveSequencerMusicalSyncWaitsForBoundary(t *testing.T) {
	a := NewAdaptiveSequencer()
	verse := NewMusicalState("verse")
	chorus := NewMusicalState("chorus")
	a.AddState(verse)
	a.AddState(chorus)
	a.SetActiveState("verse")
	a.Play()

	a.AddTransition(&StateTransition{
		Name: "s", FromState: "verse", ToState: "chorus",
		Type: TransitionMusicalSync, SyncBars: 2, SyncBeats: 0,
	})

	a.SetTransportPosition(1, 1)
	a.Update(0.01) // arms
	require.True(t, a.IsTransitioning())
	assert.Equal(t, "verse", a.ActiveState().Name)

	a.SetTransportPosition(1, 3) // not on the 2-bar grid yet
	a.Update(0.01)
	assert.Equal(t, "verse", a.ActiveState().Name)

	a.SetTransportPosition(2, 0) // next 2-bar boundary
	a.Update(0.01)
	assert.False(t, a.IsTransitioning())
	assert.Equal(t, "chorus", a.ActiveState().Name)
}

func TestMusicalStateApplySnapshotSetsVolumesAndMutes(t *testing.T) {
	s := NewMusicalState("x")
	s.AddLayer(&Layer{Name: "drums", Volume: 1.0})
	s.AddLayer(&Layer{Name: "bass", Volume: 0.8})
	s.AddSnapshot(&MixSnapshot{
		Name:        "breakdown",
		LayerVolume: map[string]float64{"drums": 0.3},
		LayerMute:   map[string]bool{"bass": true},
	})

	require.True(t, s.ApplySnapshot("breakdown"))
	assert.Equal(t, "breakdown", s.ActiveSnapshot)
	assert.InDelta(t, 0.3, s.Layers["drums"].Volume, 1e-9)
	assert.Equal(t, 0.0, s.EffectiveVolume("bass"))

	assert.False(t, s.ApplySnapshot("nope"))
}

func TestAdaptiveSequencerApplySnapshotRepublishesActiveState(t *testing.T) {
	a := NewAdaptiveSequencer()
	s := NewMusicalState("x")
	s.AddLayer(&Layer{Name: "drums", Volume: 1.0})
	s.AddSnapshot(&MixSnapshot{Name: "quiet", LayerVolume: map[string]float64{"drums": 0.2}})
	a.AddState(s)

	var latest map[string]float64
	a.OnLayersChanged = func(v map[string]float64) { latest = v }
	a.SetActiveState("x")

	require.True(t, a.ApplySnapshot("x", "quiet"))
	assert.InDelta(t, 0.2, latest["drums"], 1e-9)
}

func TestMusicalStateSoloSilencesOtherLayers(t *testing.T) {
	s := NewMusicalState("x")
	s.AddLayer(&Layer{Name: "drums", Volume: 1.0})
	s.AddLayer(&Layer{Name: "bass", Volume: 1.0, Solo: true})

	assert.Equal(t, 0.0, s.EffectiveVolume("drums"))
	assert.Equal(t, 1.0, s.EffectiveVolume("bass"))
}
