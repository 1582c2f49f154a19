package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/lixenwraith/synthcore/audio"
	"github.com/lixenwraith/synthcore/config"
	"github.com/lixenwraith/synthcore/core"
)

// drainInterval is how often the background pump moves RT-queued errors
// into the handler's history while the service runs.
const drainInterval = 50 * time.Millisecond

// EngineService assembles the synthesis core from a config document and
// manages its non-RT lifecycle: construction, the RT error-drain pump, and
// shutdown. The RT side stays the host's — the service hands out the
// RenderGraph and never calls Render itself.
type EngineService struct {
	cfgPath string

	mu     sync.Mutex
	graph  *audio.RenderGraph
	engine *audio.Engine
	chain  *audio.ReorderableChain
	seq    *audio.Sequencer
	errs   *audio.ErrorHandler

	stop chan struct{}
}

// NewEngineService creates a service that will load its configuration from
// configPath on Init. A nonexistent path yields the built-in defaults.
func NewEngineService(configPath string) *EngineService {
	return &EngineService{cfgPath: configPath}
}

// Name implements Service.
func (s *EngineService) Name() string { return "engine" }

// Dependencies implements Service; the engine sits at the bottom of the
// service graph.
func (s *EngineService) Dependencies() []string { return nil }

// Init loads configuration and builds the engine, chain, sequencer, error
// handler, and render graph. Implements Service.
func (s *EngineService) Init(args ...any) error {
	cfg, err := config.Load(s.cfgPath)
	if err != nil {
		return errors.Wrap(err, "engine service: load config")
	}
	chain, err := cfg.BuildChain()
	if err != nil {
		return errors.Wrap(err, "engine service: build chain")
	}

	eng := audio.NewEngine(cfg.MaxTotalVoices, cfg.MaxVoicesPerChannel, cfg.SampleRate)
	eng.SetMasterVolume(cfg.MasterVolume)
	for i, ch := range cfg.Channels {
		c := eng.Channel(i)
		if c == nil {
			break
		}
		c.SetVolume(ch.Volume)
		c.SetPan(ch.Pan)
		c.SetMono(ch.Mono)
		c.SetTransposition(ch.Transposition)
		c.SetFineTune(ch.FineTuneCents)
		c.SetPitchBendRange(cfg.BendRangeSemitones)
		eng.SetChannelPriority(i, ch.Priority)
	}
	switch cfg.VoiceBudgetStrategy {
	case "priority":
		eng.SetVoiceBudgetStrategy(audio.BudgetPriority)
	case "dynamic":
		eng.SetVoiceBudgetStrategy(audio.BudgetDynamic)
	default:
		eng.SetVoiceBudgetStrategy(audio.BudgetEqual)
	}
	eng.Rebalance()

	seq := audio.NewSequencer()
	audio.WireSequencer(seq, eng)

	errs := audio.NewErrorHandler(cfg.MaxErrorHistory)
	graph := audio.NewRenderGraph(seq, eng, chain, errs, cfg.SampleRate)
	graph.SetClipThreshold(cfg.ClipThreshold)

	s.mu.Lock()
	s.engine, s.chain, s.seq, s.errs, s.graph = eng, chain, seq, errs, graph
	s.mu.Unlock()
	return nil
}

// Start launches the error-drain pump. Implements Service.
func (s *EngineService) Start() error {
	s.mu.Lock()
	if s.graph == nil {
		s.mu.Unlock()
		return errors.New("engine service: Start called before Init")
	}
	if s.stop != nil {
		s.mu.Unlock()
		return nil
	}
	stop := make(chan struct{})
	s.stop = stop
	errs := s.errs
	s.mu.Unlock()

	core.SafeGo(func(recovered any, stack []byte) {
		errs.ReportCritical(audio.AudioError{
			Code:    audio.CodeCallbackBase + 1,
			Message: fmt.Sprintf("error pump panicked: %v", recovered),
			Context: string(stack),
		})
	}, func() {
		ticker := time.NewTicker(drainInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				errs.DrainRT()
			}
		}
	})
	return nil
}

// Stop halts the pump and silences the engine. Idempotent. Implements
// Service.
func (s *EngineService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	if s.engine != nil {
		s.engine.AllNotesOff()
	}
	return nil
}

// Contribute publishes the render graph and error handler to the host.
// Implements ResourceContributor.
func (s *EngineService) Contribute(publish ResourcePublisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	publish(s.graph)
	publish(s.errs)
}

// Graph returns the assembled render graph, or nil before Init.
func (s *EngineService) Graph() *audio.RenderGraph { return s.graph }

// Engine returns the multi-timbral engine, or nil before Init.
func (s *EngineService) Engine() *audio.Engine { return s.engine }

// Sequencer returns the pattern sequencer, or nil before Init.
func (s *EngineService) Sequencer() *audio.Sequencer { return s.seq }

// Chain returns the effects chain, or nil before Init.
func (s *EngineService) Chain() *audio.ReorderableChain { return s.chain }

// Errors returns the error handler, or nil before Init.
func (s *EngineService) Errors() *audio.ErrorHandler { return s.errs }
