package detector

import (
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soocke/arrow-bot-go/domain/capture"
	"github.com/soocke/arrow-bot-go/domain/input"
	"github.com/soocke/arrow-bot-go/domain/match"
	"github.com/soocke/arrow-bot-go/domain/zone"
)

// TemplateLoader resolves a zone's template when ZoneSpec.Template is nil.
type TemplateLoader func(zoneName, path string) (*match.Template, error)

// SourceFactory builds the frame source for a session.
type SourceFactory func(backend capture.Backend, region image.Rectangle, interval time.Duration, logger *slog.Logger) capture.CaptureService

// Supervisor owns one capture loop and one ZoneWorker per zone.
type Supervisor struct {
	cfg       SessionConfig
	backend   capture.Backend
	keys      input.KeyInput
	engine    match.Engine
	logger    *slog.Logger
	loader    TemplateLoader
	newSource SourceFactory
	listeners []TransitionListener

	mu        sync.Mutex
	running   bool
	sessionID string
	region    zone.Region
	source    capture.CaptureService
	workers   []*ZoneWorker
	stop      chan struct{}
	wg        sync.WaitGroup
}

// NewSupervisor wires a session. Nothing is validated or launched until
// Start.
func NewSupervisor(cfg SessionConfig, backend capture.Backend, keys input.KeyInput, engine match.Engine, logger *slog.Logger) *Supervisor {
	return &Supervisor{
		cfg:       cfg,
		backend:   backend,
		keys:      keys,
		engine:    engine,
		logger:    logger,
		loader:    match.LoadTemplate,
		newSource: capture.NewCaptureService,
	}
}

// SetTemplateLoader replaces match.LoadTemplate for zones without a
// preloaded template.
func (s *Supervisor) SetTemplateLoader(l TemplateLoader) {
	if l != nil {
		s.loader = l
	}
}

// SetSourceFactory replaces capture.NewCaptureService.
func (s *Supervisor) SetSourceFactory(f SourceFactory) {
	if f != nil {
		s.newSource = f
	}
}

// AddListener registers l for transitions of every zone in later sessions.
func (s *Supervisor) AddListener(l TransitionListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l != nil {
		s.listeners = append(s.listeners, l)
	}
}

// Plan is the validated layout of a session.
type Plan struct {
	Region  zone.Region
	Workers []WorkerConfig
}

// Prepare validates the configuration, loads templates and derives the
// capture region and per-zone offsets. Every failure wraps ErrStartupConfig.
func (s *Supervisor) Prepare() (Plan, error) {
	if err := s.cfg.validate(); err != nil {
		return Plan{}, err
	}
	if s.engine == nil || s.keys == nil || s.backend == nil {
		return Plan{}, fmt.Errorf("%w: missing engine, input or capture backend", ErrStartupConfig)
	}
	zones := make([]zone.Zone, len(s.cfg.Zones))
	for i, zs := range s.cfg.Zones {
		zones[i] = zs.Zone
	}
	region, err := zone.ComputeRegion(zones)
	if err != nil {
		return Plan{}, fmt.Errorf("%w: %w", ErrStartupConfig, err)
	}
	plan := Plan{Region: region, Workers: make([]WorkerConfig, 0, len(zones))}
	for _, zs := range s.cfg.Zones {
		wc, err := s.prepareZone(zs, region)
		if err != nil {
			return Plan{}, fmt.Errorf("%w: %w", ErrStartupConfig, err)
		}
		plan.Workers = append(plan.Workers, wc)
	}
	return plan, nil
}

func (s *Supervisor) prepareZone(zs ZoneSpec, region zone.Region) (WorkerConfig, error) {
	z := zs.Zone
	off, err := zone.ComputeOffset(z, region)
	if err != nil {
		return WorkerConfig{}, err
	}
	if _, err := input.ParseVK(z.Key); err != nil {
		return WorkerConfig{}, fmt.Errorf("zone %q: %w", z.Name, err)
	}
	tmpl := zs.Template
	if tmpl == nil {
		tmpl, err = s.loader(z.Name, zs.TemplatePath)
		if err != nil {
			return WorkerConfig{}, fmt.Errorf("zone %q: %w", z.Name, err)
		}
	}
	if tmpl.Width() > off.Width || tmpl.Height() > off.Height {
		return WorkerConfig{}, fmt.Errorf("zone %q: template %dx%d larger than zone %dx%d", z.Name, tmpl.Width(), tmpl.Height(), off.Width, off.Height)
	}
	return WorkerConfig{
		Zone:      z,
		Offset:    off,
		Template:  tmpl,
		Mask:      s.cfg.Mask,
		Threshold: s.cfg.Threshold,
		Interval:  s.cfg.ScanInterval,
	}, nil
}

// Start validates the session and launches the capture loop and every zone
// worker. It returns once launch is requested. Calling Start while running
// is a no-op.
func (s *Supervisor) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	plan, err := s.Prepare()
	if err != nil {
		return err
	}
	s.sessionID = uuid.NewString()
	s.region = plan.Region
	logger := s.logger
	if logger != nil {
		logger = logger.With("session_id", s.sessionID)
	}
	s.source = s.newSource(s.backend, plan.Region.Rect(), s.cfg.ScanInterval, logger)
	s.workers = make([]*ZoneWorker, 0, len(plan.Workers))
	for _, wc := range plan.Workers {
		w := NewZoneWorker(wc, s.source, s.engine, s.keys, logger)
		for _, l := range s.listeners {
			w.AddListener(l)
		}
		s.workers = append(s.workers, w)
	}
	s.stop = make(chan struct{})
	s.source.Start()
	for _, w := range s.workers {
		s.wg.Add(1)
		go func(w *ZoneWorker, stop <-chan struct{}) {
			defer s.wg.Done()
			w.Run(stop)
		}(w, s.stop)
	}
	s.running = true
	if logger != nil {
		logger.Info("detector started",
			"zones", len(s.workers),
			"region", plan.Region.Rect().String(),
			"threshold", s.cfg.Threshold,
			"interval", s.cfg.ScanInterval)
	}
	return nil
}

// Stop signals every worker and the capture loop and waits for all of them,
// including each worker's final key-up. Calling Stop while stopped is a
// no-op.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	close(s.stop)
	s.wg.Wait()
	s.source.Stop()
	s.running = false
	if s.logger != nil {
		s.logger.Info("detector stopped", "session_id", s.sessionID)
	}
}

func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// SessionID identifies the current or last session; empty before the first
// Start.
func (s *Supervisor) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// Region returns the capture region of the current or last session.
func (s *Supervisor) Region() zone.Region {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.region
}

// States snapshots the key state of every zone.
func (s *Supervisor) States() map[string]KeyState {
	s.mu.Lock()
	workers := s.workers
	s.mu.Unlock()
	out := make(map[string]KeyState, len(workers))
	for _, w := range workers {
		out[w.Name()] = w.State()
	}
	return out
}

// CaptureStats reports the session's capture loop counters.
func (s *Supervisor) CaptureStats() capture.CaptureStats {
	s.mu.Lock()
	src := s.source
	s.mu.Unlock()
	if src == nil {
		return capture.CaptureStats{}
	}
	return src.Stats()
}
