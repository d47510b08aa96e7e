package detector

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/soocke/arrow-bot-go/domain/capture"
	"github.com/soocke/arrow-bot-go/domain/input"
	"github.com/soocke/arrow-bot-go/domain/match"
	"github.com/soocke/arrow-bot-go/domain/zone"
)

// WorkerConfig is the fixed per-zone input of a ZoneWorker.
type WorkerConfig struct {
	Zone      zone.Zone
	Offset    zone.Offset
	Template  *match.Template
	Mask      match.ColorMask
	Threshold float64
	Interval  time.Duration
}

// ZoneWorker watches one zone of the shared frame and drives its key with a
// released/pressed hysteresis. It owns its key state exclusively.
type ZoneWorker struct {
	cfg       WorkerConfig
	source    capture.FrameSource
	engine    match.Engine
	keys      input.KeyInput
	logger    *slog.Logger
	listeners []TransitionListener

	state     atomic.Int32
	lastScore float64
	roi       *image.RGBA
	failures  int
}

// NewZoneWorker builds a worker in the released state. Listeners must be
// registered before Run.
func NewZoneWorker(cfg WorkerConfig, source capture.FrameSource, engine match.Engine, keys input.KeyInput, logger *slog.Logger) *ZoneWorker {
	if logger != nil {
		logger = logger.With("zone", cfg.Zone.Name)
	}
	return &ZoneWorker{cfg: cfg, source: source, engine: engine, keys: keys, logger: logger, lastScore: math.NaN()}
}

func (w *ZoneWorker) AddListener(l TransitionListener) {
	if l != nil {
		w.listeners = append(w.listeners, l)
	}
}

func (w *ZoneWorker) Name() string { return w.cfg.Zone.Name }

// State returns the current key state. Safe from any goroutine.
func (w *ZoneWorker) State() KeyState { return KeyState(w.state.Load()) }

// Run cycles until stop is closed, then releases the key if it is held. A
// cycle in progress completes before stop is observed.
func (w *ZoneWorker) Run(stop <-chan struct{}) {
	defer w.release()
	timer := time.NewTimer(w.cfg.Interval)
	defer timer.Stop()
	for {
		select {
		case <-stop:
			return
		default:
		}

		w.cycle()

		timer.Reset(w.cfg.Interval)
		select {
		case <-stop:
			return
		case <-timer.C:
		}
	}
}

// cycle scores the latest frame once and applies the transition rule. It
// never panics and never returns an error: failures are logged and leave the
// state untouched.
func (w *ZoneWorker) cycle() {
	defer func() {
		if r := recover(); r != nil {
			w.fail(fmt.Errorf("%w: panic: %v", match.ErrScoring, r), string(debug.Stack()))
		}
	}()
	snap := w.source.LatestFrame()
	if snap.Empty() {
		return
	}
	roi, err := zone.CopyROI(w.roi, snap.Image, w.cfg.Offset)
	if err != nil {
		w.fail(err, "")
		return
	}
	w.roi = roi
	score, err := w.engine.Score(roi, w.cfg.Mask, w.cfg.Template)
	if err != nil {
		w.fail(err, "")
		return
	}
	w.recovered()
	w.apply(score)
}

// apply moves between released and pressed. A score equal to the threshold
// counts as a match. Repeating the current state emits nothing.
func (w *ZoneWorker) apply(score float64) {
	if math.IsNaN(score) {
		return
	}
	w.lastScore = score
	prev := w.State()
	next := StateReleased
	if score >= w.cfg.Threshold {
		next = StatePressed
	}
	if next == prev {
		return
	}
	w.transition(prev, next, score)
}

func (w *ZoneWorker) transition(prev, next KeyState, score float64) {
	var err error
	if next == StatePressed {
		err = w.keys.KeyDown(w.cfg.Zone.Key)
	} else {
		err = w.keys.KeyUp(w.cfg.Zone.Key)
	}
	if err != nil && w.logger != nil {
		w.logger.Warn("key input", "key", w.cfg.Zone.Key, "state", next.String(), "error", err)
	}
	w.state.Store(int32(next))
	if w.logger != nil {
		w.logger.Debug("zone transition", "from", prev.String(), "to", next.String(), "score", score, "key", w.cfg.Zone.Key)
	}
	for _, l := range w.listeners {
		l(w.cfg.Zone.Name, prev, next, score)
	}
}

// release emits the compensating key-up when the worker stops while pressed.
func (w *ZoneWorker) release() {
	if w.State() == StatePressed {
		w.transition(StatePressed, StateReleased, w.lastScore)
	}
}

// fail logs the first error of a streak loudly and the rest at debug level.
func (w *ZoneWorker) fail(err error, stack string) {
	w.failures++
	if w.logger == nil {
		return
	}
	attrs := []any{"error", err, "consecutive", w.failures}
	if stack != "" {
		attrs = append(attrs, "stack", stack)
	}
	if !isTransient(err) || stack != "" {
		w.logger.Error("zone cycle failed", attrs...)
		return
	}
	if w.failures == 1 {
		w.logger.Warn("zone cycle failed", attrs...)
		return
	}
	w.logger.Debug("zone cycle failed", attrs...)
}

func (w *ZoneWorker) recovered() {
	if w.failures == 0 {
		return
	}
	if w.logger != nil {
		w.logger.Info("zone cycle recovered", "failed_cycles", w.failures)
	}
	w.failures = 0
}

// isTransient reports whether err is one of the per-cycle error kinds.
func isTransient(err error) bool {
	return errors.Is(err, capture.ErrCapture) || errors.Is(err, zone.ErrGeometryMismatch) || errors.Is(err, match.ErrScoring)
}
