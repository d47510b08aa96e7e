package capture

import (
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

const captureStatsLogInterval = 5 * time.Second

// CaptureService repeatedly grabs a fixed screen region and exposes the
// latest capture alongside instrumentation data. Use NewCaptureService to
// construct an instance.
type CaptureService interface {
	FrameSource
	Start()
	Stop()
	Region() image.Rectangle
	Stats() CaptureStats
}

var _ CaptureService = (*captureService)(nil)

type captureService struct {
	backend  Backend
	region   image.Rectangle
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex // serialises Start/Stop
	running atomic.Bool
	stop    chan struct{}
	done    chan struct{}

	latest       atomic.Pointer[FrameSnapshot]
	captures     atomic.Uint64
	skipped      atomic.Uint64
	captureNanos atomic.Uint64
	sequence     atomic.Uint64
}

// NewCaptureService constructs a capture service grabbing region from backend
// every interval. The loop does not run until Start is called.
func NewCaptureService(backend Backend, region image.Rectangle, interval time.Duration, logger *slog.Logger) CaptureService {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	return &captureService{backend: backend, region: region, interval: interval, logger: logger}
}

func (s *captureService) Region() image.Rectangle { return s.region }

func (s *captureService) LatestFrame() FrameSnapshot {
	snap := s.latest.Load()
	if snap == nil {
		return FrameSnapshot{}
	}
	return *snap
}

func (s *captureService) Running() bool { return s.running.Load() }

func (s *captureService) Stats() CaptureStats {
	captures := s.captures.Load()
	skipped := s.skipped.Load()
	total := s.captureNanos.Load()
	var avg time.Duration
	avgMicros := 0.0
	if captures > 0 && total > 0 {
		avg = time.Duration(total / captures)
		avgMicros = float64(avg) / float64(time.Microsecond)
	}
	snapshot := s.LatestFrame()
	age := time.Duration(0)
	if !snapshot.CapturedAt.IsZero() {
		age = time.Since(snapshot.CapturedAt)
	}
	return CaptureStats{
		Captures:         captures,
		Skipped:          skipped,
		AvgCapture:       avg,
		AvgCaptureMicros: avgMicros,
		LastCapture:      snapshot.CapturedAt,
		LatestFrameAge:   age,
		Sequence:         snapshot.Sequence,
	}
}

// Start launches the capture loop. Calling Start while running is a no-op.
func (s *captureService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running.Load() {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.running.Store(true)
	go s.loop(s.stop, s.done)
}

// Stop signals the loop and waits for it to exit. The last published frame
// stays readable. Calling Stop while stopped is a no-op.
func (s *captureService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running.Load() {
		return
	}
	close(s.stop)
	<-s.done
	s.running.Store(false)
}

func (s *captureService) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	logTicker := time.NewTicker(captureStatsLogInterval)
	defer logTicker.Stop()
	timer := time.NewTimer(s.interval)
	defer timer.Stop()
	for {
		select {
		case <-stop:
			return
		default:
		}

		s.captureOnce()

		select {
		case <-logTicker.C:
			s.logStats()
		default:
		}

		timer.Reset(s.interval)
		select {
		case <-stop:
			return
		case <-timer.C:
		}
	}
}

// captureOnce grabs one frame and publishes it. Failures leave the previous
// snapshot in place.
func (s *captureService) captureOnce() {
	start := time.Now()
	img, err := s.grab()
	if err != nil {
		s.skipped.Add(1)
		if s.logger != nil {
			s.logger.Error("capture region", "region", s.region.String(), "error", err)
		}
		return
	}
	frame := canonicalFrame(img)
	elapsed := time.Since(start)
	s.captureNanos.Add(uint64(elapsed.Nanoseconds()))
	s.captures.Add(1)
	seq := s.sequence.Add(1)
	s.latest.Store(&FrameSnapshot{Image: frame, CapturedAt: time.Now(), Sequence: seq})
}

func (s *captureService) grab() (img *image.RGBA, err error) {
	defer func() {
		if r := recover(); r != nil {
			img, err = nil, fmt.Errorf("%w: backend panic: %v", ErrCapture, r)
		}
	}()
	if s.backend == nil {
		return nil, fmt.Errorf("%w: no backend", ErrCapture)
	}
	img, err = s.backend.Grab(s.region)
	if err != nil {
		return nil, err
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: backend returned no pixels", ErrCapture)
	}
	return img, nil
}

func (s *captureService) logStats() {
	if s.logger == nil {
		return
	}
	stats := s.Stats()
	s.logger.Debug("capture.stats",
		"captures", humanize.Comma(int64(stats.Captures)),
		"skipped", humanize.Comma(int64(stats.Skipped)),
		"avg_capture", stats.AvgCapture,
		"age", stats.LatestFrameAge,
		"frame_bytes", humanize.Bytes(uint64(s.region.Dx()*s.region.Dy()*4)),
	)
}

// canonicalFrame copies src into a fresh opaque RGBA image anchored at the
// origin. Colour channels are kept, alpha is forced to 0xFF so downstream
// stages can treat every frame as three-channel colour.
func canonicalFrame(src *image.RGBA) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		srow := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
		drow := dst.Pix[y*dst.Stride : y*dst.Stride+w*4]
		for i := 0; i < w*4; i += 4 {
			drow[i+0] = srow[i+0]
			drow[i+1] = srow[i+1]
			drow[i+2] = srow[i+2]
			drow[i+3] = 0xFF
		}
	}
	return dst
}
