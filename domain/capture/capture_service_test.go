package capture

import (
	"errors"
	"image"
	"image/color"
	"log/slog"
	"sync"
	"testing"
	"time"
)

var discardLogger = slog.New(slog.NewTextHandler(&discardWriter{}, nil))

type discardWriter struct{}

func (d *discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// scriptedBackend returns frames or errors according to fail, counting calls.
type scriptedBackend struct {
	mu      sync.Mutex
	calls   int
	fail    func(call int) error
	panicOn int
}

func (b *scriptedBackend) Grab(r image.Rectangle) (*image.RGBA, error) {
	b.mu.Lock()
	b.calls++
	call := b.calls
	b.mu.Unlock()
	if b.panicOn > 0 && call == b.panicOn {
		panic("backend exploded")
	}
	if b.fail != nil {
		if err := b.fail(call); err != nil {
			return nil, err
		}
	}
	img := image.NewRGBA(r)
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = byte(call), 20, 30, 0
	}
	return img, nil
}

func (b *scriptedBackend) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %s", msg)
}

func TestCaptureService_NoFrameBeforeStart(t *testing.T) {
	svc := NewCaptureService(&scriptedBackend{}, image.Rect(10, 10, 30, 20), 5*time.Millisecond, discardLogger)
	if !svc.LatestFrame().Empty() {
		t.Fatalf("expected empty snapshot before start")
	}
	if svc.Running() {
		t.Fatalf("not started yet")
	}
}

func TestCaptureService_PublishesCanonicalFrames(t *testing.T) {
	region := image.Rect(100, 50, 140, 70)
	svc := NewCaptureService(&scriptedBackend{}, region, 2*time.Millisecond, discardLogger)
	svc.Start()
	defer svc.Stop()
	waitFor(t, time.Second, func() bool { return svc.LatestFrame().Sequence >= 2 }, "two captures")
	snap := svc.LatestFrame()
	if snap.Image.Bounds() != image.Rect(0, 0, 40, 20) {
		t.Fatalf("frame not anchored at origin: %v", snap.Image.Bounds())
	}
	if got := snap.Image.RGBAAt(3, 3); got.A != 0xFF || got.G != 20 || got.B != 30 {
		t.Fatalf("unexpected canonical pixel %+v", got)
	}
	if snap.CapturedAt.IsZero() {
		t.Fatalf("missing capture timestamp")
	}
}

func TestCaptureService_FailuresKeepLastFrame(t *testing.T) {
	backend := &scriptedBackend{fail: func(call int) error {
		if call > 1 {
			return errors.New("display asleep")
		}
		return nil
	}}
	svc := NewCaptureService(backend, image.Rect(0, 0, 8, 8), 2*time.Millisecond, discardLogger)
	svc.Start()
	waitFor(t, time.Second, func() bool { return backend.Calls() >= 5 }, "several attempts")
	svc.Stop()
	snap := svc.LatestFrame()
	if snap.Sequence != 1 {
		t.Fatalf("expected first frame to survive failures, got seq %d", snap.Sequence)
	}
	if got := snap.Image.RGBAAt(0, 0); got.R != 1 {
		t.Fatalf("frame was corrupted: %+v", got)
	}
	if st := svc.Stats(); st.Skipped == 0 || st.Captures != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestCaptureService_RecoversFromBackendPanic(t *testing.T) {
	backend := &scriptedBackend{panicOn: 1}
	svc := NewCaptureService(backend, image.Rect(0, 0, 4, 4), 2*time.Millisecond, discardLogger)
	svc.Start()
	defer svc.Stop()
	waitFor(t, time.Second, func() bool { return !svc.LatestFrame().Empty() }, "frame after panic")
}

func TestCaptureService_StartStopIdempotent(t *testing.T) {
	backend := &scriptedBackend{}
	svc := NewCaptureService(backend, image.Rect(0, 0, 4, 4), 2*time.Millisecond, discardLogger)
	svc.Stop()
	svc.Start()
	svc.Start()
	if !svc.Running() {
		t.Fatalf("expected running")
	}
	waitFor(t, time.Second, func() bool { return backend.Calls() > 0 }, "first grab")
	svc.Stop()
	svc.Stop()
	if svc.Running() {
		t.Fatalf("expected stopped")
	}
	calls := backend.Calls()
	time.Sleep(20 * time.Millisecond)
	if backend.Calls() != calls {
		t.Fatalf("loop still grabbing after Stop returned")
	}
}

func TestCanonicalFrame_ForcesOpaque(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 7, 6))
	src.SetRGBA(6, 5, color.RGBA{R: 9, G: 8, B: 7, A: 0})
	dst := canonicalFrame(src)
	if dst.Bounds() != image.Rect(0, 0, 2, 1) {
		t.Fatalf("bounds %v", dst.Bounds())
	}
	if got := dst.RGBAAt(1, 0); got != (color.RGBA{R: 9, G: 8, B: 7, A: 0xFF}) {
		t.Fatalf("pixel %+v", got)
	}
}

func TestNewBackend(t *testing.T) {
	for _, name := range []string{"", "screenshot", "KBINANI"} {
		if b, err := NewBackend(name); err != nil || b == nil {
			t.Fatalf("NewBackend(%q): %v", name, err)
		}
	}
	if _, err := NewBackend("vnc"); err == nil {
		t.Fatalf("expected unknown backend error")
	}
}

func TestCaptureService_BackendFunc(t *testing.T) {
	var seen image.Rectangle
	var mu sync.Mutex
	backend := BackendFunc(func(r image.Rectangle) (*image.RGBA, error) {
		mu.Lock()
		seen = r
		mu.Unlock()
		return image.NewRGBA(r), nil
	})
	region := image.Rect(3, 4, 13, 9)
	svc := NewCaptureService(backend, region, 2*time.Millisecond, discardLogger)
	if svc.Region() != region {
		t.Fatalf("region %v", svc.Region())
	}
	svc.Start()
	waitFor(t, time.Second, func() bool { return !svc.LatestFrame().Empty() }, "first frame")
	svc.Stop()
	mu.Lock()
	defer mu.Unlock()
	if seen != region {
		t.Fatalf("backend asked for %v, want %v", seen, region)
	}
}
