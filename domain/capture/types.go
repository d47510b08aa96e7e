package capture

import (
	"image"
	"time"
)

// FrameSnapshot carries the latest captured frame and metadata.
// Image is nil until the first successful capture. A published Image is
// never written again; readers share it without locking.
type FrameSnapshot struct {
	Image      *image.RGBA
	CapturedAt time.Time
	Sequence   uint64
}

// Empty reports whether no frame has been captured yet.
func (s FrameSnapshot) Empty() bool { return s.Image == nil }

// CaptureStats summarises capture loop behaviour for instrumentation.
type CaptureStats struct {
	Captures         uint64
	Skipped          uint64
	AvgCapture       time.Duration
	AvgCaptureMicros float64
	LastCapture      time.Time
	LatestFrameAge   time.Duration
	Sequence         uint64
}

// FrameSource provides read-only access to captured frames.
// LatestFrame returns the freshest snapshot while Running reports activity.
type FrameSource interface {
	LatestFrame() FrameSnapshot
	Running() bool
}
