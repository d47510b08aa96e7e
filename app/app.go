package app

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/soocke/arrow-bot-go/debug"
	"github.com/soocke/arrow-bot-go/domain/detector"
)

const (
	defaultStatusInterval = 5 * time.Second
	runtimeLoggerInterval = 2 * time.Second
)

// RunOptions tune Run. Zero values select defaults.
type RunOptions struct {
	// StatusInterval is the period of the status log line.
	StatusInterval time.Duration
	// Duration stops the session after this long; zero runs until ctx ends.
	Duration time.Duration
}

// Run starts the detector and blocks until ctx is done or opts.Duration
// elapses, then stops it. Stop has returned, and every held key has been
// released, by the time Run returns.
func Run(ctx context.Context, c *AppContainer, opts RunOptions) error {
	if opts.StatusInterval <= 0 {
		opts.StatusInterval = defaultStatusInterval
	}
	if err := c.Detector.Start(); err != nil {
		return err
	}
	started := time.Now()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if opts.Duration > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, opts.Duration)
		defer cancelTimeout()
	}
	var runtimeDone <-chan struct{}
	if c.Config.Debug {
		runtimeDone = debug.StartRuntimeLogger(ctx, runtimeLoggerInterval, c.Logger)
	}

	ticker := time.NewTicker(opts.StatusInterval)
	defer ticker.Stop()
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case now := <-ticker.C:
			logStatus(c, now.Sub(started))
		}
	}

	c.Detector.Stop()
	elapsed := time.Since(started)
	cancel()
	if runtimeDone != nil {
		<-runtimeDone
	}
	if c.Logger != nil {
		stats := c.Detector.CaptureStats()
		c.Logger.Info("session finished",
			"session_id", c.Detector.SessionID(),
			"duration", elapsed.Round(time.Millisecond),
			"captures", humanize.Comma(int64(stats.Captures)),
			"skipped", humanize.Comma(int64(stats.Skipped)))
	}
	return nil
}

func logStatus(c *AppContainer, session time.Duration) {
	if c.Logger == nil {
		return
	}
	states := c.Detector.States()
	names := make([]string, 0, len(states))
	for name := range states {
		names = append(names, name)
	}
	sort.Strings(names)
	attrs := make([]any, 0, len(names)+4)
	for _, name := range names {
		attrs = append(attrs, slog.String("zone."+name, states[name].String()))
	}
	stats := c.Detector.CaptureStats()
	attrs = append(attrs,
		"session", session.Round(time.Second),
		"frame_age", stats.LatestFrameAge.Round(time.Millisecond),
		"avg_capture", stats.AvgCapture,
		"pressed", countPressed(states))
	c.Logger.Info("status", attrs...)
}

func countPressed(states map[string]detector.KeyState) int {
	n := 0
	for _, s := range states {
		if s == detector.StatePressed {
			n++
		}
	}
	return n
}
