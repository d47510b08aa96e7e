package debug

// Runtime metrics logger. Started only when config.Debug is true.
// Emits goroutine count, heap and stack usage and, where available, the
// process working set at a fixed interval.

import (
	"context"
	"log/slog"
	"runtime"
	"runtime/metrics"
	"time"

	"github.com/dustin/go-humanize"
)

// RuntimeSample is one reading of the logger.
type RuntimeSample struct {
	Goroutines uint64
	HeapAlloc  uint64
	HeapInuse  uint64
	StackInuse uint64
	NumGC      uint32
	RSS        uint64
	HasRSS     bool
}

// ReadRuntime takes a sample now.
func ReadRuntime() RuntimeSample {
	samples := []metrics.Sample{{Name: "/sched/goroutines:goroutines"}}
	metrics.Read(samples)
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	s := RuntimeSample{
		HeapAlloc:  ms.HeapAlloc,
		HeapInuse:  ms.HeapInuse,
		StackInuse: ms.StackInuse,
		NumGC:      ms.NumGC,
	}
	if samples[0].Value.Kind() == metrics.KindUint64 {
		s.Goroutines = samples[0].Value.Uint64()
	} else {
		s.Goroutines = uint64(runtime.NumGoroutine())
	}
	s.RSS, s.HasRSS = processRSS()
	return s
}

// StartRuntimeLogger logs a RuntimeSample every interval until ctx is done.
// The returned channel is closed when the logger goroutine exits.
func StartRuntimeLogger(ctx context.Context, interval time.Duration, logger *slog.Logger) <-chan struct{} {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
			s := ReadRuntime()
			if logger == nil {
				continue
			}
			attrs := []any{
				slog.Uint64("goroutines", s.Goroutines),
				slog.String("heap_alloc", humanize.Bytes(s.HeapAlloc)),
				slog.String("heap_inuse", humanize.Bytes(s.HeapInuse)),
				slog.String("stack_inuse", humanize.Bytes(s.StackInuse)),
				slog.Uint64("num_gc", uint64(s.NumGC)),
			}
			if s.HasRSS {
				attrs = append(attrs, slog.String("rss", humanize.Bytes(s.RSS)))
			}
			logger.Debug("runtime", attrs...)
		}
	}()
	return done
}
