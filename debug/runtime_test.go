package debug

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestReadRuntime(t *testing.T) {
	s := ReadRuntime()
	if s.Goroutines == 0 || s.HeapAlloc == 0 {
		t.Fatalf("implausible sample %+v", s)
	}
}

func TestStartRuntimeLogger_StopsWithContext(t *testing.T) {
	out := &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx, cancel := context.WithCancel(context.Background())
	done := StartRuntimeLogger(ctx, 5*time.Millisecond, logger)
	deadline := time.Now().Add(time.Second)
	for !strings.Contains(out.String(), "goroutines=") {
		if time.Now().After(deadline) {
			t.Fatalf("no runtime sample logged")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("logger did not stop")
	}
}
