package input

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Backend names accepted by New.
const (
	BackendSystem = "system"
	BackendDryRun = "dry-run"
)

var ErrUnsupported = errors.New("input: system key injection not supported on this platform")

// KeyInput injects key transitions into the operating system. Implementations
// must be safe for concurrent use by several zone workers.
type KeyInput interface {
	KeyDown(key string) error
	KeyUp(key string) error
}

// New returns the named backend ("" selects system).
func New(backend string, logger *slog.Logger) (KeyInput, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendSystem:
		return newSystemInput(logger)
	case BackendDryRun:
		return NewDryRun(logger), nil
	default:
		return nil, fmt.Errorf("input: unknown backend %q", backend)
	}
}

// DryRun logs key transitions instead of sending them. It also tracks which
// keys are currently held so callers can inspect the outcome.
type DryRun struct {
	logger *slog.Logger
	mu     sync.Mutex
	held   map[string]bool
}

var _ KeyInput = (*DryRun)(nil)

func NewDryRun(logger *slog.Logger) *DryRun {
	return &DryRun{logger: logger, held: make(map[string]bool)}
}

func (d *DryRun) KeyDown(key string) error {
	if _, err := ParseVK(key); err != nil {
		return err
	}
	d.mu.Lock()
	d.held[key] = true
	d.mu.Unlock()
	if d.logger != nil {
		d.logger.Info("key down", "key", key, "dry_run", true)
	}
	return nil
}

func (d *DryRun) KeyUp(key string) error {
	if _, err := ParseVK(key); err != nil {
		return err
	}
	d.mu.Lock()
	delete(d.held, key)
	d.mu.Unlock()
	if d.logger != nil {
		d.logger.Info("key up", "key", key, "dry_run", true)
	}
	return nil
}

// Held reports whether key is currently down.
func (d *DryRun) Held(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.held[key]
}
