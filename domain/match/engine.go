package match

import (
	"fmt"
	"strings"
	"sync"
)

// EngineNCC names the pure Go engine, always available.
const EngineNCC = "ncc"

// EngineFactory builds an engine; cacheSize bounds template statistics.
type EngineFactory func(cacheSize int) Engine

var (
	enginesMu sync.RWMutex
	engines   = map[string]EngineFactory{
		EngineNCC: func(cacheSize int) Engine { return NewNCCEngine(cacheSize) },
	}
)

// RegisterEngine makes an engine selectable by name. Optional engines
// register themselves from init when their build tag is enabled.
func RegisterEngine(name string, f EngineFactory) {
	enginesMu.Lock()
	defer enginesMu.Unlock()
	engines[strings.ToLower(name)] = f
}

// NewEngine returns the engine registered under name ("" selects ncc).
func NewEngine(name string, cacheSize int) (Engine, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = EngineNCC
	}
	enginesMu.RLock()
	f, ok := engines[key]
	enginesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("match: unknown engine %q (build with -tags gocv for opencv)", name)
	}
	return f(cacheSize), nil
}
