package detector

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/soocke/arrow-bot-go/domain/match"
	"github.com/soocke/arrow-bot-go/domain/zone"
)

// ErrStartupConfig wraps every problem that prevents a session from starting.
// No goroutine is launched when Start returns it.
var ErrStartupConfig = errors.New("startup configuration")

// KeyState is the per-zone key state.
type KeyState int32

const (
	StateReleased KeyState = iota
	StatePressed
)

func (s KeyState) String() string {
	switch s {
	case StateReleased:
		return "released"
	case StatePressed:
		return "pressed"
	default:
		return "unknown"
	}
}

// TransitionListener is called after each emitted key transition with the
// score that caused it. Listeners run on the worker goroutine; they must not
// block or call back into the Supervisor.
type TransitionListener func(zone string, prev, next KeyState, score float64)

// ZoneSpec binds a zone to its template. When Template is nil it is loaded
// from TemplatePath on Start.
type ZoneSpec struct {
	Zone         zone.Zone
	TemplatePath string
	Template     *match.Template
}

// SessionConfig is the immutable configuration of one detection session.
// Changing settings means building a new Supervisor.
type SessionConfig struct {
	Zones        []ZoneSpec
	Mask         match.ColorMask
	Threshold    float64
	ScanInterval time.Duration
}

func (c SessionConfig) validate() error {
	if math.IsNaN(c.Threshold) || c.Threshold < -1 || c.Threshold > 1 {
		return fmt.Errorf("%w: threshold %v outside [-1,1]", ErrStartupConfig, c.Threshold)
	}
	if c.ScanInterval <= 0 {
		return fmt.Errorf("%w: scan interval %v must be positive", ErrStartupConfig, c.ScanInterval)
	}
	if err := c.Mask.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrStartupConfig, err)
	}
	zones := make([]zone.Zone, len(c.Zones))
	for i, zs := range c.Zones {
		zones[i] = zs.Zone
	}
	if err := zone.ValidateSet(zones); err != nil {
		return fmt.Errorf("%w: %w", ErrStartupConfig, err)
	}
	return nil
}
