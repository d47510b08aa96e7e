package app

import (
	"fmt"
	"log/slog"

	"github.com/soocke/arrow-bot-go/assets"
	"github.com/soocke/arrow-bot-go/config"
	"github.com/soocke/arrow-bot-go/domain/capture"
	"github.com/soocke/arrow-bot-go/domain/detector"
	"github.com/soocke/arrow-bot-go/domain/input"
	"github.com/soocke/arrow-bot-go/domain/match"
	"github.com/soocke/arrow-bot-go/domain/zone"
)

// AppContainer assembles backends, the match engine and the detector.
type AppContainer struct {
	Config   *config.Config
	Logger   *slog.Logger
	Backend  capture.Backend
	Input    input.KeyInput
	Engine   match.Engine
	Detector *detector.Supervisor
}

// BuildContainer constructs all components with the configured input
// backend. Nothing is started; template files are read when the detector
// starts.
func BuildContainer(cfg *config.Config, logger *slog.Logger) (*AppContainer, error) {
	keys, err := input.New(cfg.InputBackend, logger)
	if err != nil {
		return nil, err
	}
	return buildContainer(cfg, logger, keys)
}

// BuildOfflineContainer is BuildContainer for commands that never send a
// key. Input is always a dry run, whatever the configured backend.
func BuildOfflineContainer(cfg *config.Config, logger *slog.Logger) (*AppContainer, error) {
	return buildContainer(cfg, logger, input.NewDryRun(logger))
}

func buildContainer(cfg *config.Config, logger *slog.Logger, keys input.KeyInput) (*AppContainer, error) {
	c := &AppContainer{Config: cfg, Logger: logger, Input: keys}
	var err error
	if c.Backend, err = capture.NewBackend(cfg.CaptureBackend); err != nil {
		return nil, err
	}
	if c.Engine, err = match.NewEngine(cfg.MatchEngine, cfg.TemplateCacheSize); err != nil {
		return nil, err
	}
	c.Detector = detector.NewSupervisor(SessionConfig(cfg), c.Backend, c.Input, c.Engine, logger)
	c.Detector.SetTemplateLoader(TemplateLoader(logger))
	return c, nil
}

// SessionConfig converts file configuration to an immutable detector session.
func SessionConfig(cfg *config.Config) detector.SessionConfig {
	zones := make([]detector.ZoneSpec, 0, len(cfg.Zones))
	for _, z := range cfg.Zones {
		zones = append(zones, detector.ZoneSpec{
			Zone:         zone.Zone{Name: z.Name, X1: z.X1, X2: z.X2, Y: z.Y, Height: z.Height, Key: z.Key},
			TemplatePath: z.Template,
		})
	}
	return detector.SessionConfig{
		Zones:        zones,
		Mask:         match.NewColorMask(cfg.ColorLower, cfg.ColorUpper),
		Threshold:    cfg.MatchThreshold,
		ScanInterval: cfg.ScanInterval.Std(),
	}
}

// TemplateLoader loads a zone's template from its path. A zone without a
// path falls back to the embedded arrow template of the same name; a
// declared path that cannot be read is an error.
func TemplateLoader(logger *slog.Logger) detector.TemplateLoader {
	return func(name, path string) (*match.Template, error) {
		if path != "" {
			return match.LoadTemplate(name, path)
		}
		if !assets.HasArrow(name) {
			return nil, fmt.Errorf("zone %q: no template path and no embedded template", name)
		}
		img, err := assets.ArrowTemplate(name)
		if err != nil {
			return nil, err
		}
		if logger != nil {
			logger.Debug("using embedded template", "zone", name)
		}
		return match.TemplateFromImage(name, img)
	}
}
