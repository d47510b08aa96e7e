package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/soocke/arrow-bot-go/config"
)

// LoggerFactory builds the process logger from a level and format.
type LoggerFactory func(level slog.Leveler, format string) *slog.Logger

type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	debug      bool
}

// runtimeEnv is what every subcommand receives after flags are resolved.
type runtimeEnv struct {
	cfg     *config.Config
	cfgPath string
	logger  *slog.Logger
}

// NewRootCommand builds the arrow-bot command tree.
func NewRootCommand(newLogger LoggerFactory) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "arrow-bot",
		Short:         "Arrow Bot",
		Long:          `Watches screen zones for arrow cues and holds the matching key while a cue is visible.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default is $XDG_CONFIG_HOME/arrow-bot/config.yaml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format: json, text, auto")
	root.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "enable debug logging and runtime metrics")

	setup := func(cmd *cobra.Command) (*runtimeEnv, error) {
		return opts.resolve(cmd, newLogger)
	}
	root.AddCommand(newRunCommand(setup), newCheckCommand(setup), newScoreCommand(setup))
	return root
}

func (o *rootOptions) resolve(cmd *cobra.Command, newLogger LoggerFactory) (*runtimeEnv, error) {
	path := config.ResolvePath(o.configPath)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.LogFormat = o.logFormat
	}
	if cmd.Flags().Changed("debug") {
		cfg.Debug = o.debug
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := newLogger(level, cfg.LogFormat)
	logger.Debug("config resolved", "path", path, "zones", len(cfg.Zones))
	return &runtimeEnv{cfg: cfg, cfgPath: path, logger: logger}, nil
}

// ParseLevel maps debug|info|warn|error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", s, err)
	}
	return l, nil
}

// Execute runs the command tree and exits non-zero on error.
// This is called by main.main(). It only needs to happen once.
func Execute(newLogger LoggerFactory) {
	root := NewRootCommand(newLogger)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
