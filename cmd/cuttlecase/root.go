package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/chazu/cuttlecase/pkg/app"
	"github.com/chazu/cuttlecase/pkg/assets"
	"github.com/chazu/cuttlecase/pkg/config"
	"github.com/chazu/cuttlecase/pkg/engine"
	"github.com/chazu/cuttlecase/pkg/kernel/sdfx"
	"github.com/chazu/cuttlecase/pkg/keycaps"
	"github.com/chazu/cuttlecase/pkg/logging"
)

// rootOptions holds global CLI flags.
type rootOptions struct {
	configPath string
	logLevel   string
}

// cliEnv carries the loaded configuration and logger to subcommands.
type cliEnv struct {
	cfg *config.Config
	log logging.Logger
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	env := &cliEnv{}

	cmd := &cobra.Command{
		Use:   "cuttlecase",
		Short: "Keyboard case geometry from Lisp layouts",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return env.init(opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "config file path (YAML)")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides the config")

	cmd.AddCommand(
		newDeriveCommand(env),
		newServeCommand(env),
		newKeycapsCommand(env),
	)
	return cmd
}

func (e *cliEnv) init(opts *rootOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("--log-level: %w", err)
		}
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	logging.SetDefault(log)
	e.cfg, e.log = cfg, log
	return nil
}

// newCache opens the configured asset store behind a keycap cache.
func (e *cliEnv) newCache(reg prometheus.Registerer) (*keycaps.Cache, error) {
	f, err := assets.Open(e.cfg.Assets, e.log.Named("assets"))
	if err != nil {
		return nil, err
	}
	return keycaps.NewCache(f,
		keycaps.WithLogger(e.log.Named("keycaps")),
		keycaps.WithMetrics(keycaps.NewMetrics(reg)),
	), nil
}

// newApp wires the pipeline from the configuration. cache may be nil.
func (e *cliEnv) newApp(reg prometheus.Registerer, cache *keycaps.Cache) *app.App {
	log := e.log.Named("app")
	opts := []app.Option{
		app.WithLogger(log),
		app.WithEngine(engine.NewEngine(engine.WithTimeout(e.cfg.Eval.Timeout), engine.WithLogger(log.Named("engine")))),
		app.WithKernel(sdfx.NewWithCells(e.cfg.Mesh.Cells)),
		app.WithMetrics(app.NewMetrics(reg)),
	}
	if cache != nil {
		opts = append(opts, app.WithCache(cache))
	}
	return app.New(opts...)
}
