package cmd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"saneamento-dashboard/config"
	"saneamento-dashboard/logging"
	"saneamento-dashboard/model"
	"saneamento-dashboard/pipeline"
	"saneamento-dashboard/service"
)

const appName = "saneamento-dashboard"

// BuildInfo is stamped by the linker.
type BuildInfo struct {
	Version string
	Commit  string
}

// app is the state shared by every subcommand once the root pre-run has
// loaded the configuration.
type app struct {
	build BuildInfo

	configPath string
	verbose    bool
	sourceURL  string
	boundary   string

	cfg    *config.Config
	logger *zap.Logger
}

// Execute runs the command line with args taken from os.Args.
func Execute(ctx context.Context, build BuildInfo) error {
	return NewRootCmd(build).ExecuteContext(ctx)
}

// NewRootCmd builds the command tree. The root command opens the dashboard.
func NewRootCmd(build BuildInfo) *cobra.Command {
	a := &app{build: build}

	dashboard := newDashboardCmd(a)
	root := &cobra.Command{
		Use:   appName,
		Short: "Doenças relacionadas ao saneamento inadequado (IBGE SIDRA 354)",
		Long: `Busca a tabela 354 do SIDRA, cruza os registros com os limites das
Unidades da Federação e mostra histograma, tabela e mapa coroplético no terminal.

Sem subcomando, abre o painel interativo.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			interactive := cmd == cmd.Root() || cmd.Name() == dashboard.Name()
			return a.setup(interactive)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: dashboard.RunE,
	}
	root.Flags().AddFlagSet(dashboard.Flags())

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (default: $XDG_CONFIG_HOME/saneamento-dashboard/config.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")
	root.PersistentFlags().StringVar(&a.sourceURL, "url", "", "SIDRA values endpoint (overrides source.url)")
	root.PersistentFlags().StringVar(&a.boundary, "boundary", "", "GeoJSON of the Brazilian states (overrides boundary.path)")

	root.AddCommand(dashboard)
	root.AddCommand(newTableCmd(a))
	root.AddCommand(newMapCmd(a))
	root.AddCommand(newExportCmd(a))
	root.AddCommand(newVersionCmd(a))
	return root
}

// setup loads the config file, applies the flag overrides and builds the
// logger.
func (a *app) setup(interactive bool) error {
	path := a.configPath
	if path == "" {
		if p, err := config.DefaultPath(); err == nil {
			path = p
		}
	}

	cfg := config.DefaultConfig()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if a.sourceURL != "" {
		cfg.Source.URL = a.sourceURL
	}
	if a.boundary != "" {
		cfg.Boundary.Path = a.boundary
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Verbose:     a.verbose,
		File:        cfg.Logging.File,
		Interactive: interactive,
	})
	if err != nil {
		return err
	}
	a.logger = logger.Named("cli")
	a.logger.Debug("configuration loaded",
		zap.String("config", path),
		zap.String("source", cfg.Source.URL),
		zap.String("boundary", cfg.Boundary.Path),
	)
	return nil
}

// loadDataset runs the startup pipeline once.
func (a *app) loadDataset(ctx context.Context) (*model.Dataset, error) {
	timeout, err := a.cfg.HTTPTimeout()
	if err != nil {
		return nil, err
	}
	client := service.NewClient(&http.Client{Timeout: timeout})
	data, err := pipeline.Run(ctx, client, pipeline.Options{
		SourceURL:    a.cfg.Source.URL,
		BoundaryPath: a.cfg.Boundary.Path,
		Logger:       a.logger.Named("pipeline"),
	})
	if service.IsNotFound(err) {
		return nil, fmt.Errorf("table not found at %s (check --url or source.url): %w", a.cfg.Source.URL, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	return data, nil
}
