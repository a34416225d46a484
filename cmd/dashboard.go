package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"saneamento-dashboard/model"
	"saneamento-dashboard/service"
	"saneamento-dashboard/store"
	"saneamento-dashboard/tui"
)

const locateTimeout = 5 * time.Second

type dashboardFlags struct {
	state      string
	disease    string
	theme      string
	nearMe     bool
	noRemember bool
}

func newDashboardCmd(a *app) *cobra.Command {
	var flags dashboardFlags
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Abre o painel interativo",
		Long: `Abre o painel com histograma por tipo de doença, tabela de registros e
mapa coroplético por UF. Teclas: tab troca o painel, s escolhe a UF,
d escolhe a doença, t alterna o tema, q sai.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd, a, flags)
		},
	}
	cmd.Flags().StringVar(&flags.state, "state", "", "Initial state (e.g. Acre)")
	cmd.Flags().StringVar(&flags.disease, "disease", "", "Initial disease type (e.g. Cólera)")
	cmd.Flags().StringVar(&flags.theme, "theme", "", "Color theme: light or dark")
	cmd.Flags().BoolVar(&flags.nearMe, "near-me", false, "Start on the state closest to your IP location")
	cmd.Flags().BoolVar(&flags.noRemember, "no-remember", false, "Do not read or save preferences")
	return cmd
}

func runDashboard(cmd *cobra.Command, a *app, flags dashboardFlags) error {
	ctx := cmd.Context()
	logger := a.logger.Named("dashboard")

	state, disease, theme := a.cfg.Dashboard.State, a.cfg.Dashboard.Disease, a.cfg.Dashboard.Theme
	if !flags.noRemember {
		prefs, err := store.LoadPreferences()
		if err != nil {
			logger.Warn("could not read preferences", zap.Error(err))
		}
		state = firstNonEmpty(prefs.State, state)
		disease = firstNonEmpty(prefs.Disease, disease)
		theme = firstNonEmpty(prefs.Theme, theme)
	}
	if cmd.Flags().Changed("state") {
		state = flags.state
	}
	if cmd.Flags().Changed("disease") {
		disease = flags.disease
	}
	if cmd.Flags().Changed("theme") {
		theme = flags.theme
	}

	opts := tui.Options{
		Context:  ctx,
		Load:     a.loadDataset,
		State:    state,
		Disease:  disease,
		Theme:    theme,
		Remember: !flags.noRemember,
		Logger:   logger,
	}
	if flags.nearMe || a.cfg.Dashboard.NearMe {
		locator := service.NewLocator(&http.Client{Timeout: locateTimeout}, logger)
		opts.Locate = func(ctx context.Context) (model.LatLng, error) {
			loc, err := locator.Locate(ctx)
			if err != nil {
				return model.LatLng{}, err
			}
			logger.Info("location resolved", zap.String("source", loc.Source), zap.String("region", loc.Region))
			return loc.Position, nil
		}
	}

	logger.Info("starting dashboard", zap.String("state", state), zap.String("disease", disease), zap.String("theme", theme))
	return tui.Run(opts)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
