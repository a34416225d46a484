package cmd

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"saneamento-dashboard/model"
	"saneamento-dashboard/tui"
)

func newMapCmd(a *app) *cobra.Command {
	var (
		disease string
		limit   int
		theme   string
	)
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Imprime o ranking e o mapa de uma doença por UF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.loadDataset(cmd.Context())
			if err != nil {
				return err
			}
			if disease == "" {
				disease = a.cfg.Dashboard.Disease
			}
			types := data.DiseaseTypes()
			if !slices.Contains(types, disease) {
				return fmt.Errorf("disease %q is not in the joined dataset (available: %s)", disease, strings.Join(types, ", "))
			}
			if theme == "" {
				theme = a.cfg.Dashboard.Theme
			}

			out := cmd.OutOrStdout()
			renderRanking(out, disease, data.RankedStates(disease), limit)
			lo, hi, _ := data.ValueRange()
			fmt.Fprintln(out)
			fmt.Fprintln(out, tui.RenderTileMap(data.Features, data.TotalsByState(disease), lo, hi, tui.ThemeByName(theme)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&disease, "disease", "d", "", "Disease type (default: dashboard.disease)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show only the top N states")
	cmd.Flags().StringVar(&theme, "theme", "", "Color theme: light or dark")
	return cmd
}

func renderRanking(out io.Writer, disease string, ranked []model.StateTotal, limit int) {
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	p := tui.NumberPrinter()

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetTitle("Casos de " + disease + " por UF")
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{"#", "UF", "Estado", "Casos"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
	})
	total := 0
	for i, s := range ranked {
		t.AppendRow(table.Row{i + 1, s.GeoID, s.StateName, p.Sprintf("%d", s.Value)})
		total += s.Value
	}
	t.AppendFooter(table.Row{"", "", "Total", p.Sprintf("%d", total)})
	t.Render()
}
