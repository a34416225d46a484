package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/manifoldco/promptui"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"saneamento-dashboard/model"
	"saneamento-dashboard/pipeline"
	"saneamento-dashboard/tui"
)

func newTableCmd(a *app) *cobra.Command {
	var state string
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Imprime os registros de uma UF",
		Long: `Imprime a tabela normalizada de uma Unidade da Federação. Sem --state,
pergunta a UF quando o terminal é interativo e usa dashboard.state caso contrário.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.loadDataset(cmd.Context())
			if err != nil {
				return err
			}

			name := state
			if name == "" {
				if isatty.IsTerminal(os.Stdin.Fd()) {
					if name, err = promptState(data); err != nil {
						return err
					}
				} else {
					name = a.cfg.Dashboard.State
				}
			}
			if _, ok := data.Feature(name); !ok {
				return unknownState(data, name)
			}
			renderStateTable(cmd.OutOrStdout(), name, data.ByRegion(name))
			return nil
		},
	}
	cmd.Flags().StringVarP(&state, "state", "s", "", "State name (e.g. Acre)")
	return cmd
}

func promptState(data *model.Dataset) (string, error) {
	names := data.StateNames()
	searcher := func(input string, index int) bool {
		return strings.Contains(tui.FoldAccents(names[index]), tui.FoldAccents(strings.TrimSpace(input)))
	}
	selectState := promptui.Select{
		Label:             "Selecione a UF",
		Items:             names,
		Size:              10,
		Searcher:          searcher,
		StartInSearchMode: true,
	}
	_, name, err := selectState.Run()
	if err != nil {
		return "", fmt.Errorf("state selection: %w", err)
	}
	return name, nil
}

func unknownState(data *model.Dataset, name string) error {
	if name == "" {
		return errors.New("no state selected")
	}
	return fmt.Errorf("state %q is not in the joined dataset (available: %s)", name, strings.Join(data.StateNames(), ", "))
}

func renderStateTable(out io.Writer, state string, records []model.DiseaseRecord) {
	p := tui.NumberPrinter()
	rowConfigAutoMerge := table.RowConfig{AutoMerge: true}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetTitle(state)
	t.Style().Format.Header = text.FormatDefault
	t.AppendHeader(table.Row{"Tipo de doença", "Nível Territorial", "Ano", "Quantidade de Casos"}, rowConfigAutoMerge)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, AutoMerge: true, WidthMax: 40},
		{Number: 2, AutoMerge: true},
		{Number: 4, Align: text.AlignRight},
	})
	for _, rec := range records {
		t.AppendRow(table.Row{rec.DiseaseType, rec.TerritorialLevel, rec.Year, p.Sprintf("%d", rec.Value)}, rowConfigAutoMerge)
	}
	t.SetCaption(pipeline.RespiratoryNote)
	t.Render()
}
