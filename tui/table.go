package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/message"

	"saneamento-dashboard/model"
)

func tableColumns() []table.Column {
	return []table.Column{
		{Title: "Tipo de doença", Width: 34},
		{Title: "Nível Territorial", Width: 22},
		{Title: "Ano", Width: 6},
		{Title: "Quantidade de Casos", Width: 20},
	}
}

func newTable(theme Theme) table.Model {
	t := table.New(
		table.WithColumns(tableColumns()),
		table.WithFocused(true),
		table.WithHeight(tablePageSize),
	)
	t.SetStyles(tableStyles(theme))
	return t
}

func tableStyles(theme Theme) table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.Border).
		BorderBottom(true).
		Bold(true).
		Foreground(theme.Title)
	s.Cell = s.Cell.Foreground(theme.Text)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("0")).
		Background(theme.Accent).
		Bold(false)
	return s
}

// tableRows renders the normalized rows of one region without region_name
// and disease_code.
func tableRows(records []model.DiseaseRecord, p *message.Printer) []table.Row {
	rows := make([]table.Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, table.Row{
			rec.DiseaseType,
			rec.TerritorialLevel,
			rec.Year,
			p.Sprintf("%d", rec.Value),
		})
	}
	return rows
}
