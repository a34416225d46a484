package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"saneamento-dashboard/model"
)

const (
	mapRows   = 10
	mapCols   = 12
	tileWidth = 5
)

// NumberPrinter formats counts with Brazilian digit grouping (12.345).
func NumberPrinter() *message.Printer {
	return message.NewPrinter(language.BrazilianPortuguese)
}

// RenderHistogram draws one horizontal bar per disease type with the count
// printed after it.
func RenderHistogram(totals []model.DiseaseTotal, width int, theme Theme, p *message.Printer) string {
	if len(totals) == 0 {
		return theme.hint("Sem dados para esta UF.")
	}
	if width <= 0 {
		width = 80
	}

	labelWidth, valueWidth, peak := 0, 0, 0
	values := make([]string, len(totals))
	for i, t := range totals {
		labelWidth = max(labelWidth, lipgloss.Width(t.DiseaseType))
		values[i] = p.Sprintf("%d", t.Value)
		valueWidth = max(valueWidth, lipgloss.Width(values[i]))
		peak = max(peak, t.Value)
	}
	barWidth := max(10, width-labelWidth-valueWidth-4)

	label := lipgloss.NewStyle().Width(labelWidth).Foreground(theme.Text)
	bar := lipgloss.NewStyle().Foreground(theme.Bar)
	value := lipgloss.NewStyle().Foreground(theme.Muted)

	lines := make([]string, 0, len(totals))
	for i, t := range totals {
		n := 0
		if peak > 0 {
			n = int(math.Round(float64(t.Value) / float64(peak) * float64(barWidth)))
		}
		if n == 0 && t.Value > 0 {
			n = 1
		}
		lines = append(lines, fmt.Sprintf("%s  %s %s",
			label.Render(t.DiseaseType),
			bar.Render(strings.Repeat("█", n)),
			value.Render(values[i]),
		))
	}
	return strings.Join(lines, "\n")
}

type cell struct{ row, col int }

// layoutTiles places each feature with a centroid on a rows x cols grid
// following its longitude and latitude. A feature whose cell is taken moves
// to the closest free cell.
func layoutTiles(features []model.GeoFeature, rows, cols int) map[cell]model.GeoFeature {
	minLat, maxLat := math.Inf(1), math.Inf(-1)
	minLng, maxLng := math.Inf(1), math.Inf(-1)
	for _, f := range features {
		if f.Centroid == nil {
			continue
		}
		minLat, maxLat = math.Min(minLat, f.Centroid.Lat), math.Max(maxLat, f.Centroid.Lat)
		minLng, maxLng = math.Min(minLng, f.Centroid.Lng), math.Max(maxLng, f.Centroid.Lng)
	}

	scale := func(v, lo, hi float64, n int) int {
		if hi <= lo {
			return (n - 1) / 2
		}
		return int(math.Round((v - lo) / (hi - lo) * float64(n-1)))
	}

	grid := make(map[cell]model.GeoFeature)
	for _, f := range features {
		if f.Centroid == nil {
			continue
		}
		want := cell{
			row: scale(maxLat-f.Centroid.Lat, 0, maxLat-minLat, rows),
			col: scale(f.Centroid.Lng, minLng, maxLng, cols),
		}
		if at, ok := freeCell(grid, want, rows, cols); ok {
			grid[at] = f
		}
	}
	return grid
}

func freeCell(grid map[cell]model.GeoFeature, want cell, rows, cols int) (cell, bool) {
	for radius := 0; radius < max(rows, cols); radius++ {
		for dr := -radius; dr <= radius; dr++ {
			for dc := -radius; dc <= radius; dc++ {
				if max(abs(dr), abs(dc)) != radius {
					continue
				}
				c := cell{row: want.row + dr, col: want.col + dc}
				if c.row < 0 || c.col < 0 || c.row >= rows || c.col >= cols {
					continue
				}
				if _, taken := grid[c]; !taken {
					return c, true
				}
			}
		}
	}
	return cell{}, false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// scaleColor maps value into theme.Scale linearly over [lo, hi].
func scaleColor(value, lo, hi int, theme Theme) lipgloss.Color {
	last := len(theme.Scale) - 1
	if hi <= lo {
		return theme.Scale[last]
	}
	i := int(math.Round(float64(value-lo) / float64(hi-lo) * float64(last)))
	return theme.Scale[min(max(i, 0), last)]
}

// RenderTileMap draws the states as colored tiles placed by centroid. The
// color range is [lo, hi] so every disease shares one scale.
func RenderTileMap(features []model.GeoFeature, totals []model.StateTotal, lo, hi int, theme Theme) string {
	values := make(map[string]int, len(totals))
	for _, t := range totals {
		values[t.GeoID] = t.Value
	}
	grid := layoutTiles(features, mapRows, mapCols)

	blank := strings.Repeat(" ", tileWidth)
	var b strings.Builder
	for r := 0; r < mapRows; r++ {
		for c := 0; c < mapCols; c++ {
			f, ok := grid[cell{row: r, col: c}]
			if !ok {
				b.WriteString(blank)
				continue
			}
			style := lipgloss.NewStyle().Width(tileWidth).Align(lipgloss.Center)
			if v, ok := values[f.ID]; ok {
				bg := scaleColor(v, lo, hi, theme)
				fg := lipgloss.Color("0")
				if bg == theme.Scale[len(theme.Scale)-1] || bg == theme.Scale[len(theme.Scale)-2] {
					fg = lipgloss.Color("15")
				}
				style = style.Background(bg).Foreground(fg)
			} else {
				style = style.Background(theme.Empty).Foreground(theme.Muted)
			}
			b.WriteString(style.Render(tileLabel(f)))
		}
		b.WriteString("\n")
	}
	b.WriteString(RenderLegend(lo, hi, theme, NumberPrinter()))

	var missing []string
	for _, f := range features {
		if f.Centroid == nil {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		b.WriteString("\n" + theme.hint("Sem geometria: "+strings.Join(missing, ", ")))
	}
	return b.String()
}

func tileLabel(f model.GeoFeature) string {
	label := f.ID
	if label == "" {
		label = f.Name
	}
	runes := []rune(label)
	if len(runes) > tileWidth-1 {
		runes = runes[:tileWidth-1]
	}
	return string(runes)
}

// RenderLegend shows the color ramp between its bounds.
func RenderLegend(lo, hi int, theme Theme, p *message.Printer) string {
	var ramp strings.Builder
	for _, c := range theme.Scale {
		ramp.WriteString(lipgloss.NewStyle().Background(c).Render("  "))
	}
	return fmt.Sprintf("%s %s %s", theme.hint(p.Sprintf("%d", lo)), ramp.String(), theme.hint(p.Sprintf("%d", hi)))
}

// RenderRanking lists states from the highest count down.
func RenderRanking(ranked []model.StateTotal, limit int, theme Theme, p *message.Printer) string {
	if len(ranked) == 0 {
		return theme.hint("Nenhum estado com dados.")
	}
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	nameWidth := 0
	for _, t := range ranked {
		nameWidth = max(nameWidth, lipgloss.Width(t.StateName))
	}
	name := lipgloss.NewStyle().Width(nameWidth).Foreground(theme.Text)
	lines := make([]string, 0, len(ranked))
	for i, t := range ranked {
		lines = append(lines, fmt.Sprintf("%2d. %s  %s", i+1, name.Render(t.StateName), p.Sprintf("%d", t.Value)))
	}
	return strings.Join(lines, "\n")
}
