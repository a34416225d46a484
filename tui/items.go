package tui

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/list"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"saneamento-dashboard/model"
	"saneamento-dashboard/pipeline"
	"saneamento-dashboard/store"
)

type stateItem struct {
	feature model.GeoFeature
	recent  bool
}

func (s stateItem) Title() string {
	return s.feature.Name
}

func (s stateItem) Description() string {
	if s.recent {
		return "Recente"
	}
	if s.feature.ID != "" {
		return "id " + s.feature.ID
	}
	return ""
}

func (s stateItem) FilterValue() string {
	return strings.Join([]string{s.feature.Name, s.feature.ID}, " ")
}

type diseaseItem struct {
	name string
}

func (d diseaseItem) Title() string {
	return d.name
}

func (d diseaseItem) Description() string {
	if d.name == pipeline.RespiratoryShort {
		return pipeline.RespiratoryLabel
	}
	return ""
}

func (d diseaseItem) FilterValue() string {
	if d.name == pipeline.RespiratoryShort {
		return d.name + " " + pipeline.RespiratoryLabel
	}
	return d.name
}

// buildStateItems lists recently viewed states first, most recent on top,
// then the remaining features in boundary order.
func buildStateItems(features []model.GeoFeature, recents []store.RecentState) []list.Item {
	byName := make(map[string]model.GeoFeature, len(features))
	for _, f := range features {
		byName[strings.ToLower(f.Name)] = f
	}

	items := make([]list.Item, 0, len(features))
	used := make(map[string]bool)
	for _, r := range recents {
		key := strings.ToLower(r.Name)
		f, ok := byName[key]
		if !ok || used[key] {
			continue
		}
		used[key] = true
		items = append(items, stateItem{feature: f, recent: true})
	}
	for _, f := range features {
		if used[strings.ToLower(f.Name)] {
			continue
		}
		items = append(items, stateItem{feature: f})
	}
	return items
}

func buildDiseaseItems(types []string) []list.Item {
	items := make([]list.Item, 0, len(types))
	for _, t := range types {
		items = append(items, diseaseItem{name: t})
	}
	return items
}

// FoldAccents lowercases text and strips combining marks so "para" finds
// "Pará".
func FoldAccents(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}
	return strings.ToLower(folded)
}

func accentInsensitiveFilter(term string, targets []string) []list.Rank {
	folded := make([]string, len(targets))
	for i, t := range targets {
		folded[i] = FoldAccents(t)
	}
	return list.DefaultFilter(FoldAccents(term), folded)
}
