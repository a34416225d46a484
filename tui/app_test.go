package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"saneamento-dashboard/model"
	"saneamento-dashboard/store"
)

type testItem struct {
	value string
}

func (t testItem) Title() string       { return t.value }
func (t testItem) Description() string { return "" }
func (t testItem) FilterValue() string { return t.value }

func setTestConfigDir(t *testing.T) {
	t.Helper()
	root := t.TempDir()
	t.Setenv("HOME", root)
	t.Setenv("XDG_CONFIG_HOME", root)
}

func testDataset() *model.Dataset {
	return &model.Dataset{
		Diseases: []model.DiseaseRecord{
			{DiseaseType: "Cólera", TerritorialLevel: "Unidade da Federação", Value: 0, Year: "2010", RegionName: "Acre"},
			{DiseaseType: "Cólera", TerritorialLevel: "Unidade da Federação", Value: 4, Year: "2010", RegionName: "Pará"},
			{DiseaseType: "DAR*", TerritorialLevel: "Unidade da Federação", Value: 12, Year: "2010", RegionName: "Acre"},
			{DiseaseType: "Dengue", TerritorialLevel: "Unidade da Federação", Value: 1500, Year: "2010", RegionName: "Pará"},
			{DiseaseType: "Dengue", TerritorialLevel: "Grande Região", Value: 9000, Year: "2010", RegionName: "Norte"},
		},
		Joined: []model.JoinedRecord{
			{DiseaseType: "Cólera", Value: 0, Year: "2010", StateName: "Acre", GeoID: "AC"},
			{DiseaseType: "Cólera", Value: 4, Year: "2010", StateName: "Pará", GeoID: "PA"},
			{DiseaseType: "DAR*", Value: 12, Year: "2010", StateName: "Acre", GeoID: "AC"},
			{DiseaseType: "Dengue", Value: 1500, Year: "2010", StateName: "Pará", GeoID: "PA"},
		},
		Features: []model.GeoFeature{
			{ID: "AC", Name: "Acre", Centroid: &model.LatLng{Lat: -9, Lng: -70}},
			{ID: "PA", Name: "Pará", Centroid: &model.LatLng{Lat: -4, Lng: -53}},
		},
	}
}

func loadedModel(t *testing.T, opts Options) appModel {
	t.Helper()
	m := New(opts).(appModel)
	next, _ := m.Update(loadedMsg{data: testDataset()})
	return next.(appModel)
}

func press(t *testing.T, m appModel, keys ...tea.KeyMsg) appModel {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(appModel)
	}
	return m
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newFilterModel(items []list.Item) *appModel {
	model := New(Options{}).(appModel)
	model.state = stateSelectState
	model.stateList = newList("Selecione a UF")
	model.stateList.SetItems(items)
	return &model
}

func TestHandleFilterInput_AppendsRunes(t *testing.T) {
	m := newFilterModel([]list.Item{
		testItem{value: "Pará"},
		testItem{value: "Paraíba"},
	})

	if !m.handleFilterInput(keyRunes("p")) {
		t.Fatal("expected filter input to be handled")
	}
	if got := m.stateList.FilterValue(); got != "p" {
		t.Fatalf("expected filter value to be %q, got %q", "p", got)
	}

	if !m.handleFilterInput(keyRunes("a")) {
		t.Fatal("expected filter input to be handled")
	}
	if got := m.stateList.FilterValue(); got != "pa" {
		t.Fatalf("expected filter value to be %q, got %q", "pa", got)
	}
}

func TestHandleFilterInput_Backspace(t *testing.T) {
	m := newFilterModel([]list.Item{
		testItem{value: "Pará"},
		testItem{value: "Paraíba"},
	})

	_ = m.handleFilterInput(keyRunes("p"))
	_ = m.handleFilterInput(keyRunes("a"))

	if !m.handleFilterInput(tea.KeyMsg{Type: tea.KeyBackspace}) {
		t.Fatal("expected backspace to be handled")
	}
	if got := m.stateList.FilterValue(); got != "p" {
		t.Fatalf("expected filter value to be %q, got %q", "p", got)
	}
}

func TestHandleFilterInput_Space(t *testing.T) {
	m := newFilterModel([]list.Item{
		testItem{value: "Rio de Janeiro"},
	})

	_ = m.handleFilterInput(keyRunes("r"))
	_ = m.handleFilterInput(keyRunes("i"))
	_ = m.handleFilterInput(keyRunes("o"))

	if !m.handleFilterInput(tea.KeyMsg{Type: tea.KeySpace}) {
		t.Fatal("expected space to be handled")
	}
	if got := m.stateList.FilterValue(); got != "rio " {
		t.Fatalf("expected filter value to be %q, got %q", "rio ", got)
	}
}

func TestHandleFilterInput_IgnoredOnDashboard(t *testing.T) {
	m := loadedModel(t, Options{})
	if m.handleFilterInput(keyRunes("s")) {
		t.Fatal("expected dashboard keys not to be treated as filter input")
	}
}

func TestAccentInsensitiveFilter(t *testing.T) {
	ranks := accentInsensitiveFilter("para", []string{"Acre", "Pará", "Paraíba"})
	if len(ranks) != 2 {
		t.Fatalf("expected 2 matches, got %+v", ranks)
	}
	for _, r := range ranks {
		if r.Index == 0 {
			t.Fatalf("Acre should not match: %+v", ranks)
		}
	}
}

func TestLoaded_AppliesRequestedSelections(t *testing.T) {
	m := loadedModel(t, Options{State: "Pará", Disease: "Dengue"})

	if m.state != stateDashboard {
		t.Fatalf("expected dashboard state, got %v", m.state)
	}
	if m.stateName != "Pará" || m.disease != "Dengue" {
		t.Fatalf("unexpected selections: %q / %q", m.stateName, m.disease)
	}
	if got := len(m.table.Rows()); got != 2 {
		t.Fatalf("expected 2 table rows for Pará, got %d", got)
	}
}

func TestLoaded_FallsBackToFirstAvailable(t *testing.T) {
	m := loadedModel(t, Options{State: "Tocantins", Disease: "Malária"})

	if m.stateName != "Acre" {
		t.Fatalf("expected Acre, got %q", m.stateName)
	}
	if m.disease != "Cólera" {
		t.Fatalf("expected Cólera, got %q", m.disease)
	}
}

func TestLoaded_ErrorQuits(t *testing.T) {
	m := New(Options{}).(appModel)
	boom := errors.New("sidra unavailable")

	next, cmd := m.Update(loadedMsg{err: boom})
	if !errors.Is(next.(appModel).err, boom) {
		t.Fatalf("expected load error to be kept, got %v", next.(appModel).err)
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}

func TestLoadCmd_UsesLoader(t *testing.T) {
	var called bool
	m := New(Options{Load: func(context.Context) (*model.Dataset, error) {
		called = true
		return testDataset(), nil
	}}).(appModel)

	msg, ok := m.loadCmd()().(loadedMsg)
	if !ok || msg.err != nil || msg.data == nil {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if !called {
		t.Fatal("expected loader to be called")
	}
}

func TestThemeToggle(t *testing.T) {
	setTestConfigDir(t)
	m := loadedModel(t, Options{Theme: "light", Remember: true})

	m = press(t, m, keyRunes("t"))
	if m.theme.Name != "dark" {
		t.Fatalf("expected dark theme, got %q", m.theme.Name)
	}
	prefs, err := store.LoadPreferences()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if prefs.Theme != "dark" {
		t.Fatalf("expected dark theme to be saved, got %+v", prefs)
	}

	m = press(t, m, keyRunes("t"))
	if m.theme.Name != "light" {
		t.Fatalf("expected light theme, got %q", m.theme.Name)
	}
}

func TestStateSwitch(t *testing.T) {
	setTestConfigDir(t)
	m := loadedModel(t, Options{State: "Acre", Remember: true})

	m = press(t, m, keyRunes("s"))
	if m.state != stateSelectState {
		t.Fatalf("expected state picker, got %v", m.state)
	}
	selectItem(&m.stateList, "Pará")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.state != stateDashboard {
		t.Fatalf("expected dashboard, got %v", m.state)
	}
	if m.stateName != "Pará" {
		t.Fatalf("expected Pará, got %q", m.stateName)
	}
	recents, err := store.LoadRecentStates()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(recents) == 0 || recents[0].GeoID != "PA" {
		t.Fatalf("expected PA in history, got %+v", recents)
	}
}

func TestStateSwitch_WithFilter(t *testing.T) {
	m := loadedModel(t, Options{State: "Acre"})

	m = press(t, m, keyRunes("s"), keyRunes("p"), keyRunes("a"), keyRunes("r"), tea.KeyMsg{Type: tea.KeyEnter})
	if m.stateName != "Pará" {
		t.Fatalf("expected Pará, got %q", m.stateName)
	}
}

func TestDiseaseSwitch(t *testing.T) {
	m := loadedModel(t, Options{})

	m = press(t, m, keyRunes("d"))
	selectItem(&m.diseaseList, "Dengue")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.disease != "Dengue" {
		t.Fatalf("expected Dengue, got %q", m.disease)
	}
}

func TestEscLeavesPicker(t *testing.T) {
	m := loadedModel(t, Options{})

	m = press(t, m, keyRunes("d"), tea.KeyMsg{Type: tea.KeyEsc})
	if m.state != stateDashboard {
		t.Fatalf("expected dashboard, got %v", m.state)
	}
}

func TestPanelCycle(t *testing.T) {
	m := loadedModel(t, Options{})

	tab := tea.KeyMsg{Type: tea.KeyTab}
	m = press(t, m, tab)
	if m.panel != panelTable {
		t.Fatalf("expected table panel, got %v", m.panel)
	}
	m = press(t, m, tab, tab)
	if m.panel != panelHistogram {
		t.Fatalf("expected histogram panel after a full cycle, got %v", m.panel)
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.panel != panelMap {
		t.Fatalf("expected map panel, got %v", m.panel)
	}
}

func TestView_ShowsFootnoteAndPanels(t *testing.T) {
	m := loadedModel(t, Options{State: "Acre"})

	view := m.View()
	if !strings.Contains(view, "* DAR - Doenças do Aparelho Respiratório") {
		t.Fatal("expected respiratory footnote")
	}
	if !strings.Contains(view, "DAR*") {
		t.Fatal("expected histogram bar for DAR*")
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if view := m.View(); !strings.Contains(view, "PA") || !strings.Contains(view, "AC") {
		t.Fatalf("expected map tiles, got:\n%s", view)
	}
}

func TestLocation_SelectsClosestState(t *testing.T) {
	m := loadedModel(t, Options{State: "Acre"})

	next, _ := m.Update(locationMsg{position: model.LatLng{Lat: -1.45, Lng: -48.5}})
	m = next.(appModel)
	if m.stateName != "Pará" || m.nearMe != "Pará" {
		t.Fatalf("expected Pará, got %q (near %q)", m.stateName, m.nearMe)
	}
}

func TestLocation_ErrorKeepsSelection(t *testing.T) {
	m := loadedModel(t, Options{State: "Acre"})

	next, _ := m.Update(locationMsg{err: errors.New("offline")})
	if got := next.(appModel).stateName; got != "Acre" {
		t.Fatalf("expected Acre, got %q", got)
	}
}
