package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"golang.org/x/text/message"

	"saneamento-dashboard/geo"
	"saneamento-dashboard/model"
	"saneamento-dashboard/pipeline"
	"saneamento-dashboard/store"
)

type appState int

const (
	stateLoading appState = iota
	stateDashboard
	stateSelectState
	stateSelectDisease
)

type panel int

const (
	panelHistogram panel = iota
	panelTable
	panelMap
	panelCount
)

var panelTitles = [panelCount]string{"Histograma", "Tabela", "Mapa"}

const tablePageSize = 20

// Loader runs the ingestion pipeline.
type Loader func(ctx context.Context) (*model.Dataset, error)

// Locator returns the user's approximate position.
type Locator func(ctx context.Context) (model.LatLng, error)

// Options configures the dashboard program.
type Options struct {
	Context context.Context
	Load    Loader
	Locate  Locator // nil disables the closest-state lookup

	State   string
	Disease string
	Theme   string

	// Remember persists theme and selections through package store.
	Remember bool
	Logger   *zap.Logger
}

type appModel struct {
	ctx      context.Context
	load     Loader
	locate   Locator
	logger   *zap.Logger
	remember bool

	state appState
	panel panel
	err   error

	width  int
	height int

	data    *model.Dataset
	theme   Theme
	printer *message.Printer

	stateName   string
	disease     string
	wantState   string
	wantDisease string
	nearMe      string

	stateList   list.Model
	diseaseList list.Model
	table       table.Model
	spinner     spinner.Model
}

type loadedMsg struct {
	data *model.Dataset
	err  error
}

type locationMsg struct {
	position model.LatLng
	err      error
}

func New(opts Options) tea.Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	m := appModel{
		ctx:         ctx,
		load:        opts.Load,
		locate:      opts.Locate,
		logger:      logger,
		remember:    opts.Remember,
		state:       stateLoading,
		theme:       ThemeByName(opts.Theme),
		printer:     NumberPrinter(),
		wantState:   opts.State,
		wantDisease: opts.Disease,
	}

	m.stateList = newList("Selecione a UF")
	m.diseaseList = newList("Selecione a doença")
	m.table = newTable(m.theme)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	m.spinner = sp

	return m
}

// Run starts the dashboard and blocks until the user quits. A pipeline
// failure ends the program and is returned.
func Run(opts Options) error {
	final, err := tea.NewProgram(New(opts), tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(appModel); ok && m.err != nil {
		return m.err
	}
	return nil
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.spinner.Tick)
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLists()
		return m, nil

	case tea.KeyMsg:
		if m.handleFilterInput(msg) {
			return m, nil
		}
		m, cmd, handled := m.handleKey(msg)
		if handled {
			return m, cmd
		}
		// fallthrough to component update

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.state == stateLoading {
			return m, cmd
		}
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		if msg.data == nil {
			m.err = errors.New("pipeline returned no data")
			return m, tea.Quit
		}
		m.applyData(msg.data)
		m.state = stateDashboard
		if m.locate != nil {
			return m, m.locateCmd()
		}
		return m, nil

	case locationMsg:
		if msg.err != nil {
			m.logger.Warn("location lookup failed", zap.Error(msg.err))
			return m, nil
		}
		if m.data == nil {
			return m, nil
		}
		if f, ok := geo.ClosestFeature(m.data.Features, msg.position); ok {
			m.nearMe = f.Name
			m.selectState(f.Name)
		}
		return m, nil
	}

	var cmd tea.Cmd
	switch m.state {
	case stateSelectState:
		m.stateList, cmd = m.stateList.Update(msg)
	case stateSelectDisease:
		m.diseaseList, cmd = m.diseaseList.Update(msg)
	case stateDashboard:
		if m.panel == panelTable {
			m.table, cmd = m.table.Update(msg)
		}
	}
	return m, cmd
}

func (m appModel) View() string {
	header := m.headerView()
	switch m.state {
	case stateLoading:
		return header + "\n\n" + fmt.Sprintf("%s Carregando dados do SIDRA\n\n%s", m.spinner.View(), hint("Buscando tabela 354 e cruzando com os limites estaduais..."))
	case stateSelectState:
		return header + "\n\n" + m.stateList.View()
	case stateSelectDisease:
		return header + "\n\n" + m.diseaseList.View()
	case stateDashboard:
		return header + "\n\n" + m.tabsView() + "\n\n" + m.panelView() + "\n\n" + m.theme.hint(pipeline.RespiratoryNote)
	default:
		return header
	}
}

func (m appModel) headerView() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(m.theme.Title).Render("Saneamento Inadequado • Doenças (SIDRA 354)")
	sub := []string{}
	if m.stateName != "" {
		sub = append(sub, "UF: "+m.stateName)
	}
	if m.disease != "" {
		sub = append(sub, "Doença: "+m.disease)
	}
	if m.nearMe != "" {
		sub = append(sub, "Mais próxima: "+m.nearMe)
	}
	sub = append(sub, "Tema: "+m.theme.Name)
	meta := "\n" + m.theme.hint(strings.Join(sub, " • "))

	hints := "ctrl+c sair"
	switch m.state {
	case stateDashboard:
		hints = "q sair • tab painel • s UF • d doença • t tema"
		if m.panel == panelTable {
			hints += " • ↑/↓ rolar"
		}
	case stateSelectState, stateSelectDisease:
		hints = "ctrl+c sair • esc voltar • digite para filtrar • enter selecionar"
	}
	filterLine := ""
	if listPtr := m.activeList(); listPtr != nil {
		if filter := listPtr.FilterValue(); filter != "" {
			filterLine = "\n" + hint(fmt.Sprintf("Filtro: %s", filter))
		}
	}
	return title + meta + filterLine + "\n" + hint(hints)
}

func (m appModel) tabsView() string {
	active := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(m.theme.Accent).Padding(0, 2)
	inactive := lipgloss.NewStyle().Foreground(m.theme.Muted).Padding(0, 2)
	tabs := make([]string, 0, panelCount)
	for p := panel(0); p < panelCount; p++ {
		if p == m.panel {
			tabs = append(tabs, active.Render(panelTitles[p]))
		} else {
			tabs = append(tabs, inactive.Render(panelTitles[p]))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m appModel) panelView() string {
	section := lipgloss.NewStyle().Bold(true).Foreground(m.theme.Text)
	switch m.panel {
	case panelTable:
		return section.Render("Registros de "+m.stateName) + "\n\n" + m.table.View()
	case panelMap:
		lo, hi, _ := m.data.ValueRange()
		tiles := RenderTileMap(m.data.Features, m.data.TotalsByState(m.disease), lo, hi, m.theme)
		ranking := RenderRanking(m.data.RankedStates(m.disease), 10, m.theme, m.printer)
		body := lipgloss.JoinHorizontal(lipgloss.Top, tiles, "    ", ranking)
		return section.Render("Casos de "+m.disease+" por UF") + "\n\n" + body
	default:
		width := m.width - 2
		if width <= 0 {
			width = 80
		}
		histogram := RenderHistogram(m.data.TotalsByDisease(m.stateName), width, m.theme, m.printer)
		return section.Render("Casos por tipo de doença em "+m.stateName) + "\n\n" + histogram
	}
}

func (m appModel) handleKey(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit, true
	case "q":
		if m.state == stateDashboard || m.state == stateLoading {
			return m, tea.Quit, true
		}
	case "esc":
		if listPtr := m.activeList(); listPtr != nil {
			if listPtr.SettingFilter() || listPtr.IsFiltered() {
				listPtr.ResetFilter()
				return m, nil, true
			}
			m.state = stateDashboard
			return m, nil, true
		}
	case "enter":
		switch m.state {
		case stateSelectState:
			if item, ok := m.stateList.SelectedItem().(stateItem); ok {
				m.selectState(item.feature.Name)
				m.stateList.ResetFilter()
				m.state = stateDashboard
			}
			return m, nil, true
		case stateSelectDisease:
			if item, ok := m.diseaseList.SelectedItem().(diseaseItem); ok {
				m.selectDisease(item.name)
				m.diseaseList.ResetFilter()
				m.state = stateDashboard
			}
			return m, nil, true
		}
	}

	if m.state != stateDashboard {
		return m, nil, false
	}
	switch msg.String() {
	case "tab":
		m.panel = (m.panel + 1) % panelCount
		return m, nil, true
	case "shift+tab":
		m.panel = (m.panel + panelCount - 1) % panelCount
		return m, nil, true
	case "s":
		m.stateList.SetItems(buildStateItems(m.data.Features, m.recentStates()))
		selectItem(&m.stateList, m.stateName)
		m.state = stateSelectState
		return m, nil, true
	case "d":
		selectItem(&m.diseaseList, m.disease)
		m.state = stateSelectDisease
		return m, nil, true
	case "t":
		m.theme = m.theme.toggled()
		m.table.SetStyles(tableStyles(m.theme))
		m.savePreferences()
		return m, nil, true
	}
	return m, nil, false
}

// applyData fills the pickers and resolves the initial selections: the
// requested state and disease when the joined table has them, else the
// first available.
func (m *appModel) applyData(data *model.Dataset) {
	m.data = data
	m.stateList.SetItems(buildStateItems(data.Features, m.recentStates()))
	m.diseaseList.SetItems(buildDiseaseItems(data.DiseaseTypes()))

	state := ""
	if _, ok := data.Feature(m.wantState); ok {
		state = m.wantState
	} else if names := data.StateNames(); len(names) > 0 {
		state = names[0]
		if m.wantState != "" {
			m.logger.Info("requested state not in dataset", zap.String("state", m.wantState), zap.String("using", state))
		}
	}

	disease := ""
	types := data.DiseaseTypes()
	for _, t := range types {
		if t == m.wantDisease {
			disease = t
			break
		}
	}
	if disease == "" && len(types) > 0 {
		disease = types[0]
	}

	m.disease = disease
	m.stateName = state
	m.refreshTable()
}

func (m *appModel) selectState(name string) {
	if name == "" || name == m.stateName {
		return
	}
	m.stateName = name
	m.refreshTable()
	if !m.remember {
		return
	}
	if f, ok := m.data.Feature(name); ok {
		if err := store.RememberState(f); err != nil {
			m.logger.Warn("could not save state history", zap.Error(err))
		}
	}
	m.savePreferences()
}

func (m *appModel) selectDisease(name string) {
	if name == "" || name == m.disease {
		return
	}
	m.disease = name
	m.savePreferences()
}

func (m *appModel) savePreferences() {
	if !m.remember {
		return
	}
	prefs := store.Preferences{Theme: m.theme.Name, State: m.stateName, Disease: m.disease}
	if err := store.SavePreferences(prefs); err != nil {
		m.logger.Warn("could not save preferences", zap.Error(err))
	}
}

func (m appModel) recentStates() []store.RecentState {
	if !m.remember {
		return nil
	}
	recents, err := store.LoadRecentStates()
	if err != nil {
		m.logger.Debug("state history unavailable", zap.Error(err))
		return nil
	}
	return recents
}

func (m *appModel) refreshTable() {
	if m.data == nil {
		return
	}
	m.table.SetRows(tableRows(m.data.ByRegion(m.stateName), m.printer))
	m.table.GotoTop()
}

func (m *appModel) handleFilterInput(msg tea.KeyMsg) bool {
	listPtr := m.activeList()
	if listPtr == nil {
		return false
	}
	if !listPtr.FilteringEnabled() {
		return false
	}
	switch msg.Type {
	case tea.KeyRunes:
		if len(msg.Runes) == 0 {
			return false
		}
		m.appendFilter(listPtr, string(msg.Runes))
		return true
	case tea.KeySpace:
		m.appendFilter(listPtr, " ")
		return true
	case tea.KeyBackspace, tea.KeyDelete:
		if listPtr.FilterValue() == "" {
			return false
		}
		m.popFilter(listPtr)
		return true
	default:
		return false
	}
}

func (m *appModel) appendFilter(listPtr *list.Model, value string) {
	if value == "" {
		return
	}
	current := listPtr.FilterValue()
	listPtr.SetFilterText(current + value)
}

func (m *appModel) popFilter(listPtr *list.Model) {
	value := listPtr.FilterValue()
	if value == "" {
		return
	}
	value = trimLastRune(value)
	if value == "" {
		listPtr.ResetFilter()
		return
	}
	listPtr.SetFilterText(value)
}

func trimLastRune(value string) string {
	runes := []rune(value)
	if len(runes) <= 1 {
		return ""
	}
	return string(runes[:len(runes)-1])
}

func (m *appModel) activeList() *list.Model {
	switch m.state {
	case stateSelectState:
		return &m.stateList
	case stateSelectDisease:
		return &m.diseaseList
	default:
		return nil
	}
}

func (m *appModel) resizeLists() {
	if m.width == 0 || m.height == 0 {
		return
	}
	h := m.height - 6
	if h < 6 {
		h = 6
	}
	m.stateList.SetSize(m.width, h)
	m.diseaseList.SetSize(m.width, h)
	m.table.SetWidth(min(m.width, 100))
}

func newList(title string) list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = title
	l.Filter = accentInsensitiveFilter
	l.SetFilteringEnabled(true)
	l.SetShowFilter(true)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	return l
}

// selectItem moves the cursor to the item titled title, if present.
func selectItem(l *list.Model, title string) {
	for i, item := range l.Items() {
		if titled, ok := item.(interface{ Title() string }); ok && titled.Title() == title {
			l.Select(i)
			return
		}
	}
}

func hint(text string) string {
	return lipgloss.NewStyle().Faint(true).Render(text)
}

func (m appModel) loadCmd() tea.Cmd {
	load, ctx := m.load, m.ctx
	return func() tea.Msg {
		if load == nil {
			return loadedMsg{err: errors.New("no data loader configured")}
		}
		data, err := load(ctx)
		return loadedMsg{data: data, err: err}
	}
}

func (m appModel) locateCmd() tea.Cmd {
	locate, ctx := m.locate, m.ctx
	return func() tea.Msg {
		position, err := locate(ctx)
		return locationMsg{position: position, err: err}
	}
}
