// Package statsui provides the Bubble Tea score history browser.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/archtype/internal/model"
	"github.com/verte-zerg/archtype/internal/stats"
	"github.com/verte-zerg/archtype/internal/store"
)

const (
	tabOverview = iota
	tabCommands
	tabSessions
)

const maxTrendWindow = 50

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#1793D1"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

// Config selects which history the browser shows.
type Config struct {
	Filter model.HistoryFilter
	Top    int
	Window int
}

// Model implements the Bubble Tea score browser.
type Model struct {
	store *store.Store
	cfg   Config

	report stats.Report
	errMsg string

	tabs      []string
	activeTab int
	overview  viewport.Model
	tables    map[int]*table.Model

	width  int
	height int
}

// NewModel loads the report and builds the tabs.
func NewModel(st *store.Store, cfg Config) *Model {
	if cfg.Window < 1 {
		cfg.Window = 1
	}
	m := &Model{
		store:    st,
		cfg:      cfg,
		tabs:     []string{"Overview", "Commands", "Sessions"},
		overview: viewport.New(0, 0),
	}
	commands := newTable(commandColumns())
	sessions := newTable(sessionColumns())
	m.tables = map[int]*table.Model{tabCommands: &commands, tabSessions: &sessions}
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderOverview()
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "left", "h", "shift+tab":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l", "tab":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "=":
			if m.cfg.Window < maxTrendWindow {
				m.cfg.Window++
				m.renderOverview()
			}
			return m, nil
		case "-":
			if m.cfg.Window > 1 {
				m.cfg.Window--
				m.renderOverview()
			}
			return m, nil
		case "r":
			m.refreshReport()
			return m, nil
		case "g", "home":
			if t, ok := m.tables[m.activeTab]; ok {
				t.GotoTop()
			} else {
				m.overview.GotoTop()
			}
			return m, nil
		case "G", "end":
			if t, ok := m.tables[m.activeTab]; ok {
				t.GotoBottom()
			} else {
				m.overview.GotoBottom()
			}
			return m, nil
		}
		var cmd tea.Cmd
		if t, ok := m.tables[m.activeTab]; ok {
			*t, cmd = t.Update(msg)
			return m, cmd
		}
		m.overview, cmd = m.overview.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

// ActiveTab reports the name of the visible tab.
func (m *Model) ActiveTab() string {
	return m.tabs[m.activeTab]
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	headerHeight = max(1, lipgloss.Height(activeNavStyle.Render("X"))) + 1
	footerHeight = 1
	if m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.overview.Width = m.width
	m.overview.Height = bodyHeight
	for _, t := range m.tables {
		t.SetWidth(m.width)
		// One line goes to the header row.
		t.SetHeight(max(1, bodyHeight-1))
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	m.activeTab = (m.activeTab + delta + count) % count
	for idx, t := range m.tables {
		if idx == m.activeTab {
			t.Focus()
		} else {
			t.Blur()
		}
	}
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.store, m.cfg.Filter)
	if err != nil {
		m.errMsg = err.Error()
		m.overview.SetContent("Failed to load history.")
		return
	}
	m.errMsg = ""
	m.report = report
	m.tables[tabCommands].SetRows(commandRows(stats.WeakCommands(report.Commands, m.cfg.Top)))
	m.tables[tabSessions].SetRows(sessionRows(report.Sessions))
	m.renderOverview()
}

func (m *Model) renderOverview() {
	if m.errMsg != "" {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.overview.SetContent(renderOverview(m.report, m.cfg.Window, width))
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	return m.renderTabs() + "\n" + m.renderFilterSummary()
}

func (m *Model) renderFilterSummary() string {
	since := "any"
	if m.cfg.Filter.Since != nil {
		since = m.cfg.Filter.Since.Format("2006-01-02")
	}
	last := "all"
	if m.cfg.Filter.Last > 0 {
		last = fmt.Sprintf("%d", m.cfg.Filter.Last)
	}
	outcome := m.cfg.Filter.Outcome
	if outcome == "" {
		outcome = "any"
	}
	summary := fmt.Sprintf("Filter: since=%s  last=%s  outcome=%s  window=%d", since, last, outcome, m.cfg.Window)
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderFooter() string {
	help := headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Window: -/=  Reload: r  Quit: q")
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) renderBody() string {
	if m.activeTab == tabOverview {
		return m.overview.View()
	}
	if len(m.report.Sessions) == 0 {
		return "No sessions found."
	}
	return m.tables[m.activeTab].View()
}

func renderOverview(report stats.Report, window, width int) string {
	if len(report.Sessions) == 0 {
		return "No sessions found."
	}
	var buf bytes.Buffer
	if err := stats.RenderTrend(&buf, report.Sessions, window); err != nil {
		return fmt.Sprintf("Failed to render trend: %v", err)
	}
	if err := stats.RenderTierTable(&buf, report.Tiers); err != nil {
		return fmt.Sprintf("Failed to render ranks: %v", err)
	}
	cards := renderSummaryCards(report, width)
	return strings.TrimRight(cards+"\n\n"+buf.String(), "\n")
}

func renderSummaryCards(report stats.Report, width int) string {
	var victories int
	var completion float64
	best := 0
	for _, s := range report.Sessions {
		if s.Outcome == "victory" {
			victories++
		}
		completion += stats.CompletionRate(s)
		best = max(best, s.Score)
	}
	count := float64(len(report.Sessions))
	cards := []string{
		metricCard("Sessions", fmt.Sprintf("%d", len(report.Sessions))),
		metricCard("Victories", fmt.Sprintf("%d", victories)),
		metricCard("High Score", fmt.Sprintf("%d", report.HighScore)),
		metricCard("Best Here", fmt.Sprintf("%d", best)),
		metricCard("Avg Done", fmt.Sprintf("%.1f%%", completion/count*100)),
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4])
	return lipgloss.JoinVertical(lipgloss.Left, row1, row2)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func newTable(columns []table.Column) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(1),
	)
	t.SetStyles(tableStyles())
	return t
}

func commandColumns() []table.Column {
	return []table.Column{
		{Title: "Command", Width: 36},
		{Title: "Attempts", Width: 8},
		{Title: "Done", Width: 6},
		{Title: "Timeouts", Width: 8},
		{Title: "Avg Used", Width: 9},
	}
}

func commandRows(aggs []model.CommandAggregate) []table.Row {
	rows := make([]table.Row, 0, len(aggs))
	for _, agg := range aggs {
		avg := "-"
		if agg.Completions > 0 {
			avg = fmt.Sprintf("%.1f%%", agg.AvgPct)
		}
		rows = append(rows, table.Row{
			agg.Command,
			fmt.Sprintf("%d", agg.Attempts),
			fmt.Sprintf("%d", agg.Completions),
			fmt.Sprintf("%d", agg.Timeouts),
			avg,
		})
	}
	return rows
}

func sessionColumns() []table.Column {
	return []table.Column{
		{Title: "Ended", Width: 16},
		{Title: "Outcome", Width: 8},
		{Title: "Policy", Width: 6},
		{Title: "Score", Width: 6},
		{Title: "Level", Width: 5},
		{Title: "Done", Width: 9},
	}
}

// sessionRows lists sessions newest first.
func sessionRows(sessions []model.SessionRecord) []table.Row {
	rows := make([]table.Row, 0, len(sessions))
	for i := len(sessions) - 1; i >= 0; i-- {
		s := sessions[i]
		rows = append(rows, table.Row{
			s.EndedAt.Local().Format("2006-01-02 15:04"),
			s.Outcome,
			s.Policy,
			fmt.Sprintf("%d", s.Score),
			fmt.Sprintf("%d", s.Level),
			fmt.Sprintf("%d/%d", s.Completed, s.Total),
		})
	}
	return rows
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
