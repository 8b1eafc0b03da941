package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"agentdeck/internal/httpapi"
	"agentdeck/pkg/agentdeck"
)

// Styles.
var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4"))
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	activeTabStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("27"))
	idleTabStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	activeSymStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("75"))
	idleSymStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	gainStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	speakerStyle   = lipgloss.NewStyle().Bold(true)
)

// Messages.
type tickMsg time.Time

type dashboardMsg struct {
	resp httpapi.DashboardResponse
	err  error
}

type debateMsg struct {
	resp httpapi.DebateResponse
	err  error
}

type controlMsg struct {
	action string
	err    error
}

func tickCmd(after time.Duration) tea.Cmd {
	if after <= 0 {
		after = 2 * time.Second
	}
	return tea.Tick(after, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// debateTabs maps the two debate tabs onto their transcript kind.
var debateTabs = map[string]string{
	"researcher-debate": "research",
	"risk-debate":       "risk",
}

// Model.
type model struct {
	client *agentdeck.Client
	logger *slog.Logger

	dash    httpapi.DashboardResponse
	debate  httpapi.DebateResponse
	lastErr string
	status  string

	viewport      viewport.Model
	ready         bool
	width, height int
}

func initialModel(client *agentdeck.Client, logger *slog.Logger) model {
	return model{client: client, logger: logger}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.fetchDashboard(), tickCmd(2*time.Second))
}

func (m model) fetchDashboard() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		resp, err := c.Dashboard(ctx)
		return dashboardMsg{resp: resp, err: err}
	}
}

func (m model) fetchDebate(symbol, kind string) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		resp, err := c.Debate(ctx, symbol, kind)
		return debateMsg{resp: resp, err: err}
	}
}

// selectCmd fires a view mutation then re-polls, so the screen always shows
// what the server decided rather than a local guess.
func (m model) selectCmd(apply func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := apply(ctx); err != nil {
			return dashboardMsg{err: err}
		}
		resp, err := m.client.Dashboard(ctx)
		return dashboardMsg{resp: resp, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "left", "right":
			return m, m.cycleTab(msg.String() == "right")
		case "up", "down":
			return m, m.cycleSymbol(msg.String() == "down")
		case "[":
			return m, m.selectCmd(func(ctx context.Context) error {
				_, err := m.client.SetPage(ctx, m.dash.View.Page-1)
				return err
			})
		case "]":
			return m, m.selectCmd(func(ctx context.Context) error {
				_, err := m.client.SetPage(ctx, m.dash.View.Page+1)
				return err
			})
		case "r":
			return m, m.fetchDashboard()
		case "s":
			c := m.client
			return m, func() tea.Msg {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_, err := c.StartSession(ctx, httpapi.StartSessionRequest{})
				return controlMsg{action: "start", err: err}
			}
		case "x":
			c := m.client
			return m, func() tea.Msg {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_, err := c.StopSession(ctx)
				return controlMsg{action: "stop", err: err}
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Header, tab bar, symbol bar, teams strip, footer.
		chromeH := 5
		vpHeight := m.height - chromeH
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.MouseWheelEnabled = true
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		m.viewport.SetContent(m.renderBody())
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.fetchDashboard(), tickCmd(m.pollInterval()))

	case dashboardMsg:
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			m.logger.Warn("dashboard poll failed", "error", msg.err)
			return m, nil
		}
		m.lastErr = ""
		m.dash = msg.resp
		if m.ready {
			m.viewport.SetContent(m.renderBody())
		}
		// Debate tabs need the transcript alongside the panel.
		if kind, ok := debateTabs[m.dash.View.ActiveTab]; ok && m.dash.View.Selected != "" {
			return m, m.fetchDebate(m.dash.View.Selected, kind)
		}
		return m, nil

	case debateMsg:
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			return m, nil
		}
		m.debate = msg.resp
		if m.ready {
			m.viewport.SetContent(m.renderBody())
		}
		return m, nil

	case controlMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("%s failed: %v", msg.action, msg.err)
		} else {
			m.status = "session " + msg.action + " requested"
		}
		return m, m.fetchDashboard()
	}

	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

// pollInterval follows the server's refresh hint: fast while a session
// runs, slow when idle.
func (m model) pollInterval() time.Duration {
	if m.dash.RefreshHintMS <= 0 {
		return 2 * time.Second
	}
	return time.Duration(m.dash.RefreshHintMS) * time.Millisecond
}

func (m model) cycleTab(forward bool) tea.Cmd {
	tabs := m.dash.Tabs
	if len(tabs) == 0 {
		return nil
	}
	cur := 0
	for i, t := range tabs {
		if t.Active {
			cur = i
			break
		}
	}
	if forward {
		cur = (cur + 1) % len(tabs)
	} else {
		cur = (cur - 1 + len(tabs)) % len(tabs)
	}
	id := tabs[cur].ID
	return m.selectCmd(func(ctx context.Context) error {
		_, err := m.client.SelectTab(ctx, id)
		return err
	})
}

func (m model) cycleSymbol(forward bool) tea.Cmd {
	window := m.dash.View.Window
	if len(window) == 0 {
		return nil
	}
	cur := 0
	for i, s := range window {
		if s == m.dash.View.Selected {
			cur = i
			break
		}
	}
	if forward {
		cur = (cur + 1) % len(window)
	} else {
		cur = (cur - 1 + len(window)) % len(window)
	}
	sym := window[cur]
	return m.selectCmd(func(ctx context.Context) error {
		_, err := m.client.SelectSymbol(ctx, sym)
		return err
	})
}

func (m model) View() string {
	if !m.ready {
		return "Connecting..."
	}
	return strings.Join([]string{
		m.renderHeader(),
		m.renderTabBar(),
		m.renderSymbolBar(),
		m.viewport.View(),
		m.renderTeams(),
		m.renderFooter(),
	}, "\n")
}

func (m model) renderHeader() string {
	parts := []string{" agentdeck"}
	if sess := m.dash.Session; sess != nil {
		parts = append(parts, fmt.Sprintf("session %s %s  llm %d  tools %d",
			sess.Symbol, sess.State, sess.LLMCalls, sess.ToolCalls))
	}
	if acct := m.dash.Account; acct != nil {
		change := fmt.Sprintf("%+.2f (%+.2f%%)", acct.DailyChange, acct.DailyChangePct)
		if acct.DailyCategory == "negative" {
			change = lossStyle.Render(change)
		} else if acct.DailyCategory == "positive" {
			change = gainStyle.Render(change)
		}
		parts = append(parts, fmt.Sprintf("equity %.2f  %s", acct.Equity, change))
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	if m.lastErr != "" {
		parts = append(parts, errStyle.Render(m.lastErr))
	}
	return headerStyle.Render(padOrTrunc(strings.Join(parts, "    ")+" ", m.width))
}

func (m model) renderTabBar() string {
	var b strings.Builder
	for _, t := range m.dash.Tabs {
		label := " " + t.Label + " "
		if t.Active {
			b.WriteString(activeTabStyle.Render(label))
		} else {
			b.WriteString(idleTabStyle.Render(label))
		}
	}
	return padOrTrunc(b.String(), m.width)
}

func (m model) renderSymbolBar() string {
	var b strings.Builder
	b.WriteString(dimStyle.Render(fmt.Sprintf(" pg %d/%d ", m.dash.View.Page, m.dash.View.PageCount)))
	for _, s := range m.dash.View.Window {
		label := " " + s + " "
		if s == m.dash.View.Selected {
			b.WriteString(activeSymStyle.Render(label))
		} else {
			b.WriteString(idleSymStyle.Render(label))
		}
		b.WriteString(" ")
	}
	return padOrTrunc(b.String(), m.width)
}

func (m model) renderBody() string {
	active := m.dash.View.ActiveTab
	var panel *httpapi.PanelJSON
	for i := range m.dash.Panels {
		if m.dash.Panels[i].Tab == active {
			panel = &m.dash.Panels[i]
			break
		}
	}
	if panel == nil {
		return dimStyle.Render("  no panel")
	}

	var b strings.Builder
	status := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(panel.StatusColor)).Render(panel.Status)
	fmt.Fprintf(&b, "  %s  %s", panel.Label, status)
	if panel.Signal != "" {
		sig := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(panel.SignalColor)).Render(strings.ToUpper(panel.Signal))
		b.WriteString("  " + sig)
	}
	b.WriteString("\n\n")

	if kind, ok := debateTabs[active]; ok && m.debate.Kind == kind && m.debate.Symbol == m.dash.View.Selected {
		renderTranscript(&b, m.debate.Entries, m.width)
		b.WriteString("\n")
	}

	b.WriteString(panel.Body)
	b.WriteString("\n")
	return b.String()
}

// renderTranscript draws debate arguments chat-style: bulls and aggressive
// voices on the left, bears and conservative voices indented right.
func renderTranscript(b *strings.Builder, entries []httpapi.TranscriptEntryJSON, width int) {
	indent := width / 3
	if indent > 40 {
		indent = 40
	}
	for _, e := range entries {
		pad := ""
		if e.Align == "right" {
			pad = strings.Repeat(" ", indent)
		}
		speaker := speakerStyle.Foreground(lipgloss.Color(e.Color)).Render(e.Speaker)
		fmt.Fprintf(b, "%s%s\n", pad, speaker)
		for _, line := range wrap(e.Text, width-indent-4) {
			fmt.Fprintf(b, "%s  %s\n", pad, line)
		}
		b.WriteString("\n")
	}
}

func (m model) renderTeams() string {
	var b strings.Builder
	for _, team := range m.dash.Teams {
		b.WriteString(dimStyle.Render(" " + team.Name + ":"))
		for _, a := range team.Agents {
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(a.Color)).Render(" ●"))
		}
		b.WriteString(" ")
	}
	return padOrTrunc(b.String(), m.width)
}

func (m model) renderFooter() string {
	left := " q quit  left/right tab  up/down symbol  [ ] page  s start  x stop  r refresh"
	right := fmt.Sprintf("%.0f%% ", m.viewport.ScrollPercent()*100)
	gap := m.width - len(left) - len(right)
	if gap < 0 {
		gap = 0
	}
	return footerStyle.Render(padOrTrunc(left+strings.Repeat(" ", gap)+right, m.width))
}

// wrap breaks text into lines no wider than width, on word boundaries.
func wrap(s string, width int) []string {
	if width < 10 {
		width = 10
	}
	var lines []string
	var line strings.Builder
	for _, word := range strings.Fields(s) {
		if line.Len() > 0 && line.Len()+1+len(word) > width {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}

// padOrTrunc pads s with spaces to width, or truncates if longer.
func padOrTrunc(s string, width int) string {
	n := lipgloss.Width(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

func main() {
	addr := "http://localhost:8620"
	if a := os.Getenv("AGENTDECK_ADDR"); a != "" {
		addr = a
	}

	logPath := fmt.Sprintf("/tmp/agentdeck-console-%s.log", time.Now().Format("2006-01-02"))
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: slog.LevelInfo}))

	client := agentdeck.NewClient(addr)

	// Fail fast when the server is unreachable.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	health, err := client.Health(ctx)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "connecting to %s: %v\n", addr, err)
		os.Exit(1)
	}
	logger.Info("connected", "addr", addr, "version", health.Version, "broker", health.Broker)

	p := tea.NewProgram(
		initialModel(client, logger),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
