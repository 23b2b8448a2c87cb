package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pytrader/internal/config"
	"pytrader/internal/domain"
	"pytrader/internal/gateway"
)

// Styles.
var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6"))
	headerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	symbolStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	gainStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	priceStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	statusBarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("3"))
)

func plStyle(v float64) lipgloss.Style {
	if v < 0 {
		return lossStyle
	}
	return gainStyle
}

// Views.
const (
	viewAccount = iota
	viewPositions
	viewQuotes
)

var viewNames = []string{"ACCOUNT", "POSITIONS", "QUOTES"}

// Messages.
type tickMsg time.Time

type accountMsg struct {
	info domain.AccountInfo
	err  error
}

type positionsMsg struct {
	positions []domain.Position
	err       error
}

type quotesMsg struct {
	quotes map[string]domain.Quote
	err    error
}

func tickCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model.
type model struct {
	gw      *gateway.Gateway
	symbols []string

	view      int
	account   domain.AccountInfo
	positions []domain.Position
	quotes    map[string]domain.Quote
	lastErr   string
	updated   time.Time

	viewport      viewport.Model
	ready         bool
	width, height int
	logger        *slog.Logger
}

func newModel(gw *gateway.Gateway, symbols []string, logger *slog.Logger) model {
	return model{
		gw:      gw,
		symbols: symbols,
		view:    viewAccount,
		logger:  logger,
	}
}

func (m model) fetchAccount() tea.Cmd {
	return func() tea.Msg {
		info, err := m.gw.GetAccountInfo()
		return accountMsg{info: info, err: err}
	}
}

func (m model) fetchPositions() tea.Cmd {
	return func() tea.Msg {
		positions, err := m.gw.ListPositions()
		return positionsMsg{positions: positions, err: err}
	}
}

func (m model) fetchQuotes() tea.Cmd {
	return func() tea.Msg {
		quotes, err := m.gw.GetQuotes(m.symbols)
		return quotesMsg{quotes: quotes, err: err}
	}
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.fetchAccount(), m.fetchPositions(), tickCmd()}
	if len(m.symbols) > 0 {
		cmds = append(cmds, m.fetchQuotes())
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "a":
			m.view = viewAccount
			cmds = append(cmds, m.fetchAccount())
		case "p":
			m.view = viewPositions
			cmds = append(cmds, m.fetchPositions())
		case "s":
			m.view = viewQuotes
			if len(m.symbols) > 0 {
				cmds = append(cmds, m.fetchQuotes())
			}
		case "r":
			cmds = append(cmds, m.fetchAccount(), m.fetchPositions())
			if len(m.symbols) > 0 {
				cmds = append(cmds, m.fetchQuotes())
			}
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		headerHeight := 2
		footerHeight := 1
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}

	case tickMsg:
		// Quotes only: the account and position snapshots change slowly
		// enough that refreshing them on demand keeps limiter pressure low.
		if m.view == viewQuotes && len(m.symbols) > 0 {
			cmds = append(cmds, m.fetchQuotes())
		}
		cmds = append(cmds, tickCmd())

	case accountMsg:
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			m.logger.Warn("account fetch failed", "err", msg.err)
		} else {
			m.account = msg.info
			m.lastErr = ""
			m.updated = time.Now()
		}

	case positionsMsg:
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			m.logger.Warn("positions fetch failed", "err", msg.err)
		} else {
			m.positions = msg.positions
			m.lastErr = ""
			m.updated = time.Now()
		}

	case quotesMsg:
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			m.logger.Warn("quotes fetch failed", "err", msg.err)
		} else {
			m.quotes = msg.quotes
			m.lastErr = ""
			m.updated = time.Now()
		}
	}

	if m.ready {
		m.viewport.SetContent(m.renderContent())
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m model) renderContent() string {
	switch m.view {
	case viewAccount:
		return m.renderAccount()
	case viewPositions:
		return m.renderPositions()
	case viewQuotes:
		return m.renderQuotes()
	}
	return ""
}

func (m model) renderAccount() string {
	a := m.account
	if a.AccountNumber == "" {
		return dimStyle.Render("loading account...")
	}
	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(fmt.Sprintf("%s %s\n", headerStyle.Render(fmt.Sprintf("%-16s", label)), priceStyle.Render(value)))
	}
	row("Account", fmt.Sprintf("%s (%s)", a.AccountNumber, a.Status))
	row("Equity", a.Equity)
	row("Buying power", a.BuyingPower)
	row("Cash", a.Cash)
	row("Portfolio value", a.PortfolioValue)
	row("Day trades", fmt.Sprintf("%d", a.DaytradeCount))
	row("Currency", a.Currency)
	return b.String()
}

func (m model) renderPositions() string {
	if len(m.positions) == 0 {
		return dimStyle.Render("no open positions")
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-8s %10s %12s %12s %12s %9s",
		"SYMBOL", "QTY", "AVG ENTRY", "CURRENT", "MKT VALUE", "P/L %")))
	b.WriteString("\n")
	for _, p := range m.positions {
		current := "-"
		if p.CurrentPrice != nil {
			current = fmt.Sprintf("%.2f", *p.CurrentPrice)
		}
		b.WriteString(fmt.Sprintf("%s %10.2f %12.2f %12s %12.2f %s\n",
			symbolStyle.Render(fmt.Sprintf("%-8s", p.Symbol)),
			p.Qty, p.AvgEntryPrice, current, p.MarketValue,
			plStyle(p.UnrealizedPLPC).Render(fmt.Sprintf("%8.2f%%", p.UnrealizedPLPC))))
	}
	return b.String()
}

func (m model) renderQuotes() string {
	if len(m.symbols) == 0 {
		return dimStyle.Render("no symbols: pass them as arguments, e.g. pytrader-tui AAPL MSFT")
	}
	if len(m.quotes) == 0 {
		return dimStyle.Render("loading quotes...")
	}
	symbols := make([]string, 0, len(m.quotes))
	for sym := range m.quotes {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-8s %10s %8s %10s %8s  %s",
		"SYMBOL", "BID", "BIDSZ", "ASK", "ASKSZ", "TIME")))
	b.WriteString("\n")
	for _, sym := range symbols {
		q := m.quotes[sym]
		b.WriteString(fmt.Sprintf("%s %10.2f %8d %10.2f %8d  %s\n",
			symbolStyle.Render(fmt.Sprintf("%-8s", sym)),
			q.BidPrice, q.BidSize, q.AskPrice, q.AskSize,
			dimStyle.Render(q.Timestamp.Format("15:04:05"))))
	}
	return b.String()
}

func (m model) View() string {
	if !m.ready {
		return "initializing..."
	}

	var tabs []string
	for i, name := range viewNames {
		if i == m.view {
			tabs = append(tabs, titleStyle.Render(" "+name+" "))
		} else {
			tabs = append(tabs, dimStyle.Render(" "+name+" "))
		}
	}
	header := strings.Join(tabs, " ") + "\n\n"

	status := "[a]ccount [p]ositions [s] quotes [r]efresh [esc] quit"
	if m.lastErr != "" {
		status = errStyle.Render(m.lastErr)
	} else if !m.updated.IsZero() {
		status += dimStyle.Render("  updated " + m.updated.Format("15:04:05"))
	}

	return header + m.viewport.View() + "\n" + statusBarStyle.Render(status)
}

func main() {
	cfg := config.FromEnv()

	// The terminal owns stdout; log to a file instead.
	logPath := fmt.Sprintf("/tmp/pytrader-tui-%s.log", time.Now().Format("2006-01-02"))
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	gw := gateway.NewAlpaca(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL, cfg.Alpaca.DataURL,
		gateway.WithLogger(logger.With("component", "gateway")))

	symbols := make([]string, 0, len(os.Args)-1)
	for _, arg := range os.Args[1:] {
		symbols = append(symbols, strings.ToUpper(arg))
	}

	p := tea.NewProgram(newModel(gw, symbols, logger), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
