package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/juststeveking/vpnwatch/internal/logging"
	"github.com/juststeveking/vpnwatch/internal/monitor"
)

// maxLogLines is how many recent log lines the dashboard keeps
const maxLogLines = 10

// ManualReason is logged when a reconnect is requested from the dashboard
const ManualReason = "Manual reconnect"

// Model represents the TUI application state
type Model struct {
	ctx           context.Context
	monitor       *monitor.Monitor
	monitorCancel func()
	logs          <-chan logging.Entry

	spinner       spinner.Model
	width         int
	height        int
	quitting      bool
	state         monitor.Snapshot
	lastProbe     monitor.ProbeResult
	hasProbe      bool
	skipped       int
	lastReconnect monitor.ReconnectEvent
	hasReconnect  bool
	logLines      []logging.Entry
	now           func() time.Time
}

// NewModel creates a new TUI model
func NewModel(ctx context.Context, m *monitor.Monitor, logs <-chan logging.Entry, cancel func()) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = checkingStyle

	return Model{
		ctx:           ctx,
		monitor:       m,
		monitorCancel: cancel,
		logs:          logs,
		spinner:       s,
		state:         m.State(),
		now:           time.Now,
	}
}

// LogChannel subscribes to logger and returns a channel of its entries.
// Entries are dropped when the dashboard falls behind.
func LogChannel(logger *logging.Logger) <-chan logging.Entry {
	ch := make(chan logging.Entry, 100)
	logger.Subscribe(func(e logging.Entry) {
		select {
		case ch <- e:
		default:
		}
	})
	return ch
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForEvent(m.monitor),
		waitForLog(m.logs),
		m.spinner.Tick,
		doTick(),
	)
}

// eventMsg wraps a monitor event for Bubble Tea
type eventMsg monitor.Event

// waitForEvent listens for monitor events
func waitForEvent(mon *monitor.Monitor) tea.Cmd {
	return func() tea.Msg {
		return eventMsg(<-mon.Events())
	}
}

// logMsg wraps a log entry for Bubble Tea
type logMsg logging.Entry

// waitForLog listens for log entries
func waitForLog(logs <-chan logging.Entry) tea.Cmd {
	if logs == nil {
		return nil
	}
	return func() tea.Msg {
		return logMsg(<-logs)
	}
}

// tickMsg is sent on every tick
type tickMsg time.Time

// doTick returns a command that waits for the next tick
func doTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
