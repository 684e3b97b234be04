package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/juststeveking/vpnwatch/internal/logging"
	"github.com/juststeveking/vpnwatch/internal/monitor"
)

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			if m.monitorCancel != nil {
				m.monitorCancel()
			}
			return m, tea.Quit
		case "r":
			// The reconnector refuses overlapping sequences on its own
			if !m.state.Reconnecting {
				m.monitor.TriggerReconnect(m.ctx, ManualReason)
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case eventMsg:
		m.applyEvent(monitor.Event(msg))
		return m, waitForEvent(m.monitor)

	case logMsg:
		m.appendLog(logging.Entry(msg))
		return m, waitForLog(m.logs)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		m.state = m.monitor.State()
		return m, doTick()
	}

	return m, nil
}

func (m *Model) applyEvent(e monitor.Event) {
	m.state = e.State

	switch e.Kind {
	case monitor.EventProbe:
		m.lastProbe = e.Probe
		m.hasProbe = true
	case monitor.EventProbeSkipped:
		m.skipped++
	case monitor.EventReconnectFinished:
		m.lastReconnect = e.Reconnect
		m.hasReconnect = true
	}
}

func (m *Model) appendLog(e logging.Entry) {
	m.logLines = append(m.logLines, e)
	if len(m.logLines) > maxLogLines {
		m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
	}
}
