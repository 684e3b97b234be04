package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/juststeveking/vpnwatch/internal/logging"
)

var (
	colorAccent    = lipgloss.Color("#04D9FF") // Neon Cyan
	colorHealthy   = lipgloss.Color("#00FF94") // Neon Green
	colorUnhealthy = lipgloss.Color("#FF0055") // Neon Red
	colorChecking  = lipgloss.Color("#FFD700") // Gold
	colorMuted     = lipgloss.Color("#565f89") // Muted Blue
	colorText      = lipgloss.Color("#c0caf5") // Light Blue/White

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent).
			MarginTop(1)

	healthyStyle = lipgloss.NewStyle().
			Foreground(colorHealthy).
			Bold(true)

	unhealthyStyle = lipgloss.NewStyle().
			Foreground(colorUnhealthy).
			Bold(true)

	checkingStyle = lipgloss.NewStyle().
			Foreground(colorChecking).
			Bold(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Width(16)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorText)

	secondaryStyle = lipgloss.NewStyle().
			Foreground(colorMuted)
)

var logStyles = map[logging.Level]lipgloss.Style{
	logging.LevelInfo:    lipgloss.NewStyle().Foreground(colorAccent),
	logging.LevelWarn:    checkingStyle.UnsetBold(),
	logging.LevelError:   lipgloss.NewStyle().Foreground(colorUnhealthy),
	logging.LevelSuccess: lipgloss.NewStyle().Foreground(colorHealthy),
}

// View renders the dashboard
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("vpnwatch"))
	b.WriteString("\n")

	rows := []string{
		m.row("Target", m.monitor.Config.Target.URL),
		m.row("Last probe", m.renderProbe()),
		m.row("Failures", fmt.Sprintf("%d/%d", m.state.FailCount, m.monitor.Config.Threshold())),
		m.row("Cooldown", m.renderCooldown()),
		m.row("VPN", m.renderVPN()),
		m.row("Last reconnect", m.renderReconnect()),
	}
	b.WriteString(cardStyle.Render(strings.Join(rows, "\n")))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Recent log"))
	b.WriteString("\n")
	if len(m.logLines) == 0 {
		b.WriteString(secondaryStyle.Render("  (nothing yet)"))
		b.WriteString("\n")
	}
	for _, e := range m.logLines {
		style, ok := logStyles[e.Level]
		if !ok {
			style = valueStyle
		}
		b.WriteString("  " + style.Render(e.Line) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(secondaryStyle.Render("r reconnect • q quit"))

	return b.String()
}

func (m Model) row(label, value string) string {
	return labelStyle.Render(label) + value
}

func (m Model) renderProbe() string {
	if !m.hasProbe {
		return secondaryStyle.Render("pending")
	}

	p := m.lastProbe
	when := secondaryStyle.Render(fmt.Sprintf(" at %s", p.CheckedAt.Format("15:04:05")))
	switch {
	case p.Err != nil:
		return unhealthyStyle.Render("error: "+p.Err.Error()) + when
	case p.Healthy:
		return healthyStyle.Render(fmt.Sprintf("HTTP %d", p.StatusCode)) +
			secondaryStyle.Render(fmt.Sprintf(" (%s)", p.ResponseTime.Round(time.Millisecond))) + when
	default:
		return unhealthyStyle.Render(fmt.Sprintf("HTTP %d", p.StatusCode)) + when
	}
}

func (m Model) renderCooldown() string {
	remaining := m.state.CooldownUntil.Sub(m.now())
	if remaining <= 0 {
		return valueStyle.Render("inactive")
	}
	return checkingStyle.Render(fmt.Sprintf("%s remaining", remaining.Round(time.Second)))
}

func (m Model) renderVPN() string {
	if m.state.Reconnecting {
		return m.spinner.View() + " " + checkingStyle.Render("reconnecting...")
	}
	if m.state.Region == "" {
		return secondaryStyle.Render("unknown region")
	}
	return healthyStyle.Render(m.state.Region)
}

func (m Model) renderReconnect() string {
	if !m.hasReconnect {
		return secondaryStyle.Render("none yet")
	}

	e := m.lastReconnect
	when := secondaryStyle.Render(fmt.Sprintf(" at %s (%s)", e.FinishedAt.Format("15:04:05"), e.Reason))
	if !e.OK() {
		return unhealthyStyle.Render(fmt.Sprintf("%s failed", e.Stage)) + when
	}
	return healthyStyle.Render(e.Region) + when
}
