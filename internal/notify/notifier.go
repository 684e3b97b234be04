package notify

import (
	"fmt"

	"github.com/juststeveking/vpnwatch/internal/monitor"
	"github.com/martinlindhe/notify"
)

const appName = "vpnwatch"

// Notifier sends desktop notifications for reconnect outcomes
type Notifier struct {
	enabled bool
	send    func(title, message string)
}

// NewNotifier creates a new notifier instance
func NewNotifier(enabled bool) *Notifier {
	return &Notifier{
		enabled: enabled,
		send: func(title, message string) {
			notify.Notify(appName, title, message, "")
		},
	}
}

// NotifyReconnect reports the outcome of a reconnect sequence.
// It is shaped to be passed to Reconnector.OnFinished.
func (n *Notifier) NotifyReconnect(event monitor.ReconnectEvent) {
	if !n.enabled {
		return
	}

	if event.OK() {
		title := fmt.Sprintf("✅ Connected to %s", event.Region)
		message := fmt.Sprintf("Reason: %s", event.Reason)
		if event.Egress != "" {
			message = fmt.Sprintf("%s (exit: %s)", message, event.Egress)
		}
		n.send(title, message)
		return
	}

	title := fmt.Sprintf("⚠️  VPN %s failed", event.Stage)
	message := fmt.Sprintf("Reason: %s: %v", event.Reason, event.Err)
	if event.Stage == monitor.StageConnect {
		message += " (VPN is disconnected until the next attempt)"
	}
	n.send(title, message)
}
