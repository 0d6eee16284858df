// Package notify sends desktop notifications for connection events over
// D-Bus (org.freedesktop.Notifications), falling back to notify-send when
// no session bus is reachable.
package notify

import (
	"fmt"
	"os/exec"

	"github.com/godbus/dbus/v5"

	"github.com/yllada/xvpnctl/common"
)

const (
	busName       = "org.freedesktop.Notifications"
	objectPath    = "/org/freedesktop/Notifications"
	notifyMethod  = "org.freedesktop.Notifications.Notify"
	expireDefault = int32(-1)
)

// Urgency follows the freedesktop notification spec levels.
type Urgency byte

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

// Notification is one desktop notification.
type Notification struct {
	Title   string
	Message string
	Icon    string
	Urgency Urgency
}

// Notifier delivers notifications for the application. The zero value is
// unusable; construct with New. A disabled notifier silently drops every
// call, so callers never need to guard.
type Notifier struct {
	appName string
	enabled bool
	logger  common.Logger
	conn    *dbus.Conn

	// send is swappable for tests.
	send func(n Notification) error
}

// New connects to the session bus. When the bus is unreachable the
// notifier still works through notify-send.
func New(enabled bool, logger common.Logger) *Notifier {
	if logger == nil {
		logger = common.GetLogger()
	}

	n := &Notifier{
		appName: common.AppName,
		enabled: enabled,
		logger:  logger,
	}
	n.send = n.deliver

	if !enabled {
		return n
	}

	conn, err := dbus.SessionBus()
	if err != nil {
		logger.Debug("Session bus unavailable, using notify-send: %v", err)
		return n
	}
	n.conn = conn
	return n
}

// Close releases the bus connection.
func (n *Notifier) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Close()
}

// Show delivers one notification, or does nothing when disabled.
func (n *Notifier) Show(notification Notification) error {
	if !n.enabled {
		return nil
	}
	if notification.Icon == "" {
		notification.Icon = "network-vpn"
	}
	return n.send(notification)
}

func (n *Notifier) deliver(notification Notification) error {
	if n.conn != nil {
		err := n.sendDBus(notification)
		if err == nil {
			return nil
		}
		n.logger.Debug("D-Bus notification failed, trying notify-send: %v", err)
	}
	return n.sendFallback(notification)
}

func (n *Notifier) sendDBus(notification Notification) error {
	obj := n.conn.Object(busName, dbus.ObjectPath(objectPath))
	call := obj.Call(notifyMethod, 0,
		n.appName,
		uint32(0), // no notification replacement
		notification.Icon,
		notification.Title,
		notification.Message,
		[]string{},
		map[string]dbus.Variant{
			"urgency": dbus.MakeVariant(byte(notification.Urgency)),
		},
		expireDefault,
	)
	return call.Err
}

func (n *Notifier) sendFallback(notification Notification) error {
	urgency := "normal"
	switch notification.Urgency {
	case UrgencyLow:
		urgency = "low"
	case UrgencyCritical:
		urgency = "critical"
	}

	cmd := exec.Command("notify-send",
		"--app-name="+n.appName,
		"--icon="+notification.Icon,
		"--urgency="+urgency,
		notification.Title,
		notification.Message,
	)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("notify-send: %w", err)
	}
	return nil
}

// Notify implements common.Notifier.
func (n *Notifier) Notify(title, message string) error {
	return n.Show(Notification{Title: title, Message: message, Urgency: UrgencyNormal})
}

// NotifyWithIcon implements common.Notifier.
func (n *Notifier) NotifyWithIcon(title, message, icon string) error {
	return n.Show(Notification{Title: title, Message: message, Icon: icon, Urgency: UrgencyNormal})
}

// Connected announces a completed connection.
func (n *Notifier) Connected(location string) {
	if err := n.Show(Notification{
		Title:   "VPN Connected",
		Message: "Connected to " + location,
		Icon:    "network-vpn",
		Urgency: UrgencyLow,
	}); err != nil {
		n.logger.Warn("Notification failed: %v", err)
	}
}

// Disconnected announces a completed disconnect.
func (n *Notifier) Disconnected() {
	if err := n.Show(Notification{
		Title:   "VPN Disconnected",
		Message: "The VPN connection was closed",
		Icon:    "network-vpn-disconnected",
		Urgency: UrgencyLow,
	}); err != nil {
		n.logger.Warn("Notification failed: %v", err)
	}
}

// ConnectionError announces a failed workflow.
func (n *Notifier) ConnectionError(location string, err error) {
	if showErr := n.Show(Notification{
		Title:   "VPN Error",
		Message: fmt.Sprintf("%s: %v", location, err),
		Icon:    "network-vpn-error",
		Urgency: UrgencyCritical,
	}); showErr != nil {
		n.logger.Warn("Notification failed: %v", showErr)
	}
}
