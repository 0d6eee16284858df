package xvpn

import (
	"encoding/json"
	"time"

	"github.com/yllada/xvpnctl/common"
)

// dispatchLoop wakes on a fixed short interval and drains the transport
// queue, classifying each message to completion before the next. This
// serializes all snapshot mutation and notification delivery onto one
// goroutine.
func (c *Client) dispatchLoop() {
	ticker := time.NewTicker(common.DispatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			for {
				text, ok := c.transport.TryReceive()
				if !ok {
					break
				}
				c.dispatch(text)
			}
		}
	}
}

// dispatch classifies one message by its top-level keys in a fixed
// priority order; the first match wins even when several keys are present.
// Parse failures are logged per message and never stop the loop.
func (c *Client) dispatch(text string) {
	var msg incomingMessage
	if err := json.Unmarshal([]byte(text), &msg); err != nil {
		c.logger.Warn("Malformed message from helper: %v (%s)", err, text)
		return
	}

	switch {
	case msg.Error != nil:
		// Extension point: today protocol errors are informational only.
		c.logger.Error("Helper reported error: %s", msg.Error)

	case msg.Connected != nil && *msg.Connected:
		c.handleConnected(msg.AppVersion)

	case msg.Info != nil:
		c.handleFullStatus(msg.Info)

	case msg.Name != "":
		c.handleNamedEvent(msg.Name, msg.Data)

	case msg.Preferences != nil:
		// Accepted but not acted on.
		c.logger.Debug("Preferences message received")

	case msg.Locations != nil:
		c.handleLocations(text)

	case msg.Messages != nil:
		// Accepted but not acted on.
		c.logger.Debug("Messages list received")

	case msg.Success != nil:
		// Bare acknowledgement; nothing to do.

	default:
		c.logger.Warn("Unhandled message from helper: %s", text)
	}
}

// handleConnected records the handshake and raises the one-time connected
// notification.
func (c *Client) handleConnected(version string) {
	c.mu.Lock()
	first := !c.helperConnected
	c.helperConnected = true
	c.appVersion = version
	status := c.status
	c.mu.Unlock()

	c.logger.Info("Helper connected, app version %s", version)
	if first {
		c.subs.publish(Event{Category: CategoryConnected, Status: status})
	}
}

// handleFullStatus replaces the whole snapshot and raises both the generic
// status-changed and the full-status notifications.
func (c *Client) handleFullStatus(raw json.RawMessage) {
	var info statusInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		c.logger.Warn("Malformed status payload: %v", err)
		return
	}

	if _, ok := ParseState(info.State); !ok && info.State != "" {
		c.logger.Warn("Full status carries unknown state %q", info.State)
	}

	next := statusFromInfo(&info)

	c.mu.Lock()
	c.status = next
	c.mu.Unlock()

	c.logger.Debug("Full status: state=%s", next.State)
	c.subs.publish(Event{Category: CategoryStatusChanged, Status: next})
	c.subs.publish(Event{Category: CategoryFullStatus, Status: next})
}

// handleNamedEvent sub-dispatches a `name` message against its nested data.
func (c *Client) handleNamedEvent(name string, data json.RawMessage) {
	switch name {
	case eventServiceStateChanged:
		var payload stateChangedData
		if err := json.Unmarshal(data, &payload); err != nil {
			c.logger.Warn("Malformed %s payload: %v", name, err)
			return
		}

		state, ok := ParseState(payload.NewState)
		if !ok {
			// Unknown label: snapshot stays as-is, no notification.
			c.logger.Warn("Unknown service state %q, ignoring", payload.NewState)
			return
		}

		c.mu.Lock()
		c.status = patchState(c.status, state)
		next := c.status
		c.mu.Unlock()

		c.logger.Debug("Service state changed: %s", state)
		c.subs.publish(Event{Category: CategoryStatusChanged, Status: next})

	case eventConnectionProgress:
		var payload progressData
		if err := json.Unmarshal(data, &payload); err != nil {
			c.logger.Warn("Malformed %s payload: %v", name, err)
			return
		}
		// Progress does not touch the snapshot.
		c.subs.publish(Event{Category: CategoryProgress, Progress: payload.Progress, Status: c.Status()})

	case eventSelectedLocationChanged:
		var payload selectedLocationData
		if err := json.Unmarshal(data, &payload); err != nil {
			c.logger.Warn("Malformed %s payload: %v", name, err)
			return
		}

		c.mu.Lock()
		c.status = patchSelectedLocation(c.status, payload.value())
		next := c.status
		c.mu.Unlock()

		c.logger.Debug("Selected location changed: %s", next.SelectedLocation.Name)
		c.subs.publish(Event{Category: CategoryStatusChanged, Status: next})

	case eventWaitForNetworkReady:
		// Intentionally ignored.

	default:
		c.logger.Debug("Unhandled event %q from helper", name)
	}
}

// handleLocations replaces the location list and the default, recent, and
// recommended id lists atomically, then raises locations-updated.
func (c *Client) handleLocations(text string) {
	var result LocationsResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		c.logger.Warn("Malformed locations payload: %v", err)
		return
	}

	c.mu.Lock()
	c.locations = result.Locations
	c.defaultLocation = result.DefaultLocationID
	c.recentIDs = result.RecentLocationIDs
	c.recommendedIDs = result.RecommendedLocationIDs
	c.locationsLoaded = true
	status := c.status
	c.mu.Unlock()

	c.logger.Debug("Locations updated: %d entries", len(result.Locations))
	c.subs.publish(Event{Category: CategoryLocationsUpdated, Status: status})
}
