// Package xvpn implements the stateful client for the VPN helper's native
// messaging protocol: message classification and dispatch, notification
// correlation via timed waits, and the connect/disconnect workflows that
// observe the helper's state machine.
package xvpn

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yllada/xvpnctl/common"
)

// Transport is the framing layer the client drives. Satisfied by
// *nativemsg.Transport; tests substitute fakes.
type Transport interface {
	// Send writes one framed JSON message; sends are serialized.
	Send(jsonText string) error
	// TryReceive pops the next inbound message without blocking.
	TryReceive() (string, bool)
	// Done is closed once the receive loop has terminated.
	Done() <-chan struct{}
	// Err reports the fatal transport error, if any.
	Err() error
	// Close releases the outgoing stream.
	Close() error
}

// Client maintains the connection-state snapshot and runs the helper
// protocol. One dispatch goroutine drains the transport queue and is the
// only writer of the snapshot and location data; workflow calls read value
// copies and issue requests.
type Client struct {
	transport       Transport
	logger          common.Logger
	responseTimeout time.Duration

	mu              sync.RWMutex
	status          Status
	locations       []Location
	locationsLoaded bool
	defaultLocation LocationID
	recentIDs       []LocationID
	recommendedIDs  []LocationID
	helperConnected bool
	appVersion      string

	subs *registry

	stop     chan struct{}
	stopOnce sync.Once
}

// NewClient creates a client over the given transport and starts its
// dispatch loop. responseTimeout bounds single request/notification
// round-trips; zero selects the default.
func NewClient(t Transport, logger common.Logger, responseTimeout time.Duration) *Client {
	if logger == nil {
		logger = common.GetLogger()
	}
	if responseTimeout <= 0 {
		responseTimeout = common.ResponseTimeout
	}

	c := &Client{
		transport:       t,
		logger:          logger,
		responseTimeout: responseTimeout,
		subs:            newRegistry(),
		stop:            make(chan struct{}),
	}

	go c.dispatchLoop()
	return c
}

// Close stops the dispatch loop and releases the transport. The helper is
// expected to exit when its stdin closes; it is never respawned.
func (c *Client) Close() error {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
	return c.transport.Close()
}

// Status returns a copy of the current snapshot.
func (c *Client) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// State returns the snapshot's current state.
func (c *Client) State() ConnectionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status.State
}

// HelperVersion reports the peer application version once the handshake
// completed.
func (c *Client) HelperVersion() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.appVersion, c.helperConnected
}

// Locations returns a copy of the loaded location list and whether it has
// ever been loaded.
func (c *Client) Locations() ([]Location, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.locationsLoaded {
		return nil, false
	}
	return append([]Location(nil), c.locations...), true
}

// DefaultLocationID returns the server-chosen smart location id, if
// locations were loaded.
func (c *Client) DefaultLocationID() (LocationID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defaultLocation, c.locationsLoaded
}

// RecommendedLocationIDs returns the recommended endpoint ids, if
// locations were loaded.
func (c *Client) RecommendedLocationIDs() ([]LocationID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.locationsLoaded {
		return nil, false
	}
	return append([]LocationID(nil), c.recommendedIDs...), true
}

// RecentLocationIDs returns the recently used endpoint ids, if locations
// were loaded.
func (c *Client) RecentLocationIDs() ([]LocationID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.locationsLoaded {
		return nil, false
	}
	return append([]LocationID(nil), c.recentIDs...), true
}

// Subscribe registers an external consumer for a notification category.
// The channel is buffered; slow consumers lose events rather than stall
// dispatch. Callers must Unsubscribe with the returned token.
func (c *Client) Subscribe(cat Category) (uuid.UUID, <-chan Event) {
	return c.subs.subscribe(cat)
}

// Unsubscribe removes a subscription.
func (c *Client) Unsubscribe(cat Category, token uuid.UUID) {
	c.subs.unsubscribe(cat, token)
}

// WaitUntilReady blocks until the helper's handshake message has been
// observed, or the timeout expires.
func (c *Client) WaitUntilReady(timeout time.Duration) error {
	// Subscribe first, then re-check: the handshake may land in between.
	token, ch := c.subs.subscribe(CategoryConnected)
	defer c.subs.unsubscribe(CategoryConnected, token)

	c.mu.RLock()
	ready := c.helperConnected
	c.mu.RUnlock()
	if ready {
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ch:
		return nil
	case <-c.transport.Done():
		return c.transportFailure()
	case <-timer.C:
		return fmt.Errorf("helper handshake: %w", common.ErrTimeout)
	}
}

// send encodes and writes one request.
func (c *Client) send(method string, params interface{}) error {
	text, err := encodeCall(method, params)
	if err != nil {
		return err
	}
	return c.transport.Send(text)
}

// CallAndWait issues a request and waits for the next notification of the
// given category, bounded by timeout (zero selects the response timeout).
//
// The subscription is registered before the request is sent; the protocol
// carries no reply ids, so sending first would race against a reply that
// arrives before the subscription exists. The subscription is removed on
// every path. Only use this for requests the helper answers with the
// expected category under normal operation.
func (c *Client) CallAndWait(method string, params interface{}, cat Category, timeout time.Duration) (Event, error) {
	if timeout <= 0 {
		timeout = c.responseTimeout
	}

	token, ch := c.subs.subscribe(cat)
	defer c.subs.unsubscribe(cat, token)

	if err := c.send(method, params); err != nil {
		return Event{}, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ev := <-ch:
		return ev, nil
	case <-c.transport.Done():
		return Event{}, c.transportFailure()
	case <-timer.C:
		return Event{}, fmt.Errorf("%s: no %s notification: %w", method, cat, common.ErrTimeout)
	}
}

// transportFailure maps a dead transport to a caller-facing error.
func (c *Client) transportFailure() error {
	if err := c.transport.Err(); err != nil {
		return err
	}
	return common.ErrTransportClosed
}
