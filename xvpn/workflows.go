package xvpn

import (
	"fmt"
	"time"

	"github.com/yllada/xvpnctl/common"
)

// ConnectArgs names the endpoint a connect call targets. Exactly one of
// Country or Name is normally set; Default selects the server-chosen smart
// location.
type ConnectArgs struct {
	// Country connects to the best endpoint of a country.
	Country string
	// Name connects to a specific endpoint by display name.
	Name string
	// ID is the endpoint id from the locations list, when known.
	ID LocationID
	// Default marks the smart location.
	Default bool
}

// targetName is the display name the selection is compared and issued by:
// the country when one was given, the endpoint name otherwise.
func (a ConnectArgs) targetName() string {
	if a.Country != "" {
		return a.Country
	}
	return a.Name
}

// RefreshStatus asks the helper for a full status payload and waits for
// the snapshot to be replaced.
func (c *Client) RefreshStatus() error {
	_, err := c.CallAndWait(MethodGetStatus, nil, CategoryFullStatus, 0)
	return err
}

// RefreshLocations loads the full location set along with the default,
// recent, and recommended id lists.
func (c *Client) RefreshLocations() error {
	_, err := c.CallAndWait(MethodGetLocations, nil, CategoryLocationsUpdated, 0)
	return err
}

// FindLocation looks up a location by id in the loaded list. Locations
// must have been loaded first.
func (c *Client) FindLocation(id LocationID) (Location, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.locationsLoaded {
		return Location{}, common.ErrLocationsNotLoaded
	}
	for _, loc := range c.locations {
		if loc.ID == id {
			return loc, nil
		}
	}
	return Location{}, fmt.Errorf("%w: id %s", common.ErrLocationNotFound, id)
}

// FindLocationByName looks up a location by display name or country,
// case-sensitively by name first, then by country.
func (c *Client) FindLocationByName(name string) (Location, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.locationsLoaded {
		return Location{}, common.ErrLocationsNotLoaded
	}
	for _, loc := range c.locations {
		if loc.Name == name {
			return loc, nil
		}
	}
	for _, loc := range c.locations {
		if loc.Country == name {
			return loc, nil
		}
	}
	return Location{}, fmt.Errorf("%w: %s", common.ErrLocationNotFound, name)
}

// Connect drives the connect workflow: select the target endpoint if it
// is not already selected, issue XVPN.Connect, then poll the observed
// state until it settles or the timeout expires.
//
// The in-progress states are ready, connecting, and disconnecting. When
// the call starts out already connected (a reconnect), staying in
// connected also counts as in-progress until the state is first observed
// outside connected/disconnecting; after that, returning to connected is
// success.
func (c *Client) Connect(args ConnectArgs, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = common.ConnectTimeout
	}

	status := c.Status()
	wasConnected := status.State == StateConnected

	// Skip the selection round-trip when the target is already selected.
	if !wasConnected && status.SelectedLocation.Name != args.targetName() {
		params := selectLocationParams{
			SelectedLocation: SelectedLocation{
				ID:              args.ID,
				Name:            args.targetName(),
				IsCountry:       args.Country != "",
				IsSmartLocation: args.Default,
			},
		}
		// Bounded by the response timeout, not the connect timeout.
		if _, err := c.CallAndWait(MethodSelectLocation, params, CategoryStatusChanged, 0); err != nil {
			return fmt.Errorf("select location: %w", err)
		}
	}

	params := connectParams{
		Country:                 args.Country,
		Name:                    args.Name,
		IsDefault:               args.Default,
		ID:                      args.ID,
		ChangeConnectedLocation: wasConnected,
		IsAutoConnect:           false,
	}
	if err := c.send(MethodConnect, params); err != nil {
		return err
	}

	// Surface progress events while polling; they do not affect the loop.
	progToken, progCh := c.subs.subscribe(CategoryProgress)
	defer c.subs.unsubscribe(CategoryProgress, progToken)

	sticky := wasConnected
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	ticker := time.NewTicker(common.ConnectPollInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-progCh:
			c.logger.Info("Connection progress: %.0f%%", ev.Progress)

		case <-timer.C:
			switch state := c.State(); state {
			case StateConnected:
				return nil
			case StateReady, StateConnecting:
				return fmt.Errorf("connect to %s: %w", args.targetName(), common.ErrTimeout)
			default:
				return &common.StateError{Op: "connect", State: string(state)}
			}

		case <-ticker.C:
			state := c.State()
			if sticky && state != StateConnected && state != StateDisconnecting {
				sticky = false
			}

			switch {
			case state == StateReady, state == StateConnecting, state == StateDisconnecting:
				// Still in progress.
			case sticky && state == StateConnected:
				// Reconnect has not visibly started yet.
			case state == StateConnected:
				return nil
			default:
				return &common.StateError{Op: "connect", State: string(state)}
			}
		}
	}
}

// Disconnect drives the disconnect workflow. The current state must be
// connected; otherwise it fails immediately without a request.
func (c *Client) Disconnect(timeout time.Duration) error {
	if timeout <= 0 {
		timeout = common.DisconnectTimeout
	}

	if state := c.State(); state != StateConnected {
		return fmt.Errorf("%w: state is %s", common.ErrNotConnected, state)
	}

	if err := c.send(MethodDisconnect, nil); err != nil {
		return err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	ticker := time.NewTicker(common.DisconnectPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-timer.C:
			switch state := c.State(); state {
			case StateReady:
				return nil
			case StateConnected, StateDisconnecting:
				return fmt.Errorf("disconnect: %w", common.ErrTimeout)
			default:
				return &common.StateError{Op: "disconnect", State: string(state)}
			}

		case <-ticker.C:
			state := c.State()
			if state == StateConnected || state == StateDisconnecting {
				continue
			}
			if state == StateReady {
				return nil
			}
			return &common.StateError{Op: "disconnect", State: string(state)}
		}
	}
}
