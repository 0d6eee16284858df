package xvpn

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// The helper speaks a JSON-RPC-like dialect: requests carry a fixed
// protocol version and a fixed id of 1. There is no real request/response
// correlation; replies are matched by waiting for the next notification of
// the expected category, which is why callers must subscribe before
// sending.
const (
	protocolVersion = "2.0"
	requestID       = 1
)

// Methods consumed by the client.
const (
	MethodGetStatus      = "XVPN.GetStatus"
	MethodGetLocations   = "XVPN.GetLocations"
	MethodSelectLocation = "XVPN.SelectLocation"
	MethodConnect        = "XVPN.Connect"
	MethodDisconnect     = "XVPN.Disconnect"
)

// Event names delivered by the helper inside `name` messages.
const (
	eventServiceStateChanged     = "ServiceStateChanged"
	eventConnectionProgress      = "ConnectionProgress"
	eventSelectedLocationChanged = "SelectedLocationChanged"
	eventWaitForNetworkReady     = "WaitForNetworkReady"
)

// outgoingCall is the wire shape of every request.
type outgoingCall struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      int         `json:"id"`
}

// encodeCall serializes a request in the helper's dialect.
func encodeCall(method string, params interface{}) (string, error) {
	if params == nil {
		params = struct{}{}
	}
	data, err := json.Marshal(outgoingCall{
		JSONRPC: protocolVersion,
		Method:  method,
		Params:  params,
		ID:      requestID,
	})
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", method, err)
	}
	return string(data), nil
}

// LocationID tolerates both string and numeric JSON ids; the helper is not
// consistent about which it sends.
type LocationID string

func (l *LocationID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = LocationID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*l = LocationID(n.String())
	return nil
}

// ParseLocationID normalizes a user-supplied id to the wire representation.
func ParseLocationID(s string) LocationID {
	if n, err := strconv.Atoi(s); err == nil {
		return LocationID(strconv.Itoa(n))
	}
	return LocationID(s)
}

// Location is a static VPN endpoint descriptor from the locations list.
type Location struct {
	Country           string     `json:"country"`
	CountryCode       string     `json:"country_code"`
	Favorite          bool       `json:"favorite"`
	Icon              string     `json:"icon"`
	ID                LocationID `json:"id"`
	LastConnectedTime string     `json:"last_connected_time"`
	Name              string     `json:"name"`
	Protocols         []string   `json:"protocols"`
	Recommended       bool       `json:"recommended"`
	Region            string     `json:"region"`
	SortOrder         int        `json:"sort_order"`
	UpdateTime        string     `json:"update_time"`
}

// SelectedLocation identifies the endpoint the service will connect to
// next. IsSmartLocation marks the server-chosen "best" endpoint.
type SelectedLocation struct {
	ID              LocationID `json:"id"`
	Name            string     `json:"name"`
	IsCountry       bool       `json:"is_country"`
	IsSmartLocation bool       `json:"is_smart_location"`
}

// selectLocationParams is the XVPN.SelectLocation request body.
type selectLocationParams struct {
	SelectedLocation SelectedLocation `json:"selected_location"`
}

// connectParams is the XVPN.Connect request body.
type connectParams struct {
	Country                 string     `json:"country"`
	Name                    string     `json:"name"`
	IsDefault               bool       `json:"is_default"`
	ID                      LocationID `json:"id"`
	ChangeConnectedLocation bool       `json:"change_connected_location"`
	IsAutoConnect           bool       `json:"is_auto_connect"`
}

// LocationsResult is the payload of a `locations` message. The list and
// the three id lists are always replaced together.
type LocationsResult struct {
	Locations              []Location   `json:"locations"`
	DefaultLocationID      LocationID   `json:"default_location_id"`
	RecentLocationIDs      []LocationID `json:"recent_locations_ids"`
	RecommendedLocationIDs []LocationID `json:"recommended_locations_ids"`
}

// incomingMessage is the superset of top-level keys the helper may send.
// Classification checks them in a fixed priority order; only the
// highest-priority interpretation applies even when several keys are
// present.
type incomingMessage struct {
	Error       json.RawMessage `json:"error"`
	Connected   *bool           `json:"connected"`
	AppVersion  string          `json:"app_version"`
	Info        json.RawMessage `json:"info"`
	Name        string          `json:"name"`
	Data        json.RawMessage `json:"data"`
	Preferences json.RawMessage `json:"Preferences"`
	Locations   json.RawMessage `json:"locations"`
	Messages    json.RawMessage `json:"messages"`
	Success     json.RawMessage `json:"success"`
}

// statusInfo is the wire shape of a full status (`info`) payload.
type statusInfo struct {
	State            string           `json:"state"`
	CurrentLocation  *Location        `json:"current_location"`
	SelectedLocation SelectedLocation `json:"selected_location"`
	LastLocation     *Location        `json:"last_location"`
	LatestVersion    json.RawMessage  `json:"latest_version"`
}

// stateChangedData is the payload of a ServiceStateChanged event.
type stateChangedData struct {
	NewState string `json:"newstate"`
}

// progressData is the payload of a ConnectionProgress event.
type progressData struct {
	Progress float64 `json:"progress"`
}

// selectedLocationData is the payload of a SelectedLocationChanged event.
// Some helper builds nest the fields under selected_location, others send
// them directly.
type selectedLocationData struct {
	SelectedLocation
	Nested *SelectedLocation `json:"selected_location"`
}

func (d *selectedLocationData) value() SelectedLocation {
	if d.Nested != nil {
		return *d.Nested
	}
	return d.SelectedLocation
}
