// Package alfred renders client state as Alfred script filter JSON, the
// format the workflow's downstream actions consume from stdout.
package alfred

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/yllada/xvpnctl/xvpn"
)

// Icon references an image shown next to an item.
type Icon struct {
	Path string `json:"path"`
}

// Item is one row in the Alfred result list. Arg is handed to the
// follow-up action verbatim; invalid items are informational only.
type Item struct {
	UID          string `json:"uid,omitempty"`
	Title        string `json:"title"`
	Subtitle     string `json:"subtitle,omitempty"`
	Arg          string `json:"arg,omitempty"`
	Autocomplete string `json:"autocomplete,omitempty"`
	Valid        bool   `json:"valid"`
	Icon         *Icon  `json:"icon,omitempty"`
}

// ScriptFilter is the top-level script filter payload.
type ScriptFilter struct {
	Items []Item `json:"items"`
}

// Write emits the payload as JSON.
func (s ScriptFilter) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	return enc.Encode(s)
}

// Action arguments understood by the workflow's run script.
const (
	ActionDisconnect = "disconnect"
	actionConnectFmt = "connect:%s"
)

// ConnectArg builds the action argument that connects to the named
// location.
func ConnectArg(name string) string {
	return fmt.Sprintf(actionConnectFmt, name)
}

// StatusFilter renders the current status as actionable items: a
// disconnect row while connected, a connect row otherwise, plus an
// informational row with the helper version when known.
func StatusFilter(status xvpn.Status, helperVersion string) ScriptFilter {
	var items []Item

	switch status.State {
	case xvpn.StateConnected:
		subtitle := "Disconnect"
		if status.CurrentLocation != nil {
			subtitle = fmt.Sprintf("Connected to %s. Disconnect", status.CurrentLocation.Name)
		}
		items = append(items, Item{
			UID:      "status",
			Title:    status.State.String(),
			Subtitle: subtitle,
			Arg:      ActionDisconnect,
			Valid:    true,
		})

	case xvpn.StateConnecting, xvpn.StateReconnecting, xvpn.StateDisconnecting:
		items = append(items, Item{
			UID:   "status",
			Title: status.State.String(),
			Valid: false,
		})

	default:
		target := status.SelectedLocation.Name
		if target == "" {
			target = "last location"
		}
		items = append(items, Item{
			UID:      "status",
			Title:    status.State.String(),
			Subtitle: fmt.Sprintf("Connect to %s", target),
			Arg:      ConnectArg(status.SelectedLocation.Name),
			Valid:    !status.State.IsError(),
		})
	}

	if helperVersion != "" {
		items = append(items, Item{
			UID:      "version",
			Title:    fmt.Sprintf("App version %s", helperVersion),
			Subtitle: "Reported by the VPN helper",
			Valid:    false,
		})
	}

	return ScriptFilter{Items: items}
}

// LocationsFilter renders the location list, filtered by a
// case-insensitive substring query against name and country. Recommended
// endpoints are flagged in the subtitle.
func LocationsFilter(locations []xvpn.Location, query string) ScriptFilter {
	query = strings.ToLower(strings.TrimSpace(query))

	var items []Item
	for _, loc := range locations {
		if query != "" &&
			!strings.Contains(strings.ToLower(loc.Name), query) &&
			!strings.Contains(strings.ToLower(loc.Country), query) {
			continue
		}

		subtitle := loc.Country
		if loc.Recommended {
			subtitle += " · recommended"
		}
		items = append(items, Item{
			UID:          string(loc.ID),
			Title:        loc.Name,
			Subtitle:     strings.TrimPrefix(subtitle, " · "),
			Arg:          ConnectArg(loc.Name),
			Autocomplete: loc.Name,
			Valid:        true,
		})
	}

	if len(items) == 0 {
		items = append(items, Item{
			Title:    "No matching locations",
			Subtitle: fmt.Sprintf("Nothing matches %q", query),
			Valid:    false,
		})
	}

	return ScriptFilter{Items: items}
}
