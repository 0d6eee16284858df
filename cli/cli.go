// Package cli provides the command-line interface for xvpnctl. Output
// goes to stdout in one of two shapes: human-readable tables (styled when
// stdout is a terminal) or Alfred script filter JSON for workflow use.
package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/yllada/xvpnctl/alfred"
	"github.com/yllada/xvpnctl/common"
	"github.com/yllada/xvpnctl/config"
	"github.com/yllada/xvpnctl/notify"
	"github.com/yllada/xvpnctl/xvpn"
)

var (
	styleConnected    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	styleTransitional = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	styleError        = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleIdle         = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// CLI represents the command-line interface.
type CLI struct {
	client   *xvpn.Client
	cfg      *config.Config
	notifier *notify.Notifier

	// alfredMode switches all output to script filter JSON.
	alfredMode bool
	// styled enables ANSI styling; off when stdout is not a terminal.
	styled bool
}

// New creates a new CLI instance over an already-started client.
func New(client *xvpn.Client, cfg *config.Config, notifier *notify.Notifier, alfredMode bool) *CLI {
	return &CLI{
		client:     client,
		cfg:        cfg,
		notifier:   notifier,
		alfredMode: alfredMode,
		styled:     !alfredMode && term.IsTerminal(int(os.Stdout.Fd())),
	}
}

// Status fetches and prints the current connection status.
func (c *CLI) Status() error {
	if err := c.client.RefreshStatus(); err != nil {
		return fmt.Errorf("failed to fetch status: %w", err)
	}

	status := c.client.Status()
	version, _ := c.client.HelperVersion()

	if c.alfredMode {
		return alfred.StatusFilter(status, version).Write(os.Stdout)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "State:\t%s\n", c.stateBadge(status.State))
	if status.CurrentLocation != nil {
		fmt.Fprintf(w, "Location:\t%s\n", status.CurrentLocation.Name)
	}
	if status.SelectedLocation.Name != "" {
		fmt.Fprintf(w, "Selected:\t%s\n", status.SelectedLocation.Name)
	}
	if status.LastLocation != nil {
		fmt.Fprintf(w, "Last used:\t%s\n", status.LastLocation.Name)
	}
	if version != "" {
		fmt.Fprintf(w, "App version:\t%s\n", version)
	}
	return w.Flush()
}

// Locations fetches and prints the available locations, optionally
// filtered by a substring query (Alfred mode only).
func (c *CLI) Locations(query string) error {
	if err := c.client.RefreshLocations(); err != nil {
		return fmt.Errorf("failed to fetch locations: %w", err)
	}

	locations, _ := c.client.Locations()

	if c.alfredMode {
		return alfred.LocationsFilter(locations, query).Write(os.Stdout)
	}

	if len(locations) == 0 {
		fmt.Println("No locations available.")
		return nil
	}

	defaultID, _ := c.client.DefaultLocationID()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCOUNTRY\tFLAGS")
	fmt.Fprintln(w, "--\t----\t-------\t-----")

	for _, loc := range locations {
		var flags []string
		if loc.ID == defaultID {
			flags = append(flags, "smart")
		}
		if loc.Recommended {
			flags = append(flags, "recommended")
		}
		if loc.Favorite {
			flags = append(flags, "favorite")
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			loc.ID, loc.Name, loc.Country, strings.Join(flags, ","))
	}

	return w.Flush()
}

// Connect connects to a location given by name, country, or id. An empty
// target connects to the smart location.
func (c *CLI) Connect(target string) error {
	args, label, err := c.resolveTarget(target)
	if err != nil {
		return err
	}

	fmt.Printf("Connecting to %s...\n", label)

	if err := c.client.Connect(args, c.cfg.ConnectTimeout); err != nil {
		c.notifier.ConnectionError(label, err)
		if errors.Is(err, common.ErrTimeout) {
			return fmt.Errorf("connection timed out: %w", err)
		}
		return fmt.Errorf("connection failed: %w", err)
	}

	fmt.Printf("✓ Connected to %s\n", label)
	c.notifier.Connected(label)
	return nil
}

// Disconnect closes the active connection.
func (c *CLI) Disconnect() error {
	fmt.Println("Disconnecting...")

	if err := c.client.Disconnect(c.cfg.DisconnectTimeout); err != nil {
		if errors.Is(err, common.ErrNotConnected) {
			return fmt.Errorf("not connected (state is %s)", c.client.State())
		}
		c.notifier.ConnectionError("VPN", err)
		return fmt.Errorf("failed to disconnect: %w", err)
	}

	fmt.Println("✓ Disconnected")
	c.notifier.Disconnected()
	return nil
}

// resolveTarget maps the user-supplied connect argument to connect args
// and a display label. Lookup order: smart location for an empty target,
// then location name, then country, then id.
func (c *CLI) resolveTarget(target string) (xvpn.ConnectArgs, string, error) {
	target = strings.TrimSpace(target)

	if target == "" || strings.EqualFold(target, "smart") {
		return xvpn.ConnectArgs{Default: true}, "smart location", nil
	}

	if err := c.client.RefreshLocations(); err != nil {
		return xvpn.ConnectArgs{}, "", fmt.Errorf("failed to fetch locations: %w", err)
	}

	if loc, err := c.client.FindLocationByName(target); err == nil {
		if loc.Country == target {
			return xvpn.ConnectArgs{Country: target}, target, nil
		}
		return xvpn.ConnectArgs{Name: loc.Name, ID: loc.ID}, loc.Name, nil
	}

	if loc, err := c.client.FindLocation(xvpn.ParseLocationID(target)); err == nil {
		return xvpn.ConnectArgs{Name: loc.Name, ID: loc.ID}, loc.Name, nil
	}

	return xvpn.ConnectArgs{}, "", fmt.Errorf("%w: %s", common.ErrLocationNotFound, target)
}

// stateBadge renders the state, colorized on terminals.
func (c *CLI) stateBadge(state xvpn.ConnectionState) string {
	label := state.String()
	if !c.styled {
		return label
	}

	switch {
	case state == xvpn.StateConnected:
		return styleConnected.Render(label)
	case state == xvpn.StateConnecting || state == xvpn.StateReconnecting ||
		state == xvpn.StateDisconnecting:
		return styleTransitional.Render(label)
	case state.IsError():
		return styleError.Render(label)
	default:
		return styleIdle.Render(label)
	}
}

// PrintHelp prints CLI usage help.
func PrintHelp() {
	fmt.Println(`xvpnctl - control the VPN from the command line

Usage:
  xvpnctl [OPTIONS]

Options:
  --status            Show current connection status
  --connect [TARGET]  Connect to a location by name, country, or id
                      (empty or "smart" picks the smart location)
  --disconnect        Disconnect from the VPN
  --locations         List available locations
  --watch             Live status view (q to quit)
  --alfred [QUERY]    Emit Alfred script filter JSON instead of tables
  --helper NAME       Native messaging host name to use
  --version           Show version and exit
  --verbose           Enable verbose logging
  --help              Show this help message

Examples:
  xvpnctl --status
  xvpnctl --connect Germany
  xvpnctl --connect "USA - New York"
  xvpnctl --connect smart
  xvpnctl --disconnect
  xvpnctl --locations --alfred "ger"

Notes:
  - The browser extension's native messaging host must be installed;
    its manifest is discovered in the standard browser directories.
  - Configuration lives in ~/.config/xvpnctl/config.yaml.`)
}
