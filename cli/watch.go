package cli

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yllada/xvpnctl/xvpn"
)

var (
	styleWatchTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	styleWatchLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	styleWatchHelp  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// eventMsg carries one client notification into the program.
type eventMsg xvpn.Event

// refreshDoneMsg reports the outcome of the initial status fetch.
type refreshDoneMsg struct{ err error }

// watchModel is the live status view: it re-renders on every
// status-changed and progress notification from the client.
type watchModel struct {
	client *xvpn.Client
	spin   spinner.Model

	status   xvpn.Status
	progress float64
	err      error

	events <-chan xvpn.Event
	done   chan struct{}
}

// Watch runs the live status view until the user quits.
func (c *CLI) Watch() error {
	statusToken, statusCh := c.client.Subscribe(xvpn.CategoryStatusChanged)
	defer c.client.Unsubscribe(xvpn.CategoryStatusChanged, statusToken)
	progressToken, progressCh := c.client.Subscribe(xvpn.CategoryProgress)
	defer c.client.Unsubscribe(xvpn.CategoryProgress, progressToken)

	// Merge both subscriptions into the single stream the program reads.
	events := make(chan xvpn.Event)
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			var ev xvpn.Event
			select {
			case ev = <-statusCh:
			case ev = <-progressCh:
			case <-done:
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = styleTransitional

	model := watchModel{
		client: c.client,
		spin:   spin,
		status: c.client.Status(),
		events: events,
		done:   done,
	}

	_, err := tea.NewProgram(model).Run()
	return err
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.waitForEvent(), m.refresh())
}

// refresh asks the helper for a fresh status so the view does not start
// from a stale snapshot.
func (m watchModel) refresh() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		return refreshDoneMsg{err: client.RefreshStatus()}
	}
}

// waitForEvent blocks on the merged notification stream.
func (m watchModel) waitForEvent() tea.Cmd {
	events, done := m.events, m.done
	return func() tea.Msg {
		select {
		case ev := <-events:
			return eventMsg(ev)
		case <-done:
			return tea.Quit()
		}
	}
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}

	case eventMsg:
		m.status = msg.Status
		if msg.Category == xvpn.CategoryProgress {
			m.progress = msg.Progress
		} else if m.status.State != xvpn.StateConnecting && m.status.State != xvpn.StateReconnecting {
			m.progress = 0
		}
		return m, m.waitForEvent()

	case refreshDoneMsg:
		m.err = msg.err
		m.status = m.client.Status()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m watchModel) View() string {
	s := styleWatchTitle.Render("xvpnctl watch") + "\n\n"

	state := m.status.State.String()
	switch m.status.State {
	case xvpn.StateConnecting, xvpn.StateReconnecting, xvpn.StateDisconnecting:
		state = m.spin.View() + " " + styleTransitional.Render(state)
		if m.progress > 0 {
			state += fmt.Sprintf(" (%.0f%%)", m.progress)
		}
	case xvpn.StateConnected:
		state = styleConnected.Render(state)
	default:
		if m.status.State.IsError() {
			state = styleError.Render(state)
		}
	}

	s += styleWatchLabel.Render("State") + state + "\n"
	if m.status.CurrentLocation != nil {
		s += styleWatchLabel.Render("Location") + m.status.CurrentLocation.Name + "\n"
	}
	if m.status.SelectedLocation.Name != "" {
		s += styleWatchLabel.Render("Selected") + m.status.SelectedLocation.Name + "\n"
	}
	if m.err != nil {
		s += "\n" + styleError.Render(fmt.Sprintf("status refresh failed: %v", m.err)) + "\n"
	}

	s += "\n" + styleWatchHelp.Render("q: quit") + "\n"
	return s
}
