package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/ssdpd/internal/catalog"
	"github.com/muurk/ssdpd/internal/controlpoint"
)

// SearchFunc runs one M-SEARCH round
type SearchFunc func(ctx context.Context) error

// Messages for async operations
type eventMsg struct{ event controlpoint.Event }
type feedClosedMsg struct{}
type searchDoneMsg struct{ err error }

type watchKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Inspect key.Binding
	Back    key.Binding
	Rescan  key.Binding
	Quit    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k watchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Inspect, k.Rescan, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k watchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Inspect},
		{k.Back, k.Rescan, k.Quit},
	}
}

type detailKeyMap struct {
	Back key.Binding
	Quit key.Binding
}

func (k detailKeyMap) ShortHelp() []key.Binding  { return []key.Binding{k.Back, k.Quit} }
func (k detailKeyMap) FullHelp() [][]key.Binding { return [][]key.Binding{{k.Back, k.Quit}} }

// deviceItem wraps a catalog device for bubbles/list
type deviceItem struct {
	device *catalog.Device
}

func (d deviceItem) FilterValue() string {
	return d.device.FriendlyName + " " + d.device.Identifier + " " + d.device.DeviceType
}

func (d deviceItem) Title() string {
	if d.device.FriendlyName == "" {
		return d.device.Identifier
	}
	return d.device.FriendlyName
}

func (d deviceItem) Description() string {
	return fmt.Sprintf("%s • %s • %s", shortType(d.device.DeviceType), d.device.Identifier, d.device.RemoteAddr)
}

// WatchModel is a live view of a discovery client's catalog
type WatchModel struct {
	events <-chan controlpoint.Event
	search SearchFunc

	Devices   list.Model
	Detail    *catalog.Device
	Searching bool
	LastEvent string
	Err       error

	Width      int
	Height     int
	Spinner    spinner.Model
	Help       help.Model
	Keys       watchKeyMap
	DetailKeys detailKeyMap
}

// NewWatchModel creates a watch view seeded with the current catalog.
// search may be nil to disable rescans.
func NewWatchModel(initial []*catalog.Device, events <-chan controlpoint.Event, search SearchFunc) WatchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(PrimaryColor)

	items := make([]list.Item, 0, len(initial))
	for _, d := range initial {
		items = append(items, deviceItem{device: d})
	}
	devices := list.New(items, list.NewDefaultDelegate(), MinTerminalWidth, 20)
	devices.Title = "Discovered Devices"
	devices.Styles.Title = lipgloss.NewStyle().Foreground(TextColor).Background(PrimaryColor).Padding(0, 1)
	devices.SetShowHelp(false)
	devices.SetStatusBarItemName("device", "devices")

	return WatchModel{
		events:  events,
		search:  search,
		Devices: devices,
		Spinner: s,
		Help:    help.New(),
		Keys: watchKeyMap{
			Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "move up")),
			Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "move down")),
			Inspect: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "inspect")),
			Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
			Rescan:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "search")),
			Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		},
		DetailKeys: detailKeyMap{
			Back: key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
			Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		},
	}
}

// Init starts listening for catalog events and runs a first search
func (m WatchModel) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForEvent(m.events)}
	if m.search != nil {
		cmds = append(cmds, func() tea.Msg { return searchStartMsg{} })
	}
	return tea.Batch(cmds...)
}

type searchStartMsg struct{}

func waitForEvent(events <-chan controlpoint.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return feedClosedMsg{}
		}
		return eventMsg{event: ev}
	}
}

func runSearch(search SearchFunc) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return searchDoneMsg{err: search(ctx)}
	}
}

// Update handles messages and updates the model
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.Devices.SettingFilter() {
			break
		}
		if m.Detail != nil {
			switch {
			case key.Matches(msg, m.DetailKeys.Quit):
				return m, tea.Quit
			case key.Matches(msg, m.DetailKeys.Back):
				m.Detail = nil
			}
			return m, nil
		}
		switch {
		case key.Matches(msg, m.Keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.Keys.Inspect):
			if item, ok := m.Devices.SelectedItem().(deviceItem); ok {
				m.Detail = item.device
			}
			return m, nil
		case key.Matches(msg, m.Keys.Rescan):
			if m.search != nil && !m.Searching {
				return m.startSearch()
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Devices.SetSize(msg.Width-2, max(msg.Height-4, 5))

	case searchStartMsg:
		return m.startSearch()

	case searchDoneMsg:
		m.Searching = false
		m.Err = msg.err
		return m, nil

	case eventMsg:
		cmd = m.apply(msg.event)
		return m, tea.Batch(cmd, waitForEvent(m.events))

	case feedClosedMsg:
		return m, tea.Quit

	case spinner.TickMsg:
		if !m.Searching {
			return m, nil
		}
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	m.Devices, cmd = m.Devices.Update(msg)
	return m, cmd
}

func (m WatchModel) startSearch() (tea.Model, tea.Cmd) {
	m.Searching = true
	m.Err = nil
	return m, tea.Batch(runSearch(m.search), m.Spinner.Tick)
}

// apply folds one catalog event into the list
func (m *WatchModel) apply(ev controlpoint.Event) tea.Cmd {
	if ev.Device == nil {
		return nil
	}
	m.LastEvent = fmt.Sprintf("%s %s", ev.Type, deviceItem{device: ev.Device}.Title())

	idx := -1
	for i, it := range m.Devices.Items() {
		if it.(deviceItem).device.Identifier == ev.Device.Identifier {
			idx = i
			break
		}
	}

	switch ev.Type {
	case controlpoint.EventRemoved:
		if idx >= 0 {
			m.Devices.RemoveItem(idx)
		}
		if m.Detail != nil && m.Detail.Identifier == ev.Device.Identifier {
			m.Detail = nil
		}
		return nil
	default:
		if m.Detail != nil && m.Detail.Identifier == ev.Device.Identifier {
			m.Detail = ev.Device
		}
		if idx >= 0 {
			return m.Devices.SetItem(idx, deviceItem{device: ev.Device})
		}
		return m.Devices.InsertItem(len(m.Devices.Items()), deviceItem{device: ev.Device})
	}
}

// View renders the watch screen
func (m WatchModel) View() string {
	var b strings.Builder

	if m.Detail != nil {
		b.WriteString(RenderDeviceTree(m.Detail))
		b.WriteString("\n\n")
		b.WriteString(m.Help.View(m.DetailKeys))
		return b.String()
	}

	b.WriteString(m.Devices.View())
	b.WriteString("\n")

	var status string
	switch {
	case m.Searching:
		status = m.Spinner.View() + " searching..."
	case m.Err != nil:
		status = ErrorMessageStyle.Render("search failed: " + m.Err.Error())
	case m.LastEvent != "":
		status = HintItemStyle.Render(m.LastEvent)
	}
	if status != "" {
		b.WriteString(" " + status + "\n")
	}
	b.WriteString(m.Help.View(m.Keys))
	return b.String()
}

// Identifiers returns the identifiers currently listed, in order
func (m WatchModel) Identifiers() []string {
	items := m.Devices.Items()
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.(deviceItem).device.Identifier)
	}
	return out
}

// RunWatch runs the watch view until the user quits or events closes
func RunWatch(initial []*catalog.Device, events <-chan controlpoint.Event, search SearchFunc) error {
	p := tea.NewProgram(NewWatchModel(initial, events, search), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
