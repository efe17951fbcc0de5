// Package ui renders the live torrent table and the add-torrent dialog on
// top of the watch and upload packages. All mutable torrent state stays
// owned by the pollers; the UI only reads snapshots on a refresh tick.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"rqwatch/internal/upload"
	"rqwatch/internal/watch"
)

// viewState represents the current view in the TUI.
type viewState int

const (
	torrentListView viewState = iota
	addInputView
	fileSelectView
)

const refreshEvery = 250 * time.Millisecond

type tickMsg time.Time

type previewDoneMsg struct{ err error }

type confirmDoneMsg struct{ err error }

// Model is the TUI application state.
type Model struct {
	ctx      context.Context
	registry *watch.Registry
	session  *upload.Session
	slot     *ErrorSlot

	view     viewState
	snap     watch.Snapshot
	cursor   int
	busy     bool
	inputErr error

	input  textinput.Model
	help   help.Model
	keys   keyMap
	width  int
	height int
}

// NewModel creates the TUI model. The error slot must be the one installed
// as the client's error sink.
func NewModel(ctx context.Context, registry *watch.Registry, session *upload.Session, slot *ErrorSlot) *Model {
	input := textinput.New()
	input.Placeholder = "magnet:?xt=urn:btih:... or https://example.com/file.torrent"
	input.CharLimit = 0
	input.Width = 72

	return &Model{
		ctx:      ctx,
		registry: registry,
		session:  session,
		slot:     slot,
		view:     torrentListView,
		input:    input,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init starts the refresh tick.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.tick(), textinput.Blink)
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(refreshEvery, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.snap = m.registry.Snapshot()
		return m, m.tick()

	case previewDoneMsg:
		m.busy = false
		if msg.err != nil {
			// Preview failure discards the payload; the error shows
			// up in the dismissible banner via the error slot.
			m.view = torrentListView
			return m, nil
		}
		m.cursor = 0
		m.view = fileSelectView
		return m, nil

	case confirmDoneMsg:
		m.busy = false
		if msg.err == nil {
			// The next registry tick picks up the new torrent.
			m.view = torrentListView
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case torrentListView:
			return m.handleListKeys(msg)
		case addInputView:
			return m.handleInputKeys(msg)
		case fileSelectView:
			return m.handleSelectKeys(msg)
		}
	}

	return m, nil
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "x":
		m.slot.Clear()
		return m, nil
	case "a":
		m.view = addInputView
		m.inputErr = nil
		m.input.Reset()
		m.input.Focus()
		return m, textinput.Blink
	}
	return m, nil
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = torrentListView
		m.session.Reset()
		return m, nil
	case "enter":
		if m.busy {
			return m, nil
		}
		payload, err := upload.MagnetPayload(m.input.Value())
		if err != nil {
			m.inputErr = err
			return m, nil
		}
		m.inputErr = nil
		m.busy = true
		return m, m.previewCmd(payload)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleSelectKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	manifest := m.session.Manifest()
	if manifest == nil {
		m.view = torrentListView
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.session.Reset()
		m.view = torrentListView
		return m, nil
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(manifest.Files)-1 {
			m.cursor++
		}
		return m, nil
	case " ":
		m.session.Toggle(m.cursor)
		return m, nil
	case "enter":
		if m.busy || !m.session.CanConfirm() {
			return m, nil
		}
		m.busy = true
		return m, m.confirmCmd()
	}
	return m, nil
}

func (m *Model) previewCmd(payload *upload.Payload) tea.Cmd {
	return func() tea.Msg {
		return previewDoneMsg{err: m.session.Preview(m.ctx, payload)}
	}
}

func (m *Model) confirmCmd() tea.Cmd {
	return func() tea.Msg {
		return confirmDoneMsg{err: m.session.Confirm(m.ctx)}
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("rqwatch"))
	b.WriteString("\n")

	if m.snap.Err != nil {
		b.WriteString(staleBannerStyle.Render("torrent list refresh failing: " + m.snap.Err.Error()))
		b.WriteString("\n")
	}
	if err := m.slot.Current(); err != nil {
		b.WriteString(bannerStyle.Render(err.Text + "  (x to dismiss)"))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch m.view {
	case addInputView:
		b.WriteString(m.renderAddInput())
	case fileSelectView:
		b.WriteString(m.renderFileSelect())
	default:
		b.WriteString(m.renderTorrentList())
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	return b.String()
}

func (m *Model) renderTorrentList() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("%-40s %8s %12s %10s %6s %8s",
		"NAME", "DONE", "SIZE", "SPEED", "PEERS", "ETA")))
	b.WriteString("\n")

	if len(m.snap.Torrents) == 0 {
		if m.snap.Loading && m.snap.Err == nil {
			b.WriteString(mutedStyle.Render("loading torrents..."))
		} else {
			b.WriteString(mutedStyle.Render("no torrents"))
		}
		b.WriteString("\n")
		return b.String()
	}

	for _, t := range m.snap.Torrents {
		name := displayName(t)
		if len(name) > 40 {
			name = name[:37] + "..."
		}

		if t.Stats == nil {
			b.WriteString(fmt.Sprintf("%-40s %s\n", name, mutedStyle.Render("waiting for stats")))
			continue
		}

		line := fmt.Sprintf("%-40s %8s %12s %10s %6d %8s",
			name,
			formatProgress(t.Stats),
			formatBytes(t.Stats.TotalBytes),
			t.Stats.DownloadSpeed.HumanReadable,
			t.Stats.PeerStats.Live,
			formatETA(t.Stats),
		)
		if t.StatsErr != nil {
			// Stale snapshot: data freezes, polling has backed off.
			line = mutedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	return b.String()
}

func (m *Model) renderAddInput() string {
	var b strings.Builder
	b.WriteString("Add torrent\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	if m.inputErr != nil {
		b.WriteString(errTextStyle.Render(m.inputErr.Error()))
		b.WriteString("\n")
	}
	if m.busy {
		b.WriteString(mutedStyle.Render("fetching file list..."))
		b.WriteString("\n")
	}
	b.WriteString(mutedStyle.Render("enter to preview, esc to cancel"))
	return dialogStyle.Render(b.String())
}

func (m *Model) renderFileSelect() string {
	manifest := m.session.Manifest()
	if manifest == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Select files: %s\n\n", m.session.PayloadName()))

	for i, f := range manifest.Files {
		mark := "[ ]"
		if m.session.Selected(i) {
			mark = "[x]"
		}
		line := fmt.Sprintf("%s %s  %s", mark, f.Name, mutedStyle.Render(formatBytes(f.Length)))
		if i == m.cursor {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if err := m.session.Err(); err != nil {
		b.WriteString(errTextStyle.Render(err.Error()))
		b.WriteString("\n")
	}
	if m.busy {
		b.WriteString(mutedStyle.Render("adding torrent..."))
		b.WriteString("\n")
	}
	if !m.session.CanConfirm() && !m.busy {
		b.WriteString(mutedStyle.Render("select at least one file"))
		b.WriteString("\n")
	}
	b.WriteString(mutedStyle.Render("space to toggle, enter to add, esc to cancel"))
	return dialogStyle.Render(b.String())
}
