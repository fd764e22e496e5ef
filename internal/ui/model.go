// ABOUTME: Bubbletea model for the duplex TUI
// ABOUTME: Shows the current phase, copy progress and playback volume
package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Model represents the TUI state
type Model struct {
	// Sequence
	phase   string
	attempt int
	lastErr string

	// Stream
	source     string
	sink       string
	codec      string
	sampleRate int
	channels   int
	bitDepth   int

	// Progress in samples
	transferred int64
	target      int64

	// Playback
	volume int
	muted  bool

	volumeCtrl *VolumeControl

	// Dimensions
	width  int
	height int
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	case ProgressMsg:
		m.transferred = msg.Transferred
		m.target = msg.Target
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString(m.renderStreamInfo())
	b.WriteString(m.renderProgress())
	b.WriteString(m.renderControls())
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderHeader() string {
	status := m.phase
	if m.attempt > 1 {
		status = fmt.Sprintf("%s (attempt %d)", m.phase, m.attempt)
	}
	return fmt.Sprintf(`┌─ Duplex ─────────────────────────────────────────────┐
│ Phase:  %-45s │
├──────────────────────────────────────────────────────┤
`, truncate(status, 45))
}

func (m Model) renderStreamInfo() string {
	if m.source == "" {
		return "│ No stream                                            │\n"
	}

	s := fmt.Sprintf("│ From:   %-45s │\n", truncate(m.source, 45))
	s += fmt.Sprintf("│ To:     %-45s │\n", truncate(m.sink, 45))
	if m.codec != "" {
		format := fmt.Sprintf("%s %dHz %s %d-bit", m.codec, m.sampleRate, channelName(m.channels), m.bitDepth)
		s += fmt.Sprintf("│ Format: %-45s │\n", truncate(format, 45))
	}
	return s
}

func (m Model) renderProgress() string {
	if m.target <= 0 {
		return fmt.Sprintf("│ Copied: %-45d │\n", m.transferred)
	}
	pct := int(m.transferred * 100 / m.target)
	if pct > 100 {
		pct = 100
	}
	return fmt.Sprintf("│ Copied: [%s] %3d%% %d/%d\n", renderBar(pct, 100, 20), pct, m.transferred, m.target)
}

func (m Model) renderControls() string {
	muteIcon := ""
	if m.muted {
		muteIcon = " 🔇"
	}
	s := fmt.Sprintf("│ Volume: [%s] %3d%%%-25s │\n", renderBar(m.volume, 100, 10), m.volume, muteIcon)
	if m.lastErr != "" {
		s += fmt.Sprintf("│ Error:  %-45s │\n", truncate(m.lastErr, 45))
	}
	return s
}

func (m Model) renderHelp() string {
	return `├──────────────────────────────────────────────────────┤
│ ↑/↓:Volume  m:Mute  q:Quit                           │
└──────────────────────────────────────────────────────┘
`
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.volumeCtrl != nil {
			select {
			case m.volumeCtrl.Quit <- QuitMsg{}:
			default:
			}
		}
		return m, tea.Quit
	case "up":
		m.volume = min(m.volume+5, 100)
		m.sendVolume()
	case "down":
		m.volume = max(m.volume-5, 0)
		m.sendVolume()
	case "m":
		m.muted = !m.muted
		m.sendVolume()
	}

	return m, nil
}

func (m Model) sendVolume() {
	if m.volumeCtrl == nil {
		return
	}
	select {
	case m.volumeCtrl.Changes <- VolumeChangeMsg{Volume: m.volume, Muted: m.muted}:
	default:
	}
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Phase != "" {
		if msg.Phase != m.phase {
			m.transferred, m.target = 0, 0
		}
		m.phase = msg.Phase
		m.attempt = msg.Attempt
	}
	if msg.Source != "" {
		m.source = msg.Source
		m.sink = msg.Sink
	}
	if msg.Codec != "" {
		m.codec = msg.Codec
		m.sampleRate = msg.SampleRate
		m.channels = msg.Channels
		m.bitDepth = msg.BitDepth
	}
	if msg.Err != "" {
		m.lastErr = msg.Err
	}
	if msg.Volume != 0 {
		m.volume = msg.Volume
	}
}

// StatusMsg updates TUI state; zero fields are left unchanged
type StatusMsg struct {
	Phase      string
	Attempt    int
	Source     string
	Sink       string
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
	Err        string
	Volume     int
}

// ProgressMsg reports copied samples within the current phase
type ProgressMsg struct {
	Transferred int64
	Target      int64
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func channelName(channels int) string {
	switch channels {
	case 1:
		return "Mono"
	case 2:
		return "Stereo"
	}
	return fmt.Sprintf("%dch", channels)
}
