// ABOUTME: Program construction and the volume control channel pair
// ABOUTME: The app reads key driven volume changes from VolumeControl
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// VolumeChangeMsg carries a volume or mute change made in the TUI
type VolumeChangeMsg struct {
	Volume int
	Muted  bool
}

// QuitMsg is sent when the user quits the TUI
type QuitMsg struct{}

// VolumeControl carries volume changes and the quit request out of the TUI
type VolumeControl struct {
	Changes chan VolumeChangeMsg
	Quit    chan QuitMsg
}

// NewVolumeControl creates buffered channels so key handling never blocks
func NewVolumeControl() *VolumeControl {
	return &VolumeControl{
		Changes: make(chan VolumeChangeMsg, 10),
		Quit:    make(chan QuitMsg, 1),
	}
}

// NewModel creates a model in the idle phase
func NewModel(volCtrl *VolumeControl, volume int) Model {
	return Model{
		phase:      "idle",
		volume:     volume,
		volumeCtrl: volCtrl,
	}
}

// NewProgram creates the TUI program on the alternate screen. The caller
// starts it with Run on its own goroutine and feeds it StatusMsg and
// ProgressMsg through Send.
func NewProgram(volCtrl *VolumeControl, volume int, opts ...tea.ProgramOption) *tea.Program {
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	return tea.NewProgram(NewModel(volCtrl, volume), opts...)
}
