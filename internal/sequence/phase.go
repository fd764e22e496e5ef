// ABOUTME: Phase enumeration for the record and playback sequence
// ABOUTME: Replaces independent progress flags with one ordered state
package sequence

// Phase is a position in the sequence
type Phase int

// Phases in execution order; Failed is reached only from an exhausted retry
const (
	Idle Phase = iota
	Recording
	PlayingBack
	PlayingFile
	Done
	Failed
)

var phaseNames = [...]string{
	Idle:        "idle",
	Recording:   "recording",
	PlayingBack: "playing back",
	PlayingFile: "playing file",
	Done:        "done",
	Failed:      "failed",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// Next returns the phase after p. Terminal phases return themselves.
func (p Phase) Next() Phase {
	if p.Terminal() {
		return p
	}
	return p + 1
}

// Terminal reports whether the sequence has stopped
func (p Phase) Terminal() bool {
	return p == Done || p == Failed
}
