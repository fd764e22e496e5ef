// ABOUTME: Phase sequencer package
// ABOUTME: Drives record, playback and file play as an explicit state machine
// Package sequence runs the record then play back then play file sequence.
//
// The current position is a single Phase, so states such as "played back
// but never recorded" cannot be expressed. A ticker paces the loop.
//
// Example:
//
//	seq := &sequence.Sequencer{Steps: map[sequence.Phase]sequence.StepFunc{
//		sequence.Recording:   record,
//		sequence.PlayingBack: playback,
//		sequence.PlayingFile: playFile,
//	}, MaxAttempts: 3}
//	final, err := seq.Run(ctx)
package sequence
