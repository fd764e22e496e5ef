//go:build !portaudio

// ABOUTME: PortAudio microphone stub when library not available
// ABOUTME: Provides compile-time placeholder when PortAudio not installed
package capture

import (
	"fmt"

	"github.com/Sendspin/duplex-go/pkg/audio"
)

// NewMicrophone reports that PortAudio support is not compiled in
func NewMicrophone(format audio.Format) (Source, error) {
	return nil, fmt.Errorf("PortAudio support not enabled (build with -tags portaudio)")
}
