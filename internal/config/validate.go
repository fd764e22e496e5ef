// ABOUTME: Configuration validation
// ABOUTME: Collects every invalid setting instead of stopping at the first
package config

import (
	"fmt"
	"net/url"
	"strings"
)

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var (
	validCaptures      = map[string]bool{"tone": true, "portaudio": true, "i2s": true}
	validOutputs       = map[string]bool{"oto": true, "portaudio": true, "websocket": true, "discard": true}
	validRecordFormats = map[string]bool{"pcm": true, "wav": true}
)

// Validate checks the config and returns all errors found
func (c *Config) Validate() []error {
	var errs []error

	if err := c.CaptureFormat().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("capture format: %w", err))
	}

	if err := c.PlaybackFormat().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("playback format: %w", err))
	} else if c.PlaybackChannels > 2 {
		errs = append(errs, fmt.Errorf("playback_channels %d must be 1 or 2", c.PlaybackChannels))
	}

	if c.RecordSeconds <= 0 {
		errs = append(errs, fmt.Errorf("record_seconds %d must be positive", c.RecordSeconds))
	}
	if c.RecordPath == "" {
		errs = append(errs, fmt.Errorf("record_path must be set"))
	}
	if !validRecordFormats[c.RecordFormat] {
		errs = append(errs, fmt.Errorf("record_format %q is not valid (use pcm or wav)", c.RecordFormat))
	}
	if c.MusicExt != "" && !strings.HasPrefix(c.MusicExt, ".") {
		errs = append(errs, fmt.Errorf("music_ext %q must start with a dot", c.MusicExt))
	}

	if c.BufferSize <= 0 {
		errs = append(errs, fmt.Errorf("buffer_size %d must be positive", c.BufferSize))
	}
	if c.ProgressEvery < 0 {
		errs = append(errs, fmt.Errorf("progress_every %d must not be negative", c.ProgressEvery))
	}
	if c.IdleInterval <= 0 {
		errs = append(errs, fmt.Errorf("idle_interval %s must be positive", c.IdleInterval))
	}
	if c.MaxAttempts < 0 {
		errs = append(errs, fmt.Errorf("max_attempts %d must not be negative", c.MaxAttempts))
	}

	if !validCaptures[c.Capture] {
		errs = append(errs, fmt.Errorf("capture %q is not valid (use tone, portaudio or i2s)", c.Capture))
	}
	if !validOutputs[c.Output] {
		errs = append(errs, fmt.Errorf("output %q is not valid (use oto, portaudio, websocket or discard)", c.Output))
	}
	if c.Volume < 0 || c.Volume > 100 {
		errs = append(errs, fmt.Errorf("volume %d must be between 0 and 100", c.Volume))
	}

	if c.Output == "websocket" {
		u, err := url.Parse(c.WebSocketURL)
		switch {
		case c.WebSocketURL == "" && c.MDNS:
		case c.WebSocketURL == "":
			errs = append(errs, fmt.Errorf("websocket_url is required for the websocket output unless mdns is enabled"))
		case err != nil:
			errs = append(errs, fmt.Errorf("websocket_url %q is not a valid URL: %w", c.WebSocketURL, err))
		case u.Scheme != "ws" && u.Scheme != "wss":
			errs = append(errs, fmt.Errorf("websocket_url scheme must be ws or wss, got %q", u.Scheme))
		}
	}
	if c.WebSocketCodec != "pcm" && c.WebSocketCodec != "opus" {
		errs = append(errs, fmt.Errorf("websocket_codec %q is not valid (use pcm or opus)", c.WebSocketCodec))
	}

	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Errorf("log_level %q is not valid (use debug, info, warn, error)", c.LogLevel))
	}

	return errs
}
