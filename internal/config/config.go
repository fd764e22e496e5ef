// ABOUTME: Application configuration loaded with viper
// ABOUTME: Defaults, config file and DUPLEX_ environment overrides
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/Sendspin/duplex-go/pkg/audio"
	"github.com/Sendspin/duplex-go/pkg/audio/capture"
)

// EnvPrefix prefixes environment overrides, e.g. DUPLEX_RECORD_SECONDS
const EnvPrefix = "DUPLEX"

// Config holds all application settings
type Config struct {
	// Capture format
	SampleRate int `mapstructure:"sample_rate"`
	Channels   int `mapstructure:"channels"`
	BitDepth   int `mapstructure:"bit_depth"`

	// Playback format every played stream is converted to
	PlaybackRate     int `mapstructure:"playback_rate"`
	PlaybackChannels int `mapstructure:"playback_channels"`
	PlaybackBitDepth int `mapstructure:"playback_bit_depth"`

	// Recording
	RecordSeconds int    `mapstructure:"record_seconds"`
	RecordPath    string `mapstructure:"record_path"`
	RecordFormat  string `mapstructure:"record_format"` // pcm or wav

	// Music library
	MusicDir  string `mapstructure:"music_dir"`
	MusicFile string `mapstructure:"music_file"`
	MusicExt  string `mapstructure:"music_ext"`

	StorageRoot string `mapstructure:"storage_root"`

	// Copier
	BufferSize    int   `mapstructure:"buffer_size"`
	ProgressEvery int64 `mapstructure:"progress_every"`
	CarryPartial  bool  `mapstructure:"carry_partial"`

	// Sequencer
	IdleInterval time.Duration `mapstructure:"idle_interval"`
	MaxAttempts  int           `mapstructure:"max_attempts"`

	// Devices
	Capture        string `mapstructure:"capture"`
	Output         string `mapstructure:"output"`
	Volume         int    `mapstructure:"volume"`
	WebSocketURL   string `mapstructure:"websocket_url"`
	WebSocketCodec string `mapstructure:"websocket_codec"`
	MonitorAddr    string `mapstructure:"monitor_addr"`

	// MDNS advertises the monitor and lets a websocket output without a
	// url find one
	MDNS bool `mapstructure:"mdns"`

	// Logging
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`

	TUI bool `mapstructure:"tui"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sample_rate", 16000)
	v.SetDefault("channels", 1)
	v.SetDefault("bit_depth", 32)
	v.SetDefault("playback_rate", 44100)
	v.SetDefault("playback_channels", 2)
	v.SetDefault("playback_bit_depth", 16)
	v.SetDefault("record_seconds", 10)
	v.SetDefault("record_path", "/rec.pcm")
	v.SetDefault("record_format", "pcm")
	v.SetDefault("music_dir", "/music")
	v.SetDefault("music_file", "a1.mp3")
	v.SetDefault("music_ext", ".mp3")
	v.SetDefault("storage_root", "card")
	v.SetDefault("buffer_size", 512)
	v.SetDefault("progress_every", 1600)
	v.SetDefault("carry_partial", false)
	v.SetDefault("idle_interval", 20*time.Millisecond)
	v.SetDefault("max_attempts", 3)
	v.SetDefault("capture", "tone")
	v.SetDefault("output", "oto")
	v.SetDefault("volume", 55)
	v.SetDefault("websocket_url", "")
	v.SetDefault("websocket_codec", "pcm")
	v.SetDefault("monitor_addr", ":8927")
	v.SetDefault("mdns", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("tui", false)
}

// Default returns the built-in settings without reading a file or the environment
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		panic(fmt.Sprintf("invalid default config: %v", err))
	}
	return cfg
}

// Load reads configuration from cfgFile (optional) and the environment.
// Without cfgFile a duplex.yaml in the working directory is used if present.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("duplex")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return cfg, nil
}

// CaptureFormat returns the PCM layout recorded from the capture source.
// The i2s board always produces 32-bit stereo.
func (c *Config) CaptureFormat() audio.Format {
	if c.Capture == capture.KindI2S {
		return capture.BoardFormat(c.SampleRate)
	}
	return audio.Format{
		Codec:      "pcm",
		SampleRate: c.SampleRate,
		Channels:   c.Channels,
		BitDepth:   c.BitDepth,
	}
}

// PlaybackFormat returns the PCM layout written to the output
func (c *Config) PlaybackFormat() audio.Format {
	return audio.Format{
		Codec:      "pcm",
		SampleRate: c.PlaybackRate,
		Channels:   c.PlaybackChannels,
		BitDepth:   c.PlaybackBitDepth,
	}
}

// RecordSamples is the recording length in samples (channel frames)
func (c *Config) RecordSamples() int64 {
	return int64(c.RecordSeconds) * int64(c.SampleRate)
}
