// ABOUTME: Cobra root command and shared setup for duplex-go
// ABOUTME: Loads config, applies flag overrides and builds logger and storage
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/Sendspin/duplex-go/internal/config"
	"github.com/Sendspin/duplex-go/internal/logging"
	"github.com/Sendspin/duplex-go/internal/storage"
)

// options holds persistent flag values
type options struct {
	cfgFile        string
	logLevel       string
	logFile        string
	tui            bool
	capture        string
	output         string
	storageRoot    string
	volume         int
	websocketURL   string
	websocketCodec string
	carryPartial   bool
	mdns           bool
}

// env is everything a command needs after setup
type env struct {
	cfg     *config.Config
	logger  *zap.Logger
	volume  *storage.Volume
	cleanup func()
}

// NewRootCommand builds the duplex command tree
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "duplex",
		Short:         "Full-duplex audio: record, play back, play music",
		Long:          `duplex records from a capture source onto a storage volume, plays the recording back and then plays a music file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	opts.bindFlags(root.PersistentFlags())

	root.AddCommand(
		newRunCommand(opts),
		newRecordCommand(opts),
		newPlayCommand(opts),
		newPassthroughCommand(opts),
		newMonitorCommand(opts),
		newFetchCommand(opts),
		newVersionCommand(),
	)
	return root
}

func (o *options) bindFlags(flags *pflag.FlagSet) {
	flags.StringVar(&o.cfgFile, "config", "", "config file (default is ./duplex.yaml)")
	flags.StringVar(&o.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&o.logFile, "log-file", "", "write JSON logs to this file")
	flags.BoolVar(&o.tui, "tui", false, "show the progress TUI")
	flags.StringVar(&o.capture, "capture", "", "capture source: tone, portaudio, i2s")
	flags.StringVar(&o.output, "output", "", "output: oto, portaudio, websocket, discard")
	flags.StringVar(&o.storageRoot, "storage", "", "storage volume root directory")
	flags.IntVar(&o.volume, "volume", 0, "playback volume 0-100")
	flags.StringVar(&o.websocketURL, "websocket-url", "", "monitor url for the websocket output")
	flags.StringVar(&o.websocketCodec, "websocket-codec", "", "websocket output codec: pcm, opus")
	flags.BoolVar(&o.carryPartial, "carry-partial", false, "carry partial samples between reads instead of dropping them")
	flags.BoolVar(&o.mdns, "mdns", false, "advertise the monitor, or find one for the websocket output")
}

// Execute runs the root command with a context cancelled on SIGINT or SIGTERM
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}

// loadConfig reads the config file and environment, then applies flags
// that were set explicitly
func (o *options) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.cfgFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("log-file") {
		cfg.LogFile = o.logFile
	}
	if flags.Changed("tui") {
		cfg.TUI = o.tui
	}
	if flags.Changed("capture") {
		cfg.Capture = o.capture
	}
	if flags.Changed("output") {
		cfg.Output = o.output
	}
	if flags.Changed("storage") {
		cfg.StorageRoot = o.storageRoot
	}
	if flags.Changed("volume") {
		cfg.Volume = o.volume
	}
	if flags.Changed("websocket-url") {
		cfg.WebSocketURL = o.websocketURL
	}
	if flags.Changed("websocket-codec") {
		cfg.WebSocketCodec = o.websocketCodec
	}
	if flags.Changed("carry-partial") {
		cfg.CarryPartial = o.carryPartial
	}
	if flags.Changed("mdns") {
		cfg.MDNS = o.mdns
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

func (o *options) setup(cmd *cobra.Command) (*env, error) {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger, cleanup, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		Console: !cfg.TUI,
	})
	if err != nil {
		return nil, err
	}

	volume, err := storage.NewOSVolume(cfg.StorageRoot)
	if err != nil {
		cleanup()
		return nil, err
	}

	return &env{cfg: cfg, logger: logger, volume: volume, cleanup: cleanup}, nil
}
