// ABOUTME: duplex subcommands
// ABOUTME: run, record, play, passthrough, monitor, fetch and version
package cli

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Sendspin/duplex-go/internal/app"
	"github.com/Sendspin/duplex-go/internal/discovery"
	"github.com/Sendspin/duplex-go/internal/fetch"
	"github.com/Sendspin/duplex-go/internal/monitor"
	"github.com/Sendspin/duplex-go/internal/ui"
	"github.com/Sendspin/duplex-go/internal/version"
)

const discoveryTimeout = 10 * time.Second

func newRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Record, play the recording back, then play a music file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App, e *env) error {
				phase, err := a.Run(ctx)
				if err != nil {
					return err
				}
				e.logger.Info("sequence finished", zap.Stringer("phase", phase))
				return nil
			})
		},
	}
}

func newRecordCommand(opts *options) *cobra.Command {
	var seconds int
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record from the capture source onto the volume",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App, e *env) error {
				if cmd.Flags().Changed("seconds") {
					e.cfg.RecordSeconds = seconds
				}
				return a.Record(ctx)
			})
		},
	}
	cmd.Flags().IntVar(&seconds, "seconds", 0, "recording length in seconds")
	return cmd
}

func newPlayCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "play [file]",
		Short: "Play a music file, or the recording when no file is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App, e *env) error {
				if len(args) == 0 {
					return a.PlayRecording(ctx)
				}
				return a.PlayFile(ctx, args[0])
			})
		},
	}
}

func newPassthroughCommand(opts *options) *cobra.Command {
	var seconds int
	cmd := &cobra.Command{
		Use:   "passthrough",
		Short: "Copy the capture source straight to the output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App, e *env) error {
				return a.Passthrough(ctx, seconds)
			})
		},
	}
	cmd.Flags().IntVar(&seconds, "seconds", 0, "stop after this many seconds (0 runs until interrupted)")
	return cmd
}

func newMonitorCommand(opts *options) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Receive websocket outputs and record them as WAV files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			defer e.cleanup()

			if cmd.Flags().Changed("addr") {
				e.cfg.MonitorAddr = addr
			}
			srv := monitor.New(e.volume, monitor.Config{
				Addr:   e.cfg.MonitorAddr,
				Logger: e.logger,
			})

			if e.cfg.MDNS {
				port, err := portOf(e.cfg.MonitorAddr)
				if err != nil {
					return err
				}
				mgr := discovery.NewManager(discovery.Config{Port: port, Path: monitor.Path, Logger: e.logger})
				if err := mgr.Advertise(); err != nil {
					e.logger.Warn("mdns advertisement failed", zap.Error(err))
				}
				defer mgr.Stop()
			}
			if err := srv.Run(cmd.Context()); err != nil {
				return err
			}
			for _, s := range srv.Sessions() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d frames\n", s.ID, s.Path, s.Frames)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func newFetchCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <url>",
		Short: "Download a music file into the music directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			defer e.cleanup()

			dl := fetch.NewDownloader(e.volume, e.cfg.MusicDir, e.logger)
			p, err := dl.Download(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p)
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s v%s\n", version.Product, version.Version)
		},
	}
}

// withApp sets up the environment, optionally starts the TUI and runs fn
func (o *options) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App, e *env) error) error {
	e, err := o.setup(cmd)
	if err != nil {
		return err
	}
	defer e.cleanup()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if e.cfg.Output == "websocket" && e.cfg.WebSocketURL == "" {
		info, err := discovery.Find(ctx, discoveryTimeout, e.logger)
		if err != nil {
			return err
		}
		e.cfg.WebSocketURL = info.URL()
	}

	var appOpts []app.Option
	var prog *tea.Program
	var ctrl *ui.VolumeControl
	if e.cfg.TUI {
		ctrl = ui.NewVolumeControl()
		prog = ui.NewProgram(ctrl, e.cfg.Volume)
		appOpts = append(appOpts, app.WithUI(prog))
	}

	a := app.New(e.cfg, e.volume, e.logger, appOpts...)

	tuiDone := make(chan struct{})
	if prog != nil {
		go func() {
			defer close(tuiDone)
			if _, err := prog.Run(); err != nil {
				e.logger.Error("TUI error", zap.Error(err))
			}
			cancel()
		}()
		go func() {
			a.WatchVolume(ctx, ctrl)
			cancel()
		}()
	} else {
		close(tuiDone)
	}

	err = fn(ctx, a, e)
	if prog != nil {
		prog.Quit()
	}
	<-tuiDone
	return err
}

// portOf returns the port of a listen address such as ":8927"
func portOf(addr string) (int, error) {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, fmt.Errorf("invalid monitor address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return 0, fmt.Errorf("invalid monitor port %q: %w", p, err)
	}
	return port, nil
}
