package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cyberwithvishal/riyu/runtime/audio"
	"github.com/cyberwithvishal/riyu/runtime/conversation"
	"github.com/cyberwithvishal/riyu/runtime/live"
	"github.com/cyberwithvishal/riyu/runtime/logger"
	"github.com/cyberwithvishal/riyu/runtime/metrics/prometheus"
	"github.com/cyberwithvishal/riyu/runtime/providers/gemini"
	"github.com/cyberwithvishal/riyu/runtime/types"
)

const shutdownTimeout = 5 * time.Second

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Start a Gemini Live voice session",
	Long: `Open the microphone and speaker and talk to the active agent.

While the session runs, type on stdin:

  camera | screen   toggle the visual mode (same mode again stops the session)
  none             drop visual capture
  stop             end the session
  anything else    is sent as a text chat turn`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLive(cmd)
	},
}

func init() {
	rootCmd.AddCommand(liveCmd)
	liveCmd.Flags().String("visual", string(types.VisualNone), "Initial visual mode: none, camera or screen")
	liveCmd.Flags().Bool("open-urls", false, "Let the web control tool open URLs with xdg-open")
	liveCmd.Flags().Bool("run-commands", false, "Let the linux command tool run shell commands")
	liveCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address")
	_ = viper.BindPFlag("metrics.addr", liveCmd.Flags().Lookup("metrics-addr"))
}

func runLive(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mode, err := types.ParseVisualMode(strings.ToLower(mustString(cmd, "visual")))
	if err != nil {
		return err
	}
	cfg, err := loadSettings(viper.GetViper())
	if err != nil {
		return err
	}
	if cfg.Spec.Gemini.APIKey == "" {
		return errMissingAPIKey
	}
	shutdown, err := setupObservability(ctx, cfg, viper.GetBool(flagVerbose))
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(context.Background()) }()

	a, err := openApp(ctx, cfg, toolFlags(cmd))
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if addr := cfg.Spec.Metrics.Addr; addr != "" {
		exporter := prometheus.NewExporter(addr)
		go func() {
			if err := exporter.Start(); err != nil {
				logger.Error("metrics exporter failed", "error", err)
			}
		}()
		defer shutdownExporter(exporter)
	}

	dev, err := openDevices(cfg.Spec.Audio)
	if err != nil {
		return err
	}
	defer dev.Close()

	bridge := live.NewBridge(live.Config{
		Dialer: live.GeminiDialer{Base: gemini.StreamSessionConfig{
			URL:             cfg.Spec.Gemini.LiveURL,
			APIKey:          cfg.Spec.Gemini.APIKey,
			Model:           cfg.Spec.Gemini.LiveModel,
			Voice:           cfg.Spec.Gemini.Voice,
			InputSampleRate: cfg.Spec.Audio.CaptureSampleRate,
		}},
		Capture:     audio.NewCaptureManager(dev.Provider),
		Scheduler:   audio.NewScheduler(dev.Mixer),
		Dispatcher:  a.dispatcher,
		UplinkQueue: cfg.Spec.Audio.UplinkQueue,
	})

	chat, err := a.newChat(ctx)
	if err != nil {
		logger.Warn("chat service unavailable, typed turns will fall back", "error", err)
	}

	con := newConsole(cmd.OutOrStdout())
	closed := make(chan error, 1)
	var ctrl *conversation.Controller
	ctrl, err = a.newController(ctx, chat, bridge, conversation.Config{
		OnMessage:     func(m types.Message) { con.Message(ctrl.Agent(), m) },
		OnInterrupted: func() { con.Status("(interrupted)") },
		OnLiveClosed: func(err error) {
			select {
			case closed <- err:
			default:
			}
		},
	})
	if err != nil {
		return err
	}
	defer ctrl.Close()

	if err := ctrl.StartLive(ctx, mode); err != nil {
		return err
	}
	con.Status("%s is listening (visual: %s). Type stop to end.", ctrl.Agent().Name, mode)

	lines := readLines(cmd.InOrStdin())
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-closed:
			if err != nil {
				con.Alert("session closed: %v", err)
				return err
			}
			con.Status("Session closed.")
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			done, err := handleLiveLine(ctx, ctrl, line)
			if err != nil {
				con.Alert("%v", err)
			}
			if done {
				return nil
			}
		}
	}
}

// liveController is the part of conversation.Controller driven from stdin.
type liveController interface {
	ToggleLive(ctx context.Context, mode types.VisualMode) error
	SendMessage(ctx context.Context, text string) (types.Message, error)
	IsLive() bool
	StopLive()
}

// handleLiveLine applies one stdin line. done reports that the session ended.
func handleLiveLine(ctx context.Context, ctrl liveController, line string) (done bool, err error) {
	line = strings.TrimSpace(line)
	switch strings.ToLower(line) {
	case "":
		return false, nil
	case "stop", "quit", "exit":
		ctrl.StopLive()
		return true, nil
	case string(types.VisualCamera), string(types.VisualScreen), string(types.VisualNone):
		if err := ctrl.ToggleLive(ctx, types.VisualMode(strings.ToLower(line))); err != nil {
			return false, err
		}
		return !ctrl.IsLive(), nil
	default:
		_, err := ctrl.SendMessage(ctx, line)
		return false, err
	}
}

// readLines streams lines from r until EOF.
func readLines(r io.Reader) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			out <- sc.Text()
		}
	}()
	return out
}

func mustString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

func shutdownExporter(e *prometheus.Exporter) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("metrics exporter shutdown failed", "error", err)
	}
}
