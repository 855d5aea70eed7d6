package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cyberwithvishal/riyu/runtime/conversation"
	"github.com/cyberwithvishal/riyu/runtime/logger"
	"github.com/cyberwithvishal/riyu/runtime/metrics/prometheus"
	"github.com/cyberwithvishal/riyu/runtime/offline"
	"github.com/cyberwithvishal/riyu/runtime/tools"
	"github.com/cyberwithvishal/riyu/server/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP backend",
	Long: `Serve the status endpoint, the offline command engine, the agent
activity log, text chat and Prometheus metrics on one address.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (default from config, :8000)")
	serveCmd.Flags().Bool("speak", false, "Speak offline replies with espeak")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadSettings(viper.GetViper())
	if err != nil {
		return err
	}
	shutdown, err := setupObservability(ctx, cfg, viper.GetBool(flagVerbose))
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(context.Background()) }()

	a, err := openApp(ctx, cfg, toolOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	runner := tools.ShellRunner{}
	var speaker offline.Speaker
	if speak, _ := cmd.Flags().GetBool("speak"); speak {
		speaker = offline.CommandSpeaker{Runner: runner}
	}

	opts := []api.Option{
		api.WithOfflineEngine(offline.NewEngine(runner, speaker)),
		api.WithAgentLog(a.agentLog),
		api.WithMetrics(prometheus.NewExporter("")),
		api.WithOfflineRateLimit(cfg.Spec.Server.OfflineRateLimit, cfg.Spec.Server.OfflineBurst),
	}
	if chat, err := a.newChat(ctx); err != nil {
		logger.Warn("chat endpoint disabled", "error", err)
	} else {
		ctrl, err := a.newController(ctx, chat, nil, conversation.Config{})
		if err != nil {
			return err
		}
		opts = append(opts, api.WithChat(ctrl))
	}

	srv := api.NewServer(opts...)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(cfg.Spec.Server.Addr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}
