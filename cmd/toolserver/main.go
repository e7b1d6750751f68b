package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"campus-assistant/internal/api/mcpserver"
	"campus-assistant/internal/app"
	"campus-assistant/pkg/config"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		configPath string
		metrics    bool
	)
	cmd := &cobra.Command{
		Use:           "toolserver",
		Short:         "MCP stdio server exposing the college news, notifications and knowledge base tools",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath, metrics)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath, "Path to the YAML config file")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "Serve Prometheus metrics (off by default, the assistant usually owns the port)")
	return cmd
}

// stdout 是协议通道，日志与诊断只写 stderr
func run(ctx context.Context, configPath string, metrics bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfigOrDefault(configPath)
	if err != nil {
		return err
	}
	cfg.Monitoring.Prometheus.Enable = cfg.Monitoring.Prometheus.Enable && metrics
	b, err := app.NewBootstrap(cfg)
	if err != nil {
		return err
	}
	defer b.Close()
	if err := b.StartMonitoring(); err != nil {
		return err
	}

	srv, err := b.NewToolServer(ctx)
	if err != nil {
		return err
	}
	b.Logger.Info("tool server ready", "transport", "stdio")
	return mcpserver.ServeStdio(ctx, srv, os.Stdin, os.Stdout, os.Stderr)
}
