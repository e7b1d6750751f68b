package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"campus-assistant/internal/app"
	"campus-assistant/internal/runtime/session"
	"campus-assistant/pkg/config"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:           "assistant",
		Short:         "Interactive college assistant backed by news, notifications and the document knowledge base",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath, "Path to the YAML config file")
	return cmd
}

func run(ctx context.Context, configPath string, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfigOrDefault(configPath)
	if err != nil {
		return err
	}
	b, err := app.NewBootstrap(cfg)
	if err != nil {
		return err
	}
	defer b.Close()
	if err := b.StartMonitoring(); err != nil {
		return err
	}

	client, err := b.NewLLMClient(ctx)
	if err != nil {
		return err
	}
	manager, err := b.NewSessionManager()
	if err != nil {
		return err
	}

	return manager.Run(ctx, func(ctx context.Context, s *session.Session) error {
		p, err := b.NewPipeline(client, s)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s (%s)\n%s\n", cfg.Assistant.Name, client.Model(), cfg.Assistant.Greeting)
		reason, err := session.RunLoop(ctx, in, out, p, session.LoopOptions{
			Prompt:   "\nYou: ",
			Farewell: cfg.Assistant.Farewell,
			Logger:   b.Logger,
		})
		if reason == session.StopCancelled {
			fmt.Fprintln(out, "\n"+cfg.Assistant.Farewell)
		}
		return err
	})
}
