package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"campus-assistant/internal/app"
	"campus-assistant/internal/pipeline/ingest"
	"campus-assistant/pkg/config"
)

var errSourcesFailed = errors.New("one or more sources failed to ingest")

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		configPath string
		size       int
		overlap    int
		splitter   string
	)
	cmd := &cobra.Command{
		Use:           "ingest <path>...",
		Short:         "Load PDF, text and markdown documents into the knowledge base",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfigOrDefault(configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("chunk-size") {
				cfg.Chunking.Size = size
			}
			if flags.Changed("chunk-overlap") {
				cfg.Chunking.Overlap = overlap
			}
			if flags.Changed("splitter") {
				cfg.Chunking.Splitter = splitter
			}
			return run(cmd.Context(), cfg, args, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath, "Path to the YAML config file")
	cmd.Flags().IntVar(&size, "chunk-size", 1000, "Chunk window size")
	cmd.Flags().IntVar(&overlap, "chunk-overlap", 100, "Overlap between consecutive chunks")
	cmd.Flags().StringVar(&splitter, "splitter", "window", "Splitter to use: window or token")
	return cmd
}

func run(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := app.NewBootstrap(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	sources, err := ingest.CollectSources(args)
	if err != nil {
		return err
	}
	ingester, err := b.NewIngester(ctx)
	if err != nil {
		return err
	}
	report, err := ingester.Run(ctx, sources)
	for _, res := range report.Results {
		switch {
		case res.Err != nil:
			fmt.Fprintf(out, "FAILED  %s: %v\n", res.Source, res.Err)
		case res.Skipped:
			fmt.Fprintf(out, "SKIPPED %s: no extractable text\n", res.Source)
		default:
			fmt.Fprintf(out, "OK      %s: %d chunks\n", res.Source, res.Chunks)
		}
	}
	fmt.Fprintf(out, "%d chunks from %d sources\n", report.Total(), len(report.Results))
	if err != nil {
		return err
	}
	if report.Failed() {
		return errSourcesFailed
	}
	return nil
}
