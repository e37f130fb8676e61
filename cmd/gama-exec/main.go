// Command gama-exec runs GAMA on one benchmark fold. The request is read as
// JSON from stdin, or from a JSON, YAML or TOML file given with --config; a
// JSON summary or error_message is written to stdout.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/gamabench/benchmark"
	"github.com/YuminosukeSato/gamabench/frameworks/gama"
	"github.com/YuminosukeSato/gamabench/pkg/log"
)

const (
	ExitCodeRunFailed     = 1
	ExitCodeInvalidConfig = 2
)

const (
	FlagConfig   = "config"
	FlagLogLevel = "log-level"
)

var (
	cfgPath  string
	logLevel string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "gama-exec",
		Short:         "Run the GAMA AutoML framework on one benchmark fold",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	rootCmd.Flags().StringVarP(&cfgPath, FlagConfig, "c", "", "request file (.json, .yaml, .toml); stdin when empty")
	rootCmd.Flags().StringVar(&logLevel, FlagLogLevel, "info", "debug, info, warn or error")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitCodeRunFailed)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	if err := log.SetupLogger(logLevel, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitCodeInvalidConfig)
	}
	if err := gama.InitProcess(); err != nil {
		slog.Error("init process", log.ErrAttr(err))
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	if cfgPath == "" {
		err = benchmark.CallRun(ctx, os.Stdin, os.Stdout, gama.Run)
	} else {
		err = benchmark.CallRunFile(ctx, cfgPath, os.Stdout, gama.Run)
	}
	if err != nil {
		slog.Error("GAMA run failed", log.ErrAttr(err))
	}
	return err
}
