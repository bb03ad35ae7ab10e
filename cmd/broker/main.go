// Command broker runs the altmq TCP broker: a segmented commit-log
// storage engine behind a length-framed binary protocol.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/altmq/altmq-go/internal/agent"
	"github.com/altmq/altmq-go/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "broker",
		Short: "Run the altmq TCP broker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(config.FromViper(v))
		},
	}

	config.RegisterFlags(cmd, v)
	return cmd
}

func run(cfg config.Config) error {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("broker: invalid log level %q: %w", cfg.LogLevel, err)
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Str("service", "broker").Logger()

	a, err := agent.New(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to start broker")
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("shutting down")
	if err := a.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		return err
	}
	return nil
}
