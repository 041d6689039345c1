package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nostrforge/relay/internal/application"
	"github.com/nostrforge/relay/internal/config"
	"github.com/nostrforge/relay/internal/logger"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "relay",
	Short: "relay is a Nostr relay core: ingest, store, and fan out signed events",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}

		flags := cmd.Flags()
		if flags.Changed("log-level") {
			cfg.Logging.Level, _ = flags.GetString("log-level")
		}
		if flags.Changed("db-path") {
			cfg.Storage.Path, _ = flags.GetString("db-path")
		}

		if err := config.InitLogger(cfg.Logging); err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// Execute runs the root command with ctx as its cancellation source.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to a YAML config file, merged over the defaults")
	rootCmd.PersistentFlags().String("log-level", "", "override the configured log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("db-path", "", "override the configured store file path")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "print the relay version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(versionString())
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "start the relay and block until shutdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			node, err := application.New(cfg)
			if err != nil {
				logger.Error("failed to initialize relay", zap.Error(err))
				return err
			}

			node.Start(ctx)
			logger.Info("relay started", zap.String("version", version))

			serveErr := node.Wait()

			if shutdownErr := node.Shutdown(); shutdownErr != nil {
				logger.Error("shutdown error", zap.Error(shutdownErr))
			}
			return serveErr
		},
	})
}
