// Package cmd wires configuration, storage and the combiner into the CLI.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"listing_combiner/combiner"
	"listing_combiner/config"
	"listing_combiner/logging"
	"listing_combiner/storage"
)

// app is the state shared by subcommands after PersistentPreRunE.
type app struct {
	cfg     *config.Config
	logFile *logging.RotatingWriter
}

// NewRootCommand builds the combiner command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "combiner",
		Short:         "Reconcile property feed files into one listing set",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
				cfg.LogLevel = lvl
			}
			a.cfg = cfg

			logFile, err := logging.Setup(cfg.Paths.DaemonLog, cfg.LogLevel)
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning: could not set up file logging: %v\n", err)
			} else {
				a.logFile = logFile
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logFile != nil {
				a.logFile.Close()
			}
		},
	}
	root.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")

	root.AddCommand(newRunCommand(a), newServeCommand(a))
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context) int {
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("combiner failed")
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

// orchestrator builds the combiner with the configured store and optional publisher.
func (a *app) orchestrator(ctx context.Context) (*combiner.Orchestrator, error) {
	o := combiner.NewOrchestrator(a.cfg, storage.NewOpener(a.cfg.Database))
	log.Info().Str("driver", a.cfg.Database.Driver).Str("target", a.storeTarget()).Msg("store configured")

	s3cfg := storage.S3Config{
		Bucket:          a.cfg.S3.Bucket,
		Region:          a.cfg.S3.Region,
		Endpoint:        a.cfg.S3.Endpoint,
		AccessKeyID:     a.cfg.S3.AccessKeyID,
		SecretAccessKey: a.cfg.S3.SecretAccessKey,
	}
	if s3cfg.Enabled() {
		uploader, err := storage.NewS3Uploader(ctx, s3cfg)
		if err != nil {
			return nil, fmt.Errorf("s3 uploader: %w", err)
		}
		o.SetPublisher(uploader, a.cfg.S3.OutputKey)
		log.Info().Str("bucket", a.cfg.S3.Bucket).Str("key", a.cfg.S3.OutputKey).Msg("publishing enabled")
	}
	return o, nil
}

func (a *app) storeTarget() string {
	if a.cfg.Database.Driver == storage.DriverPostgres {
		return maskConnectionString(a.cfg.Database.URL)
	}
	return a.cfg.Database.Path
}

// maskConnectionString masks password in connection string for logging
func maskConnectionString(connStr string) string {
	start := strings.Index(connStr, "://")
	if start < 0 {
		return connStr
	}
	start += 3

	at := strings.LastIndex(connStr, "@")
	if at < start {
		return connStr
	}
	colon := strings.Index(connStr[start:at], ":")
	if colon < 0 {
		return connStr
	}
	return connStr[:start+colon+1] + "****" + connStr[at:]
}
