package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"listing_combiner/scheduler"
	"listing_combiner/server"
	"listing_combiner/storage"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Combine at startup, then serve properties and the feed over HTTP",
		Long: `Runs one combine pass, then serves:

  GET /api/properties?status=&bedrooms=&suburb=
  GET /api/properties/{id}
  GET /feed

COMBINE_CRON or COMBINE_INTERVAL schedules further passes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetString("addr"); v != "" {
				a.cfg.Server.Addr = v
			}
			skipInitial, _ := cmd.Flags().GetBool("no-initial-run")
			return a.serve(cmd.Context(), skipInitial)
		},
	}
	cmd.Flags().String("addr", "", "Listen address; overrides HTTP_ADDR")
	cmd.Flags().Bool("no-initial-run", false, "Skip the combine pass at startup")
	return cmd
}

func (a *app) serve(ctx context.Context, skipInitial bool) error {
	o, err := a.orchestrator(ctx)
	if err != nil {
		return err
	}

	sched := scheduler.New(a.cfg.Scheduler, o)
	if !skipInitial {
		if err := sched.TriggerNow(ctx); err != nil {
			return fmt.Errorf("initial combine: %w", err)
		}
	}

	store, err := storage.Open(ctx, a.cfg.Database)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	srv := server.New(a.cfg.Server.Addr, store, a.cfg.Paths.OutputFile)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
