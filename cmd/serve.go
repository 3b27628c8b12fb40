package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	v1 "github.com/nestegg-finance/backend/internal/controllers/v1"
	"github.com/nestegg-finance/backend/internal/router"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serves the HTTP API. If an allocation interval and users to process
are configured, the income of these users is allocated on schedule.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, closeStore, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	cfg.Export()
	r, teardown, err := router.Config(cfg.URL())
	if err != nil {
		return err
	}
	defer teardown()

	router.AttachRoutes(v1.Controller{Engine: engine}, r.Group("/"))

	interval := cfg.Engine.AllocationInterval.Duration
	if interval > 0 && len(cfg.Engine.ProcessUsers) > 0 {
		log.Info().Dur("interval", interval).Strs("users", cfg.Engine.ProcessUsers).Msg("Scheduling allocation runs")
		go engine.Allocator.Schedule(ctx, interval, cfg.Engine.ProcessUsers)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		errs <- server.ListenAndServe()
	}()
	log.Info().Str("port", cfg.Server.Port).Str("version", router.Version()).Msg("Listening")

	select {
	case err := <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}
