// Package cmd contains the commands of the nestegg binary.
package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/nestegg-finance/backend/internal/clock"
	"github.com/nestegg-finance/backend/internal/config"
	"github.com/nestegg-finance/backend/internal/models"
	"github.com/nestegg-finance/backend/internal/savings"
	"github.com/nestegg-finance/backend/internal/store"
	"github.com/nestegg-finance/backend/internal/store/firestore"
	"github.com/nestegg-finance/backend/internal/store/gormstore"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	flagConfig string

	// cfg is loaded before any command runs
	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "nestegg",
	Short: "Savings plan allocation and projection engine",
	Long: `nestegg routes a share of every income to savings plans, keeps an
immutable ledger of these allocations and projects when savings goals
will be reached.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Path to a TOML configuration file. Defaults to $NESTEGG_CONFIG")
}

// setup loads the configuration and configures logging.
func setup(_ *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(flagConfig)
	if err != nil {
		return err
	}

	gin.SetMode(cfg.Server.Mode)

	// Log format can be explicitly set.
	// If it is not set, it defaults to human readable for development
	// and JSON for release
	output := io.Writer(os.Stderr)
	if (cfg.Log.Format == "" && gin.IsDebugging()) || cfg.Log.Format == "human" {
		output = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if gin.IsDebugging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(output).With().Timestamp().Logger()

	return nil
}

// openEngine connects to the configured store. The returned function
// closes the store.
func openEngine(ctx context.Context) (*savings.Engine, func(), error) {
	s, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	closeStore := func() {
		if err := s.Close(); err != nil {
			log.Error().Err(err).Msg("Closing the store failed")
		}
	}

	return savings.NewEngine(s, clock.System{}), closeStore, nil
}

func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Database.Driver {
	case config.DriverFirestore:
		log.Debug().Str("project", cfg.Firestore.Project).Msg("Connecting to Firestore")
		s, err := firestore.Open(ctx, cfg.Firestore.Project, cfg.Firestore.Credentials)
		if err != nil {
			return nil, err
		}
		return s, nil
	case models.DriverSQLite:
		// Create data directory
		if err := os.MkdirAll(filepath.Dir(cfg.Database.DSN), os.ModePerm); err != nil {
			return nil, err
		}
	}

	s, err := gormstore.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	return s, nil
}
