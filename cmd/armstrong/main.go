package main

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/phenrril/armstrong/internal/app"
	"github.com/phenrril/armstrong/internal/config"
)

var rootCmd = &cobra.Command{
	Use:           "armstrong",
	Short:         "Armstrong catalog backend",
	Long:          "Catalog API and admin console for the Armstrong storefront: company info, products, blog, callback requests and reviews.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.AddCommand(serveCmd, adminCmd, migrateCmd, exportCmd)
	if err := rootCmd.Execute(); err != nil {
		zlog.Fatal().Err(err).Msg("armstrong")
	}
}

// setup loads .env, configures logging and builds the application.
func setup() (*app.App, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	setupLogger(cfg)
	if err != nil {
		return nil, err
	}

	db, err := app.OpenDB(cfg)
	if err != nil {
		return nil, err
	}
	return app.NewApp(cfg, db)
}

func setupLogger(cfg config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.IsDev() {
		zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
		return
	}
	zlog.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
