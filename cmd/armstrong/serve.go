package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var withAdmin bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the catalog API",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.Migrate(); err != nil {
			return err
		}
		servers := []*http.Server{{Addr: ":" + a.Cfg.Port, Handler: a.HTTPHandler()}}
		if withAdmin {
			servers = append(servers, &http.Server{Addr: ":" + a.Cfg.AdminPort, Handler: a.AdminHandler()})
		}
		return run(servers...)
	},
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Run the admin console",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.Migrate(); err != nil {
			return err
		}
		return run(&http.Server{Addr: ":" + a.Cfg.AdminPort, Handler: a.AdminHandler()})
	},
}

func init() {
	serveCmd.Flags().BoolVar(&withAdmin, "with-admin", false, "also serve the admin console on ADMIN_PORT")
}

// run serves until SIGINT/SIGTERM or a listener fails, then shuts everything down.
func run(servers ...*http.Server) error {
	errc := make(chan error, len(servers))
	for _, srv := range servers {
		srv := srv
		go func() {
			zlog.Info().Str("addr", srv.Addr).Msg("listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- err
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	var runErr error
	select {
	case <-quit:
	case runErr = <-errc:
		zlog.Error().Err(runErr).Msg("server failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil {
			zlog.Warn().Err(err).Str("addr", srv.Addr).Msg("shutdown")
		}
	}
	return runErr
}
