package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/Zachkp/portfolio/internal/content"
	"github.com/Zachkp/portfolio/internal/logging"
	"github.com/Zachkp/portfolio/internal/store"
	"github.com/Zachkp/portfolio/internal/web"
)

var releaseMode bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the portfolio web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logCloser, err := logging.Setup(cfg.LogLevel, cfg.LogFile)
		if err != nil {
			return fmt.Errorf("setting up logging: %w", err)
		}
		defer logCloser.Close()

		if releaseMode {
			gin.SetMode(gin.ReleaseMode)
		}

		portfolio, err := content.Load(cfg.ContentPath)
		if err != nil {
			return err
		}

		// a fresh salt per process: hashes are only comparable within one run
		salt, err := randomSalt()
		if err != nil {
			return fmt.Errorf("generating hashing salt: %w", err)
		}
		st, err := store.Open(cfg.DBPath, salt)
		if err != nil {
			return err
		}
		defer st.Close()

		srv, err := web.New(cfg, portfolio, st)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		go maintain(ctx, srv, st, cfg.SessionIdle(), cfg.VisitRetention())

		httpSrv := &http.Server{Addr: cfg.Addr(), Handler: srv.Handler()}
		errCh := make(chan error, 1)
		go func() {
			slog.Info("portfolio listening", "addr", cfg.Addr(), "sections", portfolio.SectionIDs())
			errCh <- httpSrv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serving: %w", err)
			}
		case <-ctx.Done():
			slog.Info("shutting down")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	},
}

// maintain sweeps idle sessions and purges old visits until ctx ends.
func maintain(ctx context.Context, srv *web.Server, st *store.Store, idle, retention time.Duration) {
	if _, err := st.CleanupOldVisits(retention); err != nil {
		slog.Warn("privacy cleanup failed", "error", err)
	}

	sweep := time.NewTicker(time.Minute)
	defer sweep.Stop()
	cleanup := time.NewTicker(24 * time.Hour)
	defer cleanup.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sweep.C:
			srv.Sessions().Sweep(idle)
		case <-cleanup.C:
			if _, err := st.CleanupOldVisits(retention); err != nil {
				slog.Warn("privacy cleanup failed", "error", err)
			}
		}
	}
}

func init() {
	serveCmd.Flags().BoolVar(&releaseMode, "release", false, "run gin in release mode")
	rootCmd.AddCommand(serveCmd)
}
