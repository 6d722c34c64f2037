package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	httpadapter "github.com/PabloGalante/healthai-agent/internal/adapters/http"
	"github.com/PabloGalante/healthai-agent/internal/observability"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			srv := &http.Server{
				Addr: ":" + cfg.Port,
				Handler: httpadapter.NewServer(httpadapter.Services{
					Conversation: a.conversation,
					Assessment:   a.assessment,
					Journal:      a.journal,
					Profile:      a.profile,
				}),
				ReadHeaderTimeout: 10 * time.Second,
			}

			log := observability.Logger()
			g, gctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				log.Info("Health-AI API listening", "addr", srv.Addr, "mode", cfg.Mode)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})

			g.Go(func() error {
				<-gctx.Done()
				log.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})

			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides config)")
	return cmd
}
