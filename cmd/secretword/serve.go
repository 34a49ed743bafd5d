package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"secretword-api/api"
	"secretword-api/config"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the standalone HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	cmd.Flags().String("listen", "", "listen address (overrides LISTEN_ADDR)")
	_ = v.BindPFlag("LISTEN_ADDR", cmd.Flags().Lookup("listen"))
	return cmd
}

func runServe(parent context.Context, cfg config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c, err := buildCore(ctx, cfg, "server")
	if err != nil {
		return err
	}
	defer c.Close()

	if c.memStore != nil {
		log.Info().
			Dur("cleanup_every", c.memStore.CleanupEvery()).
			Int("max_entries", c.memStore.MaxEntries()).
			Msg("rate limit janitor")
		c.memStore.StartJanitor(ctx, func(removed int) {
			if removed > 0 {
				log.Debug().Int("removed", removed).Msg("rate limit entries swept")
			}
		})
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.NewRouter(c.deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	log.Info().
		Str("addr", cfg.ListenAddr).
		Int("concurrency_max", cfg.ConcurrencyMax).
		Dur("concurrency_timeout", cfg.ConcurrencyTimeout).
		Str("key_header", cfg.RateKeyHeader).
		Bool("trust_xff", cfg.TrustXFF).
		Msg("secret word server listening")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.WithMessage(err, "listen")
	}
	log.Info().Msg("server stopped")
	return nil
}
