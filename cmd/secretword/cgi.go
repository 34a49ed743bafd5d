package main

import (
	"context"
	"net/http/cgi"

	"secretword-api/api"
	"secretword-api/config"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newCGICmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "cgi",
		Short: "Answer a single request as a CGI program (shared hosting fallback)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return runCGI(cmd.Context(), cfg)
		},
	}
}

func runCGI(ctx context.Context, cfg config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.RateEnabled && cfg.RateStore == config.StoreMemory {
		log.Warn().Msg("memory rate limit store does not persist between CGI requests; set RATE_STORE=redis")
	}
	// um processo por requisição: não há o que limitar
	cfg.ConcurrencyMax = 0

	c, err := buildCore(ctx, cfg, "cgi")
	if err != nil {
		return err
	}
	defer c.Close()

	if err := cgi.Serve(api.NewRouter(c.deps)); err != nil {
		return errors.WithMessage(err, "cgi serve")
	}
	return nil
}
