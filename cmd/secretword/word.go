package main

import (
	"encoding/json"
	"time"

	"secretword-api/api"
	"secretword-api/config"
	"secretword-api/wordclock"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newWordCmd(v *viper.Viper) *cobra.Command {
	var at int64
	cmd := &cobra.Command{
		Use:   "word",
		Short: "Print the secret word for now (or --at a unix time)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}

			clock := clockwork.NewRealClock()
			t := clock.Now()
			if cmd.Flags().Changed("at") {
				t = time.Unix(at, 0)
			}

			b := api.Builder{
				Implementation: api.ImplementationID("cli"),
				Location:       cfg.Location,
				Clock:          clock,
			}
			resp := b.Success(wordclock.DefaultPool().Select(t), nil)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}
	cmd.Flags().Int64Var(&at, "at", 0, "unix time in seconds")
	return cmd
}
