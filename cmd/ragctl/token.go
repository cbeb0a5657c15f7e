package main

import (
	"fmt"
	"time"

	"github.com/ferdiebergado/ragchat/internal/app"
	"github.com/ferdiebergado/ragchat/internal/platform/jwt"
	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token <subject>",
		Short: "Issue a bearer token whose subject owns chat sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}

			if ttl == 0 {
				ttl = cfg.JWT.TTL.Duration
			}

			token, err := jwt.NewGolangJWTSigner(cfg.JWT).Sign(args[0], ttl)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to jwt.ttl)")
	return cmd
}
