package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/streamscout/streamscout/internal/auth"
)

func newTokenCmd(opts *globalOptions) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for a gateway with auth enabled",
		Long: `Mint a bearer token signed with auth.jwt_secret. Pass it to the other
commands with --token or STREAMSCOUT_TOKEN.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			token, err := auth.NewService(cfg.Auth.JWTSecret).GenerateToken(ttl)
			if err != nil {
				return fmt.Errorf("minting token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultTokenTTL, "Token lifetime")
	return cmd
}
