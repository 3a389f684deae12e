// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Command tokengen issues bearer tokens for field devices and operators.
package main

import (
	"fmt"
	"os"

	"github.com/MKhiriev/delivery-sync/internal/config"
	"github.com/MKhiriev/delivery-sync/internal/logger"
	"github.com/MKhiriev/delivery-sync/internal/service"
	"github.com/spf13/cobra"
)

func main() {
	if err := newCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	app := config.Defaults().App
	app.TokenSignKey = os.Getenv("APP_TOKEN_SIGN_KEY")
	var actorID string

	cmd := &cobra.Command{
		Use:           "tokengen --actor <id>",
		Short:         "Issue a signed bearer token for an actor",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := service.NewAuthService(app, logger.Nop()).IssueToken(cmd.Context(), actorID)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token.SignedString)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&actorID, "actor", "", "actor id written to the sub claim")
	f.StringVar(&app.TokenSignKey, "sign-key", app.TokenSignKey, "signing key (env APP_TOKEN_SIGN_KEY)")
	f.StringVar(&app.TokenIssuer, "issuer", app.TokenIssuer, "token issuer")
	f.DurationVar(&app.TokenDuration, "duration", app.TokenDuration, "token lifetime")
	_ = cmd.MarkFlagRequired("actor")

	return cmd
}
