package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/cover-letter/internal/config"
	"github.com/jonathan/cover-letter/internal/server"
)

func newTokenCmd(_ *rootOptions) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for a user",
		Long:  `Sign a JWT for the given user with JWT_SECRET, for pasting into the extension during development.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("invalid --user-id: %w", err)
			}

			jwtConfig, err := config.NewJWTConfig()
			if err != nil {
				return err
			}

			token, err := server.NewJWTService(jwtConfig).GenerateToken(id)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&userID, "user-id", "", "User UUID (required)")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}
