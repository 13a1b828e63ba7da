package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/office_scheduler/internal/controller/rest"
	"github.com/Freeeeeet/office_scheduler/internal/model"
	"github.com/spf13/cobra"
)

func tokenCmd() *cobra.Command {
	var (
		subject string
		name    string
		role    string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API token signed with JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := bootstrap()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return errors.New("JWT_SECRET is not set")
			}

			r, err := model.ParseRole(role)
			if err != nil {
				return err
			}

			token, err := rest.IssueToken([]byte(cfg.JWTSecret), subject, name, r, ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "Client or administrator id (required)")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&role, "role", "client", "client or administrator")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}
