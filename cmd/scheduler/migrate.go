package main

import (
	"fmt"

	"github.com/Freeeeeet/office_scheduler/internal/app"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), func(c *app.Container) error {
				if c.DB == nil {
					return fmt.Errorf("migrations require STORE=postgres")
				}
				return c.Migrate(cmd.Context())
			})
		},
	})

	// migrate version
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), func(c *app.Container) error {
				if c.DB == nil {
					return fmt.Errorf("migrations require STORE=postgres")
				}

				migrator, err := app.NewMigrator(c.DB, c.Logger)
				if err != nil {
					return err
				}
				defer migrator.Close()

				version, err := migrator.Version(cmd.Context())
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Schema version: %d\n", version)
				return nil
			})
		},
	})

	return cmd
}
