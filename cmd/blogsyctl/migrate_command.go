// AngelaMos | 2026
// migrate_command.go

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/blogsy/internal/core"
	"github.com/carterperez-dev/blogsy/migrations"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	migrateCmd.AddCommand(newMigrateDirectionCommand(ctx, core.MigrateUp, "Apply all pending migrations"))
	migrateCmd.AddCommand(newMigrateDirectionCommand(ctx, core.MigrateDown, "Roll back all migrations"))

	return migrateCmd
}

func newMigrateDirectionCommand(
	ctx *commandContext,
	direction core.MigrationDirection,
	short string,
) *cobra.Command {
	return &cobra.Command{
		Use:   string(direction),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := ctx.openDatabase(cmd)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck // process exits next

			if err := db.Migrate(migrations.FS, direction); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrations %s: ok\n", direction)
			return nil
		},
	}
}
