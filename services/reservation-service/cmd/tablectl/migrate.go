package main

import (
	"fmt"

	"github.com/md-rashed-zaman/tablereserve/libs/config"
	"github.com/md-rashed-zaman/tablereserve/libs/runtime"
	"github.com/md-rashed-zaman/tablereserve/services/reservation-service/internal/storage"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the embedded schema migrations (DATABASE_URL)",
	}
	cmd.AddCommand(newMigrateDirectionCmd(storage.MigrateUp, "Apply all pending migrations"))
	cmd.AddCommand(newMigrateDirectionCmd(storage.MigrateDown, "Roll back every migration"))
	return cmd
}

func newMigrateDirectionCmd(direction storage.MigrateDirection, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(direction),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbURL, err := config.RequiredString("DATABASE_URL")
			if err != nil {
				return err
			}
			if err := storage.Migrate(dbURL, direction, runtime.NewLogger("tablectl")); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: done\n", direction)
			return nil
		},
	}
}
