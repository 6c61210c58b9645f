package main

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/Laurentvial/LeadFlow-sub003/pkg/configuration"
)

const defaultMigrationsDir = "migrations/crm"

func newMigrateCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply the database schema migrations",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) > 0 {
				command = args[0]
			}

			conf := configuration.Use()
			db, err := sql.Open("pgx", conf.Database.Opts)
			if err != nil {
				return err
			}
			defer func() {
				_ = db.Close()
			}()

			if err := goose.SetDialect("postgres"); err != nil {
				return err
			}

			ctx := cmd.Context()
			switch command {
			case "up":
				return goose.UpContext(ctx, db, dir)
			case "down":
				return goose.DownContext(ctx, db, dir)
			case "status":
				return goose.StatusContext(ctx, db, dir)
			default:
				return fmt.Errorf("unknown migrate command %q", command)
			}
		},
	}

	cmd.Flags().StringVar(&dir, "dir", defaultMigrationsDir, "directory holding the SQL migrations")
	return cmd
}
