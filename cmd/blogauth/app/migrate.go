package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-blogauth/database"
)

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, zl, err := opts.load()
			if err != nil {
				return err
			}
			defer func() { _ = zl.Sync() }()

			db, err := database.Open(cmd.Context(), cfg.Database.DSN, database.WithDebug(cfg.Database.Debug))
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := database.Migrate(cmd.Context(), db.DB)
			if err != nil {
				return err
			}
			version, err := database.Version(cmd.Context(), db.DB)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s), schema version %d\n", len(applied), version)
			return nil
		},
	}
}
