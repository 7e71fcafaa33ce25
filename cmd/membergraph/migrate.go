package main

import (
	"fmt"

	"github.com/spf13/cobra"

	logging "github.com/hanpama/membergraph/internal/logging"
	store "github.com/hanpama/membergraph/internal/store"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and seed member types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, closer, err := logging.New(a.cfg.Log)
			if err != nil {
				return err
			}
			defer closer.Close()

			st, err := store.Open(a.cfg.Database, log)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Migrate(cmd.Context()); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "migrated %s database\n", a.cfg.Database.Dialect)
			return err
		},
	}
}
