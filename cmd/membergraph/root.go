package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	config "github.com/hanpama/membergraph/internal/config"
)

var version = "dev"

// app holds what every subcommand needs once flags are parsed.
type app struct {
	v       *viper.Viper
	cfgFile string
	envFile string
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}
	root := &cobra.Command{
		Use:           "membergraph",
		Short:         "GraphQL API over members, profiles, posts and subscriptions",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.v, a.cfgFile, a.envFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}
	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "config file (yaml, json or toml)")
	flags.StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	flags.String("database-dialect", "", "database dialect: sqlite or postgres")
	flags.String("database-dsn", "", "database connection string")
	flags.Int("max-depth", 0, "maximum selection depth of a query")
	_ = a.v.BindPFlag("database.dialect", flags.Lookup("database-dialect"))
	_ = a.v.BindPFlag("database.dsn", flags.Lookup("database-dsn"))
	_ = a.v.BindPFlag("graphql.max_depth", flags.Lookup("max-depth"))

	root.AddCommand(
		newServeCmd(a),
		newSchemaCmd(),
		newMigrateCmd(a),
		newValidateCmd(a),
	)
	return root
}
