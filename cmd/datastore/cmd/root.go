package cmd

import (
	"github.com/spf13/cobra"

	"github.com/openbatchproject/openbatch/internal/common"
	"github.com/openbatchproject/openbatch/internal/datastore/configuration"
)

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "datastore",
		Short: "datastore administers the OpenBatch data service.",
	}
	cmd.PersistentFlags().String("config", "", "Fully qualified path to configuration file")
	common.BindCommandlineArguments(cmd.PersistentFlags())

	cmd.AddCommand(
		connectCheckCmd(),
		migrateCmd(),
		controlCmd(),
		passwordCmd(),
		showConfigCmd(),
	)
	return cmd
}

func loadConfig(cmd *cobra.Command) configuration.DatastoreConfig {
	var cfg configuration.DatastoreConfig
	userSpecified, _ := cmd.Flags().GetString("config")
	common.LoadConfig(&cfg, "./config/datastore", userSpecified)
	cfg.ApplyDefaults()
	return cfg
}
