package cmd

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/openbatchproject/openbatch/internal/datastore"
)

// cliBootstrap satisfies datastore.RecoveryBootstrap but refuses to run:
// recovering entities into memory needs a live server, not this tool.
type cliBootstrap struct{}

func (cliBootstrap) RecoverAll(ctx context.Context) error {
	return errors.New("warm recovery is only available through the server")
}

func (cliBootstrap) Nodes() []*datastore.NodeInfo { return nil }

func migrateCmd() *cobra.Command {
	var ensureSchema bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Upgrade the datastore schema to the current version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(cmd)
			cn := &datastore.Connector{Config: cfg}

			if ensureSchema {
				if err := datastore.EnsureSchema(cmd.Context(), cn); err != nil {
					return err
				}
				log.Info("schema is in place")
			}

			conn, err := cn.Connect(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = conn.Disconnect(cmd.Context()) }()

			mc := &datastore.MigrationController{Conn: conn, Bootstrap: cliBootstrap{}}
			if err := mc.Migrate(cmd.Context()); err != nil {
				return err
			}
			log.Info("datastore schema is current")
			return nil
		},
	}
	cmd.Flags().BoolVar(&ensureSchema, "ensure-schema", false, "create any missing tables before migrating")
	return cmd
}
