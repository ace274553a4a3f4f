package cmd

import (
	"time"

	retry "github.com/avast/retry-go"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/openbatchproject/openbatch/internal/datastore"
)

func connectCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connect-check",
		Short: "Verify the data service accepts connections and report its schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(cmd)
			cn := &datastore.Connector{Config: cfg}

			var conn *datastore.Conn
			// The datastore never retries on its own; waiting out a
			// backend that is still starting up is caller policy.
			err := retry.Do(
				func() error {
					var cerr error
					conn, cerr = cn.Connect(cmd.Context())
					return cerr
				},
				retry.Attempts(10),
				retry.Delay(2*time.Second),
				retry.RetryIf(func(err error) bool {
					return datastore.CodeFromError(err) == datastore.FailStillStarting
				}),
			)
			if err != nil {
				return err
			}

			ver, verr := conn.SchemaVersionStored(cmd.Context())
			if verr != nil {
				_ = conn.Disconnect(cmd.Context())
				return verr
			}
			log.Infof("connected; datastore schema version %d.%d", ver.Major, ver.Minor)
			return conn.Disconnect(cmd.Context())
		},
	}
	return cmd
}
