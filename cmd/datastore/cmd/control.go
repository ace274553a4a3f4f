package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/openbatchproject/openbatch/internal/datastore"
)

func controlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "control",
		Short: "Manage the backing data service process",
	}

	ctl := func(cmd *cobra.Command) *datastore.PgCtl {
		cfg := loadConfig(cmd)
		return &datastore.PgCtl{Config: cfg.Control, Port: cfg.Port}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "start",
			Short: "Start the data service",
			RunE: func(cmd *cobra.Command, args []string) error {
				return ctl(cmd).Start(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "stop",
			Short: "Stop the data service",
			RunE: func(cmd *cobra.Command, args []string) error {
				return ctl(cmd).Stop(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Report whether the data service is running",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := ctl(cmd).Status(cmd.Context()); err != nil {
					return err
				}
				log.Info("data service is running")
				return nil
			},
		},
	)
	return cmd
}
