package cmd

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/openbatchproject/openbatch/internal/datastore"
)

func passwordCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "password <new-password>",
		Short: "Change the datastore account password and store it encrypted on disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password := args[0]
			if password == "" {
				return errors.New("password must not be empty")
			}

			cfg := loadConfig(cmd)
			cn := &datastore.Connector{Config: cfg}
			conn, err := cn.Connect(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = conn.Disconnect(cmd.Context()) }()

			newUser := user
			if newUser == "" {
				newUser = cfg.User
			}
			if err := conn.ChangePassword(cmd.Context(), newUser, password, cfg.User); err != nil {
				return err
			}
			if err := datastore.WriteSecretFile(cfg.HomePath, []byte(password)); err != nil {
				return errors.Wrap(err, "password changed but could not be stored")
			}
			log.Infof("password updated for user %s", newUser)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "rename the datastore account to this user")
	return cmd
}
