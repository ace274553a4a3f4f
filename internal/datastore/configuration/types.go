package configuration

import (
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
)

// DatastoreConfig configures the connection to the backing data service.
type DatastoreConfig struct {
	// Host of the data service. Empty means the backend's implicit local
	// target (unix socket); the descriptor then carries no hostaddr field.
	Host string
	// Port the data service listens on.
	Port int
	// Database name inside the data service.
	Database string
	// User is the data-service account. The account's secret is retrieved
	// from the secret file under HomePath.
	User string
	// ConnectTimeout in seconds, baked into the connection descriptor.
	// There is no other timeout at this layer.
	ConnectTimeout int
	// HomePath is the installation directory holding server_priv.
	HomePath string

	Control ControlConfig
}

// ControlConfig locates the pg_ctl tooling used to start, stop and probe
// the data service process.
type ControlConfig struct {
	// BinDir is the directory containing pg_ctl.
	BinDir string
	// DataDir is the datastore cluster directory.
	DataDir string
}

const (
	DefaultPort     = 15007
	DefaultDatabase = "openbatch_datastore"
	DefaultUser     = "batchdata"
	DefaultTimeout  = 60
)

// ApplyDefaults fills unset fields. The home path defaults to an
// openbatch directory under the invoking user's home.
func (c *DatastoreConfig) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Database == "" {
		c.Database = DefaultDatabase
	}
	if c.User == "" {
		c.User = DefaultUser
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = DefaultTimeout
	}
	if c.HomePath == "" {
		home, err := homedir.Dir()
		if err != nil {
			c.HomePath = "/var/lib/openbatch"
		} else {
			c.HomePath = filepath.Join(home, "openbatch")
		}
	}
	if c.Control.DataDir == "" {
		c.Control.DataDir = filepath.Join(c.HomePath, "datastore")
	}
}
