package configuration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults(t *testing.T) {
	var cfg DatastoreConfig
	cfg.ApplyDefaults()

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultDatabase, cfg.Database)
	assert.Equal(t, DefaultUser, cfg.User)
	assert.Equal(t, DefaultTimeout, cfg.ConnectTimeout)
	assert.NotEmpty(t, cfg.HomePath)
	assert.NotEmpty(t, cfg.Control.DataDir)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := DatastoreConfig{
		Host:           "db.example.com",
		Port:           5432,
		Database:       "custom",
		User:           "admin",
		ConnectTimeout: 5,
		HomePath:       "/opt/openbatch",
		Control:        ControlConfig{BinDir: "/usr/pgsql/bin", DataDir: "/srv/pgdata"},
	}
	cfg.ApplyDefaults()

	assert.Equal(t, "db.example.com", cfg.Host)
	assert.Equal(t, 5432, cfg.Port)
	assert.Equal(t, "custom", cfg.Database)
	assert.Equal(t, "admin", cfg.User)
	assert.Equal(t, 5, cfg.ConnectTimeout)
	assert.Equal(t, "/opt/openbatch", cfg.HomePath)
	assert.Equal(t, "/srv/pgdata", cfg.Control.DataDir)
}

func TestApplyDefaultsDerivesDataDir(t *testing.T) {
	cfg := DatastoreConfig{HomePath: "/opt/openbatch"}
	cfg.ApplyDefaults()
	assert.Equal(t, "/opt/openbatch/datastore", cfg.Control.DataDir)
}
