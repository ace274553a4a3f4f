package datastore

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// RecoveryBootstrap is the external collaborator that performs the warm
// recovery load of all entities when upgrading from a pre-current schema
// generation. The migration controller drives it and then re-persists the
// recovered nodes through the object dispatch layer.
type RecoveryBootstrap interface {
	// RecoverAll loads every entity into the server's in-memory state.
	RecoverAll(ctx context.Context) error
	// Nodes returns the recovered node set.
	Nodes() []*NodeInfo
}

// MigrationController gates structural upgrades of the backend. Migrate
// runs exactly once during startup, before any normal dispatch traffic.
type MigrationController struct {
	Conn      *Conn
	Bootstrap RecoveryBootstrap
}

// SchemaVersionStored reads the (major, minor) structural generation
// marker from the backend.
func (c *Conn) SchemaVersionStored(ctx context.Context) (SchemaVersion, error) {
	res, ret := c.queryRaw(ctx, `SELECT major, minor FROM schema_version`)
	if ret != OpOK {
		return SchemaVersion{}, errors.Errorf("failed to get datastore version: %s", c.TranslateError(FailBackend))
	}
	defer res.release()
	var (
		ver SchemaVersion
		err error
	)
	if ver.Major, err = decodeInt(res.row(0)[0]); err != nil {
		return SchemaVersion{}, err
	}
	if ver.Minor, err = decodeInt(res.row(0)[1]); err != nil {
		return SchemaVersion{}, err
	}
	return ver, nil
}

// Migrate reads the stored schema version and runs the matching one-time
// upgrade path. An unrecognized version is a hard stop: the caller must
// not start normal service.
func (m *MigrationController) Migrate(ctx context.Context) error {
	ver, err := m.Conn.SchemaVersionStored(ctx)
	if err != nil {
		log.Errorf("failed to get datastore version: %v", err)
		return err
	}

	switch {
	case ver.Major == 1 && ver.Minor == 0:
		log.Infof("upgrading datastore from version %d.%d", ver.Major, ver.Minor)
		return m.upgradeFromV1(ctx)
	case ver == currentSchema:
		// Schema already current; the query layer is written against it.
		return nil
	}

	log.Errorf("cannot upgrade from datastore version %d.%d", ver.Major, ver.Minor)
	return errors.Errorf("cannot upgrade from datastore version %d.%d", ver.Major, ver.Minor)
}

// upgradeFromV1 performs the 1.0 upgrade: warm-recover every entity
// through the bootstrap collaborator, then mark all nodes dirty and bulk
// save them so they are rewritten in the current row shape.
func (m *MigrationController) upgradeFromV1(ctx context.Context) error {
	if err := m.Bootstrap.RecoverAll(ctx); err != nil {
		return errors.Wrap(err, "warm recovery failed")
	}
	for _, node := range m.Bootstrap.Nodes() {
		node.Dirty = true
		h := &ObjectHandle{Kind: KindNode, ID: node.Name, Payload: node}
		if ret := m.Conn.SaveObject(ctx, h, SaveFull); ret == OpError {
			return errors.Errorf("node save failed during upgrade: %s", m.Conn.TranslateError(FailBackend))
		}
	}
	return nil
}
