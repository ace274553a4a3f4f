package datastore

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/openbatchproject/openbatch/internal/datastore/configuration"
)

// ServiceController starts, stops and probes the backend data service
// process. It sits outside the datastore proper except for one path:
// Connect stops the service when statement pre-registration fails, since
// continuing against a half-registered session would be unsafe.
type ServiceController interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	// Status returns nil when the service is up and accepting connections.
	Status(ctx context.Context) error
}

// PgCtl controls the data service through the pg_ctl utility.
type PgCtl struct {
	Config configuration.ControlConfig
	Port   int
}

func (p *PgCtl) ctlPath() string {
	if p.Config.BinDir == "" {
		return "pg_ctl"
	}
	return filepath.Join(p.Config.BinDir, "pg_ctl")
}

func (p *PgCtl) run(ctx context.Context, args ...string) error {
	args = append([]string{"-D", p.Config.DataDir}, args...)
	cmd := exec.CommandContext(ctx, p.ctlPath(), args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		detail := strings.TrimRight(string(out), "\r\n")
		return errors.Wrapf(err, "%s %s: %s", p.ctlPath(), strings.Join(args, " "), detail)
	}
	return nil
}

// Start launches the data service and waits for it to accept connections.
func (p *PgCtl) Start(ctx context.Context) error {
	log.Infof("starting dataservice on port %d", p.Port)
	return p.run(ctx, "-o", fmt.Sprintf("-p %d", p.Port), "-w", "start")
}

// Stop shuts the data service down in fast mode, disconnecting active
// sessions.
func (p *PgCtl) Stop(ctx context.Context) error {
	log.Info("stopping dataservice")
	return p.run(ctx, "-w", "stop", "-m", "fast")
}

func (p *PgCtl) Status(ctx context.Context) error {
	return p.run(ctx, "status")
}
