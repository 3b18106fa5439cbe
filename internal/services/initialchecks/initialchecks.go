package initialchecks

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/vitistack/common/pkg/loggers/vlog"
	"github.com/vitistack/isc-dhcp-deployer/internal/clients"
	"github.com/vitistack/isc-dhcp-deployer/internal/consts"
	"github.com/vitistack/isc-dhcp-deployer/internal/services/deployer"
	"github.com/vitistack/isc-dhcp-deployer/internal/util/kvfile"
	"github.com/vitistack/isc-dhcp-deployer/pkg/interfaces/serviceinterface"
	"github.com/vitistack/isc-dhcp-deployer/pkg/interfaces/storageinterface"
)

// Retry a few times to tolerate a slow system bus at boot.
var (
	maxRetries    = 3
	perTryTimeout = 5 * time.Second
	backoff       = 2 * time.Second
)

// InitialChecks verifies the isc-dhcp-server installation using the global
// clients and exits the process when it is not usable.
func InitialChecks() {
	if clients.Storage == nil || clients.Services == nil {
		vlog.Error("clients not initialized")
		os.Exit(1)
	}
	if err := Run(context.Background(), clients.Storage, clients.Services); err != nil {
		vlog.Error("initial checks failed", "error", err)
		os.Exit(1)
	}
}

// Run checks that both target files exist and that systemd knows the
// isc-dhcp-server unit.
func Run(ctx context.Context, storage storageinterface.Storage, services serviceinterface.ServiceController) error {
	for _, path := range []string{consts.DefaultsFilePath, consts.ConfigFilePath} {
		ok, err := storage.Exists(path)
		if err != nil {
			return &deployer.StorageError{Op: "stat", Path: path, Err: err}
		}
		if !ok {
			return &deployer.MissingFileError{Path: path}
		}
	}

	defaults, err := storage.ReadFile(consts.DefaultsFilePath)
	if err != nil {
		vlog.Warn("could not read dhcp defaults file", "path", consts.DefaultsFilePath, "error", err)
	} else if v, ok := kvfile.GetOption(defaults, consts.InterfacesOption); ok {
		vlog.Info("current dhcp interfaces", consts.InterfacesOption, v)
	}

	vlog.Info("checking systemd unit", "unit", consts.ServiceName)
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		tctx, cancel := context.WithTimeout(ctx, perTryTimeout)
		exists, err := services.ServiceExists(tctx, consts.ServiceName)
		cancel()
		if err == nil {
			if !exists {
				return fmt.Errorf("systemd unit %s not found; is isc-dhcp-server installed?", consts.ServiceName)
			}
			vlog.Info("systemd unit OK", "unit", consts.ServiceName)
			return nil
		}
		lastErr = err
		vlog.Warn("systemd check attempt failed", "attempt", attempt, "error", err)
		if attempt < maxRetries {
			time.Sleep(backoff)
		}
	}
	return fmt.Errorf("systemd not reachable after %d attempts: %w", maxRetries, lastErr)
}
