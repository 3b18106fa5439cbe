package deployer

import (
	"context"
	"errors"

	"github.com/vitistack/common/pkg/loggers/vlog"
	"github.com/vitistack/isc-dhcp-deployer/internal/consts"
	"github.com/vitistack/isc-dhcp-deployer/internal/util/kvfile"
	"github.com/vitistack/isc-dhcp-deployer/pkg/interfaces/serviceinterface"
	"github.com/vitistack/isc-dhcp-deployer/pkg/interfaces/storageinterface"
	"github.com/vitistack/isc-dhcp-deployer/pkg/models/dhcpmodels"
)

// Deployer writes a resolved configuration to the isc-dhcp-server files and
// restarts the service when needed. It keeps no state between calls and does
// not lock against concurrent callers.
type Deployer struct {
	Storage  storageinterface.Storage
	Services serviceinterface.ServiceController

	DefaultsFilePath string
	ConfigFilePath   string
	ServiceName      string
}

func New(storage storageinterface.Storage, services serviceinterface.ServiceController) *Deployer {
	return &Deployer{
		Storage:          storage,
		Services:         services,
		DefaultsFilePath: consts.DefaultsFilePath,
		ConfigFilePath:   consts.ConfigFilePath,
		ServiceName:      consts.ServiceName,
	}
}

// Result describes what a deploy changed.
type Result struct {
	DefaultsChanged bool
	ConfigChanged   bool
	Restarted       bool
}

type deployOptions struct {
	force bool
}

type DeployOption func(*deployOptions)

// WithForce controls whether the service is restarted even when neither file
// changed. Deploy forces by default.
func WithForce(force bool) DeployOption {
	return func(o *deployOptions) { o.force = force }
}

// Deploy patches INTERFACESv4 in the defaults file, rewrites dhcpd.conf and
// restarts the service when forced or when either file changed. Both files
// must already exist. Failures are returned as is and never retried; after a
// failed write the files may be partially updated.
func (d *Deployer) Deploy(ctx context.Context, cfg dhcpmodels.ResolvedConfig, opts ...DeployOption) (Result, error) {
	o := deployOptions{force: true}
	for _, opt := range opts {
		opt(&o)
	}

	var res Result
	for _, path := range []string{d.DefaultsFilePath, d.ConfigFilePath} {
		ok, err := d.Storage.Exists(path)
		if err != nil {
			return res, &StorageError{Op: "stat", Path: path, Err: err}
		}
		if !ok {
			return res, &MissingFileError{Path: path}
		}
	}

	oldDefaults, err := d.read(d.DefaultsFilePath)
	if err != nil {
		return res, err
	}
	oldConfig, err := d.read(d.ConfigFilePath)
	if err != nil {
		return res, err
	}

	newDefaults := kvfile.SetOption(oldDefaults, consts.InterfacesOption, InterfacesValue(cfg))
	if err := d.write(d.DefaultsFilePath, newDefaults); err != nil {
		return res, err
	}
	if err := d.write(d.ConfigFilePath, Render(cfg)); err != nil {
		return res, err
	}

	// Compare what is actually on storage now, not what we meant to write.
	writtenDefaults, err := d.read(d.DefaultsFilePath)
	if err != nil {
		return res, err
	}
	writtenConfig, err := d.read(d.ConfigFilePath)
	if err != nil {
		return res, err
	}
	res.DefaultsChanged = writtenDefaults != oldDefaults
	res.ConfigChanged = writtenConfig != oldConfig

	if !o.force && !res.DefaultsChanged && !res.ConfigChanged {
		vlog.Info("dhcp configuration unchanged, skipping restart", "service", d.ServiceName)
		return res, nil
	}

	vlog.Info("restarting dhcp service", "service", d.ServiceName, "force", o.force,
		"defaultsChanged", res.DefaultsChanged, "configChanged", res.ConfigChanged)
	if err := d.Services.RestartService(ctx, d.ServiceName); err != nil {
		return res, &ServiceControlError{Service: d.ServiceName, Err: err}
	}
	res.Restarted = true
	return res, nil
}

func (d *Deployer) read(path string) (string, error) {
	content, err := d.Storage.ReadFile(path)
	if err != nil {
		if errors.Is(err, storageinterface.ErrNotFound) {
			return "", &MissingFileError{Path: path}
		}
		return "", &StorageError{Op: "read", Path: path, Err: err}
	}
	return content, nil
}

func (d *Deployer) write(path, content string) error {
	if err := d.Storage.WriteFile(path, content); err != nil {
		return &StorageError{Op: "write", Path: path, Err: err}
	}
	return nil
}
