package serviceinterface

import "context"

type ServiceController interface {
	// RestartService blocks until the service manager reports the restart job finished.
	RestartService(ctx context.Context, name string) error
	ServiceExists(ctx context.Context, name string) (bool, error)
}
