package systemdclient

import (
	"context"
	"time"
)

type SystemdOption interface {
	apply(*systemdClient)
}

type optionFunc func(*systemdClient)

func (of optionFunc) apply(cfg *systemdClient) { of(cfg) }

// OptionMode sets the systemd job mode used for restarts ("replace", "fail", ...).
func OptionMode(mode string) SystemdOption {
	return optionFunc(func(cfg *systemdClient) {
		cfg.Mode = mode
	})
}

func OptionTimeout(d time.Duration) SystemdOption {
	return optionFunc(func(cfg *systemdClient) {
		cfg.Timeout = d
	})
}

// OptionDialer replaces the D-Bus connection factory, mainly for tests.
func OptionDialer(dial func(ctx context.Context) (unitManager, error)) SystemdOption {
	return optionFunc(func(cfg *systemdClient) {
		cfg.dial = dial
	})
}
