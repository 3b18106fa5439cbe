package systemdclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/dbus"
	"github.com/vitistack/common/pkg/loggers/vlog"
)

// unitManager is the subset of *dbus.Conn used by the client.
type unitManager interface {
	RestartUnitContext(ctx context.Context, name string, mode string, ch chan<- string) (int, error)
	ListUnitsByNamesContext(ctx context.Context, units []string) ([]dbus.UnitStatus, error)
	Close()
}

type systemdClient struct {
	Mode    string
	Timeout time.Duration

	dial func(ctx context.Context) (unitManager, error)
}

func NewSystemdClient(opts ...SystemdOption) *systemdClient {
	c := &systemdClient{}
	c.applyDefaults()
	for _, opt := range opts {
		opt.apply(c)
	}
	return c
}

func (c *systemdClient) applyDefaults() {
	c.Mode = "replace"
	c.Timeout = 30 * time.Second
	c.dial = func(ctx context.Context) (unitManager, error) {
		return dbus.NewWithContext(ctx)
	}
}

// RestartService enqueues a restart job for name and waits for its result.
func (c *systemdClient) RestartService(ctx context.Context, name string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	conn, err := c.dial(ctx)
	if err != nil {
		return fmt.Errorf("connect to systemd: %w", err)
	}
	defer conn.Close()

	done := make(chan string, 1)
	if _, err := conn.RestartUnitContext(ctx, unitName(name), c.Mode, done); err != nil {
		return fmt.Errorf("restart %s: %w", unitName(name), err)
	}

	select {
	case result := <-done:
		if result != "done" {
			return fmt.Errorf("restart %s: job finished with result %q", unitName(name), result)
		}
		vlog.Debug("systemd restart job done", "unit", unitName(name))
		return nil
	case <-ctx.Done():
		return fmt.Errorf("restart %s: %w", unitName(name), ctx.Err())
	}
}

// ServiceExists reports whether systemd knows a unit file for name.
func (c *systemdClient) ServiceExists(ctx context.Context, name string) (bool, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	conn, err := c.dial(ctx)
	if err != nil {
		return false, fmt.Errorf("connect to systemd: %w", err)
	}
	defer conn.Close()

	units, err := conn.ListUnitsByNamesContext(ctx, []string{unitName(name)})
	if err != nil {
		return false, err
	}
	for _, u := range units {
		if u.Name == unitName(name) && u.LoadState != "not-found" {
			return true, nil
		}
	}
	return false, nil
}

func (c *systemdClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.Timeout)
}

func unitName(name string) string {
	if strings.Contains(name, ".") {
		return name
	}
	return name + ".service"
}
