package main

import (
	"os"

	"github.com/vitistack/common/pkg/loggers/vlog"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		vlog.Error("isc-dhcp-deployer failed", "error", err)
		os.Exit(1)
	}
}
