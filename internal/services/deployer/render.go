package deployer

import (
	"fmt"
	"strings"

	"github.com/vitistack/isc-dhcp-deployer/pkg/models/dhcpmodels"
)

// Render produces the complete dhcpd.conf for cfg. Lines are joined with
// "\n" and there is no trailing newline.
//
// The subnet-mask option is always 255.255.255.0 whatever the segment netmask
// is; existing installations depend on the emitted text staying byte identical.
func Render(cfg dhcpmodels.ResolvedConfig) string {
	lines := []string{
		fmt.Sprintf("default-lease-time %d;", cfg.DefaultLeaseTime),
		fmt.Sprintf("max-lease-time %d;", cfg.MaxLeaseTime),
		fmt.Sprintf("ddns-update-style %s;", cfg.DDNSUpdateStyle),
	}
	if cfg.Authoritative {
		lines = append(lines, "authoritative;")
	}
	for _, n := range cfg.Networks {
		lines = append(lines,
			fmt.Sprintf("subnet %s netmask %s {", n.Subnet, n.Netmask),
			fmt.Sprintf("  interface %s;", n.Iface),
			fmt.Sprintf("  range %s %s;", n.BeginIP, n.EndIP),
			fmt.Sprintf("  option routers %s;", n.Routers),
			"  option subnet-mask 255.255.255.0;",
			fmt.Sprintf("  option domain-name-servers %s;", strings.Join(n.Nameservers, ", ")),
			"}",
		)
	}
	return strings.Join(lines, "\n")
}

// InterfacesValue is the quoted INTERFACESv4 value for cfg: interfaces in
// network order, each listed once.
func InterfacesValue(cfg dhcpmodels.ResolvedConfig) string {
	seen := make(map[string]struct{})
	ifaces := make([]string, 0, len(cfg.Networks))
	for _, iface := range cfg.Interfaces() {
		if _, ok := seen[iface]; ok {
			continue
		}
		seen[iface] = struct{}{}
		ifaces = append(ifaces, iface)
	}
	return `"` + strings.Join(ifaces, " ") + `"`
}
