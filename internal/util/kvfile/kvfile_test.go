package kvfile

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const debianDefaults = `# Defaults for isc-dhcp-server (sourced by /etc/init.d/isc-dhcp-server)

# Path to dhcpd's config file (default: /etc/dhcp/dhcpd.conf).
#DHCPDv4_CONF=/etc/dhcp/dhcpd.conf

# On what interfaces should the DHCP server (dhcpd) serve DHCP requests?
#	Separate multiple interfaces with spaces, e.g. "eth0 eth1".
INTERFACESv4=""
INTERFACESv6=""
`

func TestSetOption_ReplacesExistingLine(t *testing.T) {
	got := SetOption(debianDefaults, "INTERFACESv4", `"eth0 eth1"`)
	want := strings.Replace(debianDefaults, `INTERFACESv4=""`, `INTERFACESv4="eth0 eth1"`, 1)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected content (-want +got):\n%s", diff)
	}
}

func TestSetOption_AppendsWhenMissing(t *testing.T) {
	got := SetOption("FOO=bar", "INTERFACESv4", `"eth1"`)
	want := "FOO=bar\nINTERFACESv4=\"eth1\"\n"
	if got != want {
		t.Fatalf("unexpected content: %q", got)
	}

	if got := SetOption("", "INTERFACESv4", `"eth1"`); got != "\nINTERFACESv4=\"eth1\"\n" {
		t.Fatalf("unexpected content for empty file: %q", got)
	}
}

func TestSetOption_IgnoresCommentsAndSimilarKeys(t *testing.T) {
	in := "#INTERFACESv4=\"old\"\nINTERFACESv6=\"\"\nMY_INTERFACESv4=x\n"
	got := SetOption(in, "INTERFACESv4", `"eth0"`)
	want := in + "\nINTERFACESv4=\"eth0\"\n"
	if got != want {
		t.Fatalf("unexpected content: %q", got)
	}
}

func TestSetOption_CollapsesDuplicates(t *testing.T) {
	in := "A=1\nINTERFACESv4=\"a\"\nB=2\n  INTERFACESv4=\"b\"\nC=3"
	got := SetOption(in, "INTERFACESv4", `"eth2"`)
	want := "A=1\nINTERFACESv4=\"eth2\"\nB=2\nC=3"
	if got != want {
		t.Fatalf("unexpected content: %q", got)
	}
}

func TestSetOption_Idempotent(t *testing.T) {
	once := SetOption(debianDefaults, "INTERFACESv4", `"eth0"`)
	twice := SetOption(once, "INTERFACESv4", `"eth0"`)
	if once != twice {
		t.Fatalf("second patch changed content:\n%s", cmp.Diff(once, twice))
	}
}

func TestGetOption(t *testing.T) {
	v, ok := GetOption(debianDefaults, "INTERFACESv6")
	if !ok || v != `""` {
		t.Fatalf("unexpected value %q (found=%v)", v, ok)
	}
	if _, ok := GetOption(debianDefaults, "DHCPDv4_CONF"); ok {
		t.Fatalf("commented option must not be found")
	}
}
