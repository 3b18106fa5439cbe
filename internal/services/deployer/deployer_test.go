package deployer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/afero"
	"github.com/vitistack/isc-dhcp-deployer/internal/consts"
	"github.com/vitistack/isc-dhcp-deployer/internal/services/resolver"
	"github.com/vitistack/isc-dhcp-deployer/pkg/clients/filestorage"
	"github.com/vitistack/isc-dhcp-deployer/pkg/interfaces/storageinterface"
	"github.com/vitistack/isc-dhcp-deployer/pkg/models/dhcpmodels"
)

const debianDefaults = `# Defaults for isc-dhcp-server (sourced by /etc/init.d/isc-dhcp-server)

# Path to dhcpd's config file (default: /etc/dhcp/dhcpd.conf).
#DHCPDv4_CONF=/etc/dhcp/dhcpd.conf

# Additional options to start dhcpd with.
#OPTIONS=""

# On what interfaces should the DHCP server (dhcpd) serve DHCP requests?
#	Separate multiple interfaces with spaces, e.g. "eth0 eth1".
INTERFACESv4=""
INTERFACESv6=""
`

type fakeServices struct {
	restarts []string
	err      error
}

func (f *fakeServices) RestartService(ctx context.Context, name string) error {
	if f.err != nil {
		return f.err
	}
	f.restarts = append(f.restarts, name)
	return nil
}

func (f *fakeServices) ServiceExists(ctx context.Context, name string) (bool, error) {
	return true, nil
}

// recordingStorage counts writes and can fail writes to a single path.
type recordingStorage struct {
	storageinterface.Storage
	writes    []string
	failPath  string
	failWrite error
}

func (r *recordingStorage) WriteFile(path, content string) error {
	if path == r.failPath {
		return r.failWrite
	}
	r.writes = append(r.writes, path)
	return r.Storage.WriteFile(path, content)
}

// vanishingStorage reports a path as present but fails to read it, as when the
// file is removed between the stat and the read.
type vanishingStorage struct {
	*recordingStorage
	vanished string
}

func (v *vanishingStorage) ReadFile(path string) (string, error) {
	if path == v.vanished {
		return "", fmt.Errorf("%s: %w", path, storageinterface.ErrNotFound)
	}
	return v.recordingStorage.ReadFile(path)
}

func resolved(networks ...dhcpmodels.RawNetwork) dhcpmodels.ResolvedConfig {
	cfg, err := resolver.Resolve(dhcpmodels.RawConfig{Networks: networks})
	Expect(err).NotTo(HaveOccurred())
	return cfg
}

func eth1() dhcpmodels.RawNetwork {
	return dhcpmodels.RawNetwork{
		Iface:       "eth1",
		Subnet:      "192.168.5.0",
		DomainName:  "example.com",
		Nameservers: []string{"1.1.1.1", "1.1.1.2"},
	}
}

var _ = Describe("Deployer", func() {
	var (
		fsys     afero.Fs
		storage  *recordingStorage
		services *fakeServices
		d        *Deployer
		ctx      context.Context
	)

	readFile := func(path string) string {
		data, err := afero.ReadFile(fsys, path)
		Expect(err).NotTo(HaveOccurred())
		return string(data)
	}

	BeforeEach(func() {
		ctx = context.Background()
		fsys = afero.NewMemMapFs()
		Expect(afero.WriteFile(fsys, consts.DefaultsFilePath, []byte(debianDefaults), 0o644)).To(Succeed())
		Expect(afero.WriteFile(fsys, consts.ConfigFilePath, []byte(""), 0o644)).To(Succeed())
		storage = &recordingStorage{Storage: filestorage.New(fsys)}
		services = &fakeServices{}
		d = New(storage, services)
	})

	It("writes both files and restarts the service", func() {
		res, err := d.Deploy(ctx, resolved(eth1()))
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal(Result{DefaultsChanged: true, ConfigChanged: true, Restarted: true}))
		Expect(services.restarts).To(Equal([]string{consts.ServiceName}))

		Expect(readFile(consts.DefaultsFilePath)).To(ContainSubstring(`INTERFACESv4="eth1"`))
		conf := readFile(consts.ConfigFilePath)
		Expect(conf).To(ContainSubstring("interface eth1;"))
		Expect(conf).To(ContainSubstring("range 192.168.5.2 192.168.5.254;"))
		Expect(conf).To(ContainSubstring("option routers 192.168.5.1;"))
	})

	It("only touches the INTERFACESv4 line of the defaults file", func() {
		second := eth1()
		second.Iface = "eth2"
		second.Subnet = "10.10.0.0"
		_, err := d.Deploy(ctx, resolved(eth1(), second))
		Expect(err).NotTo(HaveOccurred())

		before := strings.Split(debianDefaults, "\n")
		after := strings.Split(readFile(consts.DefaultsFilePath), "\n")
		Expect(after).To(HaveLen(len(before)))
		matches := 0
		for i := range before {
			if strings.HasPrefix(after[i], "INTERFACESv4=") {
				matches++
				Expect(after[i]).To(Equal(`INTERFACESv4="eth1 eth2"`))
				continue
			}
			Expect(after[i]).To(Equal(before[i]))
		}
		Expect(matches).To(Equal(1))
	})

	It("appends INTERFACESv4 when the defaults file lacks it", func() {
		Expect(afero.WriteFile(fsys, consts.DefaultsFilePath, []byte("OPTIONS=\"-4\""), 0o644)).To(Succeed())
		_, err := d.Deploy(ctx, resolved(eth1()))
		Expect(err).NotTo(HaveOccurred())
		Expect(readFile(consts.DefaultsFilePath)).To(Equal("OPTIONS=\"-4\"\nINTERFACESv4=\"eth1\"\n"))
	})

	DescribeTable("fails closed when a target file is missing",
		func(path string) {
			Expect(fsys.Remove(path)).To(Succeed())
			_, err := d.Deploy(ctx, resolved(eth1()))

			var missing *MissingFileError
			Expect(errors.As(err, &missing)).To(BeTrue())
			Expect(missing.Path).To(Equal(path))
			Expect(storage.writes).To(BeEmpty())
			Expect(services.restarts).To(BeEmpty())
		},
		Entry("defaults file", consts.DefaultsFilePath),
		Entry("config file", consts.ConfigFilePath),
	)

	DescribeTable("fails closed when a target file vanishes before it is read",
		func(path string) {
			d = New(&vanishingStorage{recordingStorage: storage, vanished: path}, services)
			_, err := d.Deploy(ctx, resolved(eth1()))

			var missing *MissingFileError
			Expect(errors.As(err, &missing)).To(BeTrue())
			Expect(missing.Path).To(Equal(path))
			var storageErr *StorageError
			Expect(errors.As(err, &storageErr)).To(BeFalse())
			Expect(storage.writes).To(BeEmpty())
			Expect(services.restarts).To(BeEmpty())
		},
		Entry("defaults file", consts.DefaultsFilePath),
		Entry("config file", consts.ConfigFilePath),
	)

	It("skips the restart on an unchanged second deploy without force", func() {
		cfg := resolved(eth1())
		first, err := d.Deploy(ctx, cfg, WithForce(false))
		Expect(err).NotTo(HaveOccurred())
		Expect(first.Restarted).To(BeTrue())

		second, err := d.Deploy(ctx, cfg, WithForce(false))
		Expect(err).NotTo(HaveOccurred())
		Expect(second).To(Equal(Result{}))
		Expect(services.restarts).To(HaveLen(1))
	})

	It("restarts on an unchanged deploy when forced", func() {
		cfg := resolved(eth1())
		_, err := d.Deploy(ctx, cfg)
		Expect(err).NotTo(HaveOccurred())
		res, err := d.Deploy(ctx, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Restarted).To(BeTrue())
		Expect(res.ConfigChanged).To(BeFalse())
		Expect(services.restarts).To(HaveLen(2))
	})

	It("restarts without force when only the defaults file changes", func() {
		cfg := resolved(eth1())
		_, err := d.Deploy(ctx, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(afero.WriteFile(fsys, consts.DefaultsFilePath, []byte(debianDefaults), 0o644)).To(Succeed())

		res, err := d.Deploy(ctx, cfg, WithForce(false))
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal(Result{DefaultsChanged: true, Restarted: true}))
	})

	It("returns a StorageError and does not restart when a write fails", func() {
		boom := errors.New("read-only file system")
		storage.failPath = consts.ConfigFilePath
		storage.failWrite = boom

		_, err := d.Deploy(ctx, resolved(eth1()))
		var serr *StorageError
		Expect(errors.As(err, &serr)).To(BeTrue())
		Expect(serr.Op).To(Equal("write"))
		Expect(err).To(MatchError(boom))
		Expect(services.restarts).To(BeEmpty())
		// the defaults file was written before the failure
		Expect(storage.writes).To(Equal([]string{consts.DefaultsFilePath}))
	})

	It("returns a ServiceControlError when the restart fails", func() {
		services.err = errors.New("unit isc-dhcp-server.service not found")
		res, err := d.Deploy(ctx, resolved(eth1()))
		var serr *ServiceControlError
		Expect(errors.As(err, &serr)).To(BeTrue())
		Expect(serr.Service).To(Equal(consts.ServiceName))
		Expect(res.Restarted).To(BeFalse())
		Expect(res.ConfigChanged).To(BeTrue())
	})
})

var _ = Describe("Render", func() {
	It("renders globals and one block per network in order", func() {
		second := eth1()
		second.Iface = "eth0"
		second.Subnet = "10.0.0.0"
		second.Netmask = "255.255.0.0"
		second.Nameservers = []string{"10.0.0.53"}
		cfg := resolved(eth1(), second)

		Expect(Render(cfg)).To(Equal(strings.Join([]string{
			"default-lease-time 600;",
			"max-lease-time 7200;",
			"ddns-update-style none;",
			"authoritative;",
			"subnet 192.168.5.0 netmask 255.255.255.0 {",
			"  interface eth1;",
			"  range 192.168.5.2 192.168.5.254;",
			"  option routers 192.168.5.1;",
			"  option subnet-mask 255.255.255.0;",
			"  option domain-name-servers 1.1.1.1, 1.1.1.2;",
			"}",
			"subnet 10.0.0.0 netmask 255.255.0.0 {",
			"  interface eth0;",
			"  range 10.0.0.2 10.0.255.254;",
			"  option routers 10.0.0.1;",
			"  option subnet-mask 255.255.255.0;",
			"  option domain-name-servers 10.0.0.53;",
			"}",
		}, "\n")))
	})

	It("omits authoritative when disabled", func() {
		cfg := resolved(eth1())
		cfg.Authoritative = false
		Expect(Render(cfg)).NotTo(ContainSubstring("authoritative;"))
	})

	It("lists each interface once in network order", func() {
		alias := eth1()
		alias.Subnet = "192.168.6.0"
		other := eth1()
		other.Iface = "eth0"
		other.Subnet = "192.168.7.0"
		Expect(InterfacesValue(resolved(eth1(), other, alias))).To(Equal(`"eth1 eth0"`))
	})
})
