package resolver

import (
	"fmt"
	"net"
	"strings"

	"github.com/vitistack/isc-dhcp-deployer/internal/util/subnet"
	"github.com/vitistack/isc-dhcp-deployer/pkg/models/dhcpmodels"
	"k8s.io/apimachinery/pkg/util/validation"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

const (
	DefaultLeaseTime       = 600
	DefaultMaxLeaseTime    = 7200
	DefaultAuthoritative   = true
	DefaultDDNSUpdateStyle = "none"
	DefaultNetmask         = "255.255.255.0"
)

// ValidationError reports every problem found in a RawConfig.
type ValidationError struct {
	Errs field.ErrorList
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid dhcp configuration: %v", e.Errs.ToAggregate())
}

func (e *ValidationError) Unwrap() error {
	return e.Errs.ToAggregate()
}

// Resolve validates raw, applies defaults and derives routers and range
// bounds for every network. Network order is preserved. It has no side effects.
func Resolve(raw dhcpmodels.RawConfig) (dhcpmodels.ResolvedConfig, error) {
	var errs field.ErrorList

	globals, gErrs := resolveGlobals(raw)
	errs = append(errs, gErrs...)

	networksPath := field.NewPath("networks")
	if len(raw.Networks) == 0 {
		errs = append(errs, field.Required(networksPath, "at least one network is required"))
	}

	networks := make([]dhcpmodels.NetworkSegment, 0, len(raw.Networks))
	for i, rn := range raw.Networks {
		seg, nErrs := resolveNetwork(rn, networksPath.Index(i))
		errs = append(errs, nErrs...)
		networks = append(networks, seg)
	}

	if len(errs) > 0 {
		return dhcpmodels.ResolvedConfig{}, &ValidationError{Errs: errs}
	}
	return dhcpmodels.ResolvedConfig{GlobalSettings: globals, Networks: networks}, nil
}

func resolveGlobals(raw dhcpmodels.RawConfig) (dhcpmodels.GlobalSettings, field.ErrorList) {
	var errs field.ErrorList
	g := dhcpmodels.GlobalSettings{
		DefaultLeaseTime: DefaultLeaseTime,
		MaxLeaseTime:     DefaultMaxLeaseTime,
		Authoritative:    DefaultAuthoritative,
		DDNSUpdateStyle:  DefaultDDNSUpdateStyle,
	}
	if raw.DefaultLeaseTime != nil {
		g.DefaultLeaseTime = *raw.DefaultLeaseTime
		if g.DefaultLeaseTime < 0 {
			errs = append(errs, field.Invalid(field.NewPath("defaultLeaseTime"), g.DefaultLeaseTime, "must not be negative"))
		}
	}
	if raw.MaxLeaseTime != nil {
		g.MaxLeaseTime = *raw.MaxLeaseTime
		if g.MaxLeaseTime < 0 {
			errs = append(errs, field.Invalid(field.NewPath("maxLeaseTime"), g.MaxLeaseTime, "must not be negative"))
		}
	}
	if raw.Authoritative != nil {
		g.Authoritative = *raw.Authoritative
	}
	if raw.DDNSUpdateStyle != nil {
		g.DDNSUpdateStyle = strings.TrimSpace(*raw.DDNSUpdateStyle)
		if g.DDNSUpdateStyle == "" {
			errs = append(errs, field.Required(field.NewPath("ddnsUpdateStyle"), "must not be empty"))
		}
	}
	return g, errs
}

func resolveNetwork(rn dhcpmodels.RawNetwork, p *field.Path) (dhcpmodels.NetworkSegment, field.ErrorList) {
	var errs field.ErrorList
	seg := dhcpmodels.NetworkSegment{
		Iface:      strings.TrimSpace(rn.Iface),
		Subnet:     strings.TrimSpace(rn.Subnet),
		Netmask:    strings.TrimSpace(rn.Netmask),
		Routers:    strings.TrimSpace(rn.Routers),
		BeginIP:    strings.TrimSpace(rn.BeginIP),
		EndIP:      strings.TrimSpace(rn.EndIP),
		DomainName: strings.TrimSpace(rn.DomainName),
	}
	if seg.Netmask == "" {
		seg.Netmask = DefaultNetmask
	}

	if seg.Iface == "" {
		errs = append(errs, field.Required(p.Child("iface"), ""))
	}

	if seg.DomainName == "" {
		errs = append(errs, field.Required(p.Child("domainName"), ""))
	} else {
		// DNS names are case-insensitive; the RFC 1123 check expects lower case.
		errs = append(errs, validation.IsFullyQualifiedDomainName(p.Child("domainName"), strings.ToLower(seg.DomainName))...)
	}

	if len(rn.Nameservers) == 0 {
		errs = append(errs, field.Required(p.Child("nameservers"), "at least one nameserver is required"))
	}
	seg.Nameservers = make([]string, 0, len(rn.Nameservers))
	for i, ns := range rn.Nameservers {
		ns = strings.TrimSpace(ns)
		errs = append(errs, validateIPv4(p.Child("nameservers").Index(i), ns)...)
		seg.Nameservers = append(seg.Nameservers, ns)
	}

	addrErrs := validateIPv4(p.Child("netmask"), seg.Netmask)
	if seg.Subnet == "" {
		addrErrs = append(addrErrs, field.Required(p.Child("subnet"), ""))
	} else {
		addrErrs = append(addrErrs, validateIPv4(p.Child("subnet"), seg.Subnet)...)
	}
	for _, opt := range []struct {
		name  string
		value string
	}{{"routers", seg.Routers}, {"beginIP", seg.BeginIP}, {"endIP", seg.EndIP}} {
		if opt.value != "" {
			addrErrs = append(addrErrs, validateIPv4(p.Child(opt.name), opt.value)...)
		}
	}
	if len(addrErrs) > 0 {
		return seg, append(errs, addrErrs...)
	}

	block, err := subnet.ParseBlock(seg.Subnet, seg.Netmask)
	if err != nil {
		return seg, append(errs, field.Invalid(p.Child("subnet"), seg.Subnet, err.Error()))
	}
	return seg, append(errs, deriveAddresses(&seg, block, p)...)
}

// deriveAddresses fills routers, beginIP and endIP from the block's pool when
// absent and checks that all three lie within the block. Blocks too small for
// a pool (/32, or a first address ending in .255) need an explicit beginIP;
// routers and endIP still fall back to the block edges.
func deriveAddresses(seg *dhcpmodels.NetworkSegment, block *subnet.Block, p *field.Path) field.ErrorList {
	var errs field.ErrorList

	pool, err := subnet.CalculatePool(block)
	if err != nil {
		pool = &subnet.PoolConfig{
			Gateway: block.First().String(),
			PoolEnd: block.Last().String(),
		}
		if seg.BeginIP == "" {
			return append(errs, field.Invalid(p.Child("beginIP"), "", fmt.Sprintf("cannot be derived for %s, set it explicitly: %v", block, err)))
		}
	}

	if seg.Routers == "" {
		seg.Routers = pool.Gateway
	}
	if seg.BeginIP == "" {
		seg.BeginIP = pool.PoolStart
	}
	if seg.EndIP == "" {
		seg.EndIP = pool.PoolEnd
	}

	addrs := map[string]net.IP{}
	for _, opt := range []struct {
		name  string
		value string
	}{{"routers", seg.Routers}, {"beginIP", seg.BeginIP}, {"endIP", seg.EndIP}} {
		ip := net.ParseIP(opt.value)
		addrs[opt.name] = ip
		if !block.Contains(ip) {
			errs = append(errs, field.Invalid(p.Child(opt.name), opt.value, fmt.Sprintf("not within %s", block)))
		}
	}
	if len(errs) == 0 && subnet.IsIPLess(addrs["endIP"], addrs["beginIP"]) {
		errs = append(errs, field.Invalid(p.Child("endIP"), seg.EndIP, fmt.Sprintf("must not be before beginIP %s", seg.BeginIP)))
	}
	return errs
}

func validateIPv4(p *field.Path, value string) field.ErrorList {
	if value == "" {
		return field.ErrorList{field.Required(p, "")}
	}
	if _, err := subnet.ParseIPv4(value); err != nil {
		return field.ErrorList{field.Invalid(p, value, "must be a valid IPv4 address")}
	}
	return nil
}
