package subnet

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrLastOctetOverflow is returned when the last octet of an address is 255
// and cannot be incremented without carrying into the third octet.
var ErrLastOctetOverflow = errors.New("last octet overflow")

// PoolConfig contains the pool configuration derived from a block.
type PoolConfig struct {
	Gateway   string // First usable IP (e.g., 192.168.5.1)
	PoolStart string // Gateway with the last octet incremented (e.g., 192.168.5.2)
	PoolEnd   string // Last usable IP (e.g., 192.168.5.254)
}

// Block is an IPv4 network described by its network address and a dotted
// quad netmask.
type Block struct {
	Network   net.IP
	Mask      net.IPMask
	Broadcast net.IP
}

// ParseIPv4 parses a dotted quad IPv4 address. IPv6 and IPv4-mapped forms are rejected.
func ParseIPv4(s string) (net.IP, error) {
	if strings.Contains(s, ":") {
		return nil, fmt.Errorf("not an IPv4 address: %q", s)
	}
	ip := net.ParseIP(s).To4()
	if ip == nil {
		return nil, fmt.Errorf("not an IPv4 address: %q", s)
	}
	return ip, nil
}

// ParseBlock combines a network address and a dotted quad netmask into a
// block. The mask must be contiguous and the address must not carry host bits.
func ParseBlock(subnet, netmask string) (*Block, error) {
	ip, err := ParseIPv4(subnet)
	if err != nil {
		return nil, err
	}
	m, err := ParseIPv4(netmask)
	if err != nil {
		return nil, err
	}
	mask := net.IPMask(m)
	if _, bits := mask.Size(); bits == 0 {
		return nil, fmt.Errorf("netmask %s is not contiguous", netmask)
	}
	if !ip.Mask(mask).Equal(ip) {
		return nil, fmt.Errorf("%s has host bits set for netmask %s", subnet, netmask)
	}

	broadcast := make(net.IP, 4)
	for i := range 4 {
		broadcast[i] = ip[i] | ^mask[i]
	}

	return &Block{Network: ip, Mask: mask, Broadcast: broadcast}, nil
}

// Prefix returns the prefix length of the block.
func (b *Block) Prefix() int {
	ones, _ := b.Mask.Size()
	return ones
}

// First returns the first usable address: network + 1, or the network
// address itself for /31 and /32 blocks.
func (b *Block) First() net.IP {
	first := make(net.IP, 4)
	copy(first, b.Network)
	if b.Prefix() < 31 {
		first[3]++
	}
	return first
}

// Last returns the last usable address: broadcast - 1, or the broadcast
// address itself for /31 and /32 blocks.
func (b *Block) Last() net.IP {
	last := make(net.IP, 4)
	copy(last, b.Broadcast)
	if b.Prefix() < 31 {
		last[3]--
	}
	return last
}

// Contains reports whether ip lies inside the block.
func (b *Block) Contains(ip net.IP) bool {
	ip4 := ip.To4()
	if ip4 == nil {
		return false
	}
	return ip4.Mask(b.Mask).Equal(b.Network)
}

func (b *Block) String() string {
	return fmt.Sprintf("%s/%d", b.Network, b.Prefix())
}

// IncrementLastOctet adds one to the last octet only. There is no carry into
// the third octet; an address ending in .255 yields ErrLastOctetOverflow.
func IncrementLastOctet(ip net.IP) (net.IP, error) {
	ip4 := ip.To4()
	if ip4 == nil {
		return nil, fmt.Errorf("not an IPv4 address: %s", ip)
	}
	if ip4[3] == 255 {
		return nil, fmt.Errorf("cannot increment %s: %w", ip4, ErrLastOctetOverflow)
	}
	next := make(net.IP, 4)
	copy(next, ip4)
	next[3]++
	return next, nil
}

// CalculatePool derives gateway and pool range for a block.
// Gateway is the first usable address, the pool starts right after it and
// ends at the last usable address.
func CalculatePool(b *Block) (*PoolConfig, error) {
	gateway := b.First()

	poolStart, err := IncrementLastOctet(gateway)
	if err != nil {
		return nil, err
	}

	poolEnd := b.Last()

	// Validate that pool range is valid (start <= end)
	if !b.Contains(poolStart) || IsIPLess(poolEnd, poolStart) {
		return nil, fmt.Errorf("network %s is too small for a valid pool", b)
	}

	return &PoolConfig{
		Gateway:   gateway.String(),
		PoolStart: poolStart.String(),
		PoolEnd:   poolEnd.String(),
	}, nil
}

// IsIPLess returns true if a < b for IPv4 addresses
func IsIPLess(a, b net.IP) bool {
	a4, b4 := a.To4(), b.To4()
	for i := range 4 {
		if a4[i] < b4[i] {
			return true
		}
		if a4[i] > b4[i] {
			return false
		}
	}
	return false
}
