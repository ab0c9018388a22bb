package topology

import (
	"fmt"
	"net/netip"
)

// AnyAddress is the exposure source literal that opens load balancer ingress
// to every IPv4 address.
const AnyAddress = "any-address"

// legacyAnyAddress is accepted as a synonym of AnyAddress.
const legacyAnyAddress = "0.0.0.0"

// HostAddress is a single IPv4 host. There is no range form: every peer built
// from a HostAddress is a /32.
type HostAddress struct {
	addr netip.Addr
}

// ParseHostAddress parses s as one IPv4 host. CIDR notation is rejected.
func ParseHostAddress(s string) (HostAddress, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return HostAddress{}, fmt.Errorf("%q is not a single IPv4 host", s)
	}
	if !addr.Is4() {
		return HostAddress{}, fmt.Errorf("%q is not an IPv4 address", s)
	}
	if addr.IsUnspecified() {
		return HostAddress{}, fmt.Errorf("%q is not a host address", s)
	}
	return HostAddress{addr: addr}, nil
}

func (h HostAddress) String() string {
	return h.addr.String()
}

// CIDR returns the /32 block for the host.
func (h HostAddress) CIDR() string {
	return netip.PrefixFrom(h.addr, 32).String()
}

// IsZero reports whether h was never parsed.
func (h HostAddress) IsZero() bool {
	return !h.addr.IsValid()
}

// ExposureSource is the validated ingress source of the load balancer: either
// every IPv4 address or a single host.
type ExposureSource struct {
	any  bool
	host HostAddress
}

// ParseExposureSource interprets the exposureSourceAddress option.
func ParseExposureSource(s string) (ExposureSource, error) {
	switch s {
	case "":
		return ExposureSource{}, fmt.Errorf("source address is empty")
	case AnyAddress, legacyAnyAddress:
		return ExposureSource{any: true}, nil
	}
	host, err := ParseHostAddress(s)
	if err != nil {
		return ExposureSource{}, err
	}
	return ExposureSource{host: host}, nil
}

// Unrestricted reports whether ingress is open to any IPv4 address.
func (s ExposureSource) Unrestricted() bool {
	return s.any
}

// Host returns the restricted host. It is the zero value when Unrestricted.
func (s ExposureSource) Host() HostAddress {
	return s.host
}

// Peer returns the allow-edge source for this exposure source.
func (s ExposureSource) Peer() Peer {
	if s.any {
		return AnyIPv4()
	}
	return FromHost(s.host)
}
