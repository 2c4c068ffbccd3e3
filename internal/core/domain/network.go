package domain

import (
	"fmt"
	"net/netip"
)

// IPFieldSize is the stored width of each IPOverride text field.
const IPFieldSize = 16

// IPOverride is a static network configuration replacing DHCP.
// An empty IP means no override.
type IPOverride struct {
	IP      string `json:"ip"`
	Gateway string `json:"gateway"`
	Netmask string `json:"netmask"`
	DNS     string `json:"dns"`
}

// IsSet reports whether an override is configured.
func (o IPOverride) IsSet() bool {
	return o.IP != ""
}

// Validate checks that all four fields are dotted-quad IPv4 addresses and
// that the netmask is contiguous.
func (o IPOverride) Validate() error {
	for _, f := range []struct{ name, value string }{
		{"ip", o.IP},
		{"gateway", o.Gateway},
		{"netmask", o.Netmask},
		{"dns", o.DNS},
	} {
		addr, err := netip.ParseAddr(f.value)
		if err != nil || !addr.Is4() {
			return ErrFieldOutOfRange.WithDetails(fmt.Sprintf("%s %q is not an IPv4 address", f.name, f.value))
		}
	}
	mask, _ := netip.ParseAddr(o.Netmask)
	if !contiguousMask(mask.As4()) {
		return ErrFieldOutOfRange.WithDetails(fmt.Sprintf("netmask %q is not contiguous", o.Netmask))
	}
	return nil
}

func contiguousMask(b [4]byte) bool {
	m := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	inv := ^m
	return inv&(inv+1) == 0
}
