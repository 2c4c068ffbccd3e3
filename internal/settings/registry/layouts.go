package registry

import (
	"github.com/circuitsetup/sidconf/internal/core/domain"
	"github.com/circuitsetup/sidconf/internal/settings/validate"
	"github.com/circuitsetup/sidconf/internal/storage/record"
)

// Binary record layouts. Layouts are append-only: a new version copies the
// previous field list and adds fields at the end.
var (
	SecondaryLayout = &record.Layout{
		Name:    domain.RecordSecondary,
		Version: 1,
		Fields: []record.Field{
			{Name: "brightness", Kind: record.Uint16},
			{Name: "irLocked", Kind: record.Uint8},
			{Name: "strictMode", Kind: record.Uint8},
			{Name: "saPeaks", Kind: record.Uint8},
			{Name: "irShowPosFB", Kind: record.Uint8},
			{Name: "irShowCmdFB", Kind: record.Uint8},
			{Name: "showUpdAvail", Kind: record.Uint8},
		},
	}

	TertiaryLayout = &record.Layout{
		Name:    domain.RecordTertiary,
		Version: 1,
		Fields: []record.Field{
			{Name: "bootMode", Kind: record.Uint8},
			{Name: "idleMode", Kind: record.Uint8},
		},
	}

	IPOverrideLayout = &record.Layout{
		Name:    domain.RecordIPOverride,
		Version: 1,
		Fields: []record.Field{
			{Name: "ip", Kind: record.Text, Size: domain.IPFieldSize},
			{Name: "gateway", Kind: record.Text, Size: domain.IPFieldSize},
			{Name: "netmask", Kind: record.Text, Size: domain.IPFieldSize},
			{Name: "dns", Kind: record.Text, Size: domain.IPFieldSize},
		},
	}

	IdentityLayout = &record.Layout{
		Name:    domain.RecordIdentity,
		Version: 1,
		Fields: []record.Field{
			{Name: "id", Kind: record.Uint32},
		},
	}
)

// Layouts returns every binary layout keyed by record name.
func Layouts() map[string]*record.Layout {
	return map[string]*record.Layout{
		domain.RecordSecondary:  SecondaryLayout,
		domain.RecordTertiary:   TertiaryLayout,
		domain.RecordIPOverride: IPOverrideLayout,
		domain.RecordIdentity:   IdentityLayout,
	}
}

func encodeSecondary(g domain.SecondaryGroup) ([]byte, error) {
	e := SecondaryLayout.NewEncoder()
	e.PutUint16(g.Brightness)
	e.PutBool(g.IRLocked)
	e.PutBool(g.StrictMode)
	e.PutBool(g.SAPeaks)
	e.PutBool(g.IRShowPosFB)
	e.PutBool(g.IRShowCmdFB)
	e.PutBool(g.ShowUpdAvail)
	return e.Bytes()
}

// decodeSecondary decodes payload over the compiled defaults. It reports
// whether the stored record was shorter than the layout.
func decodeSecondary(payload []byte) (domain.SecondaryGroup, bool, error) {
	defaults, err := encodeSecondary(domain.DefaultSecondary())
	if err != nil {
		return domain.SecondaryGroup{}, false, err
	}
	d := SecondaryLayout.NewDecoder(payload, defaults)
	g := domain.SecondaryGroup{
		Brightness:   d.Uint16(),
		IRLocked:     d.Bool(),
		StrictMode:   d.Bool(),
		SAPeaks:      d.Bool(),
		IRShowPosFB:  d.Bool(),
		IRShowCmdFB:  d.Bool(),
		ShowUpdAvail: d.Bool(),
	}
	return g, d.Partial(), d.Err()
}

func encodeTertiary(g domain.TertiaryGroup) ([]byte, error) {
	e := TertiaryLayout.NewEncoder()
	e.PutUint8(g.BootMode)
	e.PutUint8(g.IdleMode)
	return e.Bytes()
}

func decodeTertiary(payload []byte) (domain.TertiaryGroup, bool, error) {
	defaults, err := encodeTertiary(domain.DefaultTertiary())
	if err != nil {
		return domain.TertiaryGroup{}, false, err
	}
	d := TertiaryLayout.NewDecoder(payload, defaults)
	g := domain.TertiaryGroup{
		BootMode: d.Uint8(),
		IdleMode: d.Uint8(),
	}
	return g, d.Partial(), d.Err()
}

func encodeIPOverride(o domain.IPOverride) ([]byte, error) {
	e := IPOverrideLayout.NewEncoder()
	e.PutText(o.IP)
	e.PutText(o.Gateway)
	e.PutText(o.Netmask)
	e.PutText(o.DNS)
	return e.Bytes()
}

func decodeIPOverride(payload []byte) (domain.IPOverride, error) {
	defaults := make([]byte, IPOverrideLayout.Size())
	d := IPOverrideLayout.NewDecoder(payload, defaults)
	o := domain.IPOverride{
		IP:      d.Text(),
		Gateway: d.Text(),
		Netmask: d.Text(),
		DNS:     d.Text(),
	}
	return o, d.Err()
}

func encodeIdentity(id domain.DeviceIdentity) ([]byte, error) {
	e := IdentityLayout.NewEncoder()
	e.PutUint32(uint32(id))
	return e.Bytes()
}

func decodeIdentity(payload []byte) (domain.DeviceIdentity, error) {
	d := IdentityLayout.NewDecoder(payload, make([]byte, IdentityLayout.Size()))
	id := domain.DeviceIdentity(d.Uint32())
	return id, d.Err()
}

// clampText keeps s within a null-padded field of size bytes.
func clampText(s string) string {
	return validate.Truncate(s, domain.IPFieldSize-1)
}

// DefaultPayload returns the payload of the compiled defaults for the
// binary record name. Records without defaults encode as zero bytes.
func DefaultPayload(name string) ([]byte, error) {
	switch name {
	case domain.RecordSecondary:
		return encodeSecondary(domain.DefaultSecondary())
	case domain.RecordTertiary:
		return encodeTertiary(domain.DefaultTertiary())
	}
	l, ok := Layouts()[name]
	if !ok {
		return nil, domain.ErrRecordNotFound.WithDetails(name)
	}
	return make([]byte, l.Size()), nil
}
