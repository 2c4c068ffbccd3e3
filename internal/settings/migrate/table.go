package migrate

import (
	"strconv"

	"github.com/circuitsetup/sidconf/internal/core/domain"
	"github.com/circuitsetup/sidconf/internal/settings/validate"
	"github.com/circuitsetup/sidconf/internal/storage/medium"
)

// Target names the current-format record an artifact converts into.
type Target int

const (
	TargetIPOverride Target = iota
	TargetIdentity
	TargetSecondary
	TargetTertiary
)

// String returns the target record name.
func (t Target) String() string {
	switch t {
	case TargetIPOverride:
		return domain.RecordIPOverride
	case TargetIdentity:
		return domain.RecordIdentity
	case TargetSecondary:
		return domain.RecordSecondary
	case TargetTertiary:
		return domain.RecordTertiary
	default:
		return "target(" + strconv.Itoa(int(t)) + ")"
	}
}

// Policy decides what an invalid legacy value does to its artifact.
type Policy int

const (
	// Required discards the whole artifact when the value is missing or
	// invalid.
	Required Policy = iota

	// Strict applies the value only when it is valid as stored and
	// otherwise ignores it.
	Strict
)

// Kind is the legacy value type.
type Kind int

const (
	// KindInt is a decimal integer checked against Rule.
	KindInt Kind = iota

	// KindText is a non-empty string truncated to Size-1 bytes.
	KindText

	// KindUint32 is a non-zero unsigned 32-bit number.
	KindUint32
)

// Names of converted values handed to the Sink.
const (
	ValueIP         = "ip"
	ValueGateway    = "gateway"
	ValueNetmask    = "netmask"
	ValueDNS        = "dns"
	ValueID         = "id"
	ValueBrightness = "brightness"
	ValueIRLocked   = "irLocked"
	ValueIdleMode   = "idleMode"
	ValueStrictMode = "strictMode"

	valuePattern = "pattern"
)

// FieldMap maps one legacy field onto a converted value.
type FieldMap struct {
	Old    string
	New    string
	Kind   Kind
	Rule   validate.IntRule
	Size   int
	Policy Policy
}

// Values holds converted values keyed by their new names, in canonical
// string form.
type Values map[string]string

// Int returns a converted integer value.
func (v Values) Int(key string) (int, bool) {
	s, ok := v[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

// Uint32 returns a converted 32-bit value.
func (v Values) Uint32(key string) (uint32, bool) {
	s, ok := v[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 32)
	return uint32(n), err == nil
}

// Artifact describes one obsolete record.
type Artifact struct {
	Name   string
	Target Target

	// Class sets the media searched first, as the record was once stored.
	Class medium.Class

	// CardOnly restricts the search to the card.
	CardOnly bool

	Fields []FieldMap

	// Transform rewrites converted values before they reach the Sink.
	Transform func(Values) Values
}

// Artifacts returns the compiled-in legacy table.
func Artifacts() []Artifact {
	return []Artifact{
		{
			Name:   domain.LegacyIPOverride,
			Target: TargetIPOverride,
			Class:  medium.ClassFlashPreferred,
			Fields: []FieldMap{
				{Old: "IpAddress", New: ValueIP, Kind: KindText, Size: domain.IPFieldSize, Policy: Required},
				{Old: "Gateway", New: ValueGateway, Kind: KindText, Size: domain.IPFieldSize, Policy: Required},
				{Old: "Netmask", New: ValueNetmask, Kind: KindText, Size: domain.IPFieldSize, Policy: Required},
				{Old: "DNS", New: ValueDNS, Kind: KindText, Size: domain.IPFieldSize, Policy: Required},
			},
		},
		{
			Name:   domain.LegacyIdentity,
			Target: TargetIdentity,
			Class:  medium.ClassFlashPreferred,
			Fields: []FieldMap{
				{Old: "ID", New: ValueID, Kind: KindUint32, Policy: Required},
			},
		},
		{
			Name:   domain.LegacyBrightness,
			Target: TargetSecondary,
			Class:  medium.ClassSelectable,
			Fields: []FieldMap{
				{Old: "brightness", New: ValueBrightness, Kind: KindInt, Rule: validate.IntRule{Min: 0, Max: domain.MaxBrightness, Default: domain.MaxBrightness}, Policy: Strict},
			},
		},
		{
			Name:   domain.LegacyIRLock,
			Target: TargetSecondary,
			Class:  medium.ClassSelectable,
			Fields: []FieldMap{
				{Old: "lock", New: ValueIRLocked, Kind: KindInt, Rule: validate.IntRule{Min: 0, Max: 1, Default: 0}, Policy: Strict},
			},
		},
		{
			Name:     domain.LegacyIdlePattern,
			Target:   TargetTertiary,
			Class:    medium.ClassCardOnly,
			CardOnly: true,
			Fields: []FieldMap{
				{Old: "pattern", New: valuePattern, Kind: KindInt, Rule: validate.IntRule{Min: 0, Max: 0x1f, Default: 0}, Policy: Strict},
			},
			Transform: splitIdlePattern,
		},
	}
}

// splitIdlePattern separates the strict-mode flag kept in bit 4 of the old
// idle pattern from the idle mode in the low bits.
func splitIdlePattern(in Values) Values {
	p, ok := in.Int(valuePattern)
	if !ok {
		return Values{}
	}
	mode := p & 0x0f
	if mode > domain.MaxIdleMode {
		mode = 0
	}
	return Values{
		ValueIdleMode:   strconv.Itoa(mode),
		ValueStrictMode: validate.FormatBool(p&0x10 != 0),
	}
}

// convert maps the legacy fields found in src. It returns false when a
// required field is missing or invalid.
func (a Artifact) convert(src domain.Source) (Values, bool) {
	out := make(Values, len(a.Fields))
	for _, f := range a.Fields {
		raw, present := src.Lookup(f.Old)
		v, ok := f.convert(raw, present)
		if !ok {
			if f.Policy == Required {
				return nil, false
			}
			continue
		}
		out[f.New] = v
	}
	if a.Transform != nil {
		out = a.Transform(out)
	}
	return out, true
}

func (f FieldMap) convert(raw string, present bool) (string, bool) {
	if !present {
		return "", false
	}
	switch f.Kind {
	case KindInt:
		if !validate.InRange(raw, f.Rule) {
			return "", false
		}
		v, _ := validate.Int(raw, present, f.Rule)
		return v, true
	case KindText:
		if raw == "" {
			return "", false
		}
		max := f.Size - 1
		return validate.Truncate(raw, max), true
	case KindUint32:
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || n == 0 {
			return "", false
		}
		return strconv.FormatUint(n, 10), true
	}
	return "", false
}
