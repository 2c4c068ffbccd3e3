package domain

import (
	"strconv"
	"strings"

	"github.com/circuitsetup/sidconf/internal/settings/validate"
)

// FieldKind selects how a primary field is validated.
type FieldKind int

const (
	FieldInt FieldKind = iota
	FieldFixed
	FieldText
)

// String returns the kind name.
func (k FieldKind) String() string {
	switch k {
	case FieldInt:
		return "int"
	case FieldFixed:
		return "fixed"
	case FieldText:
		return "text"
	default:
		return "unknown"
	}
}

// FieldSpec declares one named field of the primary document.
type FieldSpec struct {
	Key     string
	Kind    FieldKind
	Int     validate.IntRule
	Fixed   validate.FixedRule
	MaxLen  int    // text fields: maximum stored bytes
	Default string // text fields: compiled default
	Lower   bool   // text fields: lowercase on store
	Secret  bool   // never shown or logged in clear
	Group   string
}

// DefaultValue returns the compiled default in stored form.
func (f FieldSpec) DefaultValue() string {
	switch f.Kind {
	case FieldInt:
		return strconv.Itoa(f.Int.Default)
	case FieldFixed:
		s, _ := validate.Fixed("", false, f.Fixed)
		return s
	default:
		return f.Default
	}
}

// Normalize validates raw for this field. See package validate for the
// meaning of the changed flag.
func (f FieldSpec) Normalize(raw string, present bool) (string, bool) {
	switch f.Kind {
	case FieldInt:
		return validate.Int(raw, present, f.Int)
	case FieldFixed:
		return validate.Fixed(raw, present, f.Fixed)
	default:
		v, changed := validate.Text(raw, present, f.MaxLen)
		if f.Lower {
			v = strings.ToLower(v)
		}
		return v, changed
	}
}

// Field groups.
const (
	GroupNetwork   = "network"
	GroupBehaviour = "behaviour"
	GroupMessaging = "messaging"
)

// Primary field keys referenced by code.
const (
	KeySSID           = "ssid"
	KeyPass           = "pass"
	KeyHostName       = "hostName"
	KeyWiFiRetries    = "wifiConRetries"
	KeyWiFiTimeout    = "wifiConTimeout"
	KeySystemID       = "systemID"
	KeyAPPassword     = "appw"
	KeyAPChannel      = "apch"
	KeyAPOffDelay     = "wAOD"
	KeyRemoteIP       = "tcdIP"
	KeyCfgOnSD        = "CfgOnSD"
	KeyUseMQTT        = "useMQTT"
	KeyMQTTServer     = "mqttServer"
	KeyMQTTVersion    = "mqttV"
	KeyMQTTUser       = "mqttUser"
	minAPPasswordSize = 8
)

func toggle(key string, def int, group string) FieldSpec {
	return FieldSpec{Key: key, Kind: FieldInt, Int: validate.IntRule{Min: 0, Max: 1, Default: def}, Group: group}
}

func text(key string, max int, group string) FieldSpec {
	return FieldSpec{Key: key, Kind: FieldText, MaxLen: max, Group: group}
}

// primaryFields is the ordered field table of the primary document.
// ssid and pass are handled separately and are not part of this table.
var primaryFields = []FieldSpec{
	{Key: KeyHostName, Kind: FieldText, MaxLen: 31, Default: "sid", Lower: true, Group: GroupNetwork},
	{Key: KeyWiFiRetries, Kind: FieldInt, Int: validate.IntRule{Min: 1, Max: 10, Default: 3}, Group: GroupNetwork},
	{Key: KeyWiFiTimeout, Kind: FieldInt, Int: validate.IntRule{Min: 7, Max: 25, Default: 7}, Group: GroupNetwork},
	text(KeySystemID, 7, GroupNetwork),
	{Key: KeyAPPassword, Kind: FieldText, MaxLen: 8, Secret: true, Group: GroupNetwork},
	{Key: KeyAPChannel, Kind: FieldInt, Int: validate.IntRule{Min: 0, Max: 11, Default: 1}, Group: GroupNetwork},
	{Key: KeyAPOffDelay, Kind: FieldInt, Int: validate.IntRule{Min: 0, Max: 99, Default: 0}, Group: GroupNetwork},

	toggle("skipTTAnim", 0, GroupBehaviour),
	{Key: "ssTimer", Kind: FieldInt, Int: validate.IntRule{Min: 0, Max: 999, Default: 0}, Group: GroupBehaviour},
	{Key: KeyRemoteIP, Kind: FieldText, MaxLen: 63, Lower: true, Group: GroupBehaviour},
	toggle("useGPSS", 0, GroupBehaviour),
	toggle("useNM", 0, GroupBehaviour),
	toggle("useFPO", 0, GroupBehaviour),
	toggle("bttfnTT", 1, GroupBehaviour),
	toggle("ssClock", 0, GroupBehaviour),
	toggle("ssClkOffNM", 0, GroupBehaviour),
	toggle("TCDpresent", 0, GroupBehaviour),
	toggle("noETTOLead", 0, GroupBehaviour),
	toggle(KeyCfgOnSD, 1, GroupBehaviour),
	toggle("disDIR", 0, GroupBehaviour),

	toggle(KeyUseMQTT, 0, GroupMessaging),
	text(KeyMQTTServer, 79, GroupMessaging),
	toggle(KeyMQTTVersion, 0, GroupMessaging),
	{Key: KeyMQTTUser, Kind: FieldText, MaxLen: 63, Secret: true, Group: GroupMessaging},
}

var (
	ssidField = FieldSpec{Key: KeySSID, Kind: FieldText, MaxLen: 32, Group: GroupNetwork}
	passField = FieldSpec{Key: KeyPass, Kind: FieldText, MaxLen: 64, Secret: true, Group: GroupNetwork}
)

// PrimaryFields returns the field table in document order, including the
// credential fields.
func PrimaryFields() []FieldSpec {
	out := make([]FieldSpec, 0, len(primaryFields)+2)
	out = append(out, ssidField, passField)
	return append(out, primaryFields...)
}

// LookupField returns the field definition for key.
func LookupField(key string) (FieldSpec, bool) {
	for _, f := range PrimaryFields() {
		if f.Key == key {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Source is a read-only view of a parsed document.
type Source interface {
	Lookup(key string) (string, bool)
}

// PrimaryConfig holds the primary settings as named strings.
//
// The zero value is not usable; use NewPrimaryConfig.
type PrimaryConfig struct {
	values map[string]string

	// WiFiPresent is set when credentials were configured or the ssid tag
	// was present in a document read at boot. Credentials are only
	// written back when it is set.
	WiFiPresent bool
}

// NewPrimaryConfig returns a config populated with compiled defaults.
func NewPrimaryConfig() *PrimaryConfig {
	c := &PrimaryConfig{values: make(map[string]string, len(primaryFields)+2)}
	for _, f := range PrimaryFields() {
		c.values[f.Key] = f.DefaultValue()
	}
	return c
}

// Get returns the stored value of key, or "" for unknown keys.
func (c *PrimaryConfig) Get(key string) string {
	return c.values[key]
}

// Int returns key parsed as an integer. Unparseable values yield 0.
func (c *PrimaryConfig) Int(key string) int {
	v, _ := strconv.Atoi(c.values[key])
	return v
}

// Bool returns key interpreted as a toggle.
func (c *PrimaryConfig) Bool(key string) bool {
	return validate.Bool(c.values[key])
}

// Set validates value against the field table and stores it.
// It reports whether the stored value differs from the input.
func (c *PrimaryConfig) Set(key, value string) (bool, error) {
	f, ok := LookupField(key)
	if !ok {
		return false, ErrUnknownField.WithDetails(key)
	}
	v, changed := f.Normalize(value, true)
	if key == KeyAPPassword && v != "" && len(v) < minAPPasswordSize {
		v, changed = "", true
	}
	c.values[key] = v
	if key == KeySSID || key == KeyPass {
		c.WiFiPresent = true
	}
	return changed || v != value, nil
}

// SetCredentials stores the network name and password.
func (c *PrimaryConfig) SetCredentials(ssid, pass string) {
	c.values[KeySSID], _ = ssidField.Normalize(ssid, true)
	c.values[KeyPass], _ = passField.Normalize(pass, true)
	c.WiFiPresent = true
}

// Apply merges fields from src into c and reports whether the document
// should be rewritten.
//
// Absent fields keep their current value but request a rewrite. On the
// first read (first == true) a missing ssid tag clears the credentials and
// the WiFiPresent marker; on later overlay reads a missing tag requests a
// rewrite when credentials are known from the earlier read.
func (c *PrimaryConfig) Apply(src Source, first bool) bool {
	rewrite := false

	if ssid, ok := src.Lookup(KeySSID); ok {
		c.values[KeySSID], _ = ssidField.Normalize(ssid, true)
		pass, _ := src.Lookup(KeyPass)
		c.values[KeyPass], _ = passField.Normalize(pass, true)
		c.WiFiPresent = true
	} else if first {
		c.values[KeySSID] = ""
		c.values[KeyPass] = ""
		c.WiFiPresent = false
	} else if c.WiFiPresent {
		rewrite = true
	}

	for _, f := range primaryFields {
		raw, ok := src.Lookup(f.Key)
		if !ok {
			rewrite = true
			continue
		}
		v, changed := f.Normalize(raw, true)
		c.values[f.Key] = v
		rewrite = rewrite || changed
	}
	return rewrite
}

// Each calls fn for every field that belongs in the stored document, in
// document order.
func (c *PrimaryConfig) Each(fn func(f FieldSpec, value string)) {
	if c.WiFiPresent {
		fn(ssidField, c.values[KeySSID])
		fn(passField, c.values[KeyPass])
	}
	for _, f := range primaryFields {
		fn(f, c.values[f.Key])
	}
}

// Clone returns a deep copy.
func (c *PrimaryConfig) Clone() *PrimaryConfig {
	out := &PrimaryConfig{values: make(map[string]string, len(c.values)), WiFiPresent: c.WiFiPresent}
	for k, v := range c.values {
		out.values[k] = v
	}
	return out
}

// StoreSecondaryOnCard reports the "store secondary settings on card"
// preference.
func (c *PrimaryConfig) StoreSecondaryOnCard() bool {
	return c.Bool(KeyCfgOnSD)
}
