package domain

import (
	"errors"
	"testing"
)

type mapSource map[string]string

func (m mapSource) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// fullSource returns a document holding every field at its default.
func fullSource() mapSource {
	src := mapSource{}
	for _, f := range primaryFields {
		src[f.Key] = f.DefaultValue()
	}
	return src
}

func TestNewPrimaryConfig_Defaults(t *testing.T) {
	c := NewPrimaryConfig()

	tests := []struct {
		key  string
		want string
	}{
		{KeyHostName, "sid"},
		{KeyWiFiRetries, "3"},
		{KeyWiFiTimeout, "7"},
		{KeyAPChannel, "1"},
		{KeyCfgOnSD, "1"},
		{"bttfnTT", "1"},
		{KeySSID, ""},
	}
	for _, tt := range tests {
		if got := c.Get(tt.key); got != tt.want {
			t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
	if c.WiFiPresent {
		t.Error("WiFiPresent should be false by default")
	}
	if !c.StoreSecondaryOnCard() {
		t.Error("StoreSecondaryOnCard should default to true")
	}
}

func TestPrimaryConfig_Apply_CompleteDocument(t *testing.T) {
	c := NewPrimaryConfig()
	src := fullSource()
	src[KeyWiFiRetries] = "5"
	src[KeySSID] = "Flux"
	src[KeyPass] = "capacitor"

	if rewrite := c.Apply(src, true); rewrite {
		t.Error("Apply() on a complete valid document should not request a rewrite")
	}
	if c.Int(KeyWiFiRetries) != 5 {
		t.Errorf("wifiConRetries = %d, want 5", c.Int(KeyWiFiRetries))
	}
	if !c.WiFiPresent || c.Get(KeySSID) != "Flux" || c.Get(KeyPass) != "capacitor" {
		t.Errorf("credentials not applied: present=%v ssid=%q", c.WiFiPresent, c.Get(KeySSID))
	}
}

func TestPrimaryConfig_Apply_OutOfRange(t *testing.T) {
	c := NewPrimaryConfig()
	src := fullSource()
	src[KeyAPChannel] = "42"

	if !c.Apply(src, true) {
		t.Fatal("Apply() should request a rewrite for a clamped field")
	}
	if got := c.Get(KeyAPChannel); got != "11" {
		t.Errorf("apch = %q, want %q", got, "11")
	}
}

func TestPrimaryConfig_Apply_MissingFieldKeepsValue(t *testing.T) {
	c := NewPrimaryConfig()
	if _, err := c.Set(KeyWiFiTimeout, "20"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	src := fullSource()
	delete(src, KeyWiFiTimeout)

	if !c.Apply(src, false) {
		t.Error("Apply() should request a rewrite when a field is absent")
	}
	if got := c.Get(KeyWiFiTimeout); got != "20" {
		t.Errorf("wifiConTimeout = %q, want previous value %q", got, "20")
	}
}

func TestPrimaryConfig_Apply_SSIDTag(t *testing.T) {
	t.Run("first read without tag clears marker", func(t *testing.T) {
		c := NewPrimaryConfig()
		c.SetCredentials("old", "secret")
		if c.Apply(fullSource(), true) {
			t.Error("missing ssid tag alone should not request a rewrite on first read")
		}
		if c.WiFiPresent || c.Get(KeySSID) != "" {
			t.Error("first read without ssid tag should clear credentials")
		}
	})

	t.Run("overlay read without tag rewrites known credentials", func(t *testing.T) {
		c := NewPrimaryConfig()
		c.SetCredentials("Flux", "capacitor")
		if !c.Apply(fullSource(), false) {
			t.Error("overlay read should request a rewrite to carry credentials over")
		}
		if c.Get(KeySSID) != "Flux" {
			t.Errorf("ssid = %q, want %q", c.Get(KeySSID), "Flux")
		}
	})
}

func TestPrimaryConfig_Set(t *testing.T) {
	c := NewPrimaryConfig()

	changed, err := c.Set(KeyHostName, "SID-Lab")
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if !changed || c.Get(KeyHostName) != "sid-lab" {
		t.Errorf("hostName = %q changed=%v, want lowercase and changed", c.Get(KeyHostName), changed)
	}

	changed, _ = c.Set(KeyAPPassword, "short")
	if !changed || c.Get(KeyAPPassword) != "" {
		t.Errorf("appw shorter than 8 should be cleared, got %q", c.Get(KeyAPPassword))
	}

	changed, _ = c.Set("useNM", "1")
	if changed || !c.Bool("useNM") {
		t.Error("valid toggle should be stored unchanged")
	}

	_, err = c.Set("noSuchField", "1")
	if !errors.Is(err, ErrUnknownField) {
		t.Errorf("Set() error = %v, want ErrUnknownField", err)
	}
}

func TestPrimaryConfig_Each(t *testing.T) {
	c := NewPrimaryConfig()

	var keys []string
	c.Each(func(f FieldSpec, _ string) { keys = append(keys, f.Key) })
	if len(keys) != len(primaryFields) {
		t.Errorf("Each() without credentials visited %d fields, want %d", len(keys), len(primaryFields))
	}
	if keys[0] != KeyHostName {
		t.Errorf("first key = %q, want %q", keys[0], KeyHostName)
	}

	c.SetCredentials("Flux", "")
	keys = keys[:0]
	c.Each(func(f FieldSpec, _ string) { keys = append(keys, f.Key) })
	if keys[0] != KeySSID || keys[1] != KeyPass {
		t.Errorf("credentials should lead the document, got %v", keys[:2])
	}
}

func TestPrimaryConfig_Clone(t *testing.T) {
	c := NewPrimaryConfig()
	cp := c.Clone()
	if _, err := cp.Set(KeyHostName, "other"); err != nil {
		t.Fatal(err)
	}
	if c.Get(KeyHostName) != "sid" {
		t.Error("Clone() should not share storage")
	}
}

func TestPrimaryFields_UniqueKeys(t *testing.T) {
	seen := make(map[string]bool)
	for _, f := range PrimaryFields() {
		if seen[f.Key] {
			t.Errorf("duplicate field key %q", f.Key)
		}
		seen[f.Key] = true
		if v, changed := f.Normalize(f.DefaultValue(), true); changed || v != f.DefaultValue() {
			t.Errorf("default of %q does not validate: %q", f.Key, v)
		}
	}
}
