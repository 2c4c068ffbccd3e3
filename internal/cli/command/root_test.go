package command

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/circuitsetup/sidconf/internal/core/domain"
)

// device holds the media directories of one simulated device.
type device struct {
	flash string
	card  string
}

func newDevice(t *testing.T) *device {
	t.Helper()
	root := t.TempDir()
	d := &device{flash: filepath.Join(root, "flash"), card: filepath.Join(root, "card")}
	if err := os.MkdirAll(d.card, 0o755); err != nil {
		t.Fatal(err)
	}
	return d
}

// run executes one CLI invocation against the device and returns stdout.
func (d *device) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := App()
	app.Writer = &out
	app.ErrWriter = io.Discard
	app.ExitErrHandler = func(*cli.Context, error) {}

	full := append([]string{"sidconf-cli", "--flash", d.flash, "--card", d.card}, args...)
	err := app.Run(full)
	return out.String(), err
}

func (d *device) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := d.run(t, args...)
	if err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out
}

func TestApp(t *testing.T) {
	app := App()
	if app.Name != "sidconf-cli" {
		t.Errorf("Name = %q", app.Name)
	}

	names := make(map[string]bool)
	for _, cmd := range app.Commands {
		names[cmd.Name] = true
	}
	for _, want := range []string{"show", "get", "set", "secondary", "tertiary", "ip", "keys", "move", "record", "version"} {
		if !names[want] {
			t.Errorf("missing command %q", want)
		}
	}

	flags := make(map[string]bool)
	for _, f := range app.Flags {
		flags[f.Names()[0]] = true
	}
	for _, want := range []string{"config", "flash", "card", "no-card", "backend", "output", "wide", "reveal", "verbose"} {
		if !flags[want] {
			t.Errorf("missing flag %q", want)
		}
	}
}

func TestApp_BadOutputFormat(t *testing.T) {
	d := newDevice(t)
	if _, err := d.run(t, "-o", "xml", "show"); err == nil {
		t.Error("expected error for unknown output format")
	}
}

func TestShow_FreshDevice(t *testing.T) {
	d := newDevice(t)
	out := d.mustRun(t, "-o", "json", "show")

	var rows []settingRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("Unmarshal() error = %v\n%s", err, out)
	}
	got := make(map[string]string)
	for _, r := range rows {
		got[r.Group+"."+r.Key] = r.Value
	}

	tests := map[string]string{
		"media.flash":          "true",
		"media.card":           "true",
		"media.selectableOn":   "card",
		"network.hostName":     "sid",
		"secondary.brightness": "15",
		"tertiary.idleMode":    "0",
		"keys.learned":         "false",
	}
	for key, want := range tests {
		if got[key] != want {
			t.Errorf("%s = %q, want %q", key, got[key], want)
		}
	}
	if got["media.identity"] == "" {
		t.Error("identity missing")
	}
	if _, err := os.Stat(filepath.Join(d.flash, domain.RecordPrimary)); err != nil {
		t.Errorf("primary document not written: %v", err)
	}
}

func TestShow_Group(t *testing.T) {
	d := newDevice(t)
	out := d.mustRun(t, "show", "--group", "secondary")
	if !strings.Contains(out, "brightness") {
		t.Errorf("missing brightness:\n%s", out)
	}
	if strings.Contains(out, "hostName") {
		t.Errorf("group filter ignored:\n%s", out)
	}
}

func TestGet(t *testing.T) {
	d := newDevice(t)

	tests := []struct {
		arg  string
		want string
	}{
		{"hostName", "sid"},
		{"network.hostName", "sid"},
		{"secondary.brightness", "15"},
		{"wifiConRetries", "3"},
	}
	for _, tt := range tests {
		if got := strings.TrimSpace(d.mustRun(t, "get", tt.arg)); got != tt.want {
			t.Errorf("get %s = %q, want %q", tt.arg, got, tt.want)
		}
	}

	_, err := d.run(t, "get", "noSuchKey")
	if !errors.Is(err, domain.ErrUnknownField) {
		t.Errorf("get unknown key error = %v, want ErrUnknownField", err)
	}
}

func TestSet_Bulk(t *testing.T) {
	d := newDevice(t)
	out := d.mustRun(t, "-o", "json", "set", "hostName=MySID", "wifiConRetries=99", "apch=5")

	var results []setResult
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("Unmarshal() error = %v\n%s", err, out)
	}
	want := []setResult{
		{Key: "hostName", Stored: "mysid", Adjusted: true},
		{Key: "wifiConRetries", Stored: "10", Adjusted: true},
		{Key: "apch", Stored: "5", Adjusted: false},
	}
	if len(results) != len(want) {
		t.Fatalf("results = %+v", results)
	}
	for i := range want {
		if results[i] != want[i] {
			t.Errorf("result[%d] = %+v, want %+v", i, results[i], want[i])
		}
	}

	if got := strings.TrimSpace(d.mustRun(t, "get", "hostName")); got != "mysid" {
		t.Errorf("after reboot hostName = %q, want mysid", got)
	}
}

func TestSet_Errors(t *testing.T) {
	d := newDevice(t)
	if _, err := d.run(t, "set", "hostName"); err == nil {
		t.Error("assignment without = should fail")
	}
	if _, err := d.run(t, "set", "bogus=1"); !errors.Is(err, domain.ErrUnknownField) {
		t.Errorf("unknown key error = %v", err)
	}
	if _, err := d.run(t, "set"); err == nil {
		t.Error("set without arguments should fail")
	}
}

func TestGet_Credentials(t *testing.T) {
	d := newDevice(t)
	d.mustRun(t, "set", "appw=secret12", "mqttUser=operator")

	if got := strings.TrimSpace(d.mustRun(t, "get", "appw")); got != "s***2" {
		t.Errorf("masked appw = %q, want s***2", got)
	}
	if got := strings.TrimSpace(d.mustRun(t, "--reveal", "get", "appw")); got != "secret12" {
		t.Errorf("revealed appw = %q", got)
	}
	if got := strings.TrimSpace(d.mustRun(t, "get", "mqttUser")); got == "operator" {
		t.Error("mqttUser printed in clear")
	}
}

func TestSecondary(t *testing.T) {
	d := newDevice(t)
	out := d.mustRun(t, "-o", "json", "secondary", "--brightness", "40", "--strict", "--sa-peaks=false")

	var g domain.SecondaryGroup
	if err := json.Unmarshal([]byte(out), &g); err != nil {
		t.Fatalf("Unmarshal() error = %v\n%s", err, out)
	}
	if g.Brightness != domain.MaxBrightness || !g.StrictMode || g.SAPeaks {
		t.Errorf("secondary = %+v", g)
	}
	if _, err := os.Stat(filepath.Join(d.card, domain.RecordSecondary)); err != nil {
		t.Errorf("secondary record not on card: %v", err)
	}
	if got := strings.TrimSpace(d.mustRun(t, "get", "secondary.strictMode")); got != "true" {
		t.Errorf("strictMode after reboot = %q", got)
	}
}

func TestTertiary(t *testing.T) {
	d := newDevice(t)
	out := d.mustRun(t, "-o", "json", "tertiary", "--idle-mode", "3", "--boot-mode", "2")
	var g domain.TertiaryGroup
	if err := json.Unmarshal([]byte(out), &g); err != nil {
		t.Fatalf("Unmarshal() error = %v\n%s", err, out)
	}
	if g.IdleMode != 3 || g.BootMode != 2 {
		t.Errorf("tertiary = %+v", g)
	}

	if _, err := d.run(t, "tertiary", "--idle-mode", "9"); !errors.Is(err, domain.ErrFieldOutOfRange) {
		t.Errorf("idle mode 9 error = %v, want ErrFieldOutOfRange", err)
	}
	if _, err := d.run(t, "--no-card", "tertiary"); !errors.Is(err, domain.ErrMediumUnavailable) {
		t.Errorf("no card error = %v, want ErrMediumUnavailable", err)
	}
}

func TestIP(t *testing.T) {
	d := newDevice(t)

	if _, err := d.run(t, "ip"); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Errorf("ip on DHCP error = %v, want ErrRecordNotFound", err)
	}

	d.mustRun(t, "ip", "set", "--ip", "192.168.1.50", "--gw", "192.168.1.1", "--mask", "255.255.255.0", "--dns", "192.168.1.1")
	out := d.mustRun(t, "-o", "json", "ip")
	var o domain.IPOverride
	if err := json.Unmarshal([]byte(out), &o); err != nil {
		t.Fatalf("Unmarshal() error = %v\n%s", err, out)
	}
	if o.IP != "192.168.1.50" || o.Netmask != "255.255.255.0" {
		t.Errorf("override = %+v", o)
	}

	if _, err := d.run(t, "ip", "set", "--ip", "300.1.1.1", "--gw", "1.1.1.1", "--mask", "255.0.0.0", "--dns", "1.1.1.1"); err == nil {
		t.Error("invalid address should be rejected")
	}

	d.mustRun(t, "ip", "clear")
	if _, err := d.run(t, "ip"); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Errorf("ip after clear error = %v", err)
	}
}

func TestKeys(t *testing.T) {
	d := newDevice(t)
	if _, err := d.run(t, "keys"); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Errorf("keys error = %v, want ErrRecordNotFound", err)
	}

	var b strings.Builder
	b.WriteString("{")
	for i, name := range domain.LearnedKeyNames() {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(`"` + name + `":"` + domain.FormatKeyCode(uint32(0x20df0000+i)) + `"`)
	}
	b.WriteString("}")
	if err := os.WriteFile(filepath.Join(d.card, domain.RecordLearnedKeys), []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}

	out := d.mustRun(t, "-o", "json", "keys")
	var rows []learnedKey
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("Unmarshal() error = %v\n%s", err, out)
	}
	if len(rows) != domain.LearnedKeyCount {
		t.Errorf("keys = %d rows, want %d", len(rows), domain.LearnedKeyCount)
	}

	d.mustRun(t, "keys", "clear")
	if _, err := os.Stat(filepath.Join(d.card, domain.RecordLearnedKeys)); !os.IsNotExist(err) {
		t.Errorf("learned keys file still present: %v", err)
	}
}

func TestMove(t *testing.T) {
	d := newDevice(t)
	d.mustRun(t, "secondary", "--brightness", "3")
	if _, err := os.Stat(filepath.Join(d.card, domain.RecordSecondary)); err != nil {
		t.Fatalf("secondary not on card: %v", err)
	}

	out := d.mustRun(t, "move", "--to", "flash")
	if !strings.Contains(out, "flash") {
		t.Errorf("output = %q", out)
	}
	if _, err := os.Stat(filepath.Join(d.flash, domain.RecordSecondary)); err != nil {
		t.Errorf("secondary not moved to flash: %v", err)
	}
	if _, err := os.Stat(filepath.Join(d.card, domain.RecordSecondary)); !os.IsNotExist(err) {
		t.Errorf("card copy not removed: %v", err)
	}
	if got := strings.TrimSpace(d.mustRun(t, "get", "secondary.brightness")); got != "3" {
		t.Errorf("brightness after move = %q, want 3", got)
	}
	if got := strings.TrimSpace(d.mustRun(t, "get", "CfgOnSD")); got != "0" {
		t.Errorf("CfgOnSD = %q, want 0", got)
	}

	if _, err := d.run(t, "move", "--to", "moon"); err == nil {
		t.Error("invalid destination should fail")
	}
	if _, err := d.run(t, "--no-card", "move", "--to", "card"); !errors.Is(err, domain.ErrMoveRejected) {
		t.Errorf("move without card error = %v, want ErrMoveRejected", err)
	}
}

func TestRecord_EncodeInspect(t *testing.T) {
	d := newDevice(t)
	path := filepath.Join(t.TempDir(), domain.RecordSecondary)

	d.mustRun(t, "record", "encode", "--layout", "sid2cfg", "--set", "brightness=7", "--set", "strictMode=1", "--out", path)

	out := d.mustRun(t, "-o", "json", "record", "inspect", path)
	var rep recordReport
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("Unmarshal() error = %v\n%s", err, out)
	}
	if !rep.Valid || rep.Partial {
		t.Fatalf("report = %+v", rep)
	}
	fields := make(map[string]string)
	for _, f := range rep.Fields {
		fields[f.Name] = f.Value
	}
	if fields["brightness"] != "7" || fields["strictMode"] != "1" || fields["saPeaks"] != "1" {
		t.Errorf("fields = %v", fields)
	}

	frame, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	frame[2] ^= 0x01
	if err := os.WriteFile(path, frame, 0o644); err != nil {
		t.Fatal(err)
	}
	out = d.mustRun(t, "record", "inspect", path)
	if !strings.Contains(out, "valid:   no") {
		t.Errorf("corrupt record reported as valid:\n%s", out)
	}
}

func TestRecord_EncodeHex(t *testing.T) {
	d := newDevice(t)
	out := strings.TrimSpace(d.mustRun(t, "record", "encode", "--layout", "sid3cfg", "--set", "idleMode=2"))
	// length 2, bootMode 0, idleMode 2, checksum ^(0x02+0x02) = 0xfb.
	if out != "02000002fb" {
		t.Errorf("encoded = %q, want 02000002fb", out)
	}

	if _, err := d.run(t, "record", "encode", "--layout", "nope"); err == nil {
		t.Error("unknown layout should fail")
	}
	if _, err := d.run(t, "record", "encode", "--layout", "sid3cfg", "--set", "bogus=1"); err == nil {
		t.Error("unknown field should fail")
	}
}

func TestVersion(t *testing.T) {
	d := newDevice(t)
	out := d.mustRun(t, "-o", "yaml", "version")
	if !strings.Contains(out, "version:") || !strings.Contains(out, "go_version:") {
		t.Errorf("version output:\n%s", out)
	}
}
