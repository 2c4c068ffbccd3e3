package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/circuitsetup/sidconf/internal/core/domain"
	"github.com/circuitsetup/sidconf/internal/settings/registry"
	"github.com/circuitsetup/sidconf/internal/telemetry/logger"
)

// settingRow is one line of show output.
type settingRow struct {
	Group string `json:"group" yaml:"group"`
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// ShowCommand prints every setting.
func ShowCommand() *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "show all settings and the media state",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "group",
				Aliases: []string{"g"},
				Usage:   "only show one group (media, network, behaviour, messaging, secondary, tertiary, ip, keys)",
			},
		},
		Action: showSettings,
	}
}

func showSettings(c *cli.Context) error {
	reg, err := openRegistry(c)
	if err != nil {
		return err
	}
	s, _ := getSession(c)
	rows := collectRows(reg, s.flags.Reveal)
	if g := c.String("group"); g != "" {
		filtered := rows[:0]
		for _, r := range rows {
			if r.Group == g {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}
	return render(c, rows)
}

func collectRows(reg *registry.Registry, reveal bool) []settingRow {
	var rows []settingRow
	add := func(group, key, value string) {
		rows = append(rows, settingRow{Group: group, Key: key, Value: value})
	}

	sel := reg.Selector()
	add("media", "identity", reg.Identity().String())
	add("media", "flash", strconv.FormatBool(sel.HaveFlash()))
	add("media", "card", strconv.FormatBool(sel.HaveCard()))
	add("media", "readOnlyFlash", strconv.FormatBool(sel.ReadOnlyFlash()))
	add("media", "selectableOn", selectableMedium(reg))

	reg.Primary().Each(func(f domain.FieldSpec, value string) {
		add(f.Group, f.Key, display(f, value, reveal))
	})

	sec := reg.Secondary()
	add("secondary", "brightness", strconv.Itoa(int(sec.Brightness)))
	add("secondary", "irLocked", strconv.FormatBool(sec.IRLocked))
	add("secondary", "strictMode", strconv.FormatBool(sec.StrictMode))
	add("secondary", "saPeaks", strconv.FormatBool(sec.SAPeaks))
	add("secondary", "irShowPosFB", strconv.FormatBool(sec.IRShowPosFB))
	add("secondary", "irShowCmdFB", strconv.FormatBool(sec.IRShowCmdFB))
	add("secondary", "showUpdAvail", strconv.FormatBool(sec.ShowUpdAvail))

	if sel.HaveCard() {
		add("tertiary", "bootMode", strconv.Itoa(reg.BootMode()))
		add("tertiary", "idleMode", strconv.Itoa(reg.IdleMode()))
	}

	if ip := reg.IPOverride(); ip.IsSet() {
		add("ip", "ip", ip.IP)
		add("ip", "gateway", ip.Gateway)
		add("ip", "netmask", ip.Netmask)
		add("ip", "dns", ip.DNS)
	}

	_, haveKeys := reg.LearnedKeys()
	add("keys", "learned", strconv.FormatBool(haveKeys))
	return rows
}

func selectableMedium(reg *registry.Registry) string {
	if reg.Selector().SelectableOnCard() {
		return "card"
	}
	return "flash"
}

// display hides credentials unless reveal is set.
func display(f domain.FieldSpec, value string, reveal bool) string {
	switch {
	case reveal:
		return value
	case f.Secret && value != "":
		return logger.MaskValue(value)
	default:
		return logger.RedactField(f.Key, value)
	}
}

// GetCommand prints one setting.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "print one setting",
		ArgsUsage: "<key | group.key>",
		Action:    getSetting,
	}
}

func getSetting(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: get <key | group.key>", 2)
	}
	reg, err := openRegistry(c)
	if err != nil {
		return err
	}
	s, _ := getSession(c)
	want := c.Args().First()
	for _, r := range collectRows(reg, s.flags.Reveal) {
		if r.Key == want || r.Group+"."+r.Key == want {
			_, err := fmt.Fprintln(c.App.Writer, r.Value)
			return err
		}
	}
	return domain.ErrUnknownField.WithDetails(want)
}

// setResult reports what was stored for one assignment.
type setResult struct {
	Key      string `json:"key" yaml:"key"`
	Stored   string `json:"stored" yaml:"stored"`
	Adjusted bool   `json:"adjusted" yaml:"adjusted"`
}

// SetCommand changes primary settings. All assignments are saved with one
// write.
func SetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "change primary settings",
		ArgsUsage: "<key=value>...",
		Action:    setSettings,
	}
}

func setSettings(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("usage: set <key=value>...", 2)
	}
	assign := make([][2]string, 0, c.NArg())
	for _, a := range c.Args().Slice() {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return cli.Exit(fmt.Sprintf("invalid assignment %q, want key=value", a), 2)
		}
		if _, known := domain.LookupField(k); !known {
			return domain.ErrUnknownField.WithDetails(k)
		}
		assign = append(assign, [2]string{k, v})
	}

	reg, err := openRegistry(c)
	if err != nil {
		return err
	}
	s, _ := getSession(c)

	var results []setResult
	err = reg.UpdatePrimary(func(p *domain.PrimaryConfig) error {
		for _, kv := range assign {
			adjusted, err := p.Set(kv[0], kv[1])
			if err != nil {
				return err
			}
			f, _ := domain.LookupField(kv[0])
			results = append(results, setResult{
				Key:      kv[0],
				Stored:   display(f, p.Get(kv[0]), s.flags.Reveal),
				Adjusted: adjusted,
			})
		}
		return nil
	})
	if err != nil {
		return err
	}
	return render(c, results)
}
