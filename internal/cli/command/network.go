package command

import (
	"github.com/urfave/cli/v2"

	"github.com/circuitsetup/sidconf/internal/core/domain"
)

// IPCommand manages the static address override.
func IPCommand() *cli.Command {
	return &cli.Command{
		Name:   "ip",
		Usage:  "show or change the static IP override",
		Action: ipShow,
		Subcommands: []*cli.Command{
			{
				Name:  "set",
				Usage: "store a static configuration",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "ip", Required: true},
					&cli.StringFlag{Name: "gateway", Aliases: []string{"gw"}, Required: true},
					&cli.StringFlag{Name: "netmask", Aliases: []string{"mask"}, Required: true},
					&cli.StringFlag{Name: "dns", Required: true},
				},
				Action: ipSet,
			},
			{
				Name:   "clear",
				Usage:  "delete the override and return to DHCP",
				Action: ipClear,
			},
		},
	}
}

func ipShow(c *cli.Context) error {
	reg, err := openRegistry(c)
	if err != nil {
		return err
	}
	ip := reg.IPOverride()
	if !ip.IsSet() {
		return domain.ErrRecordNotFound.WithDetails(domain.RecordIPOverride)
	}
	return render(c, ip)
}

func ipSet(c *cli.Context) error {
	reg, err := openRegistry(c)
	if err != nil {
		return err
	}
	err = reg.SetIPOverride(domain.IPOverride{
		IP:      c.String("ip"),
		Gateway: c.String("gateway"),
		Netmask: c.String("netmask"),
		DNS:     c.String("dns"),
	})
	if err != nil {
		return err
	}
	return render(c, reg.IPOverride())
}

func ipClear(c *cli.Context) error {
	reg, err := openRegistry(c)
	if err != nil {
		return err
	}
	return reg.DeleteIPOverride()
}

// learnedKey is one row of the learned key table.
type learnedKey struct {
	Name string `json:"name" yaml:"name"`
	Code string `json:"code" yaml:"code"`
}

// KeysCommand manages the learned IR key table.
func KeysCommand() *cli.Command {
	return &cli.Command{
		Name:   "keys",
		Usage:  "show or clear the learned IR key table",
		Action: keysShow,
		Subcommands: []*cli.Command{
			{
				Name:   "clear",
				Usage:  "delete the learned table and fall back to the built-in remote",
				Action: keysClear,
			},
		},
	}
}

func keysShow(c *cli.Context) error {
	reg, err := openRegistry(c)
	if err != nil {
		return err
	}
	table, ok := reg.LearnedKeys()
	if !ok {
		return domain.ErrRecordNotFound.WithDetails(domain.RecordLearnedKeys)
	}
	names := domain.LearnedKeyNames()
	rows := make([]learnedKey, 0, len(names))
	for _, name := range names {
		code, _ := table.Code(name)
		rows = append(rows, learnedKey{Name: name, Code: domain.FormatKeyCode(code)})
	}
	return render(c, rows)
}

func keysClear(c *cli.Context) error {
	reg, err := openRegistry(c)
	if err != nil {
		return err
	}
	return reg.DeleteLearnedKeys()
}
