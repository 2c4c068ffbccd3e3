package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/circuitsetup/sidconf/internal/core/domain"
)

var secondaryToggles = []struct {
	flag  string
	usage string
	field func(g *domain.SecondaryGroup) *bool
}{
	{"ir-locked", "lock the IR remote", func(g *domain.SecondaryGroup) *bool { return &g.IRLocked }},
	{"strict", "strict mode", func(g *domain.SecondaryGroup) *bool { return &g.StrictMode }},
	{"sa-peaks", "show spectrum analyzer peaks", func(g *domain.SecondaryGroup) *bool { return &g.SAPeaks }},
	{"ir-show-pos-fb", "positive IR feedback", func(g *domain.SecondaryGroup) *bool { return &g.IRShowPosFB }},
	{"ir-show-cmd-fb", "IR command feedback", func(g *domain.SecondaryGroup) *bool { return &g.IRShowCmdFB }},
	{"show-upd-avail", "announce available updates", func(g *domain.SecondaryGroup) *bool { return &g.ShowUpdAvail }},
}

// SecondaryCommand shows or changes the secondary group.
func SecondaryCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.IntFlag{Name: "brightness", Usage: fmt.Sprintf("display brightness 0-%d, clamped", domain.MaxBrightness)},
	}
	for _, t := range secondaryToggles {
		flags = append(flags, &cli.BoolFlag{Name: t.flag, Usage: t.usage})
	}
	return &cli.Command{
		Name:   "secondary",
		Usage:  "show or change the secondary settings group",
		Flags:  flags,
		Action: secondaryAction,
	}
}

func secondaryAction(c *cli.Context) error {
	reg, err := openRegistry(c)
	if err != nil {
		return err
	}

	changed := c.IsSet("brightness")
	for _, t := range secondaryToggles {
		changed = changed || c.IsSet(t.flag)
	}
	if changed {
		err := reg.UpdateSecondary(func(g *domain.SecondaryGroup) {
			if c.IsSet("brightness") {
				b := c.Int("brightness")
				switch {
				case b < 0:
					b = 0
				case b > domain.MaxBrightness:
					b = domain.MaxBrightness
				}
				g.Brightness = uint16(b)
			}
			for _, t := range secondaryToggles {
				if c.IsSet(t.flag) {
					*t.field(g) = c.Bool(t.flag)
				}
			}
		})
		if err != nil {
			return err
		}
	}
	return render(c, reg.Secondary())
}

// TertiaryCommand shows or changes the card-only tertiary group.
func TertiaryCommand() *cli.Command {
	return &cli.Command{
		Name:  "tertiary",
		Usage: "show or change the tertiary settings group (card only)",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "boot-mode", Usage: "display mode entered at boot"},
			&cli.IntFlag{Name: "idle-mode", Usage: fmt.Sprintf("idle pattern 0-%d", domain.MaxIdleMode)},
		},
		Action: tertiaryAction,
	}
}

func tertiaryAction(c *cli.Context) error {
	reg, err := openRegistry(c)
	if err != nil {
		return err
	}
	if !reg.Selector().HaveCard() {
		return domain.ErrMediumUnavailable.WithDetails("the tertiary group needs a card")
	}

	if c.IsSet("idle-mode") || c.IsSet("boot-mode") {
		idle, boot := c.Int("idle-mode"), c.Int("boot-mode")
		if c.IsSet("idle-mode") && (idle < 0 || idle > domain.MaxIdleMode) {
			return domain.ErrFieldOutOfRange.WithDetails(fmt.Sprintf("idle mode %d not in 0-%d", idle, domain.MaxIdleMode))
		}
		if c.IsSet("boot-mode") && (boot < 0 || boot > 255) {
			return domain.ErrFieldOutOfRange.WithDetails(fmt.Sprintf("boot mode %d not in 0-255", boot))
		}
		err := reg.UpdateTertiary(func(g *domain.TertiaryGroup) {
			if c.IsSet("idle-mode") {
				g.IdleMode = uint8(idle)
			}
			if c.IsSet("boot-mode") {
				g.BootMode = uint8(boot)
			}
		})
		if err != nil {
			return err
		}
	}
	return render(c, reg.Tertiary())
}
