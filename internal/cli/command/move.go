package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/circuitsetup/sidconf/internal/core/domain"
)

// MoveCommand relocates the selectable records by changing the CfgOnSD
// preference.
func MoveCommand() *cli.Command {
	return &cli.Command{
		Name:  "move",
		Usage: "move the secondary settings and learned keys to another medium",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "to",
				Usage:    "destination: card or flash",
				Required: true,
			},
		},
		Action: moveAction,
	}
}

func moveAction(c *cli.Context) error {
	var toCard bool
	switch to := c.String("to"); to {
	case "card":
		toCard = true
	case "flash":
	default:
		return cli.Exit(fmt.Sprintf("invalid destination %q, want card or flash", to), 2)
	}

	reg, err := openRegistry(c)
	if err != nil {
		return err
	}
	sel := reg.Selector()
	if !sel.HaveFlash() || !sel.HaveCard() {
		return domain.ErrMoveRejected.WithDetails("both media must be present")
	}

	value := "0"
	if toCard {
		value = "1"
	}
	err = reg.UpdatePrimary(func(p *domain.PrimaryConfig) error {
		_, err := p.Set(domain.KeyCfgOnSD, value)
		return err
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.App.Writer, "selectable settings on %s\n", selectableMedium(reg))
	return err
}
