package command

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/urfave/cli/v2"

	agentconfig "github.com/circuitsetup/sidconf/internal/agent/config"
	"github.com/circuitsetup/sidconf/internal/cli/output"
	"github.com/circuitsetup/sidconf/internal/infra/buildinfo"
	"github.com/circuitsetup/sidconf/internal/infra/confloader"
	"github.com/circuitsetup/sidconf/internal/settings/registry"
	"github.com/circuitsetup/sidconf/internal/telemetry/logger"
)

const sessionKey = "session"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "sidconf-cli",
		Usage:   "inspect and change SID settings on the storage media",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			ShowCommand(),
			GetCommand(),
			SetCommand(),
			SecondaryCommand(),
			TertiaryCommand(),
			IPCommand(),
			KeysCommand(),
			MoveCommand(),
			RecordCommand(),
			VersionCommand(),
		},
		Before: before,
		After:  after,
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "agent configuration file supplying the media paths",
			EnvVars: []string{"SID_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "flash",
			Usage: "internal flash directory",
		},
		&cli.StringFlag{
			Name:  "card",
			Usage: "card mount point",
		},
		&cli.BoolFlag{
			Name:  "no-card",
			Usage: "behave as a device without a card slot",
		},
		&cli.StringFlag{
			Name:  "backend",
			Usage: "flash backend: dir or badger",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: table, json, yaml",
			Value:   "table",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "show more columns",
		},
		&cli.BoolFlag{
			Name:  "reveal",
			Usage: "print credentials in clear",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "log storage activity to stderr",
		},
	}
}

// GlobalFlags holds the parsed global flags.
type GlobalFlags struct {
	Config  string
	Flash   string
	Card    string
	NoCard  bool
	Backend string
	Output  string
	Wide    bool
	Reveal  bool
	Verbose bool
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Config:  c.String("config"),
		Flash:   c.String("flash"),
		Card:    c.String("card"),
		NoCard:  c.Bool("no-card"),
		Backend: c.String("backend"),
		Output:  c.String("output"),
		Wide:    c.Bool("wide"),
		Reveal:  c.Bool("reveal"),
		Verbose: c.Bool("verbose"),
	}
}

// session is the per-invocation state shared by the commands.
type session struct {
	flags  *GlobalFlags
	hclog  hclog.Logger
	logger *slog.Logger
	reg    *registry.Registry
	boot   registry.BootReport
}

func before(c *cli.Context) error {
	flags := ParseGlobalFlags(c)
	if _, err := output.ParseFormat(flags.Output); err != nil {
		return err
	}
	level := "warn"
	if flags.Verbose {
		level = "debug"
	}
	hl := logger.NewHCLog("sidconf-cli", logger.Config{Level: level, Output: c.App.ErrWriter})
	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	sl := logger.FromHCLog(hl)
	c.App.Metadata[sessionKey] = &session{
		flags:  flags,
		hclog:  hl,
		logger: sl,
	}

	ctx := logger.WithLogger(c.Context, logger.Wrap(sl))
	c.Context = logger.WithOperation(ctx, c.Args().First())
	return nil
}

func after(c *cli.Context) error {
	s, ok := c.App.Metadata[sessionKey].(*session)
	if !ok || s.reg == nil {
		return nil
	}
	err := s.reg.Close()
	s.reg = nil
	if err != nil && !registry.IsUnavailable(err) {
		return fmt.Errorf("closing settings: %w", err)
	}
	return nil
}

func getSession(c *cli.Context) (*session, error) {
	s, ok := c.App.Metadata[sessionKey].(*session)
	if !ok {
		return nil, errors.New("cli: session not initialized")
	}
	return s, nil
}

// loadConfig resolves the media configuration: defaults, then the agent
// configuration file and SID_ environment, then the global flags.
func loadConfig(flags *GlobalFlags) (*agentconfig.AgentConfig, error) {
	l := confloader.NewLoader(
		confloader.WithConfigFile(flags.Config),
		confloader.WithDefaults(agentconfig.DefaultMap()),
	)
	var cfg agentconfig.AgentConfig
	if err := l.Load(&cfg); err != nil {
		return nil, err
	}
	if flags.Flash != "" {
		cfg.Media.Flash = flags.Flash
	}
	if flags.Card != "" {
		cfg.Media.Card = flags.Card
	}
	if flags.NoCard {
		cfg.Media.Card = ""
	}
	if flags.Backend != "" {
		cfg.Media.Backend = flags.Backend
	}
	out := agentconfig.Sanitize(&cfg)
	if err := agentconfig.Verify(out); err != nil {
		return nil, err
	}
	return out, nil
}

// openRegistry boots the registry once per invocation.
func openRegistry(c *cli.Context) (*registry.Registry, error) {
	s, err := getSession(c)
	if err != nil {
		return nil, err
	}
	if s.reg != nil {
		return s.reg, nil
	}
	cfg, err := loadConfig(s.flags)
	if err != nil {
		return nil, fmt.Errorf("configuration: %w", err)
	}
	media := agentconfig.BuildMedia(cfg, s.logger)
	reg, err := registry.New(agentconfig.RegistryOptions(cfg, media, s.logger, nil))
	if err != nil {
		return nil, err
	}
	s.boot = reg.Boot()
	s.reg = reg
	logger.L(c.Context).Debug("settings loaded",
		"flash", s.boot.Mount.Flash,
		"card", s.boot.Mount.Card,
		"identity", reg.Identity().String())
	if !reg.Selector().Available() {
		return reg, errors.New("no storage medium could be mounted")
	}
	return reg, nil
}

// render writes data in the selected output format.
func render(c *cli.Context, data any) error {
	s, err := getSession(c)
	if err != nil {
		return err
	}
	format, _ := output.ParseFormat(s.flags.Output)
	f := output.NewFormatter(format, s.flags.Wide)
	if jf, ok := f.(*output.JSONFormatter); ok {
		jf.Color = isTerminal(c.App.Writer)
	}
	return f.Format(c.App.Writer, data)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
