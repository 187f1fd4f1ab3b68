package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"github.com/xlab/closer"

	"eventcal/internal/config"
	appLog "eventcal/internal/log"
)

const version = "0.1.0"

func main() {
	// .env is optional.
	_ = godotenv.Load()

	closer.Bind(appLog.Sync)

	if err := newApp().Run(os.Args); err != nil {
		appLog.Error("eventcal failed", err)
		closer.Exit(1)
	}
	closer.Close()
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "eventcal",
		Usage:   "Build recurrence rules, expand occurrences and export calendar events.",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "/etc/eventcal/config.yaml",
				Usage:   "path to config file",
				EnvVars: []string{"EVENTCAL_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			ruleCommand(),
			occurrencesCommand(),
			daysCommand(),
			endDateCommand(),
			normalizeCommand(),
			durationsCommand(),
			exportCommand(),
			feedCommand(),
			serveCommand(),
		},
	}
}

// loadConfig reads the --config file and applies its log settings. One-shot
// commands fall back to defaults plus environment when the file is missing;
// with create set a default file is written instead.
func loadConfig(c *cli.Context, create bool) (*config.Config, error) {
	path := c.String("config")

	var (
		cfg *config.Config
		err error
	)
	if _, statErr := os.Stat(path); !create && errors.Is(statErr, fs.ErrNotExist) {
		cfg, err = config.FromEnv()
	} else {
		cfg, err = config.Load(path)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Production {
		appLog.Configure(true)
	}
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))
	return cfg, nil
}
