package main

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"
	"github.com/xlab/closer"

	"eventcal/internal/config"
	appLog "eventcal/internal/log"
	"eventcal/internal/web"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "listen", Usage: "HTTP listen address (overrides config if set)"},
		},
		Action: func(c *cli.Context) error {
			configPath := c.String("config")
			cfg, err := loadConfig(c, true)
			if err != nil {
				return err
			}
			if listen := c.String("listen"); listen != "" {
				cfg.Listen = listen
			}

			appLog.Info("effective config",
				"listen", cfg.Listen,
				"timezone", cfg.Timezone,
				"max_instances", cfg.MaxInstances,
				"tolerance", cfg.Tolerance,
				"language", cfg.Language,
				"reload_cron", cfg.ReloadCron,
				"basic_auth", cfg.BasicAuth != nil,
			)

			server, err := web.NewServer(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(c.Context)
			defer cancel()

			if cfg.ReloadCron != "" {
				sched := cron.New()
				listen := cfg.Listen
				if _, err := sched.AddFunc(cfg.ReloadCron, func() {
					reloadConfig(server, configPath, listen)
				}); err != nil {
					return err
				}
				sched.Start()
				defer sched.Stop()
			}

			done := make(chan struct{})
			closer.Bind(func() {
				appLog.Info("signal received, shutting down")
				cancel()
				<-done
			})

			err = web.StartServer(ctx, server, cfg.Listen)
			close(done)
			return err
		},
	}
}

// reloadConfig re-reads the config file into server. The listen address is
// fixed for the process lifetime.
func reloadConfig(server *web.Server, path, listen string) {
	cfg, err := config.Load(path)
	if err != nil {
		appLog.Error("config reload failed; keeping previous config", err, "path", path)
		return
	}
	cfg.Listen = listen
	if err := server.SetConfig(cfg); err != nil {
		appLog.Error("config reload rejected", err, "path", path)
		return
	}
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))
	appLog.Debug("config reloaded", "path", path)
}
