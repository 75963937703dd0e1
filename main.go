package main

import (
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/emsctl/sunpura/cmd"
)

func main() {
	app := &cli.App{
		Name:   "sunpura-controller",
		Usage:  "price-driven schedule controller for the Sunpura S2400 battery",
		Action: cmd.ControllerCommand,
		Commands: []*cli.Command{
			{
				Name:   "generate-token",
				Usage:  "print a fresh API token and the bcrypt hash to configure as api-token-hash",
				Action: cmd.GenerateTokenCommand,
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "cloud-email",
				EnvVars:  []string{"SUNPURA_EMAIL"},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "cloud-password",
				EnvVars:  []string{"SUNPURA_PASSWORD"},
				Required: true,
			},
			&cli.Int64Flag{
				Name:    "plant-id",
				EnvVars: []string{"SUNPURA_PLANT_ID"},
				Value:   0,
			},
			&cli.StringFlag{
				Name:     "database-url",
				EnvVars:  []string{"DATABASE_URL"},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "migrations-folder",
				EnvVars:  []string{"MIGRATIONS_FOLDER"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "mqtt-host",
				EnvVars: []string{"MQTT_HOST"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "mqtt-user",
				EnvVars: []string{"MQTT_USER"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "mqtt-pass",
				EnvVars: []string{"MQTT_PASS"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "tibber-token",
				EnvVars: []string{"TIBBER_TOKEN"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "entsoe-token",
				EnvVars: []string{"ENTSOE_TOKEN"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "entsoe-domain",
				Usage:   "ENTSO-E bidding zone EIC code",
				EnvVars: []string{"ENTSOE_DOMAIN"},
				Value:   "10YNL----------L",
			},
			&cli.StringFlag{
				Name:    "nordpool-area",
				EnvVars: []string{"NORDPOOL_AREA"},
				Value:   "NL",
			},
			&cli.StringFlag{
				Name:    "mode",
				Usage:   "dispatch mode: arbitrage, self_consumption, balanced or off",
				EnvVars: []string{"DISPATCH_MODE"},
				Value:   "balanced",
			},
			&cli.StringFlag{
				Name:    "dispatch-cron",
				Usage:   "cron expression for scheduled dispatch runs",
				EnvVars: []string{"DISPATCH_CRON"},
				Value:   "5 * * * *",
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Usage:   "compute schedules but never write to the device",
				EnvVars: []string{"DRY_RUN"},
				Value:   false,
			},
			&cli.BoolFlag{
				Name:    "ev-charging",
				Usage:   "treat the EV as plugged in on scheduled runs and plan the overnight top-up",
				EnvVars: []string{"EV_CHARGING"},
				Value:   false,
			},
			&cli.DurationFlag{
				Name:    "poll-interval",
				EnvVars: []string{"POLL_INTERVAL"},
				Value:   30 * time.Second,
			},
			&cli.StringFlag{
				Name:    "api-token-hash",
				Usage:   "bcrypt hash protecting the HTTP API; empty disables auth",
				EnvVars: []string{"API_TOKEN_HASH"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "listen-addr",
				EnvVars: []string{"LISTEN_ADDR"},
				Value:   "0.0.0.0:8000",
			},
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "INFO",
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
