package main

import (
	"log/slog"
	"os"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "vigild",
		Usage:   "marketplace trust and safety daemon",
		Version: versioninfo.Short(),
	}

	app.Commands = []*cli.Command{
		runCmd,
	}

	return app.Run(args)
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the service",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "database-url",
			Usage:   "database connection string (sqlite:// or postgresql://)",
			Value:   "sqlite://data/vigild/vigil.db",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.IntFlag{
			Name:    "max-db-connections",
			EnvVars: []string{"MAX_DB_CONNECTIONS"},
			Value:   40,
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis connection for counters, cache, and flags; empty means in-process stores",
			EnvVars: []string{"VIGIL_REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "sets-json-path",
			Usage:   "file path of JSON file containing lexicon sets (profanity, spam patterns)",
			EnvVars: []string{"VIGIL_SETS_JSON_PATH"},
		},
		&cli.StringFlag{
			Name:    "bind",
			Usage:   "IP or address, and port, to listen on for the HTTP API",
			Value:   ":3080",
			EnvVars: []string{"VIGIL_BIND"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs",
			Value:   ":3081",
			EnvVars: []string{"VIGIL_METRICS_LISTEN"},
		},
	},
	Action: func(cctx *cli.Context) error {
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		slog.SetDefault(logger)

		srv, err := NewServer(Config{
			DatabaseURL:      cctx.String("database-url"),
			MaxDBConnections: cctx.Int("max-db-connections"),
			RedisURL:         cctx.String("redis-url"),
			SetsFileJSON:     cctx.String("sets-json-path"),
			Bind:             cctx.String("bind"),
			MetricsListen:    cctx.String("metrics-listen"),
			Logger:           logger,
		})
		if err != nil {
			return err
		}
		return srv.Run(cctx.Context)
	},
}
