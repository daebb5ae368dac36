package main

import (
	"fmt"
	"os"

	"github.com/andresuchdata/draftq-processor/internal/app"
	"github.com/andresuchdata/draftq-processor/internal/config"
	"github.com/andresuchdata/draftq-processor/pkg/logger"
	"github.com/urfave/cli/v2"
)

const appKeyName = "app"

func initApp(c *cli.Context) error {
	cfg := config.Load()
	logger.Setup(c.String("log-level"), cfg.Log.Format)

	if bucket := c.String("bucket"); bucket != "" {
		cfg.Storage.Bucket = bucket
	}

	a, err := app.New(c.Context, cfg)
	if err != nil {
		return err
	}
	c.App.Metadata[appKeyName] = a
	return nil
}

func closeApp(c *cli.Context) error {
	if a, ok := c.App.Metadata[appKeyName].(*app.App); ok && a != nil {
		return a.Close()
	}
	return nil
}

func appFrom(c *cli.Context) (*app.App, error) {
	a, ok := c.App.Metadata[appKeyName].(*app.App)
	if !ok || a == nil {
		return nil, fmt.Errorf("processor not initialized")
	}
	return a, nil
}

func newKeyFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "key",
		Aliases:  []string{"k"},
		Usage:    "Object key of the source document",
		Required: true,
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:     "draftqctl",
		Usage:    "Operate the DraftQ processor from the command line",
		Metadata: map[string]interface{}{},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "bucket",
				Usage:   "Override S3_BUCKET_NAME",
				EnvVars: []string{"S3_BUCKET_NAME"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "process",
				Usage:  "Wait for a source object, generate its spreadsheet and print the download link",
				Flags:  []cli.Flag{newKeyFlag()},
				Before: initApp,
				After:  closeApp,
				Action: runProcess,
			},
			{
				Name:  "wait",
				Usage: "Wait for an object to exist; exits non-zero on timeout",
				Flags: []cli.Flag{
					newKeyFlag(),
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Override POLL_TIMEOUT_SECONDS",
					},
					&cli.DurationFlag{
						Name:  "interval",
						Usage: "Override POLL_INTERVAL_SECONDS",
					},
				},
				Before: initApp,
				After:  closeApp,
				Action: runWait,
			},
			{
				Name:  "inspect",
				Usage: "Dump the first sheet of a local xlsx file as CSV",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path of the xlsx file",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "Write CSV here instead of stdout",
					},
				},
				Action: runInspect,
			},
			{
				Name:  "jobs",
				Usage: "List recent processing jobs (needs JOBS_DB_ENABLED)",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of jobs to show",
						Value: 20,
					},
				},
				Before: initApp,
				After:  closeApp,
				Action: runJobs,
			},
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logger.Log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
