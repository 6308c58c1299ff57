package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"ContactScanner/internal/app"
	"ContactScanner/internal/config"
	"ContactScanner/internal/logging"
)

func main() {
	cliApp := &cli.App{
		Name:  "contactscanner",
		Usage: "scan, score, and pace outreach over a professional network contact list",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to YAML config file",
				EnvVars: []string{"CONTACT_SCANNER_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "scan",
				Usage:  "walk the connections list and persist discovered contacts",
				Action: runScan,
			},
			{
				Name:  "batch",
				Usage: "run the full pipeline: scan, filter, analyze, score, report",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "connections",
						Usage: "connections CSV export; skips the live scan phase",
					},
				},
				Action: runBatch,
			},
			{
				Name:  "outreach",
				Usage: "visit, qualify, and message contacts from a connections export",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "connections",
						Usage:    "connections CSV export",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "messages",
						Usage: "message history CSV export, used to skip known conversations",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "render messages without sending",
					},
				},
				Action: runOutreach,
			},
			{
				Name:  "import",
				Usage: "parse CSV exports, classify locations, and persist contacts",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "connections",
						Usage:    "connections CSV export",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "messages",
						Usage: "message history CSV export",
					},
				},
				Action: runImport,
			},
		},
	}
	cliApp.RunAndExitOnError()
}

func buildApp(cctx *cli.Context) (*app.Application, context.Context, func(), error) {
	if path := cctx.String("config"); path != "" {
		os.Setenv("CONTACT_SCANNER_CONFIG", path)
	}
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cleanup := func() {
		stop()
		application.Close()
	}
	return application, ctx, cleanup, nil
}

func runScan(cctx *cli.Context) error {
	application, ctx, cleanup, err := buildApp(cctx)
	if err != nil {
		return err
	}
	defer cleanup()
	return application.RunScan(ctx)
}

func runBatch(cctx *cli.Context) error {
	application, ctx, cleanup, err := buildApp(cctx)
	if err != nil {
		return err
	}
	defer cleanup()
	return application.RunBatch(ctx, cctx.String("connections"), os.Stdout)
}

func runOutreach(cctx *cli.Context) error {
	application, ctx, cleanup, err := buildApp(cctx)
	if err != nil {
		return err
	}
	defer cleanup()

	connections := cctx.String("connections")
	if connections == "" {
		return fmt.Errorf("outreach needs a --connections export")
	}
	return application.RunOutreach(ctx, connections, cctx.String("messages"), cctx.Bool("dry-run"))
}

func runImport(cctx *cli.Context) error {
	application, ctx, cleanup, err := buildApp(cctx)
	if err != nil {
		return err
	}
	defer cleanup()
	return application.RunImport(ctx, cctx.String("connections"), cctx.String("messages"), os.Stdout)
}
