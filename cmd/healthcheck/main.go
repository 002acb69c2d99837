package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/finovate/healthcheck-go/internal/cache"
	"github.com/finovate/healthcheck-go/internal/cin7"
	"github.com/finovate/healthcheck-go/internal/config"
	"github.com/finovate/healthcheck-go/internal/domain"
	"github.com/finovate/healthcheck-go/internal/export"
	"github.com/finovate/healthcheck-go/internal/service"
	"github.com/finovate/healthcheck-go/internal/storage"
	"github.com/finovate/healthcheck-go/internal/syncerrors"
	"github.com/finovate/healthcheck-go/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found")
	}

	app := &cli.App{
		Name:  "healthcheck",
		Usage: "Generate inventory health check reports from Cin7 Core data",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
				Value: "info",
			},
		},
		Before: func(c *cli.Context) error {
			logger.SetLevel(c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "Run a report for one client and period",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "client",
						Usage: "Configured client name (defaults to the first client)",
					},
					&cli.IntFlag{
						Name:  "year",
						Usage: "Report year",
						Value: time.Now().UTC().Year(),
					},
					&cli.IntFlag{
						Name:  "month",
						Usage: "Report month (1-12)",
						Value: int(time.Now().UTC().Month()),
					},
					&cli.StringSliceFlag{
						Name:  "sections",
						Usage: "Sections to build (default: all API sections)",
					},
					&cli.StringFlag{
						Name:  "sync-file",
						Usage: "Path to a sync error XLSX export to fold in",
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "Export directory (defaults to APP_EXPORT_DIR)",
					},
					&cli.BoolFlag{
						Name:  "archive",
						Usage: "Upload the export bundle to the configured archive bucket",
					},
				},
				Action: runGenerate,
			},
			{
				Name:   "clients",
				Usage:  "List configured clients",
				Action: runClients,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func runGenerate(c *cli.Context) error {
	cfg := config.Load()
	if len(cfg.Clients) == 0 {
		return fmt.Errorf("no API clients configured, set CLIENT_1_ACCOUNT_ID and CLIENT_1_API_KEY")
	}

	opts := service.GenerateOptions{
		Client:   c.String("client"),
		Year:     c.Int("year"),
		Month:    c.Int("month"),
		Sections: c.StringSlice("sections"),
	}

	if path := c.String("sync-file"); path != "" {
		rows, err := syncerrors.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read sync error file: %w", err)
		}
		opts.SyncRows = rows
		log.Info().Int("rows", len(rows)).Str("path", path).Msg("loaded sync error workbook")
	}

	svc := service.NewReportService(func(name string) (service.DataSource, error) {
		creds, ok := cfg.FindClient(name)
		if !ok {
			return nil, service.ErrUnknownClient
		}
		return cin7.NewClient(cin7.Credentials{
			Name:      creds.Name,
			AccountID: creds.AccountID,
			APIKey:    creds.APIKey,
		})
	}, cache.NewNoopReportCache())

	start := time.Now()
	rpt, err := svc.Generate(c.Context, opts)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidPeriod) {
			return fmt.Errorf("%w: year %d month %d", err, opts.Year, opts.Month)
		}
		return err
	}

	exportDir := c.String("out")
	if exportDir == "" {
		exportDir = cfg.App.ExportDir
	}

	dir, err := export.WriteDir(exportDir, rpt)
	if err != nil {
		return err
	}

	if c.Bool("archive") {
		if !cfg.Archive.Enabled {
			return fmt.Errorf("archive requested but ARCHIVE_ENDPOINT is not configured")
		}
		archive, err := storage.NewArchiveClient(cfg.Archive)
		if err != nil {
			return err
		}
		if err := export.Archive(c.Context, archive, rpt); err != nil {
			return err
		}
	}

	for section, msg := range rpt.Errors {
		log.Warn().Str("section", section).Str("error", msg).Msg("section incomplete")
	}

	log.Info().
		Str("client", rpt.Client).
		Str("dir", dir).
		Bool("anomalies", rpt.Summary.HasAnomalies).
		Int("issues", rpt.Summary.TotalIssues).
		Dur("took", time.Since(start)).
		Msg("report generated")

	return nil
}

func runClients(c *cli.Context) error {
	cfg := config.Load()
	if len(cfg.Clients) == 0 {
		fmt.Println("no clients configured")
		return nil
	}
	for _, client := range cfg.Clients {
		fmt.Println(client.Name)
	}
	return nil
}
