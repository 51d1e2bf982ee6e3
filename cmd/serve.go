package main

import (
	"errors"
	"fmt"
	"log/slog"
	"pdfdigest/internal/bot"
	"pdfdigest/internal/config"
	"pdfdigest/internal/database"
	"pdfdigest/internal/extract"
	"pdfdigest/internal/pipeline"
	"pdfdigest/internal/scheduler"
	"pdfdigest/internal/server"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot, the HTTP API and the retention scheduler",
	Long: `Run the long-lived services.

The Telegram bot starts when TOKEN is set and the HTTP API starts when
HTTP_ADDR is set. At least one of them is required. Reports are stored in
the SQLite database at DB_PATH and purged daily after REPORT_RETENTION.

Examples:
  TOKEN=... pdfdigest serve
  HTTP_ADDR=:8000 pdfdigest serve`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		log := slog.Default()
		start := time.Now()

		cfg, err := config.Load(envFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		if cfg.Token == "" && cfg.HTTPAddr == "" {
			return errors.New("TOKEN or HTTP_ADDR is required")
		}

		db, err := database.New(ctx, cfg.DBPath, log)
		if err != nil {
			return fmt.Errorf("initialize db: %w", err)
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				log.ErrorContext(ctx, "Failed to close db",
					"error", closeErr,
					"dbPath", cfg.DBPath)
			}
		}()
		log.InfoContext(ctx, "DB is initialized",
			"dbPath", cfg.DBPath)

		svc, err := newPipeline(ctx, cfg, log, pipeline.WithStore(db))
		if err != nil {
			return fmt.Errorf("initialize pipeline: %w", err)
		}

		sched := scheduler.New(ctx, db, cfg.ReportRetention, log)
		if err = sched.Start(); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer sched.Stop()
		log.InfoContext(ctx, "Scheduler is started",
			"spec", scheduler.DailyPurgeSpec,
			"timezone", scheduler.Timezone,
			"retention", cfg.ReportRetention.String())

		g, gCtx := errgroup.WithContext(ctx)

		if cfg.Token != "" {
			botInst, botErr := bot.New(cfg.Token, svc, db, extract.NewFetcher(log), cfg.AllowedUsers, log)
			if botErr != nil {
				return fmt.Errorf("initialize bot: %w", botErr)
			}
			defer botInst.Stop()
			log.InfoContext(ctx, "Bot is initialized",
				"allowedUsersCount", len(cfg.AllowedUsers))

			g.Go(func() error {
				botInst.Start(gCtx)
				return nil
			})
		}

		if cfg.HTTPAddr != "" {
			srv := server.New(cfg.HTTPAddr, svc, db, log)

			g.Go(func() error {
				return srv.Start(gCtx)
			})
		}

		err = g.Wait()

		log.InfoContext(ctx, "Exiting...",
			"uptimeSeconds", time.Since(start).Seconds())

		return err
	},
}
