package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dvloznov/finance-insights/internal/config"
	infra "github.com/dvloznov/finance-insights/internal/infra/bigquery"
	"github.com/dvloznov/finance-insights/internal/logger"
	"github.com/dvloznov/finance-insights/internal/notionsync"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	usersFlag := flag.String("users", "", "Comma-separated user IDs to sync (default: every user with data)")
	kind := flag.String("kind", "", "Only sync one report kind: monthly_review, foresight or proactive")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	timeout := flag.Duration("timeout", 10*time.Minute, "Overall timeout for the sync")
	flag.Parse()

	log, err := logger.NewWithConfig(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		fallback := logger.New()
		fallback.Fatal().Err(err).Msg("Invalid logger configuration")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if err := cfg.RequireCloud(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if err := cfg.RequireNotion(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	switch *kind {
	case "", "monthly_review", "foresight", "proactive":
	default:
		log.Fatal().Str("kind", *kind).Msg("Error: unknown report kind")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	repo, err := infra.NewRepository(ctx, cfg.ProjectID, cfg.Dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize BigQuery repository")
	}
	defer repo.Close()

	userIDs := splitUsers(*usersFlag)
	if len(userIDs) == 0 {
		if userIDs, err = repo.ListUserIDs(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to list users")
		}
	}
	if len(userIDs) == 0 {
		log.Warn().Msg("No users to sync")
		return
	}

	stats, err := notionsync.SyncInsights(ctx, repo, notionsync.NewNotionClient(cfg.NotionToken), cfg.NotionDatabaseID, notionsync.SyncOptions{
		UserIDs:    userIDs,
		ReportKind: *kind,
		DryRun:     *dryRun,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(stats)

	if stats.Failed > 0 {
		os.Exit(1)
	}
}

func splitUsers(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
