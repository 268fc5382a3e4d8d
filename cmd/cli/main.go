package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-insights/internal/config"
	infraBQ "github.com/dvloznov/finance-insights/internal/infra/bigquery"
	"github.com/dvloznov/finance-insights/internal/insights"
	"github.com/dvloznov/finance-insights/internal/logger"
	"github.com/dvloznov/finance-insights/internal/narrative"
	"github.com/dvloznov/finance-insights/internal/rawstore"
	"github.com/dvloznov/finance-insights/internal/report"
	"github.com/dvloznov/finance-insights/internal/worker"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logger.NewWithConfig(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		fallback := logger.New()
		fallback.Fatal().Err(err).Msg("Invalid logger configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	command := os.Args[1]
	switch command {
	case "index":
		runIndex(cfg, log)
	case "review":
		runReview(cfg, log)
	case "foresight":
		runPeriod(cfg, log, narrative.KindForesight)
	case "proactive":
		runPeriod(cfg, log, narrative.KindProactive)
	case "batch":
		runBatch(cfg, log)
	case "analyze":
		runAnalyze(cfg, log)
	case "upload":
		runUpload(cfg, log)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: cli <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  index      Enrich a user's raw transaction files into BigQuery")
	fmt.Println("  review     Run the monthly review for one user")
	fmt.Println("  foresight  Run the foresight report for one user")
	fmt.Println("  proactive  Run the proactive pattern report for one user")
	fmt.Println("  batch      Run one report for many users")
	fmt.Println("  analyze    Enrich a local JSON file and print report contexts (no cloud access)")
	fmt.Println("  upload     Upload a local JSON file to a user's raw folder")
	fmt.Println()
	fmt.Println("Use 'cli <command> -h' for more information about a command.")
}

func requireCloud(cfg *config.Config, log zerolog.Logger) {
	if err := cfg.RequireCloud(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
}

// reportServices wires the report services to BigQuery and Gemini. The
// returned repository must be closed by the caller.
func reportServices(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*infraBQ.Repository, insights.Deps, insights.Settings) {
	requireCloud(cfg, log)

	repo, err := infraBQ.NewRepository(ctx, cfg.ProjectID, cfg.Dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery repository")
	}

	generator, err := narrative.NewGeminiGenerator(ctx, cfg.GeminiModel)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create narrative generator")
	}

	deps := insights.Deps{
		Transactions: repo,
		Goals:        repo,
		Insights:     repo,
		Generator:    generator,
	}
	return repo, deps, insights.SettingsFromConfig(cfg)
}

func runIndex(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	userID := fs.String("user", "", "User ID to index")
	replace := fs.Bool("replace", false, "Delete the user's existing rows first")
	dir := fs.String("dir", "", "Read raw files from a local directory instead of GCS")
	fs.Parse(os.Args[2:])

	if *userID == "" {
		log.Fatal().Msg("Error: --user is required")
	}

	ctx := logger.WithContext(context.Background(), logger.ForUser(log, *userID))

	if *dir == "" {
		requireCloud(cfg, log)
	} else if cfg.ProjectID == "" {
		log.Fatal().Msg("Error: GCP_PROJECT_ID is required")
	}

	repo, err := infraBQ.NewRepository(ctx, cfg.ProjectID, cfg.Dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery repository")
	}
	defer repo.Close()

	var store rawstore.Store
	if *dir != "" {
		store = rawstore.NewDirStore(*dir)
	} else {
		gcs, err := rawstore.NewGCSStore(ctx, cfg.Bucket)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create storage client")
		}
		defer gcs.Close()
		store = gcs
	}

	svc := insights.NewIndexingService(store, repo, repo, cfg.Convention(), cfg.LargeRefundThreshold)
	res, err := svc.IndexUser(ctx, *userID, *replace)
	if err != nil {
		log.Fatal().Err(err).Msg("Indexing failed")
	}

	printJSON(res)
}

func runReview(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("review", flag.ExitOnError)
	userID := fs.String("user", "", "User ID")
	year := fs.Int("year", 0, "Target year (default: previous month)")
	month := fs.Int("month", 0, "Target month (default: previous month)")
	dryRun := fs.Bool("dry-run", false, "Print the review context without calling the model or storing insights")
	fs.Parse(os.Args[2:])

	if *userID == "" {
		log.Fatal().Msg("Error: --user is required")
	}
	if *year == 0 || *month == 0 {
		*year, *month = worker.PreviousMonth(time.Now())
	}

	ctx := logger.WithContext(context.Background(), logger.ForUser(log, *userID))
	repo, deps, settings := reportServices(ctx, cfg, log)
	defer repo.Close()

	svc := insights.NewMonthlyReviewService(deps, settings)

	if *dryRun {
		rc, err := svc.Context(ctx, *userID, *year, *month)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to build review context")
		}
		fmt.Println(report.FormatMonthlyReview(*rc))
		return
	}

	res, err := svc.Run(ctx, *userID, *year, *month)
	if err != nil {
		log.Fatal().Err(err).Msg("Monthly review failed")
	}
	printJSON(res)
}

func runPeriod(cfg *config.Config, log zerolog.Logger, kind narrative.Kind) {
	fs := flag.NewFlagSet(string(kind), flag.ExitOnError)
	userID := fs.String("user", "", "User ID")
	dryRun := fs.Bool("dry-run", false, "Print the report context without calling the model or storing insights")
	fs.Parse(os.Args[2:])

	if *userID == "" {
		log.Fatal().Msg("Error: --user is required")
	}

	ctx := logger.WithContext(context.Background(), logger.ForUser(log, *userID))
	repo, deps, settings := reportServices(ctx, cfg, log)
	defer repo.Close()

	now := time.Now()

	var (
		res *insights.Result
		err error
	)
	switch kind {
	case narrative.KindForesight:
		svc := insights.NewForesightService(deps, settings)
		if *dryRun {
			fc, err := svc.Context(ctx, *userID, now)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to build foresight context")
			}
			fmt.Println(report.FormatForesight(*fc))
			return
		}
		res, err = svc.Run(ctx, *userID, now)
	case narrative.KindProactive:
		svc := insights.NewProactiveService(deps, settings)
		if *dryRun {
			pc, err := svc.Context(ctx, *userID, now)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to build proactive context")
			}
			fmt.Println(report.FormatProactive(*pc))
			return
		}
		res, err = svc.Run(ctx, *userID, now)
	}
	if err != nil {
		log.Fatal().Err(err).Str("kind", string(kind)).Msg("Report failed")
	}
	printJSON(res)
}

func runBatch(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	kindName := fs.String("kind", string(narrative.KindMonthlyReview), "Report kind: monthly_review, foresight or proactive")
	users := fs.String("users", "", "Comma-separated user IDs (default: every user with transactions)")
	year := fs.Int("year", 0, "Target year of a monthly review (default: previous month)")
	month := fs.Int("month", 0, "Target month of a monthly review (default: previous month)")
	fs.Parse(os.Args[2:])

	kind := narrative.Kind(*kindName)
	if !kind.Valid() {
		log.Fatal().Str("kind", *kindName).Msg("Unknown report kind")
	}
	if *year == 0 || *month == 0 {
		*year, *month = worker.PreviousMonth(time.Now())
	}

	ctx := logger.WithContext(context.Background(), log)
	repo, deps, settings := reportServices(ctx, cfg, log)
	defer repo.Close()

	var userIDs []string
	for _, u := range strings.Split(*users, ",") {
		if u = strings.TrimSpace(u); u != "" {
			userIDs = append(userIDs, u)
		}
	}
	if len(userIDs) == 0 {
		var err error
		userIDs, err = repo.ListUserIDs(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to list users")
		}
	}

	now := time.Now()
	var fn insights.RunFunc
	switch kind {
	case narrative.KindMonthlyReview:
		svc := insights.NewMonthlyReviewService(deps, settings)
		fn = func(ctx context.Context, userID string) (*insights.Result, error) {
			return svc.Run(ctx, userID, *year, *month)
		}
	case narrative.KindForesight:
		svc := insights.NewForesightService(deps, settings)
		fn = func(ctx context.Context, userID string) (*insights.Result, error) {
			return svc.Run(ctx, userID, now)
		}
	case narrative.KindProactive:
		svc := insights.NewProactiveService(deps, settings)
		fn = func(ctx context.Context, userID string) (*insights.Result, error) {
			return svc.Run(ctx, userID, now)
		}
	}

	results := insights.RunForUsers(ctx, userIDs, cfg.UserConcurrency, kind, fn)
	tally := insights.Tally(results)

	log.Info().
		Str("kind", string(kind)).
		Int("users", len(userIDs)).
		Int("success", tally[insights.StatusSuccess]).
		Int("skipped", tally[insights.StatusSkipped]).
		Int("no_insights", tally[insights.StatusNoInsights]).
		Int("error", tally[insights.StatusError]).
		Msg("Batch finished")

	printJSON(results)
	if tally[insights.StatusError] > 0 {
		os.Exit(1)
	}
}

func runUpload(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	filePath := fs.String("file", "", "Path to the JSON file to upload")
	userID := fs.String("user", "", "Owning user ID")
	name := fs.String("name", "", "Object name under the user's folder (default: file name)")
	fs.Parse(os.Args[2:])

	if *filePath == "" || *userID == "" {
		log.Fatal().Msg("Error: --file and --user are required")
	}
	if !rawstore.IsJSONObject(*filePath) {
		log.Fatal().Str("file", *filePath).Msg("Error: only .json files can be uploaded")
	}
	requireCloud(cfg, log)

	object := *name
	if object == "" {
		object = filepath.Base(*filePath)
	}
	object = rawstore.UserPrefix(*userID) + object

	ctx := logger.WithContext(context.Background(), logger.ForUser(log, *userID))

	store, err := rawstore.NewGCSStore(ctx, cfg.Bucket)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage client")
	}
	defer store.Close()

	if err := store.UploadFile(ctx, object, *filePath); err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	log.Info().Str("object", object).Msg("Upload completed")
	fmt.Printf("gs://%s/%s\n", cfg.Bucket, object)
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "encode output: %v\n", err)
	}
}
