package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-insights/internal/analytics"
	"github.com/dvloznov/finance-insights/internal/config"
	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/report"
)

// analyzeOptions drive an offline analysis of one raw transaction file.
type analyzeOptions struct {
	UserID     string
	SourceKey  string
	Convention analytics.SignConvention
	Thresholds analytics.Thresholds

	// Year and Month select the monthly review target. Zero means the
	// latest month present in the file.
	Year  int
	Month int
	// AsOf anchors foresight and proactive windows. Zero means the start
	// of the month after the latest month present in the file.
	AsOf time.Time

	ForesightMonths int
	ProactiveMonths int

	Logger *zerolog.Logger
}

// analysis is everything analyze derives from a file.
type analysis struct {
	Stats         analytics.EnrichStats        `json:"stats"`
	Transactions  []domain.EnrichedTransaction `json:"transactions,omitempty"`
	MonthlyReview *domain.MonthlyReviewContext `json:"monthly_review,omitempty"`
	Foresight     *domain.ForesightContext     `json:"foresight,omitempty"`
	Proactive     *domain.ProactiveContext     `json:"proactive,omitempty"`
	// Unresolved holds the transactions with unparseable dates.
	Unresolved *domain.MonthlyAggregate `json:"unresolved,omitempty"`
}

func runAnalyze(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	filePath := fs.String("file", "", "Path to a raw transaction JSON file")
	userID := fs.String("user", "local", "User ID recorded on the enriched transactions")
	year := fs.Int("year", 0, "Monthly review year (default: latest month in the file)")
	month := fs.Int("month", 0, "Monthly review month (default: latest month in the file)")
	asOf := fs.String("as-of", "", "Anchor date YYYY-MM-DD for foresight and proactive (default: after the latest month)")
	format := fs.String("format", "text", "Output format: text or json")
	withTxns := fs.Bool("transactions", false, "Include enriched transactions in json output")
	fs.Parse(os.Args[2:])

	if *filePath == "" {
		log.Fatal().Msg("Error: --file is required")
	}

	opts := analyzeOptions{
		UserID:          *userID,
		SourceKey:       filepath.Base(*filePath),
		Convention:      cfg.Convention(),
		Thresholds:      cfg.Thresholds(),
		Year:            *year,
		Month:           *month,
		ForesightMonths: cfg.ForesightMonths,
		ProactiveMonths: cfg.ProactiveMonths,
		Logger:          &log,
	}
	if *asOf != "" {
		t, err := time.Parse("2006-01-02", *asOf)
		if err != nil {
			log.Fatal().Err(err).Msg("Error: --as-of must be YYYY-MM-DD")
		}
		opts.AsOf = t
	}

	f, err := os.Open(*filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open file")
	}
	defer f.Close()

	res, err := analyze(f, opts)
	if err != nil {
		log.Fatal().Err(err).Msg("Analysis failed")
	}

	switch *format {
	case "json":
		if !*withTxns {
			res.Transactions = nil
		}
		printJSON(res)
	default:
		fmt.Print(renderAnalysis(res))
	}
}

// analyze enriches the file and builds every report context from it, using
// the same selections the report services apply to stored transactions.
func analyze(r io.Reader, opts analyzeOptions) (*analysis, error) {
	records, err := analytics.DecodeCollection(r)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	txns, stats, err := analytics.Enrich(records, analytics.EnrichOptions{
		UserID:      opts.UserID,
		SourceKey:   opts.SourceKey,
		Convention:  opts.Convention,
		LargeRefund: opts.Thresholds.LargeRefund,
		Logger:      opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	res := &analysis{Stats: stats, Transactions: txns}
	if un := analytics.AggregateUnresolved(txns); un.Count > 0 {
		res.Unresolved = &un
	}

	latest, ok := latestMonth(txns)
	if !ok {
		return res, nil
	}

	year, month := opts.Year, opts.Month
	if year == 0 || month == 0 {
		year, month = latest.Year, latest.Month
	}
	asOf := opts.AsOf
	if asOf.IsZero() {
		next := latest.AddMonths(1)
		asOf = time.Date(next.Year, time.Month(next.Month), 1, 0, 0, 0, 0, time.UTC)
	}

	target := budgetDebits(txns, func(ym analytics.YearMonth) bool {
		return ym.Year == year && ym.Month == month
	})
	window := make(map[analytics.YearMonth]bool)
	for _, ym := range analytics.BaselineMonths(year, month, opts.Thresholds.BaselineMonths) {
		window[ym] = true
	}
	baseline := budgetDebits(txns, func(ym analytics.YearMonth) bool { return window[ym] })

	mr := analytics.BuildMonthlyReviewContext(year, month, target, baseline, nil, opts.Thresholds)
	res.MonthlyReview = &mr

	fc := analytics.BuildForesightContext(budgetSince(txns, asOf.AddDate(0, -opts.ForesightMonths, 0)), asOf, opts.Thresholds)
	res.Foresight = &fc

	pc := analytics.BuildProactiveContext(budgetSince(txns, asOf.AddDate(0, -opts.ProactiveMonths, 0)), asOf)
	res.Proactive = &pc

	return res, nil
}

// budgetDebits keeps the budget-affecting debits of the months accepted by in.
func budgetDebits(txns []domain.EnrichedTransaction, in func(analytics.YearMonth) bool) []domain.EnrichedTransaction {
	var out []domain.EnrichedTransaction
	for _, t := range txns {
		if t.Type != "debit" || !t.AffectsBudget || !t.Resolved() {
			continue
		}
		if in(analytics.YearMonth{Year: t.Year, Month: t.Month}) {
			out = append(out, t)
		}
	}
	return out
}

// budgetSince keeps the budget-affecting transactions dated at or after since.
func budgetSince(txns []domain.EnrichedTransaction, since time.Time) []domain.EnrichedTransaction {
	var out []domain.EnrichedTransaction
	for _, t := range txns {
		if t.AffectsBudget && t.Resolved() && t.Timestamp >= since.Unix() {
			out = append(out, t)
		}
	}
	return out
}

func latestMonth(txns []domain.EnrichedTransaction) (analytics.YearMonth, bool) {
	var latest analytics.YearMonth
	found := false
	for _, t := range txns {
		if !t.Resolved() {
			continue
		}
		ym := analytics.YearMonth{Year: t.Year, Month: t.Month}
		if !found || ym.Year > latest.Year || (ym.Year == latest.Year && ym.Month > latest.Month) {
			latest = ym
			found = true
		}
	}
	return latest, found
}

func renderAnalysis(res *analysis) string {
	out := fmt.Sprintf("Records: %d, enriched: %d, skipped: %d, unresolved dates: %d, invalid amounts: %d\n",
		res.Stats.Records, res.Stats.Enriched, res.Stats.Skipped, res.Stats.UnresolvedDate, res.Stats.InvalidAmount)
	if res.Unresolved != nil {
		out += "\n" + report.FormatUnresolved(*res.Unresolved) + "\n"
	}
	if res.MonthlyReview == nil {
		return out + "\nNo dated transactions to analyze.\n"
	}
	out += "\n=== Monthly review ===\n" + report.FormatMonthlyReview(*res.MonthlyReview) + "\n"
	out += "\n=== Foresight ===\n" + report.FormatForesight(*res.Foresight) + "\n"
	out += "\n=== Proactive ===\n" + report.FormatProactive(*res.Proactive) + "\n"
	return out
}
