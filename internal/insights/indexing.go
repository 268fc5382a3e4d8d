package insights

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-insights/internal/analytics"
	infra "github.com/dvloznov/finance-insights/internal/infra/bigquery"
	"github.com/dvloznov/finance-insights/internal/logger"
	"github.com/dvloznov/finance-insights/internal/rawstore"
)

// FileResult is the outcome of indexing one raw file.
type FileResult struct {
	Object     string `json:"object"`
	SourceType string `json:"source_type"`
	analytics.EnrichStats
	// UnresolvedSpend is the spending of the records with unparseable dates.
	UnresolvedSpend float64 `json:"unresolved_spend,omitempty"`
	Error           string  `json:"error,omitempty"`
}

// IndexResult summarises one user's re-indexing.
type IndexResult struct {
	UserID      string          `json:"user_id"`
	RunID       string          `json:"run_id"`
	Deleted     int64           `json:"deleted"`
	Files       []FileResult    `json:"files"`
	FailedFiles int             `json:"failed_files"`
	Counts      infra.RunCounts `json:"counts"`
}

// IndexingService turns a user's raw transaction files into stored enriched
// transactions.
type IndexingService struct {
	store      rawstore.Store
	txns       infra.TransactionRepository
	runs       infra.IndexingRunRepository
	convention analytics.SignConvention
	largeRef   float64
}

// NewIndexingService creates an IndexingService.
func NewIndexingService(store rawstore.Store, txns infra.TransactionRepository, runs infra.IndexingRunRepository, convention analytics.SignConvention, largeRefund float64) *IndexingService {
	return &IndexingService{
		store:      store,
		txns:       txns,
		runs:       runs,
		convention: convention,
		largeRef:   largeRefund,
	}
}

// IndexUser enriches and stores every JSON file under the user's prefix.
// With replace set, the user's existing rows are deleted first. A file that
// cannot be read, decoded or stored is counted as failed and skipped.
func (s *IndexingService) IndexUser(ctx context.Context, userID string, replace bool) (*IndexResult, error) {
	log := logger.ForUser(logger.FromContext(ctx), userID)

	// 1. Start an indexing run (status=RUNNING).
	runID, err := s.runs.StartIndexingRun(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("IndexUser: %w", err)
	}
	res := &IndexResult{UserID: userID, RunID: runID, Files: []FileResult{}}

	// 2. List the user's raw files.
	objects, err := s.store.ListUserObjects(ctx, userID)
	if err != nil {
		s.runs.MarkIndexingRunFailed(ctx, runID, err)
		return nil, fmt.Errorf("IndexUser: list objects: %w", err)
	}

	// 3. Drop previously indexed rows when replacing.
	if replace {
		n, err := s.txns.DeleteUserTransactions(ctx, userID)
		if err != nil {
			s.runs.MarkIndexingRunFailed(ctx, runID, err)
			return nil, fmt.Errorf("IndexUser: delete existing: %w", err)
		}
		res.Deleted = n
		log.Info().Int64("deleted", n).Msg("deleted existing transactions")
	}

	// 4. Enrich and insert file by file.
	for _, obj := range objects {
		if !rawstore.IsJSONObject(obj) {
			continue
		}

		fr := s.indexFile(ctx, userID, obj, log)
		res.Files = append(res.Files, fr)
		res.Counts.Files++
		if fr.Error != "" {
			res.FailedFiles++
			continue
		}
		res.Counts.Records += fr.Records
		res.Counts.Enriched += fr.Enriched
		res.Counts.Skipped += fr.Skipped
	}

	// 5. Mark the run as SUCCESS.
	if err := s.runs.MarkIndexingRunSucceeded(ctx, runID, res.Counts); err != nil {
		return nil, fmt.Errorf("IndexUser: %w", err)
	}

	log.Info().
		Str("run_id", runID).
		Int("files", res.Counts.Files).
		Int("failed_files", res.FailedFiles).
		Int("enriched", res.Counts.Enriched).
		Msg("indexing finished")
	return res, nil
}

func (s *IndexingService) indexFile(ctx context.Context, userID, obj string, log zerolog.Logger) FileResult {
	fr := FileResult{Object: obj, SourceType: analytics.SourceTypeFromName(obj)}
	fail := func(err error) FileResult {
		fr.Error = err.Error()
		log.Error().Err(err).Str("object", obj).Msg("failed to index file")
		return fr
	}

	b, err := s.store.ReadObject(ctx, obj)
	if err != nil {
		return fail(fmt.Errorf("read: %w", err))
	}

	records, err := analytics.DecodeCollectionBytes(b)
	if err != nil {
		return fail(fmt.Errorf("decode: %w", err))
	}

	fileLog := log.With().Str("object", obj).Logger()
	txns, stats, err := analytics.Enrich(records, analytics.EnrichOptions{
		UserID:      userID,
		SourceType:  fr.SourceType,
		SourceKey:   obj,
		Convention:  s.convention,
		LargeRefund: s.largeRef,
		Logger:      &fileLog,
	})
	if err != nil {
		return fail(fmt.Errorf("enrich: %w", err))
	}
	fr.EnrichStats = stats
	if stats.UnresolvedDate > 0 {
		un := analytics.AggregateUnresolved(txns)
		fr.UnresolvedSpend = un.Total
		fileLog.Warn().Int("transactions", un.Count).Float64("total", un.Total).Msg("transactions with unresolved dates stored outside every month")
	}

	if err := s.txns.InsertTransactions(ctx, txns); err != nil {
		return fail(fmt.Errorf("insert: %w", err))
	}
	return fr
}
