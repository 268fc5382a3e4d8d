package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"

	infra "github.com/dvloznov/finance-insights/internal/infra/bigquery"
	"github.com/dvloznov/finance-insights/internal/logger"
)

// queryPageSize is the largest page size Notion accepts.
const queryPageSize = 100

// SyncOptions select what SyncInsights mirrors.
type SyncOptions struct {
	UserIDs    []string
	ReportKind string // empty syncs every kind
	DryRun     bool
}

// SyncStats counts what a sync did (or would do, in a dry run).
type SyncStats struct {
	Created  int `json:"created"`
	Updated  int `json:"updated"`
	Archived int `json:"archived"`
	Failed   int `json:"failed"`
}

// SyncInsights makes the Notion database mirror the unexpired insights of
// the given users. Pages are matched to insights by the Insight ID property:
// missing insights are created, existing ones get their state refreshed and
// pages of those users whose insight has expired are archived. Pages of other
// users are never touched. A failure on one page is counted and the sync
// continues.
func SyncInsights(ctx context.Context, repo infra.InsightRepository, notion NotionService, databaseID string, opts SyncOptions) (SyncStats, error) {
	log := logger.FromContext(ctx)
	var stats SyncStats

	log.Info().
		Int("users", len(opts.UserIDs)).
		Str("report_kind", opts.ReportKind).
		Bool("dry_run", opts.DryRun).
		Msg("Starting insight sync to Notion")

	active := make(map[string]*infra.InsightRow)
	for _, userID := range opts.UserIDs {
		rows, err := repo.ListInsights(ctx, infra.InsightFilter{
			UserID:     userID,
			ReportKind: opts.ReportKind,
		})
		if err != nil {
			return stats, fmt.Errorf("SyncInsights: list insights for %s: %w", userID, err)
		}
		for _, row := range rows {
			active[row.InsightID] = row
		}
	}

	pages, err := queryAllPages(ctx, notion, databaseID)
	if err != nil {
		return stats, fmt.Errorf("SyncInsights: %w", err)
	}

	log.Info().
		Int("insights", len(active)).
		Int("notion_pages", len(pages)).
		Msg("Loaded insights and existing Notion pages")

	synced := make(map[string]bool, len(opts.UserIDs))
	for _, userID := range opts.UserIDs {
		synced[userID] = true
	}

	existing := make(map[string]string)
	for _, page := range pages {
		insightID := plainText(page, PropInsightID)
		pageID := string(page.ID)
		plog := log.With().Str("insight_id", insightID).Str("page_id", pageID).Logger()

		if row, ok := active[insightID]; ok && existing[insightID] == "" {
			existing[insightID] = pageID
			if opts.DryRun {
				plog.Info().Msg("[DRY RUN] Would update Notion page")
				stats.Updated++
				continue
			}
			if _, err := notion.UpdatePage(ctx, pageID, StateProperties(row)); err != nil {
				plog.Warn().Err(err).Msg("Failed to update Notion page")
				stats.Failed++
				continue
			}
			stats.Updated++
			continue
		}

		// Stale page: expired insight or a duplicate. Only pages in scope of
		// this sync may be archived.
		if !synced[plainText(page, PropUser)] {
			continue
		}
		if opts.ReportKind != "" && !ownsKind(page, opts.ReportKind) {
			continue
		}

		if opts.DryRun {
			plog.Info().Msg("[DRY RUN] Would archive stale Notion page")
			stats.Archived++
			continue
		}
		if err := notion.ArchivePage(ctx, pageID); err != nil {
			plog.Warn().Err(err).Msg("Failed to archive stale Notion page")
			stats.Failed++
			continue
		}
		plog.Info().Msg("Archived stale Notion page")
		stats.Archived++
	}

	for insightID, row := range active {
		if existing[insightID] != "" {
			continue
		}
		ilog := log.With().Str("insight_id", insightID).Str("user_id", row.UserID).Logger()

		if opts.DryRun {
			ilog.Info().Msg("[DRY RUN] Would create Notion page")
			stats.Created++
			continue
		}
		page, err := notion.CreatePage(ctx, databaseID, InsightToNotionProperties(row))
		if err != nil {
			ilog.Warn().Err(err).Msg("Failed to create Notion page")
			stats.Failed++
			continue
		}
		ilog.Debug().Str("page_id", string(page.ID)).Msg("Created Notion page")
		stats.Created++
	}

	log.Info().
		Int("created", stats.Created).
		Int("updated", stats.Updated).
		Int("archived", stats.Archived).
		Int("failed", stats.Failed).
		Msg("Insight sync completed")

	return stats, nil
}

// ownsKind reports whether a page belongs to the report kind being synced.
func ownsKind(page notionapi.Page, kind string) bool {
	sel, ok := page.Properties[PropKind].(*notionapi.SelectProperty)
	return ok && sel.Select.Name == kind
}

// queryAllPages reads every page of the database, following cursors.
func queryAllPages(ctx context.Context, notion NotionService, databaseID string) ([]notionapi.Page, error) {
	var pages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{PageSize: queryPageSize}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notion.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllPages: %w", err)
		}
		pages = append(pages, resp.Results...)

		if !resp.HasMore {
			return pages, nil
		}
		cursor = resp.NextCursor
	}
}
