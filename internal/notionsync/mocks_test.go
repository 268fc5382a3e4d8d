package notionsync

import (
	"context"
	"fmt"
	"sync"

	"github.com/jomei/notionapi"

	infra "github.com/dvloznov/finance-insights/internal/infra/bigquery"
)

// MockNotionService is a mock implementation of NotionService for testing.
type MockNotionService struct {
	CreatePageFunc    func(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)
	UpdatePageFunc    func(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error)
	QueryDatabaseFunc func(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
	ArchivePageFunc   func(ctx context.Context, pageID string) error

	mu       sync.Mutex
	Created  []notionapi.Properties
	Updated  map[string]notionapi.Properties
	Archived []string
}

func (m *MockNotionService) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	if m.CreatePageFunc != nil {
		return m.CreatePageFunc(ctx, databaseID, properties)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Created = append(m.Created, properties)
	return &notionapi.Page{ID: notionapi.ObjectID(fmt.Sprintf("new-%d", len(m.Created)))}, nil
}

func (m *MockNotionService) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error) {
	if m.UpdatePageFunc != nil {
		return m.UpdatePageFunc(ctx, pageID, properties)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Updated == nil {
		m.Updated = make(map[string]notionapi.Properties)
	}
	m.Updated[pageID] = properties
	return &notionapi.Page{ID: notionapi.ObjectID(pageID)}, nil
}

func (m *MockNotionService) QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	if m.QueryDatabaseFunc != nil {
		return m.QueryDatabaseFunc(ctx, databaseID, req)
	}
	return &notionapi.DatabaseQueryResponse{}, nil
}

func (m *MockNotionService) ArchivePage(ctx context.Context, pageID string) error {
	if m.ArchivePageFunc != nil {
		return m.ArchivePageFunc(ctx, pageID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Archived = append(m.Archived, pageID)
	return nil
}

// MockInsightRepository is a mock implementation of infra.InsightRepository.
type MockInsightRepository struct {
	InsertInsightsFunc func(ctx context.Context, rows []*infra.InsightRow) error
	ListInsightsFunc   func(ctx context.Context, f infra.InsightFilter) ([]*infra.InsightRow, error)
}

func (m *MockInsightRepository) InsertInsights(ctx context.Context, rows []*infra.InsightRow) error {
	if m.InsertInsightsFunc != nil {
		return m.InsertInsightsFunc(ctx, rows)
	}
	return nil
}

func (m *MockInsightRepository) ListInsights(ctx context.Context, f infra.InsightFilter) ([]*infra.InsightRow, error) {
	if m.ListInsightsFunc != nil {
		return m.ListInsightsFunc(ctx, f)
	}
	return nil, nil
}

// page builds a queried page the way Notion returns it.
func page(id, insightID, userID, kind string) notionapi.Page {
	props := notionapi.Properties{
		PropInsightID: &notionapi.RichTextProperty{RichText: []notionapi.RichText{{PlainText: insightID}}},
		PropUser:      &notionapi.RichTextProperty{RichText: []notionapi.RichText{{PlainText: userID}}},
	}
	if kind != "" {
		props[PropKind] = &notionapi.SelectProperty{Select: notionapi.Option{Name: kind}}
	}
	return notionapi.Page{ID: notionapi.ObjectID(id), Properties: props}
}

func insightRow(id, userID, kind string) *infra.InsightRow {
	return &infra.InsightRow{
		InsightID:   id,
		PK:          infra.UserPartitionKey(userID),
		UserID:      userID,
		ReportKind:  kind,
		InsightType: "spending_alert",
		Status:      "active",
		Title:       "Insight " + id,
	}
}
