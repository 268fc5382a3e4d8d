package notionsync

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jomei/notionapi"

	infra "github.com/dvloznov/finance-insights/internal/infra/bigquery"
)

// Property names of the insights database.
const (
	PropTitle       = "Title"
	PropInsightID   = "Insight ID"
	PropUser        = "User"
	PropKind        = "Kind"
	PropType        = "Type"
	PropPriority    = "Priority"
	PropStatus      = "Status"
	PropGenerated   = "Generated"
	PropExpires     = "Expires"
	PropTargetMonth = "Target Month"
	PropTimeframe   = "Timeframe"
	PropConfidence  = "Confidence"
	PropSummary     = "Summary"
	PropActions     = "Actions"
	PropImpact      = "Impact"
	PropViewed      = "Viewed"
	PropDismissed   = "Dismissed"
)

// maxTextLen is Notion's limit on the content of one rich text object.
const maxTextLen = 2000

// InsightToNotionProperties converts a stored insight into page properties.
// Optional columns that are empty are left out so Notion keeps them blank.
func InsightToNotionProperties(row *infra.InsightRow) notionapi.Properties {
	props := notionapi.Properties{
		PropTitle: notionapi.TitleProperty{
			Title: richText(row.Title),
		},
		PropInsightID: notionapi.RichTextProperty{RichText: richText(row.InsightID)},
		PropUser:      notionapi.RichTextProperty{RichText: richText(row.UserID)},
		PropGenerated: dateProperty(row.GeneratedAt),
		PropExpires:   dateProperty(row.ExpiresAt),
		PropViewed:    notionapi.CheckboxProperty{Checkbox: row.Viewed},
		PropDismissed: notionapi.CheckboxProperty{Checkbox: row.Dismissed},
	}

	for name, value := range map[string]string{
		PropKind:     row.ReportKind,
		PropType:     row.InsightType,
		PropPriority: row.Priority,
		PropStatus:   row.Status,
	} {
		if value != "" {
			props[name] = selectProperty(value)
		}
	}

	if row.Timeframe.Valid {
		props[PropTimeframe] = selectProperty(row.Timeframe.StringVal)
	}
	if row.Confidence.Valid {
		props[PropConfidence] = selectProperty(row.Confidence.StringVal)
	}
	if row.TargetMonth.Valid {
		props[PropTargetMonth] = notionapi.RichTextProperty{RichText: richText(row.TargetMonth.StringVal)}
	}

	if row.Summary != "" {
		props[PropSummary] = notionapi.RichTextProperty{RichText: richText(row.Summary)}
	}
	if len(row.Actions) > 0 {
		props[PropActions] = notionapi.RichTextProperty{RichText: richText(bulletList(row.Actions))}
	}
	if row.Impact != "" {
		props[PropImpact] = notionapi.RichTextProperty{RichText: richText(row.Impact)}
	}

	return props
}

// StateProperties are the properties that change after an insight is
// stored; they are what an update rewrites.
func StateProperties(row *infra.InsightRow) notionapi.Properties {
	props := notionapi.Properties{
		PropViewed:    notionapi.CheckboxProperty{Checkbox: row.Viewed},
		PropDismissed: notionapi.CheckboxProperty{Checkbox: row.Dismissed},
	}
	if row.Status != "" {
		props[PropStatus] = selectProperty(row.Status)
	}
	return props
}

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: truncate(content, maxTextLen)},
		},
	}
}

func selectProperty(name string) notionapi.SelectProperty {
	return notionapi.SelectProperty{Select: notionapi.Option{Name: name}}
}

func dateProperty(t time.Time) notionapi.DateProperty {
	d := notionapi.Date(t.UTC())
	return notionapi.DateProperty{Date: &notionapi.DateObject{Start: &d}}
}

func bulletList(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "• " + item
	}
	return strings.Join(lines, "\n")
}

// truncate cuts s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

// plainText reads a title or rich text property of a queried page.
func plainText(page notionapi.Page, name string) string {
	var parts []notionapi.RichText
	switch prop := page.Properties[name].(type) {
	case *notionapi.RichTextProperty:
		parts = prop.RichText
	case *notionapi.TitleProperty:
		parts = prop.Title
	default:
		return ""
	}

	var b strings.Builder
	for _, rt := range parts {
		b.WriteString(rt.PlainText)
	}
	return b.String()
}
