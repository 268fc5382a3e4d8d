package narrative

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-insights/internal/domain"
)

// ErrMissingField marks an insight that lacks a required field.
var ErrMissingField = errors.New("missing required field")

const (
	maxSummaryLen = 150
	maxActionLen  = 100
	maxImpactLen  = 100
)

// Insight is a validated model insight with the card fields pulled out for storage.
type Insight struct {
	Kind             Kind                   `json:"kind"`
	Title            string                 `json:"title"`
	Priority         string                 `json:"priority"`
	Type             string                 `json:"type"`
	Timeframe        string                 `json:"timeframe,omitempty"`
	Confidence       string                 `json:"confidence,omitempty"`
	Summary          string                 `json:"summary"`
	Actions          []string               `json:"actions"`
	Impact           string                 `json:"impact"`
	Visualization    map[string]interface{} `json:"visualization"`
	KeyMetric        map[string]interface{} `json:"key_metric"`
	FullContent      map[string]interface{} `json:"full_content"`
	GoalContext      map[string]interface{} `json:"goal_context,omitempty"`
	ReallocationPlan map[string]interface{} `json:"reallocation_plan,omitempty"`
	Raw              map[string]interface{} `json:"raw_insight"`
}

// Reference holds the figures chart values are checked against.
type Reference struct {
	TargetTotal   float64
	BaselineTotal float64
	Categories    map[string]float64 // target month, keyed by lower-cased category
}

// ReferenceFromReview builds the chart reference of a monthly review.
func ReferenceFromReview(rc domain.MonthlyReviewContext) *Reference {
	cats := make(map[string]float64, len(rc.Target.Categories))
	for k, v := range rc.Target.Categories {
		cats[strings.ToLower(k)] = v
	}
	return &Reference{
		TargetTotal:   rc.Target.Total,
		BaselineTotal: rc.Baseline.Total,
		Categories:    cats,
	}
}

// ValidateInsight checks one raw insight and returns its corrected form plus
// any non-fatal warnings. Over-long summaries and impacts are truncated. When
// ref is set, chart values labelled with a target-month category are replaced
// by the actual amount.
func ValidateInsight(item map[string]interface{}, kind Kind, ref *Reference) (Insight, []string, error) {
	if !kind.Valid() {
		return Insight{}, nil, fmt.Errorf("ValidateInsight: unknown kind %q", kind)
	}
	for _, f := range kind.RequiredFields() {
		if _, ok := item[f]; !ok {
			return Insight{}, nil, fmt.Errorf("ValidateInsight: %w: %s", ErrMissingField, f)
		}
	}

	card, ok := item["card_content"].(map[string]interface{})
	if !ok {
		return Insight{}, nil, fmt.Errorf("ValidateInsight: %w: card_content", ErrMissingField)
	}
	for _, f := range []string{"summary", "actions", "impact"} {
		if _, ok := card[f]; !ok {
			return Insight{}, nil, fmt.Errorf("ValidateInsight: %w: card_content.%s", ErrMissingField, f)
		}
	}

	var warnings []string

	summary := getString(card, "summary")
	if n := runeLen(summary); n > maxSummaryLen {
		warnings = append(warnings, fmt.Sprintf("summary too long (%d chars), truncating", n))
		summary = truncate(summary, maxSummaryLen)
		card["summary"] = summary
	}

	actions := getStrings(card, "actions")
	for i, a := range actions {
		if n := runeLen(a); n > maxActionLen {
			warnings = append(warnings, fmt.Sprintf("action %d too long (%d chars)", i+1, n))
		}
		if vagueAction(a) {
			warnings = append(warnings, fmt.Sprintf("action may be too vague: %s", a))
		}
	}

	impact := getString(card, "impact")
	if n := runeLen(impact); n > maxImpactLen {
		warnings = append(warnings, fmt.Sprintf("impact too long (%d chars), truncating", n))
		impact = truncate(impact, maxImpactLen)
		card["impact"] = impact
	}

	viz := getMap(item, "visualization")
	if ref != nil && viz != nil {
		warnings = append(warnings, checkChart(viz, ref)...)
	}

	typeField := "type"
	if kind == KindMonthlyReview {
		typeField = "category"
	}

	return Insight{
		Kind:             kind,
		Title:            getString(item, "title"),
		Priority:         getString(item, "priority"),
		Type:             getString(item, typeField),
		Timeframe:        getString(item, "timeframe"),
		Confidence:       getString(item, "confidence"),
		Summary:          summary,
		Actions:          actions,
		Impact:           impact,
		Visualization:    viz,
		KeyMetric:        getMap(item, "key_metric"),
		FullContent:      getMap(item, "full_content"),
		GoalContext:      getMap(item, "goal_context"),
		ReallocationPlan: getMap(item, "reallocation_plan"),
		Raw:              item,
	}, warnings, nil
}

// ProcessResponse parses a model response and keeps the insights that pass
// validation. Parse failures and rejected insights are logged, never returned.
func ProcessResponse(raw string, kind Kind, ref *Reference, log zerolog.Logger) []Insight {
	items, err := ParseInsights(raw, kind)
	if err != nil {
		log.Error().Err(err).Int("response_len", len(raw)).Msg("failed to parse model response")
		return nil
	}

	out := make([]Insight, 0, len(items))
	for i, item := range items {
		ins, warnings, err := ValidateInsight(item, kind, ref)
		if err != nil {
			log.Warn().Err(err).Int("index", i).Msg("insight failed validation, skipping")
			continue
		}
		if len(warnings) > 0 {
			log.Warn().Strs("warnings", warnings).Str("title", ins.Title).Msg("insight validation warnings")
		}
		out = append(out, ins)
	}
	return out
}

func checkChart(viz map[string]interface{}, ref *Reference) []string {
	data, ok := viz["data"].([]interface{})
	if !ok {
		return []string{"chart validation issue: missing data"}
	}

	var warnings []string
	maxReasonable := math.Max(ref.TargetTotal, ref.BaselineTotal) * 1.5
	for _, d := range data {
		point, ok := d.(map[string]interface{})
		if !ok {
			continue
		}
		value := getFloat(point, "value")
		if value > maxReasonable {
			warnings = append(warnings, fmt.Sprintf("chart value %.2f seems too high (max: %.2f)", value, maxReasonable))
		}

		label := getString(point, "label")
		if actual, ok := ref.Categories[strings.ToLower(label)]; ok && math.Abs(value-actual) > 1 {
			warnings = append(warnings, fmt.Sprintf("chart data corrected: %s %.2f -> %.2f", label, value, actual))
			point["value"] = actual
		}
	}
	return warnings
}

var specificWords = []string{"$", "by", "before", "reduce", "save", "cut"}

func vagueAction(action string) bool {
	for _, r := range action {
		if unicode.IsDigit(r) {
			return false
		}
	}
	lower := strings.ToLower(action)
	for _, w := range specificWords {
		if strings.Contains(lower, w) {
			return false
		}
	}
	return true
}

func runeLen(s string) int {
	return len([]rune(s))
}

// truncate cuts s to n runes, ending in "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func getMap(m map[string]interface{}, key string) map[string]interface{} {
	if v, ok := m[key].(map[string]interface{}); ok {
		return v
	}
	return nil
}

func getStrings(m map[string]interface{}, key string) []string {
	list, ok := m[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func getFloat(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	}
	return 0
}
