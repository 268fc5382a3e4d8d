package narrative

import (
	"fmt"
	"strings"
)

// NoGoalsText is substituted when the user has no active goals.
const NoGoalsText = "No active financial goals"

const cardSchema = `
      "visualization": {
        "chart_type": "line|bar|donut|comparison_bars|bar_with_trend",
        "data": [
          {"label": "Month or Category", "value": 1234.56, "highlight": false}
        ],
        "annotation": "Brief chart note under 50 chars"
      },
      "key_metric": {
        "primary_value": "$X,XXX or percentage",
        "primary_label": "Clear metric label",
        "secondary": "comparison or context",
        "icon": "alert|trend-up|trend-down|target|clock|info"
      },
      "card_content": {
        "summary": "One sentence, max 150 chars",
        "actions": [
          "Specific action with a dollar amount, max 100 chars"
        ],
        "impact": "Quantified outcome, max 100 chars"
      },`

const outputRules = `
Return ONLY valid raw JSON.
Do NOT wrap the response in code fences.
Output must begin with "{" and end with "}".
`

const monthlyReviewPrompt = `You are a goal achievement coach. Your mission is helping the user reach
their financial goals through spending analysis and specific reallocation
recommendations.

For every insight answer:
1. How did this month's spending affect the user's goals?
2. Which categories should be cut, and by how much?
3. Where should those funds be reallocated?
4. How many months faster would the goal be reached?

USER SPENDING DATA:
{context}

USER FINANCIAL GOALS:
{goals}

Respond with this exact JSON structure:
{
  "insights": [
    {
      "title": "Headline under 80 characters",
      "priority": "HIGH|MEDIUM|LOW",
      "category": "goal_accelerator|goal_blocker|goal_suggestion|spending_alert",
      "timeframe": "this_month|next_month|next_3_months",
      "goal_context": {"goal_id": "id or null", "goal_name": "name", "goal_type": "savings_target|spending_reduction"},
` + cardSchema + `
      "reallocation_plan": {
        "from_categories": [
          {"category": "Dining", "current": 450, "target": 300, "reduction": 150}
        ],
        "to_goal": "Goal Name",
        "total_monthly_impact": 150,
        "timeline_acceleration": "3 months faster"
      },
      "full_content": {
        "what_happening": "Spending changes and goal impact with specific numbers",
        "why_matters": "Why this affects the goal timeline",
        "detailed_actions": [{"action": "Reallocation with dollar amounts", "rationale": "Timeline math"}],
        "expected_impact": "Timeline acceleration and milestones"
      }
    }
  ]
}

Rules:
- Every insight connects to a goal, active or suggested.
- All numbers come from USER SPENDING DATA. Never fabricate values.
- Reductions are realistic: 20-40 percent of a discretionary category.
- HIGH priority for goals at risk or reallocations above $100/month, MEDIUM above $50/month, LOW otherwise.
- Without active goals, suggest 1-2 goals based on the spending patterns.

Generate 2-4 insights.
` + outputRules

const foresightPrompt = `You are a financial foresight engine. Generate forward-looking predictions
with chart data for card display.

USER DATA:
{context}

Respond with this exact JSON structure:
{
  "foresights": [
    {
      "title": "Predictive headline under 80 characters",
      "priority": "HIGH|MEDIUM|LOW",
      "type": "seasonal_surge|cash_flow_warning|income_change|spending_trend|budget_risk",
      "timeframe": "next_month|next_3_months|next_6_months",
      "confidence": "high|medium|low",
` + cardSchema + `
      "full_content": {
        "what_predicted": "The prediction explained with data",
        "why_matters": "Consequences if unprepared",
        "detailed_actions": [{"action": "Preparatory step", "rationale": "Why it prevents the issue"}],
        "expected_impact": "Outcome if actions are taken"
      }
    }
  ]
}

Rules:
- All numbers come from USER DATA. Predictions follow the historical patterns shown.
- Summaries are predictive and actions are preparatory.
- Use bar_with_trend for time-based predictions and line for seasonal patterns.
- Confidence reflects the strength of the pattern.

Generate 1-3 high-confidence foresights.
` + outputRules

const proactivePrompt = `You are a proactive insights engine. Analyze the spending patterns below and
generate actionable insights with chart data.

USER DATA:
{context}

Respond with this exact JSON structure:
{
  "insights": [
    {
      "title": "Actionable headline under 80 characters",
      "priority": "HIGH|MEDIUM|LOW",
      "type": "subscription_waste|lifestyle_inflation|spending_pattern|merchant_concentration|behavioral_trigger",
` + cardSchema + `
      "full_content": {
        "what_happening": "The pattern explained with data",
        "why_matters": "Why the pattern costs money",
        "detailed_actions": [{"action": "Specific step", "rationale": "Expected result"}],
        "expected_impact": "Annual savings or change"
      }
    }
  ]
}

Rules:
- All numbers come from USER DATA.
- Focus on patterns, not one-time events.
- Impact shows annual savings.

Generate 2-4 insights focusing on the highest-impact patterns.
` + outputRules

var prompts = map[Kind]string{
	KindMonthlyReview: monthlyReviewPrompt,
	KindForesight:     foresightPrompt,
	KindProactive:     proactivePrompt,
}

// BuildPrompt renders the prompt of kind around a formatted digest.
// goals is only used by monthly reviews; empty means NoGoalsText.
func BuildPrompt(kind Kind, digest, goals string) (string, error) {
	tmpl, ok := prompts[kind]
	if !ok {
		return "", fmt.Errorf("BuildPrompt: unknown kind %q", kind)
	}
	if strings.TrimSpace(goals) == "" {
		goals = NoGoalsText
	}
	r := strings.NewReplacer("{context}", digest, "{goals}", goals)
	return r.Replace(tmpl), nil
}
