package report

import (
	"fmt"

	"github.com/dvloznov/finance-insights/internal/domain"
)

// NoGoals is the goals section used when a user has no active goals.
const NoGoals = "No active financial goals"

// FormatGoals renders the goals section of a prompt.
func FormatGoals(goals []domain.Goal) string {
	if len(goals) == 0 {
		return NoGoals
	}
	var s sections
	s.add(goalLines(goals)...)
	return s.String()
}

func goalLines(goals []domain.Goal) []string {
	var lines []string
	for _, g := range goals {
		lines = append(lines,
			fmt.Sprintf("\n**%s** (%s, Priority: %s)", g.Name, g.Type, g.Priority),
			"Intent: "+g.Intent,
		)

		if g.Type == domain.GoalSavingsTarget {
			lines = append(lines, fmt.Sprintf("Progress: %s / %s (%.0f%%)",
				money(g.CurrentAmount), money(g.TargetValue), g.PercentageComplete))
		} else {
			lines = append(lines, fmt.Sprintf("Current: %s/month, Target: %s/month",
				money(g.CurrentPeriodSpending), money(g.TargetValue)))
		}

		ev := g.LatestEvaluation
		if ev == nil {
			continue
		}
		lines = append(lines, "Status: "+ev.Status)
		if len(ev.Insights) > 0 {
			lines = append(lines, "Key Insights:")
			for _, in := range ev.Insights {
				lines = append(lines, "  - "+in)
			}
		}
		if len(ev.Recommendations) > 0 {
			lines = append(lines, "Recommendations:")
			for _, rec := range ev.Recommendations {
				lines = append(lines, "  - "+rec)
			}
		}
	}
	return lines
}
