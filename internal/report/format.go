// Package report renders analytics contexts into the text digests handed
// to the narrative layer. Each report kind has its own presenter; all of
// them read the same context types produced by the analytics package.
package report

import (
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	printer = message.NewPrinter(language.English)
	titler  = cases.Title(language.English)
)

// money formats an amount with thousands separators and two decimals.
func money(v float64) string {
	return printer.Sprintf("$%.2f", v)
}

// signedMoney formats a net amount with an explicit plus for non-negative values.
func signedMoney(v float64) string {
	if v >= 0 {
		return "+" + printer.Sprintf("%.2f", v)
	}
	return printer.Sprintf("%.2f", v)
}

func title(s string) string {
	return titler.String(s)
}

func arrow(diff float64) string {
	if diff > 0 {
		return "↑"
	}
	return "↓"
}

func direction(diff float64) string {
	if diff > 0 {
		return "higher"
	}
	return "lower"
}

// sections accumulates digest lines.
type sections struct {
	lines []string
}

func (s *sections) add(lines ...string) {
	s.lines = append(s.lines, lines...)
}

func (s *sections) String() string {
	return strings.Join(s.lines, "\n")
}

func abs(v float64) float64 { return math.Abs(v) }
