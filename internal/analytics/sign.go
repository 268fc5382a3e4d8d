package analytics

import (
	"fmt"
	"math"
	"strings"
)

// SignConvention states how a source encodes the direction of an amount.
// Amounts are normalised to positive-is-income before classification.
type SignConvention string

const (
	// CreditPositive: positive amounts are income, negative are spending.
	CreditPositive SignConvention = "credit_positive"
	// DebitPositive: positive amounts are spending; the sign is flipped.
	DebitPositive SignConvention = "debit_positive"
	// TypeLabel: direction comes from the debit/credit type label and the
	// amount is treated as a magnitude.
	TypeLabel SignConvention = "type_label"
)

// ParseSignConvention validates a convention name. Empty means CreditPositive.
func ParseSignConvention(s string) (SignConvention, error) {
	switch c := SignConvention(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return CreditPositive, nil
	case CreditPositive, DebitPositive, TypeLabel:
		return c, nil
	default:
		return "", fmt.Errorf("ParseSignConvention: %q: %w", s, ErrInvalidSignConvention)
	}
}

// Valid reports whether c is a known convention.
func (c SignConvention) Valid() bool {
	switch c {
	case CreditPositive, DebitPositive, TypeLabel:
		return true
	}
	return false
}

// Normalize returns amount signed so that positive means money in.
func (c SignConvention) Normalize(amount float64, txnType string) float64 {
	switch c {
	case DebitPositive:
		return -amount
	case TypeLabel:
		switch strings.ToLower(txnType) {
		case "debit":
			return -math.Abs(amount)
		case "credit":
			return math.Abs(amount)
		}
	}
	return amount
}
