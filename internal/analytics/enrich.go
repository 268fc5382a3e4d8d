package analytics

import (
	"fmt"
	"math"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-insights/internal/domain"
)

// Source types inferred from a raw file name.
const (
	SourceBankAccount = "bank_account"
	SourceCreditCard  = "credit_card"
	SourceInvestment  = "investment"
)

const (
	maxDescriptionLen = 200
	maxMerchantLen    = 100
)

// EnrichOptions configures one enrichment call.
type EnrichOptions struct {
	UserID     string
	SourceType string
	SourceKey  string
	Convention SignConvention
	// LargeRefund defaults to DefaultThresholds().LargeRefund when zero.
	LargeRefund float64
	// Logger receives per-record degradation events. Nil discards them.
	Logger *zerolog.Logger
}

// EnrichStats counts what happened to the records of one enrichment call.
type EnrichStats struct {
	Records        int `json:"records"`
	Enriched       int `json:"enriched"`
	Skipped        int `json:"skipped"`
	UnresolvedDate int `json:"unresolved_date"`
	InvalidAmount  int `json:"invalid_amount"`
}

// SourceTypeFromName infers the account type from a raw file name.
func SourceTypeFromName(name string) string {
	base := strings.ToLower(path.Base(name))
	switch {
	case strings.Contains(base, "credit"), strings.Contains(base, "card"):
		return SourceCreditCard
	case strings.Contains(base, "investment"):
		return SourceInvestment
	default:
		return SourceBankAccount
	}
}

// TransactionID builds the synthetic identifier used for idempotent re-indexing.
func TransactionID(userID, sourceType, date string, index int) string {
	return fmt.Sprintf("%s_%s_%s_%d", userID, sourceType, date, index)
}

// SearchText flattens a transaction into the one-line form used for retrieval.
func SearchText(raw domain.RawTransaction, sourceType string) string {
	date := raw.Date
	if date == "" {
		date = "unknown date"
	}
	parts := []string{
		"Date: " + date,
		fmt.Sprintf("Amount: $%.2f", math.Abs(raw.Amount)),
		"Type: " + raw.Type,
		"Category: " + raw.Category,
	}
	if raw.Merchant != "" {
		parts = append(parts, "Merchant: "+raw.Merchant)
	}
	if raw.Description != "" {
		parts = append(parts, "Description: "+raw.Description)
	}
	parts = append(parts, "Source: "+sourceType)
	return strings.Join(parts, " | ")
}

// Enrich resolves, decomposes and classifies every record. Nil records
// (non-object elements of the input list) are skipped but still consume
// their index. It fails only on an invalid sign convention.
func Enrich(records []map[string]interface{}, opts EnrichOptions) ([]domain.EnrichedTransaction, EnrichStats, error) {
	stats := EnrichStats{Records: len(records)}

	conv := opts.Convention
	if conv == "" {
		conv = CreditPositive
	}
	if !conv.Valid() {
		return nil, stats, fmt.Errorf("Enrich: %q: %w", conv, ErrInvalidSignConvention)
	}
	if opts.LargeRefund == 0 {
		opts.LargeRefund = DefaultThresholds().LargeRefund
	}
	if opts.SourceType == "" {
		opts.SourceType = SourceTypeFromName(opts.SourceKey)
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	out := make([]domain.EnrichedTransaction, 0, len(records))
	for idx, rec := range records {
		if rec == nil {
			stats.Skipped++
			log.Warn().Int("index", idx).Msg("skipping non-object transaction record")
			continue
		}

		if _, ok := parseAmount(rec["amount"]); !ok {
			stats.InvalidAmount++
			log.Warn().Int("index", idx).Interface("amount", rec["amount"]).Msg("unparseable transaction amount, using 0")
		}
		raw := ResolveRecord(rec)
		raw.Amount = conv.Normalize(raw.Amount, raw.Type)
		txn := enrichOne(raw, idx, opts)
		if !txn.Resolved() {
			stats.UnresolvedDate++
			log.Debug().Int("index", idx).Str("date", raw.Date).Msg("unparseable transaction date")
		}
		out = append(out, txn)
	}
	stats.Enriched = len(out)

	return out, stats, nil
}

// EnrichOne enriches a single already-resolved transaction whose amount
// follows the positive-is-income convention.
func EnrichOne(raw domain.RawTransaction, index int, opts EnrichOptions) domain.EnrichedTransaction {
	if opts.LargeRefund == 0 {
		opts.LargeRefund = DefaultThresholds().LargeRefund
	}
	return enrichOne(raw, index, opts)
}

func enrichOne(raw domain.RawTransaction, idx int, opts EnrichOptions) domain.EnrichedTransaction {
	flags := Classify(raw.Category, raw.Merchant, raw.Description, raw.Amount, opts.LargeRefund)
	text := SearchText(raw, opts.SourceType)

	raw.Description = truncateRunes(raw.Description, maxDescriptionLen)
	raw.Merchant = truncateRunes(raw.Merchant, maxMerchantLen)

	return domain.EnrichedTransaction{
		ID:               TransactionID(opts.UserID, opts.SourceType, raw.Date, idx),
		UserID:           opts.UserID,
		SourceType:       opts.SourceType,
		SourceKey:        opts.SourceKey,
		Index:            idx,
		RawTransaction:   raw,
		TemporalMetadata: Decompose(raw.Date),
		BehavioralFlags:  flags,
		SearchText:       text,
	}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
