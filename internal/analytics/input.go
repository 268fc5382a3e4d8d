package analytics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-insights/internal/domain"
)

// collectionKeys are the object keys that may wrap a transaction list.
var collectionKeys = []string{"transactions", "data", "records", "items"}

// DecodeCollection decodes a single JSON document from r and extracts its
// transaction records. Anything after the document is malformed input.
// Numbers are kept as json.Number so amounts keep their precision.
func DecodeCollection(r io.Reader) ([]map[string]interface{}, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("DecodeCollection: decode: %w: %v", ErrMalformedInput, err)
	}
	if err := dec.Decode(new(interface{})); err != io.EOF {
		return nil, fmt.Errorf("DecodeCollection: trailing data after document: %w", ErrMalformedInput)
	}
	return ParseCollection(v)
}

// DecodeCollectionBytes is DecodeCollection over an in-memory document.
func DecodeCollectionBytes(b []byte) ([]map[string]interface{}, error) {
	return DecodeCollection(bytes.NewReader(b))
}

// ParseCollection extracts the transaction records from a decoded JSON value.
// The value must be a list or an object holding a list under one of the
// collection keys. Elements that are not objects are returned as nil so
// later elements keep their positional index.
func ParseCollection(v interface{}) ([]map[string]interface{}, error) {
	var list []interface{}

	switch val := v.(type) {
	case []interface{}:
		list = val
	case []map[string]interface{}:
		return val, nil
	case map[string]interface{}:
		found := false
		for _, key := range collectionKeys {
			if l, ok := val[key].([]interface{}); ok {
				list = l
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("ParseCollection: object has no transaction list under %s: %w",
				strings.Join(collectionKeys, "|"), ErrMalformedInput)
		}
	default:
		return nil, fmt.Errorf("ParseCollection: got %T, want list of records: %w", v, ErrMalformedInput)
	}

	records := make([]map[string]interface{}, len(list))
	for i, item := range list {
		if obj, ok := item.(map[string]interface{}); ok {
			records[i] = obj
		}
	}
	return records, nil
}

// ResolveRecord maps a raw key-value record onto a RawTransaction, trying
// each field's aliases in priority order and substituting defaults.
func ResolveRecord(rec map[string]interface{}) domain.RawTransaction {
	return domain.RawTransaction{
		Date:             firstString(rec, "transaction_date", "date", "posted_date"),
		Amount:           ParseAmount(rec["amount"]),
		Type:             strings.ToLower(defaultString(firstString(rec, "type", "transaction_type"), "unknown")),
		Category:         strings.ToLower(defaultString(firstString(rec, "category", "merchant_category"), "uncategorized")),
		Description:      firstString(rec, "description", "name"),
		Merchant:         firstString(rec, "merchant", "merchant_name"),
		GoalContribution: firstString(rec, "goal_contribution"),
	}
}

// ParseAmount converts a numeric or numeric-string amount to float64.
// Currency symbols and thousands separators are stripped from strings;
// anything unparseable or outside the float64 range becomes 0.
func ParseAmount(v interface{}) float64 {
	f, _ := parseAmount(v)
	return f
}

// parseAmount reports false when v is present but not a finite number.
func parseAmount(v interface{}) (float64, bool) {
	var f float64

	switch val := v.(type) {
	case nil:
		return 0, true
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case json.Number:
		d, err := decimal.NewFromString(val.String())
		if err != nil {
			return 0, false
		}
		f = d.InexactFloat64()
	case string:
		clean := strings.NewReplacer("$", "", ",", "").Replace(val)
		d, err := decimal.NewFromString(strings.TrimSpace(clean))
		if err != nil {
			return 0, false
		}
		f = d.InexactFloat64()
	default:
		return 0, false
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// firstString returns the first alias holding a non-empty value.
func firstString(rec map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok || v == nil {
			continue
		}
		var s string
		switch val := v.(type) {
		case string:
			s = val
		case json.Number:
			s = val.String()
		case bool:
			if !val {
				continue
			}
			s = "true"
		default:
			s = fmt.Sprint(val)
		}
		if s != "" {
			return s
		}
	}
	return ""
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
