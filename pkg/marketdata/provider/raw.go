package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Metadata carries the optional descriptive fields of a provider response.
type Metadata struct {
	Information   string `json:"information,omitempty"`
	Symbol        string `json:"symbol,omitempty"`
	LastRefreshed string `json:"lastRefreshed,omitempty"`
	OutputSize    string `json:"outputSize,omitempty"`
	TimeZone      string `json:"timeZone,omitempty"`
	// Notice holds an informational message that did not prevent the series from being returned.
	Notice string `json:"notice,omitempty"`
}

// RawRecord is one date-keyed entry of a provider series with its textual fields.
type RawRecord struct {
	Date string
	// Fields maps field names, possibly with an ordinal prefix such as "1. open", to their raw text.
	Fields map[string]string
}

// RawSeries holds the records in the order they appeared in the provider document.
type RawSeries []RawRecord

// RawQuoteResponse is a classified, successful provider response.
type RawQuoteResponse struct {
	Metadata Metadata
	Series   RawSeries
}

// Len returns the number of raw records.
func (s RawSeries) Len() int {
	return len(s)
}

// UnmarshalJSON decodes a date-keyed object while keeping document order.
// A record whose value is not an object is kept with nil fields.
func (s *RawSeries) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))

	token, err := decoder.Token()
	if err != nil {
		return fmt.Errorf("failed to read series: %w", err)
	}

	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("series must be a JSON object, got %v", token)
	}

	records := RawSeries{}

	for decoder.More() {
		keyToken, err := decoder.Token()
		if err != nil {
			return fmt.Errorf("failed to read series key: %w", err)
		}

		date, ok := keyToken.(string)
		if !ok {
			return fmt.Errorf("series key must be a string, got %v", keyToken)
		}

		var value json.RawMessage
		if err := decoder.Decode(&value); err != nil {
			return fmt.Errorf("failed to read record %s: %w", date, err)
		}

		records = append(records, RawRecord{
			Date:   date,
			Fields: decodeFields(value),
		})
	}

	if _, err := decoder.Token(); err != nil {
		return fmt.Errorf("failed to close series: %w", err)
	}

	*s = records

	return nil
}

func decodeFields(value json.RawMessage) map[string]string {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(value, &raw); err != nil || raw == nil {
		return nil
	}

	fields := make(map[string]string, len(raw))
	for name, fieldValue := range raw {
		fields[name] = rawText(fieldValue)
	}

	return fields
}

// rawText returns a JSON string's content, or the literal text of any other value.
func rawText(value json.RawMessage) string {
	var text string
	if err := json.Unmarshal(value, &text); err == nil {
		return text
	}

	trimmed := strings.TrimSpace(string(value))
	if trimmed == "null" {
		return ""
	}

	return trimmed
}

// FieldName strips an ordinal prefix such as "1. " from a field key.
func FieldName(key string) string {
	if i := strings.Index(key, ". "); i > 0 && isDigits(key[:i]) {
		return strings.TrimSpace(key[i+2:])
	}

	return strings.TrimSpace(key)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return s != ""
}

// Lookup returns the value of the named field, matching keys with or without an ordinal prefix.
func (r RawRecord) Lookup(name string) (string, bool) {
	if value, ok := r.Fields[name]; ok {
		return value, true
	}

	for key, value := range r.Fields {
		if strings.EqualFold(FieldName(key), name) {
			return value, true
		}
	}

	return "", false
}

// snippet returns at most n runes of body.
func snippet(body []byte, n int) string {
	text := string(body)

	count := 0
	for i := range text {
		if count == n {
			return text[:i]
		}

		count++
	}

	return text
}
