// Package recipx turns raw recipient rows — parsed CSV/XLSX files or
// direct API input — into canonical, deduplicated recipient lists.
package recipx

import (
	"regexp"
	"strings"
)

// emailPattern is deliberately loose: one @, a dot in the domain, no
// whitespace. Real validation happens when the delivery endpoint accepts
// or rejects the address.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Recipient is one canonical destination: a validated lowercase address
// plus arbitrary personalization fields. Immutable once a job starts.
type Recipient struct {
	Email  string            `json:"email"`
	Name   string            `json:"name,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// FieldMap flattens the recipient into the key set personalization
// operates on: every extra field plus email and name.
func (r Recipient) FieldMap() map[string]string {
	m := make(map[string]string, len(r.Fields)+2)
	for k, v := range r.Fields {
		m[k] = v
	}
	m["email"] = r.Email
	if r.Name != "" {
		m["name"] = r.Name
	}
	return m
}

// RowError records why one input row was rejected.
type RowError struct {
	Row    int    `json:"row"` // index in the input sequence
	Reason string `json:"reason"`
}

// Result is the outcome of normalizing a batch of raw rows. Duplicates
// are accounted separately from malformed rows.
type Result struct {
	Recipients []Recipient
	Duplicates int
	Errors     []RowError
}

// Sample caps for display payloads. They never apply to the list handed
// to the dispatch engine.
const (
	RecipientSampleCap = 100
	ErrorSampleCap     = 10
)

// Normalize validates, trims and deduplicates raw rows. The email field is
// required, lowercased and must match the address pattern; all other
// values are trimmed and kept verbatim. Duplicate addresses
// (case-insensitive) keep the first occurrence.
func Normalize(rows []map[string]string) Result {
	var res Result
	seen := make(map[string]struct{}, len(rows))

	for i, row := range rows {
		email := strings.ToLower(strings.TrimSpace(row["email"]))
		if email == "" {
			res.Errors = append(res.Errors, RowError{Row: i, Reason: "missing email address"})
			continue
		}
		if !emailPattern.MatchString(email) {
			res.Errors = append(res.Errors, RowError{Row: i, Reason: "invalid email address"})
			continue
		}

		if _, dup := seen[email]; dup {
			res.Duplicates++
			continue
		}
		seen[email] = struct{}{}

		r := Recipient{Email: email}
		for k, v := range row {
			key := strings.TrimSpace(k)
			value := strings.TrimSpace(v)
			switch key {
			case "", "email":
			case "name":
				r.Name = value
			default:
				// Empty cells stay in the map: a present-but-empty
				// column substitutes "" rather than leaving its
				// placeholder in the sent message.
				if r.Fields == nil {
					r.Fields = make(map[string]string)
				}
				r.Fields[key] = value
			}
		}
		res.Recipients = append(res.Recipients, r)
	}

	return res
}

// SampleRecipients returns at most RecipientSampleCap recipients for
// display payloads.
func (r Result) SampleRecipients() []Recipient {
	if len(r.Recipients) <= RecipientSampleCap {
		return r.Recipients
	}
	return r.Recipients[:RecipientSampleCap]
}

// SampleErrors returns at most ErrorSampleCap row errors for display
// payloads.
func (r Result) SampleErrors() []RowError {
	if len(r.Errors) <= ErrorSampleCap {
		return r.Errors
	}
	return r.Errors[:ErrorSampleCap]
}
