package bulkx

import "strings"

// PersonalizeContent renders the subject and body for one recipient by
// replacing every literal {{key}} placeholder with the recipient's field
// value. The replacement is a single pass: inserted values are never
// re-scanned, so a field value containing a placeholder stays literal.
// Placeholders without a matching field survive verbatim — that is a
// deliberate no-op, not an error. When disabled, both strings pass
// through untouched.
func PersonalizeContent(subject, body string, fields map[string]string, enabled bool) (string, string) {
	if !enabled || len(fields) == 0 {
		return subject, body
	}

	pairs := make([]string, 0, len(fields)*2)
	for key, value := range fields {
		pairs = append(pairs, "{{"+key+"}}", value)
	}

	replacer := strings.NewReplacer(pairs...)
	return replacer.Replace(subject), replacer.Replace(body)
}
