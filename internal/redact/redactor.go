package redact

import "regexp"

// Category classifies what kind of sensitive data a pattern detects.
type Category string

const (
	CategoryCreditCard  Category = "credit_card"
	CategorySSN         Category = "ssn"
	CategoryEmail       Category = "email"
	CategoryIPAddress   Category = "ip_address"
	CategoryCredential  Category = "credential"
	CategoryNamedColumn Category = "named_pii_column"
)

// Pattern is one detection rule. The pattern list is ordered and immutable;
// precedence between overlapping matches is decided by list position, so the
// order below is a tested contract rather than incidental declaration order.
type Pattern struct {
	Category Category
	Label    string
	re       *regexp.Regexp
}

const (
	// Label replaces broad categorical matches (card numbers, SSNs, ...).
	Label = "[REDACTED]"
	// ColumnLabel replaces identifier tokens that name PII-bearing columns.
	ColumnLabel = "[PII_COLUMN]"
)

// patterns is the fixed two-pass list. The broad value patterns run first so
// that a literal value (an email address, a card number) is consumed before
// the named-column pass sees the text; the named-column pass then only
// rewrites identifier-style tokens. Named-column tokens are matched
// case-sensitively in lower-snake form so prose such as "My SSN is" is left
// alone while schema-ish text like "ssn" or "date_of_birth" is not.
//
// Replacement labels must never match any pattern; that keeps Redact
// idempotent and is covered by a regression test.
var patterns = []Pattern{
	{Category: CategoryCreditCard, Label: Label, re: regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`)},
	{Category: CategorySSN, Label: Label, re: regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
	{Category: CategoryEmail, Label: Label, re: regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)},
	{Category: CategoryIPAddress, Label: Label, re: regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)},
	{Category: CategoryCredential, Label: Label, re: regexp.MustCompile(`(?i)\b(?:password|passwd|pwd|secret|api[_-]?key|access[_-]?token|token)\b\s*[:=]\s*\S+`)},
	{Category: CategoryNamedColumn, Label: ColumnLabel, re: regexp.MustCompile(`\b(?:customer_id|user_id|email|ssn|first_name|last_name|full_name|date_of_birth|dob|phone_number|salary|address_line|postal_code|credit_card_number|password_hash)\b`)},
}

// Patterns returns the ordered detection list for inspection (tests, docs).
// Callers must not mutate it.
func Patterns() []Pattern { return patterns }

// Redact masks every occurrence of every pattern, in list order. It is a pure
// function of the input and the static pattern list, deterministic under
// concurrency, and idempotent: Redact(Redact(t)) == Redact(t).
func Redact(input string) (redacted string, changed bool) {
	out := input
	for _, p := range patterns {
		next := p.re.ReplaceAllString(out, p.Label)
		changed = changed || next != out
		out = next
	}
	return out, changed
}
