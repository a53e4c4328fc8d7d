package services

import (
	"fmt"
	"strings"
)

// NormalizeTag lowercases, trims, converts inner spaces to hyphens,
// collapses repeated hyphens, and strips edge hyphens. CRM exports
// carry the same tag as "Empathy Ledger", "empathy-ledger", and
// "empathy--ledger "; all three normalize to one spelling.
func NormalizeTag(tag string) string {
	tag = strings.TrimSpace(strings.ToLower(tag))
	tag = strings.ReplaceAll(tag, " ", "-")
	for strings.Contains(tag, "--") {
		tag = strings.ReplaceAll(tag, "--", "-")
	}
	return strings.Trim(tag, "-")
}

// NormalizeTags normalizes every tag, drops the ones that collapse to
// nothing, and deduplicates keeping the first occurrence.
func NormalizeTags(tags []string) []string {
	normalized := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = NormalizeTag(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		normalized = append(normalized, tag)
	}
	return normalized
}

func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// NormalizePhone formats Australian numbers for display: a leading 61
// or 0 is dropped, nine remaining digits starting with 4 format as a
// mobile (+61 4XX XXX XXX), any other nine digits as a landline
// (+61 X XXXX XXXX). Anything that does not reduce to nine digits is
// returned untouched rather than mangled.
func NormalizePhone(phone string) string {
	if phone == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	switch {
	case strings.HasPrefix(digits, "61"):
		digits = digits[2:]
	case strings.HasPrefix(digits, "0"):
		digits = digits[1:]
	}
	if len(digits) != 9 {
		return phone
	}
	if digits[0] == '4' {
		return fmt.Sprintf("+61 %s %s %s", digits[0:3], digits[3:6], digits[6:9])
	}
	return fmt.Sprintf("+61 %s %s %s", digits[0:1], digits[1:5], digits[5:9])
}
