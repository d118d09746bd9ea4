package validation

import (
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// Strict sanitization policy: removes all HTML tags
	strictHTMLPolicy *bluemonday.Policy
)

func init() {
	strictHTMLPolicy = bluemonday.StrictPolicy()
}

// SanitizeText removes all HTML tags and attributes from an input string,
// preventing XSS before saving to the database. Used for adjustment notes and
// names entered by staff.
func SanitizeText(s string) string {
	return strictHTMLPolicy.Sanitize(s)
}

// SanitizeForFormulaInjection prepends a single quote if the string starts with a formula character.
// This prevents CSV Injection (Formula Injection) in Excel/Sheets.
func SanitizeForFormulaInjection(s string) string {
	trimmed := strings.TrimSpace(s)

	if len(trimmed) == 0 {
		return s
	}

	firstChar := rune(trimmed[0])

	// Characters that trigger formula execution in Excel/LibreOffice/Sheets
	if firstChar == '=' || firstChar == '+' || firstChar == '-' || firstChar == '@' || firstChar == '\t' || firstChar == '\r' {
		return "'" + s
	}

	return s
}

// StripUnprintable removes non-printable characters, allowing common whitespace
// like space, tab, newline, and carriage return.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1
	}, s)
}
