// Package sqlident validates, quotes, and parses SQL identifiers and dotted
// identifier paths.
package sqlident

import (
	"fmt"
	"regexp"
	"strings"
)

// identifierRe allows alphanumeric + underscores, starting with a letter or underscore.
var identifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// reservedKeywords are the words that must be quoted even when they match the
// unquoted identifier grammar.
var reservedKeywords = map[string]struct{}{}

func init() {
	for _, kw := range strings.Fields(`
		ALL AND ANY ARRAY AS ASC ASSERT_ROWS_MODIFIED AT BETWEEN BY CASE CAST
		COLLATE CONTAINS CREATE CROSS CUBE CURRENT DEFAULT DEFINE DESC DISTINCT
		ELSE END ENUM ESCAPE EXCEPT EXCLUDE EXISTS EXTRACT FALSE FETCH FOLLOWING
		FOR FROM FULL GRAPH_TABLE GROUP GROUPING GROUPS HASH HAVING IF IGNORE IN
		INNER INTERSECT INTERVAL INTO IS JOIN LATERAL LEFT LIKE LIMIT LOOKUP
		MERGE NATURAL NEW NO NOT NULL NULLS OF ON OR ORDER OUTER OVER PARTITION
		PRECEDING PROTO QUALIFY RANGE RECURSIVE RESPECT RIGHT ROLLUP ROWS SELECT
		SET SOME STRUCT TABLESAMPLE THEN TO TREAT TRUE UNBOUNDED UNION UNNEST
		USING WHEN WHERE WINDOW WITH WITHIN`) {
		reservedKeywords[kw] = struct{}{}
	}
}

// IsValidIdentifier reports whether s can be written as an unquoted
// identifier: an ASCII letter or underscore followed by ASCII letters, digits,
// or underscores. Keywords are not considered.
func IsValidIdentifier(s string) bool {
	return identifierRe.MatchString(s)
}

// IsReservedKeyword reports whether s is a reserved keyword (case-insensitive).
func IsReservedKeyword(s string) bool {
	_, ok := reservedKeywords[strings.ToUpper(s)]
	return ok
}

// ToIdentifierLiteral renders s as it must appear in SQL text. Plain
// identifiers are returned unchanged; anything else is wrapped in backquotes
// with backslash escapes.
func ToIdentifierLiteral(s string) string {
	if IsValidIdentifier(s) && !IsReservedKeyword(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('`')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '`':
			b.WriteString("\\`")
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if c < 0x20 || c == 0x7f {
				fmt.Fprintf(&b, `\x%02x`, c)
			} else {
				b.WriteByte(c)
			}
		}
	}
	b.WriteByte('`')
	return b.String()
}

// FormatPath renders a path as dotted SQL text, quoting segments as needed.
func FormatPath(path []string) string {
	parts := make([]string, len(path))
	for i, seg := range path {
		parts[i] = ToIdentifierLiteral(seg)
	}
	return strings.Join(parts, ".")
}
