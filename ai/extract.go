package ai

import (
	"regexp"
	"strings"
)

// The ladder of places a model hides its SQL, most explicit first.
var (
	rxTagBlock       = regexp.MustCompile(`(?is)<SQL>\s*(.+?)\s*</SQL>`)
	rxTripleSQL      = regexp.MustCompile("(?is)```sql\\s*(.+?)```")
	rxTripleAny      = regexp.MustCompile("(?is)```\\s*(.+?)```")
	rxSQLQueryLine   = regexp.MustCompile(`(?is)SQLQuery:\s*(SELECT.+?;)`)
	rxFirstSelectSmc = regexp.MustCompile(`(?is)(SELECT.+?;)`)
	rxFirstWithBlock = regexp.MustCompile(`(?is)((?:;?\s*WITH|WITH)\s+.+?SELECT.+?;)`)
	rxFirstSelectAny = regexp.MustCompile(`(?is)(SELECT.+)$`)
)

// ExtractSQL pulls the first plausible SQL block out of model output: tagged
// block, fenced block, SQLQuery line, then bare SELECT/WITH statements.
func ExtractSQL(text string) (string, bool) {
	t := strings.TrimSpace(text)
	if t == "" {
		return "", false
	}
	for _, rx := range []*regexp.Regexp{
		rxTagBlock, rxTripleSQL, rxTripleAny,
		rxSQLQueryLine, rxFirstSelectSmc, rxFirstWithBlock, rxFirstSelectAny,
	} {
		if m := rx.FindStringSubmatch(t); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}

// StartsWithCTE reports whether extracted SQL opens a common-table-expression.
func StartsWithCTE(sql string) bool {
	s := strings.ToLower(strings.TrimSpace(sql))
	return strings.HasPrefix(s, "with") || strings.HasPrefix(s, ";with")
}
