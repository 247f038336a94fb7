// Package sanitize is the deterministic correction layer between the model and
// the database: rule-based rewriting that turns marginal model output into
// schema-correct, safety-complete T-SQL. It never fails; unmatched input
// passes through unchanged.
package sanitize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"

	"pharmadb/schema"
)

// Options carries the two empirical knobs of the pass. Both came from the
// original tuning with no documented justification, hence configurable.
type Options struct {
	// FuzzyCutoff is the minimum similarity for a fuzzy column substitution.
	FuzzyCutoff float64
	// TopDefault is the row cap injected into bare SELECTs.
	TopDefault int
}

func DefaultOptions() Options {
	return Options{FuzzyCutoff: 0.65, TopDefault: 200}
}

// Stage is one named rewrite. Stages are pure: same input, same output.
type Stage struct {
	Name  string
	Apply func(sql string, snap schema.Snapshot, opts Options) string
}

// Stages in documented order. The order is significant: column correction
// assumes table normalization already ran, TOP injection assumes the statement
// head is already a plain SELECT.
var Stages = []Stage{
	{"cleanup", cleanup},
	{"normalize-tables", normalizeTables},
	{"complete-predicates", completePredicates},
	{"correct-columns", correctColumns},
	{"inject-top", injectTop},
	{"enforce-group-by", enforceGroupBy},
	{"terminate", terminate},
}

// Sanitize runs every stage in order against the given schema snapshot.
func Sanitize(sql string, snap schema.Snapshot, opts Options) string {
	s := sql
	for _, st := range Stages {
		s = st.Apply(s, snap, opts)
	}
	return s
}

// ---- stage 1: cleanup ----

var (
	rxLabel          = regexp.MustCompile(`(?i)^\s*\[?SQL\]?\s*:\s*`)
	rxQuoteBool      = regexp.MustCompile(`(?i)'\s*(AND|OR)\b`)
	rxGetdateRel     = regexp.MustCompile(`(?i)GETDATE\(\s*-\s*(\d+)\s*\)`)
	rxTrailQuoteSemi = regexp.MustCompile(`['"]\s*;$`)
)

func cleanup(sql string, _ schema.Snapshot, _ Options) string {
	s := strings.TrimSpace(sql)
	s = rxLabel.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "`", "'")
	s = rxQuoteBool.ReplaceAllString(s, "' $1")
	// GETDATE(-n) is not T-SQL; the model means date arithmetic.
	s = rxGetdateRel.ReplaceAllString(s, "DATEADD(day, -$1, GETDATE())")
	s = rxTrailQuoteSemi.ReplaceAllString(s, ";")
	return s
}

// ---- stage 2: table normalization ----

var tableRewrites = []struct {
	rx  *regexp.Regexp
	rep string
}{
	{regexp.MustCompile(`(?i)\bFROM\s+\[?Products\]?\b`), "FROM [dbo].[products]"},
	{regexp.MustCompile(`(?i)\bJOIN\s+\[?Products\]?\b`), "JOIN [dbo].[products]"},
	{regexp.MustCompile(`(?i)\bFROM\s+\[?Selling\]?\b`), "FROM [dbo].[selling]"},
	{regexp.MustCompile(`(?i)\bJOIN\s+\[?Selling\]?\b`), "JOIN [dbo].[selling]"},
	{regexp.MustCompile(`(?i)\bFROM\s+\[?Buying\]?\b`), "FROM [dbo].[buying]"},
	{regexp.MustCompile(`(?i)\bJOIN\s+\[?Buying\]?\b`), "JOIN [dbo].[buying]"},
}

func normalizeTables(sql string, _ schema.Snapshot, _ Options) string {
	s := sql
	for _, tr := range tableRewrites {
		s = tr.rx.ReplaceAllString(s, tr.rep)
	}
	return s
}

// ---- stage 3: predicate completion ----

// Boundary tokens that legally follow a predicate. RE2 has no lookahead, so
// the boundary is captured and re-emitted instead.
const boundary = `(AND\b|OR\b|GROUP\s+BY\b|ORDER\s+BY\b|HAVING\b|JOIN\b|UNION\b|;|$)`

var (
	rxDanglingCompare = regexp.MustCompile(
		`(?i)(\b[psb]\.\[?Date\]?|\bDate\b)\s*(<=|<|>=|>|=)\s*` + boundary)
	rxDanglingBetween = regexp.MustCompile(
		`(?i)(\b[psb]\.\[?Date\]?|\bDate\b)\s+BETWEEN\s+(\S+)\s+AND\s*` + boundary)
	rxStrayConnective = regexp.MustCompile(
		`(?i)\s+\b(AND|OR)\b\s*` + `(GROUP\s+BY\b|ORDER\s+BY\b|HAVING\b|JOIN\b|UNION\b|;|$)`)
)

func completePredicates(sql string, _ schema.Snapshot, _ Options) string {
	s := sql
	// A comparison with an empty right-hand side means "until now".
	s = rxDanglingCompare.ReplaceAllString(s, "$1 $2 GETDATE() $3")
	s = rxDanglingBetween.ReplaceAllString(s, "$1 BETWEEN $2 AND GETDATE() $3")
	// Collapse a boolean connective left with nothing to connect.
	s = rxStrayConnective.ReplaceAllString(s, " $2")
	return s
}

// ---- stage 4: alias/column correction ----

var aliasTable = map[string]string{"p": "products", "s": "selling", "b": "buying"}

// Names the model hallucinates often enough to hardcode the fix.
var commonSynonyms = []struct {
	rx  *regexp.Regexp
	rep string
}{
	{regexp.MustCompile(`(?i)\b([psb])\.\[?QuantitySelling\]?\b`), "$1.QuantitySold"},
	{regexp.MustCompile(`(?i)\b([psb])\.\[?BuyingPrice\]?\b`), "$1.CostBuying"},
	{regexp.MustCompile(`(?i)\b([psb])\.\[?ManufacturerPrice\]?\b`), "$1.ManufacturerCost"},
	{regexp.MustCompile(`(?i)\b([psb])\.\[?ProductPrice\]?\b`), "$1.ProductSellingPrice"},
}

var commonTokens = []struct {
	rx  *regexp.Regexp
	rep string
}{
	{regexp.MustCompile(`(?i)\bQuantitySelling\b`), "QuantitySold"},
	{regexp.MustCompile(`(?i)\bBuyingPrice\b`), "CostBuying"},
	{regexp.MustCompile(`(?i)\bManufacturerPrice\b`), "ManufacturerCost"},
	{regexp.MustCompile(`(?i)\bProductPrice\b`), "ProductSellingPrice"},
	{regexp.MustCompile(`(?i)\bAverageSelingPrice\b`), "AverageSellingPrice"},
}

var rxAliasCol = regexp.MustCompile(`\b([psb])\.\[?([A-Za-z_]\w*)\]?\b`)

// Canonical names produced by the synonym tables. These are real schema
// columns; fuzzy correction must not second-guess them even when the model
// attached them to the wrong alias.
var synonymTargets = map[string]bool{
	"QuantitySold":        true,
	"CostBuying":          true,
	"ManufacturerCost":    true,
	"ProductSellingPrice": true,
	"AverageSellingPrice": true,
}

// bestMatch resolves a column case-insensitively first, then by similarity
// against the valid set.
func bestMatch(name string, candidates []string, cutoff float64) (string, bool) {
	lc := strings.ToLower(name)
	for _, c := range candidates {
		if strings.ToLower(c) == lc {
			return c, true
		}
	}
	best := ""
	bestSim := 0.0
	for _, c := range candidates {
		sim := similarity(lc, strings.ToLower(c))
		if sim > bestSim {
			best, bestSim = c, sim
		}
	}
	if bestSim >= cutoff {
		return best, true
	}
	return "", false
}

func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := len(a), len(b)
	max := la
	if lb > max {
		max = lb
	}
	if max == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(max)
}

func correctColumns(sql string, snap schema.Snapshot, opts Options) string {
	s := sql
	for _, syn := range commonSynonyms {
		s = syn.rx.ReplaceAllString(s, syn.rep)
	}
	for _, tok := range commonTokens {
		s = tok.rx.ReplaceAllString(s, tok.rep)
	}
	if snap.Empty() {
		// No snapshot means no correction possible, not an error.
		return s
	}
	return rxAliasCol.ReplaceAllStringFunc(s, func(m string) string {
		parts := rxAliasCol.FindStringSubmatch(m)
		alias, col := parts[1], parts[2]
		table := aliasTable[strings.ToLower(alias)]
		if snap.Has(table, col) || synonymTargets[col] {
			return m
		}
		if sug, ok := bestMatch(col, snap.Columns(table), opts.FuzzyCutoff); ok {
			return fmt.Sprintf("%s.%s", alias, sug)
		}
		return m
	})
}

// ---- stage 5: row-limit injection ----

var (
	rxSelectHead = regexp.MustCompile(`(?i)^\s*select\b`)
	rxSelectLead = regexp.MustCompile(`(?i)^select\s+`)
)

func injectTop(sql string, _ schema.Snapshot, opts Options) string {
	if rxSelectHead.MatchString(sql) && !strings.Contains(strings.ToLower(sql), " top ") {
		return replaceFirst(rxSelectLead, sql, fmt.Sprintf("SELECT TOP %d ", opts.TopDefault))
	}
	return sql
}

// ---- stage 6: aggregation completeness ----

var (
	rxAggregate = regexp.MustCompile(`(?i)\b(SUM|AVG|COUNT|MIN|MAX)\s*\(`)
	rxGroupBy   = regexp.MustCompile(`(?i)\bGROUP\s+BY\b`)
	rxOrderBy   = regexp.MustCompile(`(?i)\border\s+by\b`)

	productsAliasRx = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bFROM\s+\[dbo\]\.\[products\]\s+(?:AS\s+)?([A-Za-z]\w*)`),
		regexp.MustCompile(`(?i)\bJOIN\s+\[dbo\]\.\[products\]\s+(?:AS\s+)?([A-Za-z]\w*)`),
	}
)

func detectProductsAlias(sql string) string {
	for _, rx := range productsAliasRx {
		if m := rx.FindStringSubmatch(sql); m != nil {
			return m[1]
		}
	}
	return "p"
}

// enforceGroupBy guarantees that an aggregate query groups by the product key
// columns, projecting them if the model forgot to.
func enforceGroupBy(sql string, _ schema.Snapshot, _ Options) string {
	if !rxAggregate.MatchString(sql) || rxGroupBy.MatchString(sql) {
		return sql
	}
	alias := detectProductsAlias(sql)
	q := regexp.QuoteMeta(alias)

	hasCode := regexp.MustCompile(`(?i)\b` + q + `\.\[?ProductCode\]?\b`).MatchString(sql)
	if !hasCode {
		// Insert after SELECT (and after an already-injected TOP clause).
		head := regexp.MustCompile(`(?i)^(select\s+(?:top\s+\d+\s+)?)`)
		sql = replaceFirst(head, sql, "${1}"+alias+".[ProductCode], ")
	}
	hasName := regexp.MustCompile(`(?i)\b` + q + `\.\[?ProductName\]?\b`).MatchString(sql)
	if !hasName {
		codeRef := regexp.MustCompile(`(?i)` + q + `\.\[?ProductCode\]?\s*,\s*`)
		sql = replaceFirst(codeRef, sql, alias+".[ProductCode], "+alias+".[ProductName], ")
	}

	grp := " GROUP BY " + alias + ".[ProductCode], " + alias + ".[ProductName] "
	if rxOrderBy.MatchString(sql) {
		sql = replaceFirst(rxOrderBy, sql, grp+"ORDER BY")
	} else {
		sql = strings.TrimRight(sql, " \t\r\n;") + grp + ";"
	}
	return sql
}

// ---- stage 7: termination ----

func terminate(sql string, _ schema.Snapshot, _ Options) string {
	return strings.TrimRight(sql, " \t\r\n;") + ";"
}

// replaceFirst substitutes only the first match, like re.sub(count=1).
func replaceFirst(rx *regexp.Regexp, s, rep string) string {
	done := false
	return rx.ReplaceAllStringFunc(s, func(m string) string {
		if done {
			return m
		}
		done = true
		out := []byte{}
		out = rx.ExpandString(out, rep, s, rx.FindStringSubmatchIndex(s))
		return string(out)
	})
}
