// Package sqlsafety extracts a single safe SELECT/CTE statement from arbitrary
// model output. It is the one boundary every SQL string crosses before
// execution, regardless of whether it came from a pattern, the model, or a
// user.
package sqlsafety

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrEmptySQL: nothing usable in the input at all.
	ErrEmptySQL = errors.New("empty SQL: provide a valid SELECT/CTE")
	// ErrNotSelect: no SELECT/CTE statement could be extracted.
	ErrNotSelect = errors.New("could not extract a valid SELECT/CTE")
	// ErrBlocked: a DML/DDL/EXEC keyword was found in the chosen statement.
	ErrBlocked = errors.New("only SELECT/CTE is allowed: DML/DDL/EXEC found")
)

var (
	rxStartOK = regexp.MustCompile(`(?i)^\s*(SELECT|WITH|;WITH)\b`)

	rxBlocked = regexp.MustCompile(
		`(?i)\b(INSERT|UPDATE|DELETE|MERGE|ALTER|DROP|TRUNCATE|CREATE|EXEC|EXECUTE|GRANT|REVOKE)\b`)

	// Markers that the text is prose about SQL rather than SQL itself.
	rxNonSQLHints = regexp.MustCompile(
		`(?i)\b(alias|clause|semicolon|note|tip|explanation|warning|advice)\b`)

	// Terminator-bounded candidates.
	rxSelectCand = regexp.MustCompile(`(?is)\bSELECT\b.*?;`)
	rxWithCand   = regexp.MustCompile(`(?is)\b(?:WITH|;WITH)\b.*?;`)

	// A WITH candidate only counts when its head looks like a real CTE opening.
	rxCTEHead = regexp.MustCompile(`(?is)^\s*(?:WITH|;WITH)\s+[A-Za-z\[\]_][\w\]\s,]*\s+AS\s*\(`)

	// Dangling endings that mark a truncated statement.
	rxIncompleteTail = regexp.MustCompile(`(?is)(?:` +
		`\s+(?:LEFT|RIGHT|FULL|INNER|OUTER)\s*(?:JOIN)?\s*;$` +
		`|\s+JOIN\s*;$` +
		`|\s+ON\s*;$` +
		`|\s+(?:AND|OR)\s*;$` +
		`|\s+WHERE\s*;$` +
		`|\s+GROUP\s+BY\s*;$` +
		`|\s+ORDER\s+BY\s*;$` +
		`)`)

	rxSelectToEnd = regexp.MustCompile(`(?is)\bSELECT\b.*`)
	rxWithToEnd   = regexp.MustCompile(`(?is)\b(?:WITH|;WITH)\b.*`)

	rxCodeFenceOpen  = regexp.MustCompile("(?i)^\\s*```(?:sql)?\\s*")
	rxCodeFenceClose = regexp.MustCompile("\\s*```\\s*$")
	rxLabelPrefix    = regexp.MustCompile(`(?i)^\s*"?(?:SQLQuery|SQL|T-SQL|TSQL)\s*[:\n]\s*`)
	rxSQLLinePrefix  = regexp.MustCompile(`(?i)^\s*sql\s*\n\s*`)
)

func stripCodeFences(s string) string {
	s = rxCodeFenceOpen.ReplaceAllString(s, "")
	s = rxCodeFenceClose.ReplaceAllString(s, "")
	return s
}

func stripLeadingLabels(s string) string {
	s = rxLabelPrefix.ReplaceAllString(s, "")
	s = rxSQLLinePrefix.ReplaceAllString(s, "")
	return s
}

func trimIncompleteTail(c string) string {
	return rxIncompleteTail.ReplaceAllString(strings.TrimRight(c, " \t\r\n"), ";")
}

// scoreCandidate favors complete, FROM-bearing statements and penalizes prose
// markers, unbalanced quotes and dangling clauses.
func scoreCandidate(c string) int {
	score := 0
	lc := strings.ToLower(c)
	if strings.Contains(" "+lc+" ", " select ") {
		score += 40
	}
	if strings.Contains(lc, " from ") {
		score += 50
	}
	if strings.Contains(lc, " join ") {
		score += 10
	}
	if len(c) >= 40 {
		bonus := len(c) / 50
		if bonus > 20 {
			bonus = 20
		}
		score += bonus
	}
	if rxNonSQLHints.MatchString(c) {
		score -= 100
	}
	if strings.Count(c, "'")%2 == 1 {
		score -= 40
	}
	if rxIncompleteTail.MatchString(c) {
		score -= 20
	}
	return score
}

func collectCandidates(text string) []string {
	cands := []string{}
	for _, m := range rxSelectCand.FindAllString(text, -1) {
		cands = append(cands, strings.TrimSpace(m))
	}
	for _, m := range rxWithCand.FindAllString(text, -1) {
		seg := strings.TrimSpace(m)
		head := seg
		if len(head) > 140 {
			head = head[:140]
		}
		if rxCTEHead.MatchString(head) {
			cands = append(cands, seg)
		}
	}
	return cands
}

// pickBestSQL chooses the highest-scoring candidate; ties keep the first found.
func pickBestSQL(text string) (string, bool) {
	cands := collectCandidates(text)
	if len(cands) == 0 {
		// No terminator anywhere: take from the keyword to end of text.
		if m := rxSelectToEnd.FindString(text); m != "" {
			s := strings.TrimSpace(m)
			if !strings.HasSuffix(s, ";") {
				s += ";"
			}
			return trimIncompleteTail(s), true
		}
		if loc := rxWithToEnd.FindStringIndex(text); loc != nil {
			head := text[loc[0]:]
			if len(head) > 160 {
				head = head[:160]
			}
			if rxCTEHead.MatchString(head) {
				s := strings.TrimSpace(text[loc[0]:])
				if !strings.HasSuffix(s, ";") {
					s += ";"
				}
				return trimIncompleteTail(s), true
			}
		}
		return "", false
	}
	best := cands[0]
	bestScore := scoreCandidate(best)
	for _, c := range cands[1:] {
		if sc := scoreCandidate(c); sc > bestScore {
			best, bestScore = c, sc
		}
	}
	return trimIncompleteTail(best), true
}

// EnforceSelectOnly extracts the best SELECT/CTE statement from raw text and
// rejects anything containing write/DDL keywords. The result always ends with
// exactly one semicolon.
func EnforceSelectOnly(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrEmptySQL
	}
	s = stripCodeFences(s)
	s = stripLeadingLabels(s)

	if !rxStartOK.MatchString(s) || rxNonSQLHints.MatchString(s) {
		chosen, ok := pickBestSQL(s)
		if !ok {
			return "", fmt.Errorf("%w: no candidate in model output", ErrNotSelect)
		}
		s = chosen
	} else if chosen, ok := pickBestSQL(s); ok {
		s = chosen
	}

	if rxBlocked.MatchString(s) {
		return "", ErrBlocked
	}

	s = strings.TrimRight(s, " \t\r\n;") + ";"
	return s, nil
}
