package sqlsafety

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnforceSelectOnlyAcceptsPlainSelect(t *testing.T) {
	out, err := EnforceSelectOnly("SELECT TOP 10 * FROM [dbo].[products];")
	require.NoError(t, err)
	assert.Equal(t, "SELECT TOP 10 * FROM [dbo].[products];", out)
}

func TestEnforceSelectOnlyEmptyInput(t *testing.T) {
	_, err := EnforceSelectOnly("   ")
	assert.ErrorIs(t, err, ErrEmptySQL)
}

func TestEnforceSelectOnlyRejectsDrop(t *testing.T) {
	out, err := EnforceSelectOnly("DROP TABLE products;")
	require.Error(t, err)
	assert.Empty(t, out)
}

func TestEnforceSelectOnlyRejectsBlockedKeywordInsideStatement(t *testing.T) {
	_, err := EnforceSelectOnly("SELECT * FROM products DROP TABLE products")
	assert.ErrorIs(t, err, ErrBlocked)
}

func TestEnforceSelectOnlyStripsCodeFences(t *testing.T) {
	out, err := EnforceSelectOnly("```sql\nSELECT [ProductName] FROM [dbo].[products];\n```")
	require.NoError(t, err)
	assert.Equal(t, "SELECT [ProductName] FROM [dbo].[products];", out)
}

func TestEnforceSelectOnlyStripsLabelPrefix(t *testing.T) {
	out, err := EnforceSelectOnly("SQLQuery: SELECT 1 FROM [dbo].[products];")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "SELECT"))
}

func TestEnforceSelectOnlyPicksCompleteCandidate(t *testing.T) {
	// Two candidates: the first ends mid-JOIN, the second is complete. Scoring
	// must favor completeness regardless of order.
	text := "SELECT a FROM products JOIN;\n" +
		"SELECT a FROM products ORDER BY a DESC;"
	out, err := EnforceSelectOnly(text)
	require.NoError(t, err)
	assert.Contains(t, out, "ORDER BY a DESC")
	assert.NotContains(t, out, "JOIN;")
}

func TestEnforceSelectOnlyExtractsFromProse(t *testing.T) {
	text := "Sure! Here is the query you asked for:\n\n" +
		"SELECT [ProductName] FROM [dbo].[products] WHERE [Quantity] > 5;\n\n" +
		"This lists products in stock."
	out, err := EnforceSelectOnly(text)
	require.NoError(t, err)
	assert.Equal(t, "SELECT [ProductName] FROM [dbo].[products] WHERE [Quantity] > 5;", out)
}

func TestEnforceSelectOnlyNoCandidate(t *testing.T) {
	_, err := EnforceSelectOnly("I cannot answer that question.")
	assert.ErrorIs(t, err, ErrNotSelect)
}

func TestEnforceSelectOnlyAppendsTerminator(t *testing.T) {
	out, err := EnforceSelectOnly("SELECT [ProductName] FROM [dbo].[products]")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, ";"))
	assert.False(t, strings.HasSuffix(out, ";;"))
}

func TestEnforceSelectOnlyTrimsDanglingTail(t *testing.T) {
	out, err := EnforceSelectOnly("SELECT a FROM products WHERE x = 1 AND")
	require.NoError(t, err)
	assert.False(t, strings.Contains(strings.TrimSuffix(out, ";"), "AND"))
}

func TestEnforceSelectOnlyIdempotent(t *testing.T) {
	inputs := []string{
		"SELECT TOP 10 * FROM [dbo].[products];",
		"SELECT [p].[ProductName] FROM [dbo].[products] AS [p] ORDER BY 1;",
	}
	for _, in := range inputs {
		once, err := EnforceSelectOnly(in)
		require.NoError(t, err)
		twice, err := EnforceSelectOnly(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	}
}

func TestEnforceSelectOnlyAcceptsCTE(t *testing.T) {
	sql := "WITH recent_cte AS (SELECT x FROM s) SELECT * FROM r;"
	out, err := EnforceSelectOnly(sql)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "WITH"))
}

func TestScoreCandidatePrefersFromBearing(t *testing.T) {
	withFrom := scoreCandidate("SELECT a FROM products;")
	withoutFrom := scoreCandidate("SELECT 1;")
	assert.Greater(t, withFrom, withoutFrom)
}

func TestScoreCandidatePenalizesProseAndOddQuotes(t *testing.T) {
	prose := scoreCandidate("SELECT a FROM t; -- note: this clause is an alias;")
	clean := scoreCandidate("SELECT a FROM t;")
	assert.Greater(t, clean, prose)

	truncated := scoreCandidate("SELECT a FROM t WHERE x = 'abc;")
	assert.Greater(t, clean, truncated)
}

func TestPickBestSQLStableTieBreak(t *testing.T) {
	// Identical candidates: the first found must win.
	text := "SELECT a FROM t;\nSELECT a FROM t;"
	out, ok := pickBestSQL(text)
	require.True(t, ok)
	assert.Equal(t, "SELECT a FROM t;", out)
}
