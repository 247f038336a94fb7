package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmadb/schema"
)

func testSnapshot() schema.Snapshot {
	return schema.NewSnapshot(map[string][]string{
		"products": {"ProductCode", "ProductName", "Quantity"},
		"selling":  {"ProductCode", "QuantitySold", "SellingPrice"},
		"buying":   {"ProductCode", "CostBuying"},
	})
}

func TestSanitizeNormalizesTablesAndColumns(t *testing.T) {
	out := Sanitize("SELECT p.QuantitySelling FROM Products p", testSnapshot(), DefaultOptions())

	assert.Contains(t, out, "[dbo].[products]")
	assert.Contains(t, out, "p.QuantitySold")
	assert.NotContains(t, out, "QuantitySelling")
	assert.True(t, strings.HasSuffix(out, ";"))
}

func TestSanitizeInjectsTop(t *testing.T) {
	out := Sanitize("SELECT [ProductName] FROM [dbo].[products]", schema.Snapshot{}, DefaultOptions())
	assert.True(t, strings.HasPrefix(out, "SELECT TOP 200 "), out)
}

func TestSanitizeKeepsExistingTop(t *testing.T) {
	out := Sanitize("SELECT TOP 5 [ProductName] FROM [dbo].[products];", schema.Snapshot{}, DefaultOptions())
	assert.Contains(t, out, "TOP 5")
	assert.NotContains(t, out, "TOP 200")
}

func TestSanitizeTopDefaultConfigurable(t *testing.T) {
	opts := Options{FuzzyCutoff: 0.65, TopDefault: 50}
	out := Sanitize("SELECT [ProductName] FROM [dbo].[products]", schema.Snapshot{}, opts)
	assert.True(t, strings.HasPrefix(out, "SELECT TOP 50 "), out)
}

func TestSanitizeRewritesRelativeGetdate(t *testing.T) {
	out := Sanitize("SELECT * FROM [dbo].[selling] s WHERE s.Date >= GETDATE(-30)",
		schema.Snapshot{}, DefaultOptions())
	assert.Contains(t, out, "DATEADD(day, -30, GETDATE())")
	assert.NotContains(t, out, "GETDATE(-30)")
}

func TestSanitizeCompletesDanglingDatePredicate(t *testing.T) {
	out := Sanitize("SELECT TOP 10 * FROM [dbo].[selling] s WHERE s.Date >= ORDER BY s.Date",
		schema.Snapshot{}, DefaultOptions())
	assert.Contains(t, out, "GETDATE() ORDER BY")
}

func TestSanitizeCompletesDanglingBetween(t *testing.T) {
	out := Sanitize("SELECT TOP 10 * FROM [dbo].[selling] s WHERE s.Date BETWEEN '2024-01-01' AND ;",
		schema.Snapshot{}, DefaultOptions())
	assert.Contains(t, out, "BETWEEN '2024-01-01' AND GETDATE()")
}

func TestSanitizeCollapsesStrayConnective(t *testing.T) {
	out := Sanitize("SELECT TOP 10 * FROM [dbo].[selling] s WHERE s.SellingPrice > 5 AND ORDER BY 1",
		schema.Snapshot{}, DefaultOptions())
	assert.NotContains(t, out, "AND ORDER BY")
	assert.Contains(t, out, "ORDER BY")
}

func TestSanitizeFuzzyColumnCorrection(t *testing.T) {
	// "QuantitySald" is one edit from QuantitySold: above the 0.65 cutoff.
	out := Sanitize("SELECT TOP 10 s.QuantitySald FROM [dbo].[selling] s",
		testSnapshot(), DefaultOptions())
	assert.Contains(t, out, "s.QuantitySold")
}

func TestSanitizeLeavesUnknownColumnWithoutSnapshot(t *testing.T) {
	// Empty snapshot: no correction possible, input passes through.
	out := Sanitize("SELECT TOP 10 s.QuantitySald FROM [dbo].[selling] s",
		schema.Snapshot{}, DefaultOptions())
	assert.Contains(t, out, "s.QuantitySald")
}

func TestSanitizeEnforcesGroupBy(t *testing.T) {
	sql := "SELECT SUM(s.QuantitySold) AS Total FROM [dbo].[selling] s " +
		"JOIN Products p ON s.ProductCode=p.ProductCode ORDER BY Total DESC;"
	out := Sanitize(sql, testSnapshot(), DefaultOptions())

	assert.Contains(t, out, "GROUP BY p.[ProductCode], p.[ProductName]")
	require.True(t, strings.Index(out, "GROUP BY") < strings.Index(out, "ORDER BY"))
}

func TestSanitizeGroupByAppendsWithoutOrderBy(t *testing.T) {
	sql := "SELECT p.ProductName, SUM(s.QuantitySold) AS Total FROM [dbo].[selling] s " +
		"JOIN [dbo].[products] p ON s.ProductCode=p.ProductCode;"
	out := Sanitize(sql, testSnapshot(), DefaultOptions())

	assert.Contains(t, out, "GROUP BY p.[ProductCode], p.[ProductName]")
	assert.True(t, strings.HasSuffix(out, ";"))
}

func TestSanitizeGroupByProjectionAfterTop(t *testing.T) {
	// The injected projection must land after the TOP clause, not before it.
	sql := "SELECT SUM(p.Quantity) AS Total FROM [dbo].[products] p"
	out := Sanitize(sql, testSnapshot(), DefaultOptions())

	assert.True(t, strings.HasPrefix(out, "SELECT TOP 200 p.[ProductCode], p.[ProductName], SUM("), out)
}

func TestSanitizeIdempotent(t *testing.T) {
	snap := testSnapshot()
	inputs := []string{
		"SELECT p.QuantitySelling FROM Products p",
		"SELECT TOP 5 [ProductName] FROM [dbo].[products];",
		"SELECT SUM(s.QuantitySold) AS Total FROM [dbo].[selling] s " +
			"JOIN Products p ON s.ProductCode=p.ProductCode ORDER BY Total DESC;",
	}
	for _, in := range inputs {
		once := Sanitize(in, snap, DefaultOptions())
		twice := Sanitize(once, snap, DefaultOptions())
		assert.Equal(t, once, twice, "input: %s", in)
	}
}

func TestSanitizeSingleTerminator(t *testing.T) {
	out := Sanitize("SELECT TOP 1 x FROM [dbo].[products];;;", schema.Snapshot{}, DefaultOptions())
	assert.True(t, strings.HasSuffix(out, ";"))
	assert.False(t, strings.HasSuffix(out, ";;"))
}

func TestBestMatch(t *testing.T) {
	cols := []string{"ProductCode", "ProductName", "Quantity"}

	got, ok := bestMatch("productname", cols, 0.65)
	require.True(t, ok)
	assert.Equal(t, "ProductName", got)

	got, ok = bestMatch("ProductNme", cols, 0.65)
	require.True(t, ok)
	assert.Equal(t, "ProductName", got)

	_, ok = bestMatch("TotallyUnrelated", cols, 0.65)
	assert.False(t, ok)
}
