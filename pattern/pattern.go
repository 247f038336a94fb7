// Package pattern maps common pharmacy analytics questions straight to
// hand-written SQL, bypassing the model entirely. High precision, bilingual
// (Arabic/English) keyword matching.
package pattern

import (
	"regexp"
	"strings"
)

var rxFirstInt = regexp.MustCompile(`\d+`)

// threshold pulls the first integer out of the question, with a default for
// questions like "products selling well per month".
func threshold(q, def string) string {
	if m := rxFirstInt.FindString(q); m != "" {
		return m
	}
	return def
}

func hasAny(q string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(q, w) {
			return true
		}
	}
	return false
}

// Match returns the template SQL for a recognized question, or ok=false when
// the caller must fall back to generation.
func Match(question string) (string, bool) {
	q := strings.ToLower(strings.TrimSpace(question))
	if q == "" {
		return "", false
	}

	if hasAny(q, "all products", "جميع المنتجات", "show products", "كل المنتجات") {
		return "SELECT [ProductCode],[ProductName],[Quantity],[Classification] " +
			"FROM [dbo].[products] ORDER BY [ProductName];", true
	}

	if hasAny(q, "best selling", "أكثر مبيع", "top selling", "most sold", "الأكثر مبيعاً") {
		return "SELECT TOP 10 [p].[ProductCode],[p].[ProductName], " +
			"SUM([s].[QuantitySold]) AS [TotalSold] " +
			"FROM [dbo].[selling] AS [s] " +
			"JOIN [dbo].[products] AS [p] ON [s].[ProductCode]=[p].[ProductCode] " +
			"GROUP BY [p].[ProductCode],[p].[ProductName] " +
			"ORDER BY SUM([s].[QuantitySold]) DESC;", true
	}

	if hasAny(q, "per month", "شهريا", "في الشهر", "monthly") {
		t := threshold(q, "5")
		return "SELECT [p].[ProductCode],[p].[ProductName], " +
			"AVG([s].[QuantitySold]) AS [AvgMonthlySales], " +
			"COUNT(DISTINCT FORMAT([s].[Date],'yyyy-MM')) AS [MonthsActive] " +
			"FROM [dbo].[selling] AS [s] " +
			"JOIN [dbo].[products] AS [p] ON [s].[ProductCode]=[p].[ProductCode] " +
			"GROUP BY [p].[ProductCode],[p].[ProductName] " +
			"HAVING AVG([s].[QuantitySold]) > " + t + " " +
			"ORDER BY [AvgMonthlySales] DESC;", true
	}

	if hasAny(q, "distinct months", "different months", "شهر مختلف") {
		t := threshold(q, "5")
		return "SELECT [p].[ProductCode],[p].[ProductName], " +
			"COUNT(DISTINCT FORMAT([s].[Date],'yyyy-MM')) AS [MonthsWithSales] " +
			"FROM [dbo].[selling] AS [s] " +
			"JOIN [dbo].[products] AS [p] ON [s].[ProductCode]=[p].[ProductCode] " +
			"GROUP BY [p].[ProductCode],[p].[ProductName] " +
			"HAVING COUNT(DISTINCT FORMAT([s].[Date],'yyyy-MM')) >= " + t + " " +
			"ORDER BY [MonthsWithSales] DESC;", true
	}

	if hasAny(q, "purchased but never sold", "تم شراؤها ولكن لم تباع", "bought not sold") {
		return "SELECT DISTINCT [p].[ProductCode],[p].[ProductName],[p].[Classification] " +
			"FROM [dbo].[buying] AS [b] " +
			"JOIN [dbo].[products] AS [p] ON [b].[ProductCode]=[p].[ProductCode] " +
			"WHERE [b].[ProductCode] NOT IN (SELECT DISTINCT [ProductCode] FROM [dbo].[selling]) " +
			"ORDER BY [p].[ProductName];", true
	}

	if hasAny(q, "revenue", "إجمالي الإيرادات", "total sales", "إجمالي المبيعات") {
		return "SELECT [p].[ProductCode],[p].[ProductName], " +
			"SUM([s].[QuantitySold]) AS [TotalQuantity], " +
			"SUM([s].[QuantitySold]*[s].[SellingPrice]) AS [TotalRevenue] " +
			"FROM [dbo].[selling] AS [s] " +
			"JOIN [dbo].[products] AS [p] ON [s].[ProductCode]=[p].[ProductCode] " +
			"GROUP BY [p].[ProductCode],[p].[ProductName] " +
			"ORDER BY [TotalRevenue] DESC;", true
	}

	return "", false
}
