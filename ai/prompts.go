package ai

import (
	"fmt"
	"strings"
)

// Prompt builders for every model call in the system. The allowed-columns
// text comes from the schema cache so the model only ever sees real names.

// BuildGeneratePrompt asks for one T-SQL SELECT for the question.
func BuildGeneratePrompt(question, allowedText string) string {
	var b strings.Builder
	b.WriteString("You are a senior SQL Server engineer. Generate ONLY one T-SQL SELECT.\n\n")
	b.WriteString(allowedText)
	b.WriteString("\nRules:\n")
	b.WriteString("- SQL Server syntax only. No comments, no prose.\n")
	b.WriteString("- Use explicit schema [dbo].\n")
	b.WriteString("- Use aliases: [p]=[dbo].[products], [s]=[dbo].[selling], [b]=[dbo].[buying].\n")
	b.WriteString("- If aggregating, GROUP BY [p].[ProductCode], [p].[ProductName].\n")
	b.WriteString("- End with a semicolon.\n\n")
	fmt.Fprintf(&b, "Question: %s\n\n", question)
	b.WriteString("<SQL>\nSELECT ... ;\n</SQL>\n")
	return b.String()
}

// BuildRepairPrompt embeds the database error and the failing statement for
// the single guided repair round.
func BuildRepairPrompt(allowedText, dbErr, sql string) string {
	var b strings.Builder
	b.WriteString("Fix the following into ONE valid T-SQL SELECT ONLY for SQL Server. ")
	b.WriteString("Use ONLY the listed columns. No prose. End with a semicolon.\n\n")
	b.WriteString(allowedText)
	fmt.Fprintf(&b, "\n-- DB error:\n%s\n\n-- SQL:\n%s\n\n", dbErr, sql)
	b.WriteString("<SQL>\nSELECT ... ;\n</SQL>\n")
	return b.String()
}

// BuildPlannerPrompt asks for a short bullet plan, no SQL.
func BuildPlannerPrompt(question, allowedText string) string {
	var b strings.Builder
	b.WriteString("You are a BI planner for a Pharmacy SQL Server DB.\n")
	b.WriteString("Return a compact plan (bullets): tables, key columns, filters.\n\n")
	b.WriteString(allowedText)
	fmt.Fprintf(&b, "\nQuestion: %s\n\n", question)
	b.WriteString("Plan:")
	return b.String()
}

// BuildWriterPrompt turns the plan into exactly one tagged SELECT.
func BuildWriterPrompt(question, plan, allowedText string) string {
	var b strings.Builder
	b.WriteString("You are a senior SQL Server engineer.\n")
	b.WriteString(allowedText)
	b.WriteString("Rules:\n")
	b.WriteString("- Output ONE valid T-SQL SELECT ONLY. SQL Server syntax.\n")
	b.WriteString("- NO CTE. No temp tables. No comments. No prose.\n")
	b.WriteString("- Use explicit schema [dbo].\n")
	b.WriteString("- Use aliases: [p]=[dbo].[products], [s]=[dbo].[selling], [b]=[dbo].[buying].\n")
	b.WriteString("- If aggregating, GROUP BY [p].[ProductCode], [p].[ProductName].\n")
	b.WriteString("- End with a semicolon.\n\n")
	fmt.Fprintf(&b, "Plan:\n%s\n\n", plan)
	fmt.Fprintf(&b, "Question: %s\n\n", question)
	b.WriteString("Return ONLY inside tags:\n<SQL>\nSELECT ... ;\n</SQL>\n")
	return b.String()
}

// BuildTesterFixPrompt is the corrective call when the written statement no
// longer starts with SELECT after sanitization.
func BuildTesterFixPrompt(allowedText, sql string) string {
	var b strings.Builder
	b.WriteString("Fix this into ONE valid T-SQL SELECT ONLY for SQL Server. ")
	b.WriteString("NO CTE. No prose. End with a semicolon.\n\n")
	b.WriteString(allowedText)
	fmt.Fprintf(&b, "\n%s\n\n", sql)
	b.WriteString("<SQL>\nSELECT ... ;\n</SQL>\n")
	return b.String()
}

// BuildCTERewritePrompt converts a WITH block into a plain SELECT; the agent
// pipeline disallows CTEs.
func BuildCTERewritePrompt(raw string) string {
	var b strings.Builder
	b.WriteString("Rewrite the following T-SQL into ONE single SELECT statement (NO CTE/NO WITH). ")
	b.WriteString("SQL Server syntax. No prose. End with a semicolon.\n\n")
	fmt.Fprintf(&b, "%s\n\n", raw)
	b.WriteString("<SQL>\nSELECT ... ;\n</SQL>\n")
	return b.String()
}
