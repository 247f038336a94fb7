package models

// QuestionRequest is the body for all natural-language question endpoints.
type QuestionRequest struct {
	Question string `json:"question" binding:"required" example:"best selling products"`
}

// SQLRunRequest carries a raw T-SQL SELECT for the manual execution endpoint.
type SQLRunRequest struct {
	SQL    string `json:"sql" binding:"required" example:"SELECT TOP 10 * FROM [dbo].[products]"`
	Save   bool   `json:"save,omitempty"`
	Format string `json:"format,omitempty"` // "json" or "csv"
}

// ModelMetrics accumulates token counts and durations across every model call
// made while answering one question.
type ModelMetrics struct {
	Model         string `json:"model,omitempty"`
	PromptTokens  int    `json:"llm_prompt_tokens"`
	EvalTokens    int    `json:"llm_eval_tokens"`
	TotalTokens   int    `json:"llm_total_tokens"`
	LLMDurationMS int64  `json:"llm_duration_ms"`
}

// Add folds one completion's metrics into the accumulator.
func (m *ModelMetrics) Add(model string, promptTokens, evalTokens int, durationMS int64) {
	if m.Model == "" && model != "" {
		m.Model = model
	}
	m.PromptTokens += promptTokens
	m.EvalTokens += evalTokens
	m.TotalTokens = m.PromptTokens + m.EvalTokens
	m.LLMDurationMS += durationMS
}

// SQLResult is the raw shape coming back from SQL Server.
type SQLResult struct {
	Columns []string        `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
	Error   string          `json:"error,omitempty"`
}

// QueryResult is the processed answer for one question: the final SQL that
// ran, the (preview-trimmed) rows keyed by column name, and model metrics.
type QueryResult struct {
	SQL         string                   `json:"sql"`
	Plan        string                   `json:"plan,omitempty"`
	Columns     []string                 `json:"columns"`
	Rows        []map[string]interface{} `json:"rows"`
	SummaryAr   string                   `json:"summary_ar"`
	ViaFallback bool                     `json:"via_fallback,omitempty"`
	ModelMetrics
	TotalMS int64 `json:"total_ms"`
}

// QueryResponse adds provenance: which route produced the result.
type QueryResponse struct {
	Route string `json:"route"`
	QueryResult
}

// PresetRunResponse is QueryResponse plus the preset label that was run.
type PresetRunResponse struct {
	PresetName string `json:"preset_name"`
	QueryResponse
}

// QueryRun is one history entry persisted in badger.
type QueryRun struct {
	ID          string `json:"id"`
	Route       string `json:"route"`
	Question    string `json:"question,omitempty"`
	SQL         string `json:"sql"`
	RowCount    int    `json:"row_count"`
	Model       string `json:"model,omitempty"`
	TotalTokens int    `json:"total_tokens,omitempty"`
	DurationMS  int64  `json:"duration_ms"`
	Timestamp   string `json:"timestamp"`
}

// ResultFile is a saved query result on disk.
type ResultFile struct {
	Filename  string          `json:"filename"`
	Query     string          `json:"query,omitempty"`
	Timestamp string          `json:"timestamp"`
	Columns   []string        `json:"columns"`
	Rows      [][]interface{} `json:"rows"`
	RowCount  int             `json:"row_count"`
	Error     string          `json:"error,omitempty"`
}

// ResultFileInfo describes a saved result file without its content.
type ResultFileInfo struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Modified string `json:"modified"`
	Format   string `json:"format"`
}
