package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"pharmadb/ai"
	"pharmadb/cache"
	"pharmadb/metrics"
	"pharmadb/models"
	"pharmadb/sanitize"
	"pharmadb/schema"
	"pharmadb/sqlsafety"
)

// ModelClient is the one model operation the pipeline needs.
type ModelClient interface {
	Generate(ctx context.Context, prompt string, opts ai.Options) (*ai.Completion, error)
}

// Executor runs one already-safe statement against the store.
type Executor interface {
	ExecuteQuery(ctx context.Context, query string) (*models.SQLResult, error)
}

// FallbackSQL is the deterministic answer used when the model is unreachable:
// a capped products listing that is always valid against the schema.
const FallbackSQL = "SELECT TOP 50 [ProductCode],[ProductName],[Quantity],[Classification] " +
	"FROM [dbo].[products] ORDER BY [ProductName];"

// Pipeline is the single-shot generation path: one prompt, one extraction,
// sanitize, execute, and at most one guided repair round.
type Pipeline struct {
	model    ModelClient
	executor Executor
	schema   *schema.Cache
	cache    *cache.Cache
	opts     sanitize.Options
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

func New(model ModelClient, executor Executor, schemaCache *schema.Cache, completionCache *cache.Cache, opts sanitize.Options, logger *zap.Logger, m *metrics.Metrics) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		model:    model,
		executor: executor,
		schema:   schemaCache,
		cache:    completionCache,
		opts:     opts,
		logger:   logger,
		metrics:  m,
	}
}

// GenerateAndExecute answers one question through the model. On a model error
// it degrades to the deterministic fallback query; on an execution error it
// performs exactly one repair round, then gives up.
func (p *Pipeline) GenerateAndExecute(ctx context.Context, question string, previewLimit int) (*models.QueryResult, error) {
	t0 := time.Now()
	result := &models.QueryResult{}

	snap := p.schema.Snapshot(ctx)
	allowed := snap.AllowedText()

	rawText, ok := p.cachedCompletion(question)
	if !ok {
		prompt := ai.BuildGeneratePrompt(question, allowed)
		comp, err := p.model.Generate(ctx, prompt, ai.Options{Stop: []string{"</SQL>"}})
		if err != nil {
			// Model down is not a request failure: answer with the
			// deterministic fallback listing instead.
			p.logger.Warn("model unavailable, serving fallback query", zap.Error(err))
			p.metrics.Fallback("model_unavailable")
			return p.executeFinal(ctx, result, FallbackSQL, previewLimit, t0)
		}
		result.Add(comp.Model, comp.PromptTokens, comp.EvalTokens, comp.DurationMS)
		rawText = comp.Text
		p.storeCompletion(question, rawText)
	}

	sql, err := p.extractAndClean(rawText, snap)
	if err != nil {
		return nil, err
	}

	res, execErr := p.executor.ExecuteQuery(ctx, sql)
	if execErr != nil {
		sql, res, err = p.repair(ctx, result, allowed, snap, sql, execErr)
		if err != nil {
			return nil, err
		}
	}

	result.SQL = sql
	fill(result, res, previewLimit)
	result.TotalMS = time.Since(t0).Milliseconds()
	return result, nil
}

// repair is the single guided round: re-prompt with the database error text,
// re-extract, re-sanitize, execute once more.
func (p *Pipeline) repair(ctx context.Context, result *models.QueryResult, allowed string, snap schema.Snapshot, badSQL string, execErr error) (string, *models.SQLResult, error) {
	p.logger.Info("execution failed, attempting one repair round",
		zap.String("sql", badSQL), zap.Error(execErr))

	prompt := ai.BuildRepairPrompt(allowed, execErr.Error(), badSQL)
	comp, err := p.model.Generate(ctx, prompt, ai.Options{Stop: []string{"</SQL>"}})
	if err != nil {
		return "", nil, fmt.Errorf("repair model call failed: %w", err)
	}
	result.Add(comp.Model, comp.PromptTokens, comp.EvalTokens, comp.DurationMS)

	sql, err := p.extractAndClean(comp.Text, snap)
	if err != nil {
		return "", nil, fmt.Errorf("repair produced no usable SQL: %w", err)
	}

	res, err := p.executor.ExecuteQuery(ctx, sql)
	if err != nil {
		// One repair only; the second failure is the caller's problem.
		return "", nil, fmt.Errorf("query failed after repair: %w", err)
	}
	return sql, res, nil
}

// extractAndClean runs the full extract, safety, sanitize chain.
func (p *Pipeline) extractAndClean(rawText string, snap schema.Snapshot) (string, error) {
	extracted, found := ai.ExtractSQL(rawText)
	if !found {
		extracted = strings.TrimSpace(rawText)
	}
	safe, err := sqlsafety.EnforceSelectOnly(extracted)
	if err != nil {
		return "", err
	}
	return sanitize.Sanitize(safe, snap, p.opts), nil
}

// executeFinal runs sql as the final answer with no further recovery.
func (p *Pipeline) executeFinal(ctx context.Context, result *models.QueryResult, sql string, previewLimit int, t0 time.Time) (*models.QueryResult, error) {
	res, err := p.executor.ExecuteQuery(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("fallback query failed: %w", err)
	}
	result.SQL = sql
	fill(result, res, previewLimit)
	result.TotalMS = time.Since(t0).Milliseconds()
	return result, nil
}

func (p *Pipeline) cachedCompletion(question string) (string, bool) {
	if p.cache == nil {
		return "", false
	}
	return p.cache.GetString("gen:" + strings.TrimSpace(strings.ToLower(question)))
}

func (p *Pipeline) storeCompletion(question, text string) {
	if p.cache == nil || strings.TrimSpace(text) == "" {
		return
	}
	p.cache.SetDefault("gen:"+strings.TrimSpace(strings.ToLower(question)), text)
}

// fill converts the raw result into the response shape, trimming to limit.
func fill(result *models.QueryResult, res *models.SQLResult, limit int) {
	result.Columns = res.Columns
	result.Rows = RowsToMaps(res, limit)
	result.SummaryAr = SummaryAr(len(result.Rows), res.Columns)
}

// RowsToMaps converts positional rows into column-keyed maps, keeping at most
// limit rows. limit <= 0 means no trimming.
func RowsToMaps(res *models.SQLResult, limit int) []map[string]interface{} {
	rows := res.Rows
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		m := make(map[string]interface{}, len(res.Columns))
		for i, col := range res.Columns {
			if i < len(row) {
				m[col] = row[i]
			}
		}
		out = append(out, m)
	}
	return out
}

// SummaryAr builds the Arabic one-line result summary.
func SummaryAr(rowCount int, columns []string) string {
	shown := columns
	suffix := ""
	if len(shown) > 6 {
		shown = shown[:6]
		suffix = "..."
	}
	return fmt.Sprintf("عدد الصفوف المعروضة: %d | الأعمدة: %s%s",
		rowCount, strings.Join(shown, ", "), suffix)
}
