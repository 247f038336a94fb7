package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmadb/ai"
	"pharmadb/cache"
	"pharmadb/metrics"
	"pharmadb/models"
	"pharmadb/sanitize"
	"pharmadb/schema"
)

type fakeModel struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (f *fakeModel) Generate(ctx context.Context, prompt string, opts ai.Options) (*ai.Completion, error) {
	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	text := ""
	if i < len(f.responses) {
		text = f.responses[i]
	}
	return &ai.Completion{Text: text, Model: "fake", PromptTokens: 10, EvalTokens: 20, DurationMS: 5}, nil
}

type fakeExecutor struct {
	errs  []error
	calls int
	sqls  []string
	res   *models.SQLResult
}

func (f *fakeExecutor) ExecuteQuery(ctx context.Context, query string) (*models.SQLResult, error) {
	i := f.calls
	f.calls++
	f.sqls = append(f.sqls, query)
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if f.res != nil {
		return f.res, nil
	}
	return &models.SQLResult{
		Columns: []string{"ProductName", "Quantity"},
		Rows: [][]interface{}{
			{"Aspirin", "12"},
			{"Ibuprofen", "7"},
		},
	}, nil
}

func newTestPipeline(model *fakeModel, exec *fakeExecutor) *Pipeline {
	return New(model, exec, schema.NewCache(nil, nil), cache.New(),
		sanitize.DefaultOptions(), nil, metrics.New(prometheus.NewRegistry()))
}

func TestGenerateAndExecuteHappyPath(t *testing.T) {
	model := &fakeModel{responses: []string{"<SQL>\nSELECT [ProductName] FROM [dbo].[products]\n</SQL>"}}
	exec := &fakeExecutor{}
	p := newTestPipeline(model, exec)

	result, err := p.GenerateAndExecute(context.Background(), "list products", 200)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.SQL, "SELECT TOP 200 "), result.SQL)
	assert.True(t, strings.HasSuffix(result.SQL, ";"))
	assert.Equal(t, []string{"ProductName", "Quantity"}, result.Columns)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "Aspirin", result.Rows[0]["ProductName"])
	assert.Equal(t, "fake", result.Model)
	assert.Equal(t, 10, result.PromptTokens)
	assert.Equal(t, 30, result.TotalTokens)
	assert.Contains(t, result.SummaryAr, "عدد الصفوف المعروضة: 2")
	assert.Equal(t, 1, model.calls)
	assert.Equal(t, 1, exec.calls)
}

func TestGenerateAndExecuteModelErrorUsesFallbackQuery(t *testing.T) {
	model := &fakeModel{errs: []error{errors.New("connection refused")}}
	exec := &fakeExecutor{}
	p := newTestPipeline(model, exec)

	result, err := p.GenerateAndExecute(context.Background(), "list products", 200)
	require.NoError(t, err)

	assert.Equal(t, FallbackSQL, result.SQL)
	require.Len(t, exec.sqls, 1)
	assert.Equal(t, FallbackSQL, exec.sqls[0])
}

func TestGenerateAndExecuteRepairRound(t *testing.T) {
	model := &fakeModel{responses: []string{
		"<SQL>SELECT [NoSuchColumn] FROM [dbo].[products]</SQL>",
		"<SQL>SELECT [ProductName] FROM [dbo].[products]</SQL>",
	}}
	exec := &fakeExecutor{errs: []error{errors.New("Invalid column name 'NoSuchColumn'")}}
	p := newTestPipeline(model, exec)

	result, err := p.GenerateAndExecute(context.Background(), "list products", 200)
	require.NoError(t, err)

	assert.Contains(t, result.SQL, "[ProductName]")
	assert.Equal(t, 2, model.calls)
	assert.Equal(t, 2, exec.calls)
	// Metrics accumulate across both calls.
	assert.Equal(t, 20, result.PromptTokens)
	assert.Equal(t, 40, result.EvalTokens)
	// The repair prompt embeds the database error.
	assert.Contains(t, model.prompts[1], "Invalid column name")
}

func TestGenerateAndExecuteSecondFailureIsHard(t *testing.T) {
	model := &fakeModel{responses: []string{
		"<SQL>SELECT [Bad] FROM [dbo].[products]</SQL>",
		"<SQL>SELECT [StillBad] FROM [dbo].[products]</SQL>",
	}}
	exec := &fakeExecutor{errs: []error{errors.New("bad column"), errors.New("still bad")}}
	p := newTestPipeline(model, exec)

	_, err := p.GenerateAndExecute(context.Background(), "list products", 200)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after repair")
}

func TestGenerateAndExecuteUnsafeModelOutput(t *testing.T) {
	model := &fakeModel{responses: []string{"<SQL>DROP TABLE products</SQL>"}}
	exec := &fakeExecutor{}
	p := newTestPipeline(model, exec)

	_, err := p.GenerateAndExecute(context.Background(), "delete everything", 200)
	require.Error(t, err)
	assert.Equal(t, 0, exec.calls)
}

func TestGenerateAndExecutePreviewTrimming(t *testing.T) {
	rows := make([][]interface{}, 10)
	for i := range rows {
		rows[i] = []interface{}{"p", "1"}
	}
	model := &fakeModel{responses: []string{"<SQL>SELECT [ProductName] FROM [dbo].[products]</SQL>"}}
	exec := &fakeExecutor{res: &models.SQLResult{Columns: []string{"ProductName", "Quantity"}, Rows: rows}}
	p := newTestPipeline(model, exec)

	result, err := p.GenerateAndExecute(context.Background(), "list products", 3)
	require.NoError(t, err)
	assert.Len(t, result.Rows, 3)
}

func TestGenerateAndExecuteCachedCompletion(t *testing.T) {
	model := &fakeModel{responses: []string{"<SQL>SELECT [ProductName] FROM [dbo].[products]</SQL>"}}
	exec := &fakeExecutor{}
	p := newTestPipeline(model, exec)

	_, err := p.GenerateAndExecute(context.Background(), "list products", 200)
	require.NoError(t, err)
	_, err = p.GenerateAndExecute(context.Background(), "list products", 200)
	require.NoError(t, err)

	// Second identical question reuses the cached completion.
	assert.Equal(t, 1, model.calls)
	assert.Equal(t, 2, exec.calls)
}

func TestRowsToMaps(t *testing.T) {
	res := &models.SQLResult{
		Columns: []string{"a", "b"},
		Rows:    [][]interface{}{{"1", "2"}, {"3", nil}},
	}
	maps := RowsToMaps(res, 0)
	require.Len(t, maps, 2)
	assert.Equal(t, "1", maps[0]["a"])
	assert.Nil(t, maps[1]["b"])
}

func TestSummaryArTruncatesColumns(t *testing.T) {
	cols := []string{"c1", "c2", "c3", "c4", "c5", "c6", "c7"}
	s := SummaryAr(4, cols)
	assert.Contains(t, s, "c6...")
	assert.NotContains(t, s, "c7")
}
