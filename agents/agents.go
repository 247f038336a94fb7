// Package agents is the multi-step generation path: an explicit state machine
// Planner → Writer → Tester → Execute with a named Fallback terminal state
// reachable from every other state. Two timeout layers bound it: a per-call
// timeout on each model request and a wall-clock deadline checked at every
// stage boundary.
package agents

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"pharmadb/ai"
	"pharmadb/config"
	"pharmadb/metrics"
	"pharmadb/models"
	"pharmadb/pipeline"
	"pharmadb/sanitize"
	"pharmadb/schema"
	"pharmadb/sqlsafety"
)

// State names one node of the orchestration machine.
type State string

const (
	StatePlanner  State = "planner"
	StateWriter   State = "writer"
	StateTester   State = "tester"
	StateExecute  State = "execute"
	StateFallback State = "fallback"
)

var (
	// ErrDeadlineExceeded means the wall-clock budget ran out at a stage
	// boundary. It always resolves through the fallback, never to the caller.
	ErrDeadlineExceeded = errors.New("orchestration budget exceeded")
	// ErrNoSQL means a model answer contained nothing extractable.
	ErrNoSQL = errors.New("model did not return SQL")
)

var rxSelectOrWith = regexp.MustCompile(`(?i)^\s*(select|with|;with)\b`)

// Orchestrator drives one question through the staged pipeline, delegating to
// the single-shot pipeline whenever any stage fails or the budget runs out.
type Orchestrator struct {
	model    pipeline.ModelClient
	executor pipeline.Executor
	schema   *schema.Cache
	fallback *pipeline.Pipeline
	opts     sanitize.Options
	cfg      config.AgentsConfig
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

func New(model pipeline.ModelClient, executor pipeline.Executor, schemaCache *schema.Cache, fallback *pipeline.Pipeline, opts sanitize.Options, cfg config.AgentsConfig, logger *zap.Logger, m *metrics.Metrics) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 8 * time.Second
	}
	if cfg.HardDeadline <= 0 {
		cfg.HardDeadline = 14 * time.Second
	}
	return &Orchestrator{
		model:    model,
		executor: executor,
		schema:   schemaCache,
		fallback: fallback,
		opts:     opts,
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
	}
}

// run carries the mutable state of one orchestration: the clock, the schema
// text and the metrics accumulated across every model call.
type run struct {
	start   time.Time
	snap    schema.Snapshot
	allowed string
	result  *models.QueryResult
}

// Run answers one question. The returned result always carries provenance:
// ViaFallback is set when any stage handed off to the single-shot pipeline.
func (o *Orchestrator) Run(ctx context.Context, question string, previewLimit int) (*models.QueryResult, error) {
	r := &run{
		start:  time.Now(),
		result: &models.QueryResult{},
	}
	r.snap = o.schema.Snapshot(ctx)
	r.allowed = r.snap.AllowedText()

	state := StatePlanner

	plan, err := o.planner(ctx, r, question)
	if err != nil {
		return o.toFallback(ctx, state, err, question, previewLimit)
	}
	r.result.Plan = plan

	state = StateWriter
	if err := o.checkDeadline(r); err != nil {
		return o.toFallback(ctx, state, err, question, previewLimit)
	}
	sql, err := o.writer(ctx, r, question, plan)
	if err != nil {
		return o.toFallback(ctx, state, err, question, previewLimit)
	}

	state = StateTester
	if err := o.checkDeadline(r); err != nil {
		return o.toFallback(ctx, state, err, question, previewLimit)
	}
	sql, err = o.tester(ctx, r, sql)
	if err != nil {
		return o.toFallback(ctx, state, err, question, previewLimit)
	}

	state = StateExecute
	if err := o.checkDeadline(r); err != nil {
		return o.toFallback(ctx, state, err, question, previewLimit)
	}
	res, finalSQL, err := o.execute(ctx, r, sql)
	if err != nil {
		return o.toFallback(ctx, state, err, question, previewLimit)
	}

	r.result.SQL = finalSQL
	r.result.Columns = res.Columns
	r.result.Rows = pipeline.RowsToMaps(res, previewLimit)
	r.result.SummaryAr = pipeline.SummaryAr(len(r.result.Rows), res.Columns)
	r.result.TotalMS = time.Since(r.start).Milliseconds()
	return r.result, nil
}

// checkDeadline gates every state transition; a stalled-but-under-call-timeout
// sequence of calls still cannot exceed the total budget by more than one call.
func (o *Orchestrator) checkDeadline(r *run) error {
	if time.Since(r.start) >= o.cfg.HardDeadline {
		return ErrDeadlineExceeded
	}
	return nil
}

// callModel issues one model call under the per-call timeout, accumulating
// metrics into the run.
func (o *Orchestrator) callModel(ctx context.Context, r *run, prompt string) (string, error) {
	if err := o.checkDeadline(r); err != nil {
		return "", err
	}
	comp, err := o.model.Generate(ctx, prompt, ai.Options{Timeout: o.cfg.CallTimeout})
	if err != nil {
		return "", fmt.Errorf("model call failed: %w", err)
	}
	r.result.Add(comp.Model, comp.PromptTokens, comp.EvalTokens, comp.DurationMS)
	return strings.TrimSpace(comp.Text), nil
}

func (o *Orchestrator) planner(ctx context.Context, r *run, question string) (string, error) {
	return o.callModel(ctx, r, ai.BuildPlannerPrompt(question, r.allowed))
}

func (o *Orchestrator) writer(ctx context.Context, r *run, question, plan string) (string, error) {
	raw, err := o.callModel(ctx, r, ai.BuildWriterPrompt(question, plan, r.allowed))
	if err != nil {
		return "", err
	}
	extracted, found := ai.ExtractSQL(raw)
	if !found {
		return "", ErrNoSQL
	}
	if ai.StartsWithCTE(extracted) {
		extracted, err = o.rewriteCTE(ctx, r, extracted)
		if err != nil {
			return "", err
		}
	}
	safe, err := sqlsafety.EnforceSelectOnly(extracted)
	if err != nil {
		return "", err
	}
	return sanitize.Sanitize(safe, r.snap, o.opts), nil
}

// tester re-sanitizes and, when the statement no longer opens with SELECT,
// spends one corrective call to fix it.
func (o *Orchestrator) tester(ctx context.Context, r *run, sql string) (string, error) {
	s := sanitize.Sanitize(sql, r.snap, o.opts)
	if rxSelectOrWith.MatchString(s) {
		return s, nil
	}

	raw, err := o.callModel(ctx, r, ai.BuildTesterFixPrompt(r.allowed, s))
	if err != nil {
		return "", err
	}
	extracted, found := ai.ExtractSQL(raw)
	if !found {
		return "", ErrNoSQL
	}
	if ai.StartsWithCTE(extracted) {
		extracted, err = o.rewriteCTE(ctx, r, extracted)
		if err != nil {
			return "", err
		}
	}
	safe, err := sqlsafety.EnforceSelectOnly(extracted)
	if err != nil {
		return "", err
	}
	return sanitize.Sanitize(safe, r.snap, o.opts), nil
}

// rewriteCTE converts a WITH block to a plain SELECT; CTEs are disallowed in
// the staged pipeline.
func (o *Orchestrator) rewriteCTE(ctx context.Context, r *run, raw string) (string, error) {
	out, err := o.callModel(ctx, r, ai.BuildCTERewritePrompt(raw))
	if err != nil {
		return "", err
	}
	extracted, found := ai.ExtractSQL(out)
	if !found {
		return "", fmt.Errorf("%w (rewrite)", ErrNoSQL)
	}
	return extracted, nil
}

// execute runs the statement, spending one guided repair on a store error.
func (o *Orchestrator) execute(ctx context.Context, r *run, sql string) (*models.SQLResult, string, error) {
	res, execErr := o.executor.ExecuteQuery(ctx, sql)
	if execErr == nil {
		return res, sql, nil
	}

	o.logger.Info("execution failed in staged pipeline, attempting one repair",
		zap.String("sql", sql), zap.Error(execErr))
	raw, err := o.callModel(ctx, r, ai.BuildRepairPrompt(r.allowed, execErr.Error(), sql))
	if err != nil {
		return nil, "", err
	}
	extracted, found := ai.ExtractSQL(raw)
	if !found {
		return nil, "", ErrNoSQL
	}
	safe, err := sqlsafety.EnforceSelectOnly(extracted)
	if err != nil {
		return nil, "", err
	}
	fixed := sanitize.Sanitize(safe, r.snap, o.opts)

	res, err = o.executor.ExecuteQuery(ctx, fixed)
	if err != nil {
		return nil, "", fmt.Errorf("query failed after repair: %w", err)
	}
	return res, fixed, nil
}

// toFallback is the terminal transition: delegate the whole question to the
// single-shot pipeline and mark the result.
func (o *Orchestrator) toFallback(ctx context.Context, from State, cause error, question string, previewLimit int) (*models.QueryResult, error) {
	reason := classify(from, cause)
	o.logger.Warn("falling back to single-shot pipeline",
		zap.String("from_state", string(from)),
		zap.String("reason", reason),
		zap.Error(cause))
	o.metrics.Fallback(reason)

	res, err := o.fallback.GenerateAndExecute(ctx, question, previewLimit)
	if err != nil {
		return nil, fmt.Errorf("fallback pipeline failed: %w", err)
	}
	res.ViaFallback = true
	return res, nil
}

// classify maps a stage failure to its fallback reason label.
func classify(from State, err error) string {
	switch {
	case errors.Is(err, ErrDeadlineExceeded):
		return "deadline_exceeded"
	case errors.Is(err, ErrNoSQL),
		errors.Is(err, sqlsafety.ErrEmptySQL),
		errors.Is(err, sqlsafety.ErrNotSelect),
		errors.Is(err, sqlsafety.ErrBlocked):
		return "extraction_failed"
	case from == StateExecute:
		return "execution_error"
	default:
		return "model_error"
	}
}
