package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"pharmadb/config"
	"pharmadb/metrics"
)

// Client talks to a local Ollama-compatible inference server over
// /api/generate. Every failure mode (network, non-200, malformed body) comes
// back as an error return; callers decide whether to retry or fall back.
type Client struct {
	baseURL    string
	cfg        config.OllamaConfig
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// Options narrows one call; zero values fall back to the configured defaults.
type Options struct {
	Stop       []string
	NumPredict int
	Timeout    time.Duration
}

// Completion is one model answer plus its cost.
type Completion struct {
	Text         string
	Model        string
	PromptTokens int
	EvalTokens   int
	DurationMS   int64
	// Partial marks text recovered from a stream that broke mid-way; it is
	// only set alongside a non-nil error.
	Partial bool
}

type generateRequest struct {
	Model     string          `json:"model"`
	Prompt    string          `json:"prompt"`
	Stream    bool            `json:"stream"`
	KeepAlive string          `json:"keep_alive"`
	Options   generateOptions `json:"options"`
	Stop      []string        `json:"stop,omitempty"`
}

type generateOptions struct {
	Temperature   float64 `json:"temperature"`
	NumPredict    int     `json:"num_predict"`
	NumCtx        int     `json:"num_ctx"`
	TopK          int     `json:"top_k"`
	TopP          float64 `json:"top_p"`
	RepeatPenalty float64 `json:"repeat_penalty"`
}

type generateResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Text            string `json:"text"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
	TotalDuration   int64  `json:"total_duration"` // nanoseconds
}

func New(cfg config.OllamaConfig, logger *zap.Logger, m *metrics.Metrics) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		cfg:     cfg,
		// Per-call deadline comes from the request context; the client-level
		// timeout is only the hard backstop.
		httpClient: &http.Client{Timeout: cfg.Timeout + 5*time.Second},
		logger:     logger,
		metrics:    m,
	}
}

// Generate issues one bounded-time completion request.
func (c *Client) Generate(ctx context.Context, prompt string, opts Options) (*Completion, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = c.cfg.Timeout
	}
	numPredict := opts.NumPredict
	if numPredict <= 0 {
		numPredict = c.cfg.NumPredict
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reqBody := generateRequest{
		Model:     c.cfg.Model,
		Prompt:    prompt,
		Stream:    false,
		KeepAlive: c.cfg.KeepAlive, // keeps the model warm between calls
		Options: generateOptions{
			Temperature:   c.cfg.Temperature,
			NumPredict:    numPredict,
			NumCtx:        c.cfg.NumCtx,
			TopK:          c.cfg.TopK,
			TopP:          c.cfg.TopP,
			RepeatPenalty: c.cfg.RepeatPenalty,
		},
		Stop: opts.Stop,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	t0 := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveModelCall(time.Since(t0), 0, 0, true)
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.ObserveModelCall(time.Since(t0), 0, 0, true)
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.metrics.ObserveModelCall(time.Since(t0), 0, 0, true)
		return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, truncate(string(body), 300))
	}

	comp, err := c.decode(body, time.Since(t0))
	failed := err != nil
	pt, et := 0, 0
	if comp != nil {
		pt, et = comp.PromptTokens, comp.EvalTokens
	}
	c.metrics.ObserveModelCall(time.Since(t0), pt, et, failed)
	if err != nil {
		return comp, err
	}
	c.logger.Debug("model call complete",
		zap.String("model", comp.Model),
		zap.Int("prompt_tokens", comp.PromptTokens),
		zap.Int("eval_tokens", comp.EvalTokens),
		zap.Int64("duration_ms", comp.DurationMS))
	return comp, nil
}

// decode handles both response modes: a single JSON object, or line-delimited
// chunks. In line mode a malformed line stops parsing; the text accumulated so
// far is returned alongside the error rather than thrown away.
func (c *Client) decode(body []byte, wall time.Duration) (*Completion, error) {
	var single generateResponse
	if err := json.Unmarshal(body, &single); err == nil {
		return completionFrom(single, wall), nil
	}

	comp := &Completion{}
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	sawLine := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var chunk generateResponse
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			comp.Partial = true
			return comp, fmt.Errorf("malformed response line: %w", err)
		}
		sawLine = true
		comp.Text += chunkText(chunk)
		if chunk.Model != "" {
			comp.Model = chunk.Model
		}
		if chunk.Done {
			comp.PromptTokens = chunk.PromptEvalCount
			comp.EvalTokens = chunk.EvalCount
			comp.DurationMS = durationMS(chunk.TotalDuration, wall)
		}
	}
	if !sawLine {
		return nil, fmt.Errorf("empty or unparseable response body")
	}
	if comp.DurationMS == 0 {
		comp.DurationMS = wall.Milliseconds()
	}
	return comp, nil
}

func completionFrom(r generateResponse, wall time.Duration) *Completion {
	return &Completion{
		Text:         chunkText(r),
		Model:        r.Model,
		PromptTokens: r.PromptEvalCount,
		EvalTokens:   r.EvalCount,
		DurationMS:   durationMS(r.TotalDuration, wall),
	}
}

func chunkText(r generateResponse) string {
	if r.Response != "" {
		return r.Response
	}
	return r.Text
}

func durationMS(totalNanos int64, wall time.Duration) int64 {
	if totalNanos > 0 {
		return totalNanos / int64(time.Millisecond)
	}
	return wall.Milliseconds()
}

// Ping issues a one-token completion to verify the model answers and keep it
// loaded.
func (c *Client) Ping(ctx context.Context) (*Completion, error) {
	return c.Generate(ctx, "ping", Options{NumPredict: 1, Timeout: 4 * time.Second})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
