package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultBaseURL    = "https://api.openai.com"
	defaultModel      = "gpt-4o-mini"
	defaultTimeout    = 20 * time.Second
	defaultMaxRetries = 2
)

const classifySystemPrompt = `You are a compliance reviewer for private equity fund subscriptions.
Classify the submitted text describing an investor's source of funds and accreditation.
Respond with JSON only: {"verdict": "clean" | "ambiguous" | "suspicious", "rationale": "<one short sentence>"}.`

const extractSystemPrompt = `You maintain a corpus of suspicious terms for subscription reviews.
From the reviewer feedback below, extract the single term or short regular expression that should be flagged in future reviews.
Respond with JSON only: {"term": "<term>"} or {"term": ""} if no single term can be extracted.`

type ClientOptions struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// Client talks to an OpenAI-compatible chat endpoint. Every failure mode
// surfaces as ErrUnavailable so callers stay fail-closed.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	maxRetries int
	log        *zap.Logger
}

func NewClient(opts ClientOptions, log *zap.Logger) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("classify: missing api key")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		model:      opts.Model,
		httpClient: &http.Client{Timeout: opts.Timeout},
		maxRetries: opts.MaxRetries,
		log:        log,
	}, nil
}

func (c *Client) ClassifyRisk(ctx context.Context, text string) (Judgment, error) {
	var out struct {
		Verdict   string `json:"verdict"`
		Rationale string `json:"rationale"`
	}
	if err := c.completeJSON(ctx, classifySystemPrompt, text, &out); err != nil {
		return Judgment{}, err
	}

	verdict := Verdict(strings.ToLower(strings.TrimSpace(out.Verdict)))
	switch verdict {
	case VerdictClean, VerdictAmbiguous, VerdictSuspicious:
	default:
		// An off-script verdict is itself ambiguity.
		c.log.Warn("unexpected classifier verdict", zap.String("verdict", out.Verdict))
		verdict = VerdictAmbiguous
	}
	return Judgment{Verdict: verdict, Rationale: strings.TrimSpace(out.Rationale)}, nil
}

func (c *Client) ExtractTerm(ctx context.Context, text string) (string, error) {
	var out struct {
		Term string `json:"term"`
	}
	if err := c.completeJSON(ctx, extractSystemPrompt, text, &out); err != nil {
		return "", err
	}

	term := strings.TrimSpace(out.Term)
	if term == "" {
		return "", ErrNoTerm
	}
	return term, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// completeJSON sends one chat completion and decodes the model's JSON reply
// into out. Transport errors, timeouts, 429 and 5xx responses are retried up
// to maxRetries; whatever still fails is reported as ErrUnavailable.
func (c *Client) completeJSON(ctx context.Context, system string, user string, out any) error {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	req.ResponseFormat.Type = "json_object"

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("classify: encode request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
			case <-time.After(time.Duration(attempt) * 300 * time.Millisecond):
			}
		}

		content, retryable, err := c.post(ctx, payload)
		if err == nil {
			if err := json.Unmarshal([]byte(content), out); err != nil {
				return fmt.Errorf("%w: malformed model output", ErrUnavailable)
			}
			return nil
		}

		lastErr = err
		if !retryable {
			break
		}
		c.log.Warn("classifier call failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}

	return fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

func (c *Client) post(ctx context.Context, payload []byte) (content string, retryable bool, err error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", false, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", true, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", true, err
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", true, fmt.Errorf("status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", false, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", false, fmt.Errorf("empty choices")
	}
	return parsed.Choices[0].Message.Content, false, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
