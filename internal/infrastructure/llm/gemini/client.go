package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/vkazmin/claimflow/internal/core/ports"
	"github.com/vkazmin/claimflow/internal/infrastructure/resilience"
)

// Client calls the Gemini generateContent REST API and is the single
// implementation of the reasoning backend. Documents travel as inline
// base64 parts; responses are forced into JSON mode.
type Client struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor
}

type Option func(*Client)

// WithRequestsPerMinute throttles outbound calls. The API enforces its own
// quota with 429s; the local limiter keeps a burst of pipeline runs from
// burning the retry budget against it.
func WithRequestsPerMinute(rpm int) Option {
	return func(c *Client) {
		if rpm > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1)
		}
	}
}

func WithExecutor(executor *resilience.Executor) Option {
	return func(c *Client) {
		c.executor = executor
	}
}

func New(baseURL, model, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		limiter:    rate.NewLimiter(rate.Inf, 1),
		executor:   resilience.NewExecutor(resilience.DefaultConfig()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature      float64         `json:"temperature"`
	ResponseMimeType string          `json:"response_mime_type,omitempty"`
	ResponseSchema   json.RawMessage `json:"response_schema,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

func (c *Client) GenerateJSON(ctx context.Context, req ports.ReasoningRequest) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	body := generateRequest{
		Contents: []content{{Parts: buildParts(req)}},
		GenerationConfig: &generationConfig{
			Temperature:      0,
			ResponseMimeType: "application/json",
		},
	}
	if schema := strings.TrimSpace(req.Schema); schema != "" {
		body.GenerationConfig.ResponseSchema = json.RawMessage(schema)
	}

	var response generateResponse
	err := c.executor.Execute(ctx, "generate_content", func(ctx context.Context) error {
		return c.postJSON(ctx, body, &response)
	}, classifyGeminiError)
	if err != nil {
		return "", wrapTemporaryIfNeeded("generate content", err)
	}

	text, err := responseText(response)
	if err != nil {
		return "", err
	}
	return text, nil
}

func buildParts(req ports.ReasoningRequest) []part {
	parts := []part{{Text: req.Prompt}}
	for _, doc := range req.Documents {
		if strings.HasPrefix(doc.MimeType, "text/") {
			parts = append(parts, part{
				Text: fmt.Sprintf("FILENAME: %s\n%s", doc.Filename, string(doc.Data)),
			})
			continue
		}
		parts = append(parts,
			part{Text: fmt.Sprintf("FILENAME: %s", doc.Filename)},
			part{InlineData: &inlineData{
				MimeType: doc.MimeType,
				Data:     base64.StdEncoding.EncodeToString(doc.Data),
			}},
		)
	}
	return parts
}

func responseText(response generateResponse) (string, error) {
	if len(response.Candidates) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}
	candidate := response.Candidates[0]
	var b strings.Builder
	for _, p := range candidate.Content.Parts {
		b.WriteString(p.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty candidate (finish reason %q)", candidate.FinishReason)
	}
	return text, nil
}
