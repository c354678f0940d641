package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	perrors "github.com/sathyaincampus/software-engineering-agents/internal/errors"
)

const (
	geminiAPIBase    = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel     = "gemini-2.5-flash-lite"
	defaultMaxTokens = 8192
)

// GeminiProvider implements Provider using the Gemini generateContent API.
type GeminiProvider struct {
	apiKey    string
	model     string
	maxTokens int
	baseURL   string
	client    *http.Client
	logger    zerolog.Logger
}

// GeminiOption configures the provider.
type GeminiOption func(*GeminiProvider)

func WithModel(model string) GeminiOption {
	return func(p *GeminiProvider) { p.model = model }
}

func WithMaxTokens(n int) GeminiOption {
	return func(p *GeminiProvider) { p.maxTokens = n }
}

func WithHTTPClient(c *http.Client) GeminiOption {
	return func(p *GeminiProvider) { p.client = c }
}

func WithBaseURL(u string) GeminiOption {
	return func(p *GeminiProvider) { p.baseURL = u }
}

func WithLogger(l zerolog.Logger) GeminiOption {
	return func(p *GeminiProvider) { p.logger = l }
}

// NewGeminiProvider constructs a Gemini provider.
func NewGeminiProvider(apiKey string, opts ...GeminiOption) *GeminiProvider {
	p := &GeminiProvider{
		apiKey:    apiKey,
		model:     defaultModel,
		maxTokens: defaultMaxTokens,
		baseURL:   geminiAPIBase,
		client:    &http.Client{Timeout: 120 * time.Second},
		logger:    zerolog.Nop(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ModelID returns the configured model identifier.
func (p *GeminiProvider) ModelID() string { return p.model }

// ---- Gemini wire types ----

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// Generate calls the generateContent endpoint and returns the concatenated
// candidate text.
func (p *GeminiProvider) Generate(ctx context.Context, req Request) (string, error) {
	body := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}},
		},
	}
	if req.Instruction != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.Instruction}}}
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.maxTokens
	}
	body.GenerationConfig = &geminiGenerationConfig{
		Temperature:     req.Temperature,
		MaxOutputTokens: maxTokens,
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, p.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", p.apiKey)

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("calling model: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var out geminiResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", &perrors.ProviderError{StatusCode: resp.StatusCode, Message: string(respBody)}
		}
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if out.Error != nil {
		// Keep the provider's status and message intact: the failure
		// classifier pattern-matches on them (e.g. "Please retry in 19.38s").
		return "", &perrors.ProviderError{
			StatusCode: out.Error.Code,
			Message:    fmt.Sprintf("%d %s: %s", out.Error.Code, out.Error.Status, out.Error.Message),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &perrors.ProviderError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	var b strings.Builder
	for _, c := range out.Candidates {
		for _, part := range c.Content.Parts {
			b.WriteString(part.Text)
		}
	}

	p.logger.Debug().
		Str("model", p.model).
		Dur("duration", time.Since(start)).
		Int("response_bytes", b.Len()).
		Msg("model call complete")
	return b.String(), nil
}
