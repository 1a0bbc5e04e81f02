package aigateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const (
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	DefaultGeminiModel   = "gemini-3-flash-preview"
)

// GeminiGenerator calls the generateContent REST endpoint
type GeminiGenerator struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

type geminiRequest struct {
	Contents         []geminiContent   `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
	TopK        int     `json:"topK"`
	TopP        float64 `json:"topP"`
}

// NewGeminiGenerator creates a generator for the given model. An empty
// apiKey is sent as is and fails at the remote end.
func NewGeminiGenerator(baseURL, model, apiKey string, httpClient *http.Client) *GeminiGenerator {
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &GeminiGenerator{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// Generate sends one prompt and returns the concatenated text of the first candidate
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, sampling *Sampling) (string, error) {
	body := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	}
	if sampling != nil {
		body.GenerationConfig = &generationConfig{
			Temperature: sampling.Temperature,
			TopK:        sampling.TopK,
			TopP:        sampling.TopP,
		}
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, url.PathEscape(g.model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(respBody, "error.message").String()
		if msg == "" {
			msg = string(respBody)
		}
		return "", fmt.Errorf("gemini returned status %d: %s", resp.StatusCode, msg)
	}
	if !gjson.ValidBytes(respBody) {
		return "", fmt.Errorf("failed to decode response: invalid JSON")
	}

	return candidateText(respBody), nil
}

// candidateText joins the non-thought text parts of the first candidate
func candidateText(body []byte) string {
	var sb strings.Builder
	gjson.GetBytes(body, "candidates.0.content.parts").ForEach(func(_, part gjson.Result) bool {
		if part.Get("thought").Bool() {
			return true
		}
		sb.WriteString(part.Get("text").String())
		return true
	})
	return sb.String()
}
