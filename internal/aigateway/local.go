package aigateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// DefaultLocalBaseURL matches the self-hosted text generation container
const DefaultLocalBaseURL = "http://localhost:10000"

// LocalGenerator calls a self-hosted model that exposes POST /ask.
// Sampling parameters are not supported by that endpoint and are ignored.
type LocalGenerator struct {
	baseURL    string
	httpClient *http.Client
}

type askRequest struct {
	Prompt string `json:"prompt"`
}

type askResponse struct {
	Reply string `json:"reply"`
}

// NewLocalGenerator creates a generator for the given base URL
func NewLocalGenerator(baseURL string, httpClient *http.Client) *LocalGenerator {
	if baseURL == "" {
		baseURL = DefaultLocalBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &LocalGenerator{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Generate sends one prompt and returns the reply
func (l *LocalGenerator) Generate(ctx context.Context, prompt string, _ *Sampling) (string, error) {
	jsonData, err := json.Marshal(askRequest{Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/ask", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := l.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("local generator returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return "", fmt.Errorf("local generator returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var out askResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return out.Reply, nil
}
