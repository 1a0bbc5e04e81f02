package aigateway

import (
	"fmt"
	"net/http"
)

const (
	ProviderGemini = "gemini"
	ProviderLocal  = "local"
)

// NewGenerator builds the backend named by provider
func NewGenerator(provider, baseURL, model, apiKey string, httpClient *http.Client) (Generator, error) {
	switch provider {
	case ProviderGemini, "":
		return NewGeminiGenerator(baseURL, model, apiKey, httpClient), nil
	case ProviderLocal:
		return NewLocalGenerator(baseURL, httpClient), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", provider)
	}
}
