package aigateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalGenerator_Generate(t *testing.T) {
	tests := []struct {
		name           string
		serverResponse func(w http.ResponseWriter, r *http.Request)
		expectedError  string
		expectedResult string
	}{
		{
			name: "successful_generation",
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/ask", r.URL.Path)

				var req askRequest
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "hello", req.Prompt)

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(askResponse{Reply: "hello world"})
			},
			expectedResult: "hello world",
		},
		{
			name: "server_error",
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("model not loaded"))
			},
			expectedError: "local generator returned status 500: model not loaded",
		},
		{
			name: "invalid_json_response",
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("invalid json"))
			},
			expectedError: "failed to decode response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.serverResponse))
			defer server.Close()

			gen := NewLocalGenerator(server.URL, nil)
			result, err := gen.Generate(context.Background(), "hello", &DefaultSampling)

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedResult, result)
			}
		})
	}
}

func TestLocalGenerator_ThroughClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(askResponse{Reply: "Pros and cons"})
	}))
	defer server.Close()

	client := NewClient(NewLocalGenerator(server.URL, server.Client()), Options{})

	assert.Equal(t, "Pros and cons", client.Analyze(context.Background(), "t", "d"))
}
