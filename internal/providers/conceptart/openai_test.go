package conceptart

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSyntheticWithoutAPIKey(t *testing.T) {
	c := NewClient(Options{})
	req := Request{Prompt: "a wise old quest giver", PipelineID: "p-1"}

	first, err := c.Generate(context.Background(), req)
	require.NoError(t, err)
	second, err := c.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(first.ImageURL, "synthetic://concept-art/"))
	assert.Equal(t, "image/png", first.MIME)
	assert.NotEmpty(t, first.Data)
	// Same prompt and pipeline id produce the same asset.
	assert.Equal(t, first.ImageURL, second.ImageURL)

	other, err := c.Generate(context.Background(), Request{Prompt: "a rusty sword", PipelineID: "p-2"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ImageURL, other.ImageURL)
}

func TestGenerateRemote(t *testing.T) {
	payload := []byte("png-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/images/generations", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req imagesGenerationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "b64_json", req.ResponseFormat)
		assert.Contains(t, req.Prompt, "quest giver")

		json.NewEncoder(w).Encode(imagesGenerationResponse{
			Data: []struct {
				URL     string `json:"url,omitempty"`
				B64JSON string `json:"b64_json,omitempty"`
			}{{B64JSON: base64.StdEncoding.EncodeToString(payload)}},
		})
	}))
	defer srv.Close()

	c := NewClient(Options{APIKey: "sk-test", BaseURL: srv.URL})
	res, err := c.Generate(context.Background(), Request{Prompt: "a quest giver", PipelineID: "p-1"})
	require.NoError(t, err)
	assert.Equal(t, payload, res.Data)
	assert.Equal(t, "image/png", res.MIME)
}

func TestGenerateSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "prompt violates content policy", "type": "invalid_request_error"},
		})
	}))
	defer srv.Close()

	c := NewClient(Options{APIKey: "sk-test", BaseURL: srv.URL})
	_, err := c.Generate(context.Background(), Request{Prompt: "x", PipelineID: "p-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prompt violates content policy")
	assert.Contains(t, err.Error(), "400")
}

func TestGenerateHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewClient(Options{})
	_, err := c.Generate(ctx, Request{Prompt: "x", PipelineID: "p-1"})
	assert.ErrorIs(t, err, context.Canceled)
}
