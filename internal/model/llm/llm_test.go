// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaClient_Generate(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"mistral:7b","response":"{\"tool\": \"none\"}","done":true}`))
	}))
	defer srv.Close()

	c := NewOllamaClient(ClientConfig{BaseURL: srv.URL, Timeout: time.Second})
	out, err := c.GenerateWithContext(context.Background(), "hello", GenerateOptions{Temperature: 0.1, TopP: 0.5})
	require.NoError(t, err)
	assert.Equal(t, `{"tool": "none"}`, out)

	assert.Equal(t, "mistral:7b", got["model"])
	assert.Equal(t, false, got["stream"])
	opts := got["options"].(map[string]interface{})
	assert.InDelta(t, 0.1, opts["temperature"], 1e-9)
	assert.InDelta(t, 0.5, opts["top_p"], 1e-9)
	_, hasNumPredict := opts["num_predict"]
	assert.False(t, hasNumPredict)
}

func TestOllamaClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewOllamaClient(ClientConfig{BaseURL: srv.URL})
	_, err := c.GenerateWithContext(context.Background(), "x", GenerateOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestOpenAIClient_Chat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body["model"])
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Sure!"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(ClientConfig{Provider: "openai", APIKey: "sk-test", BaseURL: srv.URL})
	out, err := c.GenerateWithContext(context.Background(), "hi", GenerateOptions{Temperature: 0.8, TopP: 0.9})
	require.NoError(t, err)
	assert.Equal(t, "Sure!", out)
}

func TestNewClient(t *testing.T) {
	c, err := NewClient(ClientConfig{Provider: "ollama"})
	require.NoError(t, err)
	assert.Equal(t, "ollama", c.Provider())

	c, err = NewClient(ClientConfig{Provider: "qwen", BaseURL: "http://localhost"})
	require.NoError(t, err)
	assert.Equal(t, "qwen", c.Provider())

	_, err = NewClient(ClientConfig{Provider: "bard"})
	assert.Error(t, err)
}

type countingClient struct {
	calls int
}

func (c *countingClient) GenerateWithContext(ctx context.Context, prompt string, options GenerateOptions) (string, error) {
	c.calls++
	return "ok", nil
}

func (c *countingClient) Model() string    { return "stub" }
func (c *countingClient) Provider() string { return "stub" }

func TestRateLimitedClient_ReleasesSlot(t *testing.T) {
	inner := &countingClient{}
	limiter := NewRateLimiter(map[string]LimitConfig{"stub": {MaxConcurrent: 1}}, LimitConfig{})
	c := NewRateLimitedClient(inner, limiter)

	for i := 0; i < 3; i++ {
		_, err := c.GenerateWithContext(context.Background(), "prompt", GenerateOptions{})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, 0, limiter.InFlight("stub"))
}

func TestRateLimiter_WaitHonoursContext(t *testing.T) {
	limiter := NewRateLimiter(map[string]LimitConfig{"busy": {MaxConcurrent: 1}}, LimitConfig{})
	require.NoError(t, limiter.Wait(context.Background(), "busy", 1))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := limiter.Wait(ctx, "busy", 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	limiter.Release("busy")
	assert.Equal(t, 0, limiter.InFlight("busy"))
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 1, estimateTokens("", 0))
	assert.Equal(t, 2+10, estimateTokens("12345678", 10))
}
