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

package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func norm(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}

func TestOllamaEmbedder(t *testing.T) {
	var prompts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "nomic-embed-text:v1.5", body["model"])
		prompts = append(prompts, body["prompt"])
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embedding":[3,4,0]}`))
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(Config{BaseURL: srv.URL, Dimension: 3})
	vecs, err := e.EmbedStrings(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []string{"a", "b"}, prompts)
	assert.InDelta(t, 0.6, vecs[0][0], 1e-9)
	assert.InDelta(t, 0.8, vecs[0][1], 1e-9)
}

func TestOllamaEmbedder_DimensionMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embedding":[1,2]}`))
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(Config{BaseURL: srv.URL, Dimension: 768})
	_, err := e.EmbedStrings(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 768")
}

func TestOpenAIEmbedder_ReordersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[0,2]},{"index":0,"embedding":[5,0]}]}`))
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(Config{BaseURL: srv.URL, APIKey: "sk-test"})
	vecs, err := e.EmbedStrings(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, vecs[0])
	assert.Equal(t, []float64{0, 1}, vecs[1])
}

func TestHashEmbedder(t *testing.T) {
	e := NewHashEmbedder(64)
	vecs, err := e.EmbedStrings(context.Background(), []string{
		"Tech Fest on March 5",
		"tech fest, ON march 5!",
		"",
	})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Len(t, vecs[0], 64)
	assert.InDelta(t, 1.0, norm(vecs[0]), 1e-9)
	// 大小写与标点不影响结果
	assert.Equal(t, vecs[0], vecs[1])
	assert.Equal(t, 0.0, norm(vecs[2]))

	again, err := e.EmbedStrings(context.Background(), []string{"Tech Fest on March 5"})
	require.NoError(t, err)
	assert.Equal(t, vecs[0], again[0])
}

func TestNewEmbedder(t *testing.T) {
	e, err := NewEmbedder(Config{Provider: "hash", Dimension: 32})
	require.NoError(t, err)
	assert.Equal(t, 32, e.(*HashEmbedder).Dimension())

	_, err = NewEmbedder(Config{Provider: "ollama"})
	require.NoError(t, err)

	_, err = NewEmbedder(Config{Provider: "word2vec"})
	assert.Error(t, err)
}
