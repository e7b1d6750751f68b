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
	"fmt"
	"net/http"
	"strings"

	einoembed "github.com/cloudwego/eino/components/embedding"
	"github.com/go-resty/resty/v2"
)

// OllamaEmbedder 调用 Ollama /api/embeddings，逐条向量化
type OllamaEmbedder struct {
	model     string
	baseURL   string
	dimension int
	client    *resty.Client
}

// NewOllamaEmbedder 创建 Ollama 向量化客户端
func NewOllamaEmbedder(cfg Config) *OllamaEmbedder {
	model := cfg.Model
	if model == "" {
		model = "nomic-embed-text:v1.5"
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaEmbedder{
		model:     model,
		baseURL:   baseURL,
		dimension: cfg.Dimension,
		client:    newRestyClient(cfg.Timeout),
	}
}

// EmbedStrings 实现 einoembed.Embedder
func (e *OllamaEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...einoembed.Option) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))
	for i, text := range texts {
		var result struct {
			Embedding []float64 `json:"embedding"`
		}
		resp, err := e.client.R().
			SetContext(ctx).
			SetBody(map[string]interface{}{"model": e.model, "prompt": text}).
			SetResult(&result).
			Post(e.baseURL + "/api/embeddings")
		if err != nil {
			return nil, fmt.Errorf("ollama embeddings: %w", err)
		}
		if resp.StatusCode() != http.StatusOK {
			return nil, fmt.Errorf("ollama embeddings returned %d: %s", resp.StatusCode(), resp.String())
		}
		if len(result.Embedding) == 0 {
			return nil, fmt.Errorf("ollama returned empty embedding for text %d", i)
		}
		if err := checkDimension(result.Embedding, e.dimension); err != nil {
			return nil, err
		}
		out = append(out, normalize(result.Embedding))
	}
	return out, nil
}
