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
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// OllamaClient 本地 Ollama 服务客户端
type OllamaClient struct {
	model   string
	baseURL string
	client  *resty.Client
}

// NewOllamaClient 创建 Ollama 客户端
func NewOllamaClient(cfg ClientConfig) *OllamaClient {
	model := cfg.Model
	if model == "" {
		model = "mistral:7b"
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaClient{
		model:   model,
		baseURL: baseURL,
		client:  newRestyClient(cfg, 120*time.Second),
	}
}

func ollamaOptions(options GenerateOptions) map[string]interface{} {
	opts := map[string]interface{}{"temperature": options.Temperature}
	if options.TopP > 0 {
		opts["top_p"] = options.TopP
	}
	if options.MaxTokens > 0 {
		opts["num_predict"] = options.MaxTokens
	}
	if len(options.Stop) > 0 {
		opts["stop"] = options.Stop
	}
	return opts
}

// GenerateWithContext POST /api/generate（非流式）
func (c *OllamaClient) GenerateWithContext(ctx context.Context, prompt string, options GenerateOptions) (string, error) {
	var result struct {
		Response string `json:"response"`
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"model":   c.model,
			"prompt":  prompt,
			"stream":  false,
			"options": ollamaOptions(options),
		}).
		SetResult(&result).
		Post(c.baseURL + "/api/generate")
	if err != nil {
		return "", fmt.Errorf("call ollama generate: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("ollama generate returned %d: %s", resp.StatusCode(), resp.String())
	}
	return result.Response, nil
}

// Model 返回模型名称
func (c *OllamaClient) Model() string { return c.model }

// Provider 返回提供商名称
func (c *OllamaClient) Provider() string { return "ollama" }
