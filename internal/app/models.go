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

package app

import (
	"context"

	einoembed "github.com/cloudwego/eino/components/embedding"

	"campus-assistant/internal/model/embedding"
	"campus-assistant/internal/model/llm"
	"campus-assistant/pkg/errors"
)

// NewLLMClient 创建生成模型客户端；配置了 rate_limits.llm 时包一层限流
func (b *Bootstrap) NewLLMClient(ctx context.Context) (llm.Client, error) {
	mc := b.Config.Model.LLM
	apiKey, err := b.resolveSecret(ctx, "model.llm.api_key", mc.APIKey)
	if err != nil {
		return nil, err
	}
	if mc.Provider != "" && mc.Provider != "ollama" && apiKey == "" {
		return nil, errors.Wrapf(errors.ErrNotConfigured, "model.llm.api_key for %s", mc.Provider)
	}
	client, err := llm.NewClient(llm.ClientConfig{
		Provider:   mc.Provider,
		Model:      mc.Model,
		APIKey:     apiKey,
		BaseURL:    mc.BaseURL,
		Timeout:    mc.Timeout,
		MaxRetries: mc.MaxRetries,
	})
	if err != nil {
		return nil, errors.Wrap(err, "init llm client")
	}

	limits := b.Config.RateLimits.LLM
	if len(limits) == 0 {
		return client, nil
	}
	configs := make(map[string]llm.LimitConfig, len(limits))
	for provider, l := range limits {
		configs[provider] = llm.LimitConfig{
			TokensPerMinute:   l.TokensPerMinute,
			RequestsPerMinute: l.RequestsPerMinute,
			MaxConcurrent:     l.MaxConcurrent,
		}
	}
	return llm.NewRateLimitedClient(client, llm.NewRateLimiter(configs, llm.LimitConfig{})), nil
}

// NewEmbedder 创建向量化客户端
func (b *Bootstrap) NewEmbedder(ctx context.Context) (einoembed.Embedder, error) {
	ec := b.Config.Model.Embedding
	apiKey, err := b.resolveSecret(ctx, "model.embedding.api_key", ec.APIKey)
	if err != nil {
		return nil, err
	}
	emb, err := embedding.NewEmbedder(embedding.Config{
		Provider:  ec.Provider,
		Model:     ec.Model,
		BaseURL:   ec.BaseURL,
		APIKey:    apiKey,
		Dimension: ec.Dimension,
		Timeout:   ec.Timeout,
	})
	if err != nil {
		return nil, errors.Wrap(err, "init embedder")
	}
	return emb, nil
}
