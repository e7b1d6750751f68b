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

package einoext

import (
	"context"
	"errors"
	"fmt"

	redisindexer "github.com/cloudwego/eino-ext/components/indexer/redis"
	redisretriever "github.com/cloudwego/eino-ext/components/retriever/redis"
	einoembed "github.com/cloudwego/eino/components/embedding"
	einoindexer "github.com/cloudwego/eino/components/indexer"
	einoretriever "github.com/cloudwego/eino/components/retriever"
	"github.com/redis/go-redis/v9"

	"campus-assistant/internal/storage/vector"
	"campus-assistant/pkg/config"
)

const (
	defaultBatchSize = 100
	defaultTopK      = 3
	defaultIndex     = "docs"

	// MetaContent 元数据中保存切片原文的键
	MetaContent = "content"
)

// Components 知识库所需的 Eino 组件及其底层连接
type Components struct {
	Indexer   einoindexer.Indexer
	Retriever einoretriever.Retriever
	Backend   string
	closers   []func() error
}

// Close 关闭底层连接
func (c *Components) Close() error {
	var errs []error
	for _, fn := range c.closers {
		errs = append(errs, fn())
	}
	return errors.Join(errs...)
}

// New 根据 VectorConfig 创建 Indexer/Retriever：memory、postgres 走 vector.Store，redis 走 eino-ext
func New(ctx context.Context, cfg config.VectorConfig, embedder einoembed.Embedder) (*Components, error) {
	switch cfg.Type {
	case "", "memory", "postgres":
		store, err := vector.NewStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return FromStore(store, cfg)
	case "redis":
		return newRedisComponents(ctx, cfg, embedder)
	default:
		return nil, fmt.Errorf("unsupported vector type: %s", cfg.Type)
	}
}

// FromStore 以已有 vector.Store 构造组件，测试中常用
func FromStore(store vector.Store, cfg config.VectorConfig) (*Components, error) {
	backend := cfg.Type
	if backend == "" {
		backend = "memory"
	}
	idx, err := NewStoreIndexer(&StoreIndexerConfig{
		VectorStore:  store,
		DefaultIndex: cfg.Index,
		Distance:     cfg.Distance,
	})
	if err != nil {
		return nil, err
	}
	ret, err := NewStoreRetriever(&StoreRetrieverConfig{
		VectorStore:  store,
		DefaultIndex: cfg.Index,
	})
	if err != nil {
		return nil, err
	}
	return &Components{
		Indexer:   idx,
		Retriever: ret,
		Backend:   backend,
		closers:   []func() error{store.Close},
	}, nil
}

func newRedisComponents(ctx context.Context, cfg config.VectorConfig, embedder einoembed.Embedder) (*Components, error) {
	client := redis.NewClient(RedisOptionsFromVectorConfig(cfg))
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	index := cfg.Index
	if index == "" {
		index = defaultIndex
	}
	idx, err := redisindexer.NewIndexer(ctx, &redisindexer.IndexerConfig{
		Client:    client,
		KeyPrefix: index + ":",
		BatchSize: defaultBatchSize,
		Embedding: embedder,
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis indexer: %w", err)
	}
	ret, err := redisretriever.NewRetriever(ctx, &redisretriever.RetrieverConfig{
		Client:    client,
		Index:     index,
		TopK:      defaultTopK,
		Embedding: embedder,
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis retriever: %w", err)
	}
	return &Components{
		Indexer:   idx,
		Retriever: ret,
		Backend:   "redis",
		closers:   []func() error{client.Close},
	}, nil
}

// RedisOptionsFromVectorConfig 从 VectorConfig 构造 redis.Options
func RedisOptionsFromVectorConfig(cfg config.VectorConfig) *redis.Options {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if opts.Addr == "" {
		opts.Addr = "localhost:6379"
	}
	// Redis Stack 向量检索需 Protocol 2、UnstableResp3 true
	opts.Protocol = 2
	opts.UnstableResp3 = true
	return opts
}
