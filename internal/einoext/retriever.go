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

	einoretriever "github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"

	"campus-assistant/internal/pipeline/common"
	"campus-assistant/internal/storage/vector"
)

// StoreRetriever 基于 vector.Store 实现的 Eino retriever.Retriever
type StoreRetriever struct {
	vectorStore  vector.Store
	defaultIndex string
	defaultTopK  int
}

// StoreRetrieverConfig StoreRetriever 构造参数
type StoreRetrieverConfig struct {
	VectorStore  vector.Store
	DefaultIndex string
	DefaultTopK  int
}

// NewStoreRetriever 创建基于 vector.Store 的 Eino Retriever
func NewStoreRetriever(cfg *StoreRetrieverConfig) (*StoreRetriever, error) {
	if cfg == nil || cfg.VectorStore == nil {
		return nil, fmt.Errorf("StoreRetriever requires VectorStore")
	}
	idx := cfg.DefaultIndex
	if idx == "" {
		idx = defaultIndex
	}
	topK := cfg.DefaultTopK
	if topK <= 0 {
		topK = defaultTopK
	}
	return &StoreRetriever{
		vectorStore:  cfg.VectorStore,
		defaultIndex: idx,
		defaultTopK:  topK,
	}, nil
}

// Retrieve 实现 retriever.Retriever；索引尚未创建（库为空）时返回空结果
func (m *StoreRetriever) Retrieve(ctx context.Context, query string, opts ...einoretriever.Option) ([]*schema.Document, error) {
	options := einoretriever.GetCommonOptions(nil, opts...)
	indexName := m.defaultIndex
	if options.Index != nil && *options.Index != "" {
		indexName = *options.Index
	}
	topK := m.defaultTopK
	if options.TopK != nil && *options.TopK > 0 {
		topK = *options.TopK
	}
	var threshold float64
	if options.ScoreThreshold != nil {
		threshold = *options.ScoreThreshold
	}

	if options.Embedding == nil {
		return nil, fmt.Errorf("retriever requires WithEmbedding to embed the query")
	}
	vecs, err := options.Embedding.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("retriever: %w: %w", common.ErrEmbeddingFailed, err)
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("embedding returned empty")
	}

	results, err := m.vectorStore.Search(ctx, indexName, vecs[0], &vector.SearchOptions{
		TopK:      topK,
		Threshold: threshold,
	})
	if errors.Is(err, vector.ErrIndexNotFound) {
		return []*schema.Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("vector store search: %w", err)
	}

	docs := make([]*schema.Document, 0, len(results))
	for _, sr := range results {
		meta := make(map[string]any, len(sr.Metadata))
		for k, v := range sr.Metadata {
			meta[k] = v
		}
		d := &schema.Document{
			ID:       sr.ID,
			Content:  sr.Metadata[MetaContent],
			MetaData: meta,
		}
		d.WithScore(sr.Score)
		docs = append(docs, d)
	}
	return docs, nil
}
