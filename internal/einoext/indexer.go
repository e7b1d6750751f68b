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
	"fmt"
	"strconv"

	einoindexer "github.com/cloudwego/eino/components/indexer"
	"github.com/cloudwego/eino/schema"

	"campus-assistant/internal/pipeline/common"
	"campus-assistant/internal/storage/vector"
)

// StoreIndexer 基于 vector.Store 实现的 Eino indexer.Indexer（memory / postgres 后端）
type StoreIndexer struct {
	vectorStore  vector.Store
	defaultIndex string
	distance     string
	batchSize    int
}

// StoreIndexerConfig StoreIndexer 构造参数
type StoreIndexerConfig struct {
	VectorStore  vector.Store
	DefaultIndex string
	Distance     string
	BatchSize    int
}

// NewStoreIndexer 创建基于 vector.Store 的 Eino Indexer
func NewStoreIndexer(cfg *StoreIndexerConfig) (*StoreIndexer, error) {
	if cfg == nil || cfg.VectorStore == nil {
		return nil, fmt.Errorf("StoreIndexer requires VectorStore")
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	idx := cfg.DefaultIndex
	if idx == "" {
		idx = defaultIndex
	}
	return &StoreIndexer{
		vectorStore:  cfg.VectorStore,
		defaultIndex: idx,
		distance:     cfg.Distance,
		batchSize:    batchSize,
	}, nil
}

// Store 实现 indexer.Indexer；索引在首次写入时按向量维度创建
func (m *StoreIndexer) Store(ctx context.Context, docs []*schema.Document, opts ...einoindexer.Option) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	options := einoindexer.GetCommonOptions(nil, opts...)
	indexName := m.defaultIndex
	if len(options.SubIndexes) > 0 && options.SubIndexes[0] != "" {
		indexName = options.SubIndexes[0]
	}

	ids := make([]string, 0, len(docs))
	for start := 0; start < len(docs); start += m.batchSize {
		end := min(start+m.batchSize, len(docs))
		batch := docs[start:end]
		if err := embedMissing(ctx, batch, options); err != nil {
			return nil, err
		}

		vecs := make([]*vector.Vector, 0, len(batch))
		for _, doc := range batch {
			if doc == nil {
				continue
			}
			values := doc.DenseVector()
			if len(values) == 0 {
				return nil, fmt.Errorf("doc %s has no vector and no Embedding option", doc.ID)
			}
			vecs = append(vecs, &vector.Vector{
				ID:       doc.ID,
				Values:   values,
				Metadata: documentMetadata(doc),
			})
			ids = append(ids, doc.ID)
		}
		if len(vecs) == 0 {
			continue
		}
		if err := vector.EnsureIndex(ctx, m.vectorStore, indexName, len(vecs[0].Values), m.distance); err != nil {
			return nil, fmt.Errorf("ensure index %s: %w", indexName, err)
		}
		if err := m.vectorStore.Add(ctx, indexName, vecs); err != nil {
			return nil, fmt.Errorf("vector store add: %w", err)
		}
	}
	return ids, nil
}

// embedMissing 对批内无向量的文档做一次批量向量化
func embedMissing(ctx context.Context, batch []*schema.Document, options *einoindexer.Options) error {
	var (
		texts   []string
		targets []*schema.Document
	)
	for _, doc := range batch {
		if doc != nil && len(doc.DenseVector()) == 0 && doc.Content != "" {
			texts = append(texts, doc.Content)
			targets = append(targets, doc)
		}
	}
	if len(texts) == 0 || options.Embedding == nil {
		return nil
	}
	vecs, err := options.Embedding.EmbedStrings(ctx, texts)
	if err != nil {
		return fmt.Errorf("indexer: %w: %w", common.ErrEmbeddingFailed, err)
	}
	if len(vecs) != len(targets) {
		return fmt.Errorf("indexer: %w: got %d vectors for %d texts", common.ErrEmbeddingFailed, len(vecs), len(targets))
	}
	for i, doc := range targets {
		doc.WithDenseVector(vecs[i])
	}
	return nil
}

// documentMetadata 把 Document 元数据转为 map[string]string，并写入 content
func documentMetadata(doc *schema.Document) map[string]string {
	meta := make(map[string]string, len(doc.MetaData)+1)
	for k, v := range doc.MetaData {
		switch val := v.(type) {
		case string:
			meta[k] = val
		case int:
			meta[k] = strconv.Itoa(val)
		case float64:
			meta[k] = strconv.FormatFloat(val, 'f', -1, 64)
		}
	}
	meta[MetaContent] = doc.Content
	return meta
}
