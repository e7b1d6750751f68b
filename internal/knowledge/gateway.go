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

// Package knowledge 实现知识库网关：切片写入与相似度查询
package knowledge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	einoembed "github.com/cloudwego/eino/components/embedding"
	einoindexer "github.com/cloudwego/eino/components/indexer"
	einoretriever "github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"

	"campus-assistant/internal/einoext"
	"campus-assistant/internal/pipeline/common"
	"campus-assistant/internal/splitter"
	"campus-assistant/pkg/log"
	"campus-assistant/pkg/metrics"
	"campus-assistant/pkg/tracing"
)

const (
	// MetaSource 元数据：来源路径
	MetaSource = "source"
	// MetaChunkIndex 元数据：切片序号
	MetaChunkIndex = "chunk_index"
)

// Config Gateway 构造参数
type Config struct {
	Indexer   einoindexer.Indexer
	Retriever einoretriever.Retriever
	Embedder  einoembed.Embedder
	Backend   string
	// Timeout 单次查询超时，<= 0 不限制
	Timeout time.Duration
	Logger  *log.Logger
}

// Gateway 知识库网关，持有索引与检索组件；构造后只读，可在多处注入
type Gateway struct {
	indexer   einoindexer.Indexer
	retriever einoretriever.Retriever
	embedder  einoembed.Embedder
	backend   string
	timeout   time.Duration
	logger    *log.Logger
	cause     error
}

// NewGateway 创建可用的 Gateway
func NewGateway(cfg Config) (*Gateway, error) {
	if cfg.Indexer == nil || cfg.Retriever == nil {
		return nil, fmt.Errorf("knowledge gateway requires indexer and retriever")
	}
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("knowledge gateway requires embedder")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Nop()
	}
	backend := cfg.Backend
	if backend == "" {
		backend = "memory"
	}
	return &Gateway{
		indexer:   cfg.Indexer,
		retriever: cfg.Retriever,
		embedder:  cfg.Embedder,
		backend:   backend,
		timeout:   cfg.Timeout,
		logger:    logger,
	}, nil
}

// FromComponents 以 einoext.Components 创建 Gateway
func FromComponents(c *einoext.Components, embedder einoembed.Embedder, timeout time.Duration, logger *log.Logger) (*Gateway, error) {
	return NewGateway(Config{
		Indexer:   c.Indexer,
		Retriever: c.Retriever,
		Embedder:  embedder,
		Backend:   c.Backend,
		Timeout:   timeout,
		Logger:    logger,
	})
}

// Unavailable 返回不可用的 Gateway；Add/Query 均返回 ErrRetrievalUnavailable
func Unavailable(cause error) *Gateway {
	return &Gateway{backend: "unavailable", logger: log.Nop(), cause: cause}
}

// Available 知识库是否已初始化
func (g *Gateway) Available() bool {
	return g != nil && g.indexer != nil && g.retriever != nil
}

func (g *Gateway) unavailable() error {
	if g != nil && g.cause != nil {
		return fmt.Errorf("%w: %v", common.ErrRetrievalUnavailable, g.cause)
	}
	return common.ErrRetrievalUnavailable
}

// Query 返回与 text 最相似的至多 K 条切片文本，按得分降序；库为空时返回空结果
func (g *Gateway) Query(ctx context.Context, q common.KnowledgeQuery) (*common.RetrievalResult, error) {
	if !g.Available() {
		return nil, g.unavailable()
	}
	q.Text = strings.TrimSpace(q.Text)
	if err := q.Validate(); err != nil {
		return nil, err
	}

	ctx, span := tracing.StartRetrievalSpan(ctx, q.K)
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	var docs []*schema.Document
	docs, err = g.retriever.Retrieve(ctx, q.Text,
		einoretriever.WithTopK(q.K),
		einoretriever.WithEmbedding(g.embedder),
	)
	elapsed := time.Since(start)
	metrics.RetrievalDuration.WithLabelValues(g.backend).Observe(elapsed.Seconds())
	if err != nil {
		err = common.NewPipelineError("retrieve", "knowledge query failed", fmt.Errorf("%w: %v", common.ErrRetrievalFailed, err))
		return nil, err
	}

	result := &common.RetrievalResult{
		Texts:       make([]string, 0, min(len(docs), q.K)),
		Scores:      make([]float64, 0, min(len(docs), q.K)),
		ProcessTime: elapsed,
	}
	for _, d := range docs {
		if d == nil || len(result.Texts) == q.K {
			continue
		}
		result.Texts = append(result.Texts, d.Content)
		result.Scores = append(result.Scores, d.Score())
	}
	g.logger.Debug("knowledge query", "k", q.K, "hits", result.Len(), "backend", g.backend, "elapsed", elapsed)
	return result, nil
}

// Add 写入平行的 texts/ids；同一 id 再次写入即覆盖
func (g *Gateway) Add(ctx context.Context, texts, ids []string) error {
	if len(texts) != len(ids) {
		return common.NewValidationError("ids", fmt.Sprintf("got %d ids for %d chunks", len(ids), len(texts)))
	}
	chunks := make([]common.Chunk, len(texts))
	for i := range texts {
		chunks[i] = common.Chunk{ID: ids[i], Text: texts[i], Index: i}
	}
	_, err := g.AddChunks(ctx, chunks)
	return err
}

// AddChunks 校验全部切片后一次性写入，返回写入条数
func (g *Gateway) AddChunks(ctx context.Context, chunks []common.Chunk) (int, error) {
	if !g.Available() {
		return 0, g.unavailable()
	}
	if err := validateChunks(chunks); err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	docs := make([]*schema.Document, len(chunks))
	for i, c := range chunks {
		meta := map[string]any{MetaChunkIndex: c.Index}
		if c.Source != "" {
			meta[MetaSource] = c.Source
		}
		docs[i] = &schema.Document{ID: c.ID, Content: c.Text, MetaData: meta}
	}
	if _, err := g.indexer.Store(ctx, docs, einoindexer.WithEmbedding(g.embedder)); err != nil {
		return 0, common.NewPipelineError("index", "store chunks failed", fmt.Errorf("%w: %v", common.ErrIndexingFailed, err))
	}
	metrics.IngestChunksTotal.WithLabelValues(g.backend).Add(float64(len(docs)))
	return len(docs), nil
}

func validateChunks(chunks []common.Chunk) error {
	seen := make(map[string]struct{}, len(chunks))
	for i, c := range chunks {
		if c.ID == "" {
			return common.NewValidationError("ids", fmt.Sprintf("chunk %d has empty id", i))
		}
		if _, dup := seen[c.ID]; dup {
			return common.NewValidationError("ids", fmt.Sprintf("duplicate id %q", c.ID))
		}
		seen[c.ID] = struct{}{}
		if strings.TrimSpace(c.Text) == "" {
			return common.NewValidationError("chunks", fmt.Sprintf("chunk %q is blank", c.ID))
		}
	}
	return nil
}

// IngestSource 切分 text 并以 source 派生的 id 写入，返回切片
func (g *Gateway) IngestSource(ctx context.Context, source, text string, s splitter.Splitter) ([]common.Chunk, error) {
	if !g.Available() {
		return nil, g.unavailable()
	}
	if s == nil {
		return nil, fmt.Errorf("ingest %s: splitter is nil", source)
	}
	pieces, err := s.Split(text)
	if err != nil {
		return nil, err
	}
	ids := ChunkIDs(source, len(pieces))
	chunks := make([]common.Chunk, len(pieces))
	for i, p := range pieces {
		chunks[i] = common.Chunk{ID: ids[i], Text: p, Source: source, Index: i}
	}
	if _, err := g.AddChunks(ctx, chunks); err != nil {
		return nil, err
	}
	g.logger.Info("source ingested", "source", source, "chunks", len(chunks), "splitter", s.Name())
	return chunks, nil
}

// ChunkID 由来源与序号派生切片 id：<文件名>-<路径摘要>-<序号>。
// 同一路径重复导入得到相同 id；不同目录下的同名文件互不冲突。
func ChunkID(source string, index int) string {
	return fmt.Sprintf("%s-%d", sourcePrefix(source), index)
}

// ChunkIDs 批量派生 id
func ChunkIDs(source string, n int) []string {
	prefix := sourcePrefix(source)
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s-%d", prefix, i)
	}
	return ids
}

func sourcePrefix(source string) string {
	path := source
	if abs, err := filepath.Abs(source); err == nil {
		path = abs
	}
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	sum := sha256.Sum256([]byte(path))
	return base + "-" + hex.EncodeToString(sum[:4])
}
