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

package vector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryStore 内存向量存储实现
type MemoryStore struct {
	indexes map[string]*index
	mu      sync.RWMutex
}

type index struct {
	index   *Index
	vectors map[string]*Vector
}

// NewMemoryStore 创建新的内存向量存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		indexes: make(map[string]*index),
	}
}

// Create 创建向量索引
func (s *MemoryStore) Create(ctx context.Context, idx *Index) error {
	if idx == nil || idx.Name == "" || idx.Dimension <= 0 {
		return fmt.Errorf("invalid index definition")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.indexes[idx.Name]; exists {
		return fmt.Errorf("index with name %s already exists", idx.Name)
	}
	s.indexes[idx.Name] = &index{
		index:   idx,
		vectors: make(map[string]*Vector),
	}
	return nil
}

// Add 添加向量；先整体校验维度，任一不合法则不写入
func (s *MemoryStore) Add(ctx context.Context, indexName string, vectors []*Vector) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, exists := s.indexes[indexName]
	if !exists {
		return fmt.Errorf("%w: %s", ErrIndexNotFound, indexName)
	}
	for _, v := range vectors {
		if len(v.Values) != idx.index.Dimension {
			return fmt.Errorf("%w: got %d, index %s has %d", ErrDimensionMismatch, len(v.Values), indexName, idx.index.Dimension)
		}
	}
	for _, v := range vectors {
		idx.vectors[v.ID] = cloneVector(v)
	}
	return nil
}

// Search 搜索向量
func (s *MemoryStore) Search(ctx context.Context, indexName string, query []float64, options *SearchOptions) ([]*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, exists := s.indexes[indexName]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, indexName)
	}
	if len(query) != idx.index.Dimension {
		return nil, fmt.Errorf("%w: query has %d, index %s has %d", ErrDimensionMismatch, len(query), indexName, idx.index.Dimension)
	}
	if options == nil {
		options = &SearchOptions{TopK: 10}
	}

	results := make([]*SearchResult, 0, len(idx.vectors))
	for id, v := range idx.vectors {
		if !matchFilter(v.Metadata, options.Filter) {
			continue
		}
		score := similarity(query, v.Values, idx.index.Distance)
		if options.Threshold > 0 && score < options.Threshold {
			continue
		}
		r := &SearchResult{ID: id, Score: score, Metadata: v.Metadata}
		if options.IncludeVectors {
			r.Values = v.Values
		}
		results = append(results, r)
	}

	// 同分时按 ID 排序，保证结果稳定
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if options.TopK > 0 && len(results) > options.TopK {
		results = results[:options.TopK]
	}
	return results, nil
}

// Get 根据 ID 获取向量
func (s *MemoryStore) Get(ctx context.Context, indexName string, id string) (*Vector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, exists := s.indexes[indexName]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, indexName)
	}
	v, exists := idx.vectors[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrVectorNotFound, id)
	}
	return cloneVector(v), nil
}

// Delete 删除向量
func (s *MemoryStore) Delete(ctx context.Context, indexName string, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, exists := s.indexes[indexName]
	if !exists {
		return fmt.Errorf("%w: %s", ErrIndexNotFound, indexName)
	}
	if _, exists := idx.vectors[id]; !exists {
		return fmt.Errorf("%w: %s", ErrVectorNotFound, id)
	}
	delete(idx.vectors, id)
	return nil
}

// DeleteIndex 删除索引
func (s *MemoryStore) DeleteIndex(ctx context.Context, indexName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.indexes[indexName]; !exists {
		return fmt.Errorf("%w: %s", ErrIndexNotFound, indexName)
	}
	delete(s.indexes, indexName)
	return nil
}

// ListIndexes 列出所有索引
func (s *MemoryStore) ListIndexes(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.indexes))
	for name := range s.indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Count 索引中的向量数
func (s *MemoryStore) Count(indexName string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx, ok := s.indexes[indexName]; ok {
		return len(idx.vectors)
	}
	return 0
}

// Close 关闭存储连接
func (s *MemoryStore) Close() error {
	return nil
}

func cloneVector(v *Vector) *Vector {
	out := &Vector{ID: v.ID, Values: append([]float64(nil), v.Values...)}
	if v.Metadata != nil {
		out.Metadata = make(map[string]string, len(v.Metadata))
		for k, val := range v.Metadata {
			out.Metadata[k] = val
		}
	}
	return out
}

func matchFilter(metadata, filter map[string]string) bool {
	for key, value := range filter {
		if metadata == nil || metadata[key] != value {
			return false
		}
	}
	return true
}

// similarity 计算向量相似度，分值越大越相似
func similarity(query, v []float64, distance string) float64 {
	switch distance {
	case "euclidean":
		return 1.0 / (1.0 + euclideanDistance(query, v))
	case "manhattan":
		return 1.0 / (1.0 + manhattanDistance(query, v))
	default:
		return cosineSimilarity(query, v)
	}
}

func cosineSimilarity(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func euclideanDistance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

func manhattanDistance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return sum
}
