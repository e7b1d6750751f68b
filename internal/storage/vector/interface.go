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
	"errors"
)

var (
	// ErrIndexNotFound 索引不存在
	ErrIndexNotFound = errors.New("index not found")
	// ErrVectorNotFound 向量不存在
	ErrVectorNotFound = errors.New("vector not found")
	// ErrDimensionMismatch 向量维度与索引不一致
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Store 向量存储接口
type Store interface {
	// Create 创建向量索引
	Create(ctx context.Context, index *Index) error
	// Add 写入向量，ID 已存在时覆盖
	Add(ctx context.Context, indexName string, vectors []*Vector) error
	// Search 按相似度降序返回最多 TopK 条结果
	Search(ctx context.Context, indexName string, query []float64, options *SearchOptions) ([]*SearchResult, error)
	// Get 根据 ID 获取向量
	Get(ctx context.Context, indexName string, id string) (*Vector, error)
	// Delete 删除向量
	Delete(ctx context.Context, indexName string, id string) error
	// DeleteIndex 删除索引
	DeleteIndex(ctx context.Context, indexName string) error
	// ListIndexes 列出所有索引
	ListIndexes(ctx context.Context) ([]string, error)
	// Close 关闭存储连接
	Close() error
}

// Index 向量索引
type Index struct {
	Name      string            `json:"name"`
	Dimension int               `json:"dimension"`
	Distance  string            `json:"distance"` // cosine | euclidean | manhattan
	Metadata  map[string]string `json:"metadata"`
}

// Vector 向量数据
type Vector struct {
	ID       string            `json:"id"`
	Values   []float64         `json:"values"`
	Metadata map[string]string `json:"metadata"`
}

// SearchOptions 搜索选项
type SearchOptions struct {
	TopK           int               `json:"top_k"`
	Filter         map[string]string `json:"filter"`
	Threshold      float64           `json:"threshold"` // <= 0 表示不过滤
	IncludeVectors bool              `json:"include_vectors"`
}

// SearchResult 搜索结果
type SearchResult struct {
	ID       string            `json:"id"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata"`
	Values   []float64         `json:"values,omitempty"`
}
