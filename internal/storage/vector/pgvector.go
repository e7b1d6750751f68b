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
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

const pgIndexTable = "vector_indexes"

// PgStore 基于 Postgres + pgvector 的持久化向量存储，每个索引一张表
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore 连接 Postgres 并确保 vector 扩展与索引登记表存在
func NewPgStore(ctx context.Context, dsn string, maxConns int32) (*PgStore, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pgvector: parse dsn: %w", err)
	}
	if maxConns > 0 {
		config.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("pgvector: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgvector: ping: %w", err)
	}
	s := &PgStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PgStore) ensureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("pgvector: enable extension: %w", err)
	}
	_, err := s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+pgIndexTable+` (
		name TEXT PRIMARY KEY,
		dimension INT NOT NULL,
		distance TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("pgvector: create index registry: %w", err)
	}
	return nil
}

func tableIdent(indexName string) string {
	return pgx.Identifier{"kb_" + indexName}.Sanitize()
}

func (s *PgStore) lookup(ctx context.Context, indexName string) (*Index, error) {
	idx := &Index{Name: indexName}
	err := s.pool.QueryRow(ctx,
		`SELECT dimension, distance FROM `+pgIndexTable+` WHERE name = $1`, indexName,
	).Scan(&idx.Dimension, &idx.Distance)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, indexName)
	}
	if err != nil {
		return nil, fmt.Errorf("pgvector: lookup index %s: %w", indexName, err)
	}
	return idx, nil
}

// Create 创建向量索引（表 + 登记）
func (s *PgStore) Create(ctx context.Context, idx *Index) error {
	if idx == nil || idx.Name == "" || idx.Dimension <= 0 {
		return fmt.Errorf("invalid index definition")
	}
	distance := idx.Distance
	if distance == "" {
		distance = "cosine"
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO `+pgIndexTable+` (name, dimension, distance) VALUES ($1, $2, $3) ON CONFLICT (name) DO NOTHING`,
		idx.Name, idx.Dimension, distance)
	if err != nil {
		return fmt.Errorf("pgvector: register index %s: %w", idx.Name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("index with name %s already exists", idx.Name)
	}
	_, err = s.pool.Exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		embedding vector(%d) NOT NULL,
		metadata JSONB
	)`, tableIdent(idx.Name), idx.Dimension))
	if err != nil {
		return fmt.Errorf("pgvector: create table for %s: %w", idx.Name, err)
	}
	return nil
}

// Add 在一个事务内 upsert 全部向量
func (s *PgStore) Add(ctx context.Context, indexName string, vectors []*Vector) (err error) {
	idx, err := s.lookup(ctx, indexName)
	if err != nil {
		return err
	}
	for _, v := range vectors {
		if len(v.Values) != idx.Dimension {
			return fmt.Errorf("%w: got %d, index %s has %d", ErrDimensionMismatch, len(v.Values), indexName, idx.Dimension)
		}
	}
	if len(vectors) == 0 {
		return nil
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("pgvector: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			err = fmt.Errorf("pgvector: commit: %w", commitErr)
		}
	}()

	stmt := `INSERT INTO ` + tableIdent(indexName) + ` (id, embedding, metadata) VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET embedding = excluded.embedding, metadata = excluded.metadata`
	for _, v := range vectors {
		meta, marshalErr := json.Marshal(v.Metadata)
		if marshalErr != nil {
			return fmt.Errorf("pgvector: marshal metadata for %q: %w", v.ID, marshalErr)
		}
		if _, execErr := tx.Exec(ctx, stmt, v.ID, pgvector.NewVector(toFloat32(v.Values)), meta); execErr != nil {
			return fmt.Errorf("pgvector: upsert %q: %w", v.ID, execErr)
		}
	}
	return nil
}

// distanceExpr 返回 (距离表达式, 距离到相似度的换算 SQL)
func distanceExpr(distance string) (string, string) {
	switch distance {
	case "euclidean":
		return "embedding <-> $1", "1 / (1 + (embedding <-> $1))"
	case "manhattan":
		return "embedding <+> $1", "1 / (1 + (embedding <+> $1))"
	default:
		return "embedding <=> $1", "1 - (embedding <=> $1)"
	}
}

// Search 搜索向量
func (s *PgStore) Search(ctx context.Context, indexName string, query []float64, options *SearchOptions) ([]*SearchResult, error) {
	idx, err := s.lookup(ctx, indexName)
	if err != nil {
		return nil, err
	}
	if len(query) != idx.Dimension {
		return nil, fmt.Errorf("%w: query has %d, index %s has %d", ErrDimensionMismatch, len(query), indexName, idx.Dimension)
	}
	if options == nil {
		options = &SearchOptions{TopK: 10}
	}
	topK := options.TopK
	if topK <= 0 {
		topK = 10
	}

	order, score := distanceExpr(idx.Distance)
	var b strings.Builder
	b.WriteString("SELECT id, metadata, ")
	b.WriteString(score)
	b.WriteString(" AS score FROM ")
	b.WriteString(tableIdent(indexName))
	b.WriteString(" WHERE 1=1")
	args := []any{pgvector.NewVector(toFloat32(query))}
	for key, value := range options.Filter {
		fmt.Fprintf(&b, " AND metadata ->> $%d = $%d", len(args)+1, len(args)+2)
		args = append(args, key, value)
	}
	fmt.Fprintf(&b, " ORDER BY %s ASC, id ASC LIMIT $%d", order, len(args)+1)
	args = append(args, topK)

	rows, err := s.pool.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("pgvector: search: %w", err)
	}
	defer rows.Close()

	results := make([]*SearchResult, 0, topK)
	for rows.Next() {
		var (
			r       SearchResult
			metaRaw []byte
		)
		if err := rows.Scan(&r.ID, &metaRaw, &r.Score); err != nil {
			return nil, fmt.Errorf("pgvector: scan: %w", err)
		}
		if options.Threshold > 0 && r.Score < options.Threshold {
			continue
		}
		if len(metaRaw) > 0 {
			if err := json.Unmarshal(metaRaw, &r.Metadata); err != nil {
				return nil, fmt.Errorf("pgvector: decode metadata: %w", err)
			}
		}
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgvector: search rows: %w", err)
	}
	return results, nil
}

// Get 根据 ID 获取向量
func (s *PgStore) Get(ctx context.Context, indexName string, id string) (*Vector, error) {
	if _, err := s.lookup(ctx, indexName); err != nil {
		return nil, err
	}
	var (
		text    string
		metaRaw []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT embedding::text, metadata FROM `+tableIdent(indexName)+` WHERE id = $1`, id,
	).Scan(&text, &metaRaw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrVectorNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("pgvector: get %s: %w", id, err)
	}
	values, err := parseVectorText(text)
	if err != nil {
		return nil, err
	}
	v := &Vector{ID: id, Values: values}
	if len(metaRaw) > 0 {
		if err := json.Unmarshal(metaRaw, &v.Metadata); err != nil {
			return nil, fmt.Errorf("pgvector: decode metadata: %w", err)
		}
	}
	return v, nil
}

// Delete 删除向量
func (s *PgStore) Delete(ctx context.Context, indexName string, id string) error {
	if _, err := s.lookup(ctx, indexName); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM `+tableIdent(indexName)+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgvector: delete %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrVectorNotFound, id)
	}
	return nil
}

// DeleteIndex 删除索引及其表
func (s *PgStore) DeleteIndex(ctx context.Context, indexName string) error {
	if _, err := s.lookup(ctx, indexName); err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, `DROP TABLE IF EXISTS `+tableIdent(indexName)); err != nil {
		return fmt.Errorf("pgvector: drop table %s: %w", indexName, err)
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM `+pgIndexTable+` WHERE name = $1`, indexName); err != nil {
		return fmt.Errorf("pgvector: unregister index %s: %w", indexName, err)
	}
	return nil
}

// ListIndexes 列出所有索引
func (s *PgStore) ListIndexes(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT name FROM `+pgIndexTable+` ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("pgvector: list indexes: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Close 关闭连接池
func (s *PgStore) Close() error {
	s.pool.Close()
	return nil
}

func toFloat32(values []float64) []float32 {
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out
}

// parseVectorText 解析 pgvector 文本格式 "[1,2,3]"
func parseVectorText(text string) ([]float64, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(strings.TrimPrefix(text, "["), "]")
	if text == "" {
		return nil, nil
	}
	parts := strings.Split(text, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("pgvector: parse vector: %w", err)
		}
		out[i] = f
	}
	return out, nil
}
