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
	"testing"

	einoindexer "github.com/cloudwego/eino/components/indexer"
	einoretriever "github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-assistant/internal/model/embedding"
	"campus-assistant/internal/storage/vector"
	"campus-assistant/pkg/config"
)

func newMemoryComponents(t *testing.T) (*Components, *vector.MemoryStore) {
	t.Helper()
	store := vector.NewMemoryStore()
	c, err := FromStore(store, config.VectorConfig{Index: "kb"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, store
}

func TestStoreIndexer_EmbedsAndCreatesIndex(t *testing.T) {
	ctx := context.Background()
	c, store := newMemoryComponents(t)
	emb := embedding.NewHashEmbedder(32)

	ids, err := c.Indexer.Store(ctx, []*schema.Document{
		{ID: "a-0", Content: "library opens at nine", MetaData: map[string]any{"source": "a.pdf", "chunk_index": 0}},
		{ID: "a-1", Content: "canteen closes at ten"},
	}, einoindexer.WithEmbedding(emb))
	require.NoError(t, err)
	assert.Equal(t, []string{"a-0", "a-1"}, ids)
	assert.Equal(t, 2, store.Count("kb"))

	v, err := store.Get(ctx, "kb", "a-0")
	require.NoError(t, err)
	assert.Equal(t, "library opens at nine", v.Metadata[MetaContent])
	assert.Equal(t, "a.pdf", v.Metadata["source"])
	assert.Equal(t, "0", v.Metadata["chunk_index"])
}

func TestStoreIndexer_RequiresVector(t *testing.T) {
	c, _ := newMemoryComponents(t)
	_, err := c.Indexer.Store(context.Background(), []*schema.Document{{ID: "x", Content: "text"}})
	require.Error(t, err)
}

func TestStoreRetriever_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c, _ := newMemoryComponents(t)
	emb := embedding.NewHashEmbedder(1024)

	_, err := c.Indexer.Store(ctx, []*schema.Document{
		{ID: "1", Content: "hostel fees are due in july"},
		{ID: "2", Content: "library opens at nine"},
		{ID: "3", Content: "sports day is in december"},
	}, einoindexer.WithEmbedding(emb))
	require.NoError(t, err)

	docs, err := c.Retriever.Retrieve(ctx, "library opens",
		einoretriever.WithEmbedding(emb), einoretriever.WithTopK(2))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "2", docs[0].ID)
	assert.Equal(t, "library opens at nine", docs[0].Content)
	assert.GreaterOrEqual(t, docs[0].Score(), docs[1].Score())
}

func TestStoreRetriever_EmptyStore(t *testing.T) {
	c, _ := newMemoryComponents(t)
	docs, err := c.Retriever.Retrieve(context.Background(), "anything",
		einoretriever.WithEmbedding(embedding.NewHashEmbedder(8)))
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestStoreRetriever_RequiresEmbedding(t *testing.T) {
	c, _ := newMemoryComponents(t)
	_, err := c.Retriever.Retrieve(context.Background(), "q")
	assert.Error(t, err)
}

func TestRedisOptionsFromVectorConfig(t *testing.T) {
	opts := RedisOptionsFromVectorConfig(config.VectorConfig{DB: 2})
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 2, opts.Protocol)
	assert.True(t, opts.UnstableResp3)
}

func TestNew_UnsupportedType(t *testing.T) {
	_, err := New(context.Background(), config.VectorConfig{Type: "milvus"}, nil)
	assert.Error(t, err)
}
