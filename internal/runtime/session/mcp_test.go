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

package session

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-assistant/internal/api/mcpserver"
	"campus-assistant/internal/pipeline/common"
	"campus-assistant/internal/tool/builtin"
	"campus-assistant/internal/tool/registry"
)

type staticSource struct{}

func (staticSource) NewsEvents(ctx context.Context) (string, error) {
	return `[{"title":"Tech Fest"}]`, nil
}

func (staticSource) Notifications(ctx context.Context) (string, error) {
	return `[{"title":"Fee deadline"}]`, nil
}

type staticKB struct{}

func (staticKB) Query(ctx context.Context, q common.KnowledgeQuery) (*common.RetrievalResult, error) {
	texts := []string{"chunk one", "chunk two", "chunk three", "chunk four"}
	return &common.RetrievalResult{Texts: texts[:min(q.K, len(texts))]}, nil
}

func newInProcessBackend(t *testing.T) *MCPBackend {
	t.Helper()
	reg := registry.New()
	require.NoError(t, builtin.RegisterBuiltin(reg, staticSource{}, staticKB{}))
	srv, err := mcpserver.New(reg, mcpserver.Options{})
	require.NoError(t, err)
	b, err := DialInProcess(context.Background(), srv)
	require.NoError(t, err)
	return b
}

func TestMCPBackend_DiscoveryAndCalls(t *testing.T) {
	ctx := context.Background()
	s, err := Connect(ctx, newInProcessBackend(t))
	require.NoError(t, err)
	defer s.Close()

	names := s.Catalog().Names()
	assert.ElementsMatch(t, []string{"get_latest_news", "get_college_notifications", "query_knowledge_base"}, names)

	kb, ok := s.Catalog().Lookup("query_knowledge_base")
	require.True(t, ok)
	assert.Equal(t, []string{"query_text"}, kb.Descriptor.Schema.Required)
	assert.Equal(t, "string", kb.Descriptor.Schema.Properties["query_text"].Type)

	out, err := s.CallTool(ctx, "get_latest_news", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, `[{"title":"Tech Fest"}]`, out)

	out, err = s.CallTool(ctx, "query_knowledge_base", map[string]any{"query_text": "chunk"})
	require.NoError(t, err)
	var texts []string
	require.NoError(t, json.Unmarshal([]byte(out), &texts))
	assert.Len(t, texts, builtin.DefaultResults)

	out, err = s.CallTool(ctx, "query_knowledge_base", map[string]any{"query_text": "chunk", "n_results": 1})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &texts))
	assert.Equal(t, []string{"chunk one"}, texts)
}

func TestMCPBackend_ToolErrorSurfaces(t *testing.T) {
	ctx := context.Background()
	b := newInProcessBackend(t)
	defer b.Close()

	_, err := b.CallTool(ctx, "query_knowledge_base", map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query_text")

	_, err = b.CallTool(ctx, "make_coffee", nil)
	assert.Error(t, err)
}
