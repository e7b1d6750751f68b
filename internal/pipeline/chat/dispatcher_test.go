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

package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-assistant/internal/pipeline/common"
	"campus-assistant/internal/tool"
)

func TestDispatcher_UnknownTool(t *testing.T) {
	d := NewDispatcher(testCatalog(t, nil), 0, nil)
	_, err := d.Dispatch(context.Background(), tool.Call{Tool: "make_coffee"})
	require.Error(t, err)
	te, ok := common.GetToolExecutionError(err)
	require.True(t, ok)
	assert.Equal(t, "make_coffee", te.Tool)
	assert.ErrorIs(t, err, common.ErrUnknownTool)
}

func TestDispatcher_MissingQueryTextRejectedBeforeHandler(t *testing.T) {
	h := &countingHandler{payload: `["x"]`}
	d := NewDispatcher(testCatalog(t, map[string]tool.Handler{"query_knowledge_base": h.handle}), 0, nil)

	_, err := d.Dispatch(context.Background(), tool.Call{Tool: "query_knowledge_base", Arguments: map[string]any{}})
	require.Error(t, err)
	assert.True(t, common.IsToolExecutionError(err))
	assert.True(t, common.IsValidationError(err))
	assert.Equal(t, 0, h.calls)

	_, err = d.Dispatch(context.Background(), tool.Call{Tool: "query_knowledge_base"})
	assert.True(t, common.IsValidationError(err))
	assert.Equal(t, 0, h.calls)
}

func TestDispatcher_ReturnsPayloadUnchanged(t *testing.T) {
	payload := `[{"title": "Tech Fest", "link": "https://college.example/news/1"}]`
	h := &countingHandler{payload: payload}
	d := NewDispatcher(testCatalog(t, map[string]tool.Handler{"get_latest_news": h.handle}), time.Second, nil)

	out, err := d.Dispatch(context.Background(), tool.Call{Tool: "get_latest_news"})
	require.NoError(t, err)
	assert.Equal(t, payload, out.Payload)
	assert.Equal(t, "get_latest_news", out.Tool)
	assert.Equal(t, 1, h.calls)
}

func TestDispatcher_ErrorPayloadShortCircuits(t *testing.T) {
	h := &countingHandler{payload: `{"error": "Cannot query. The knowledge base is not available."}`}
	d := NewDispatcher(testCatalog(t, map[string]tool.Handler{"query_knowledge_base": h.handle}), 0, nil)

	_, err := d.Dispatch(context.Background(), tool.Call{
		Tool:      "query_knowledge_base",
		Arguments: map[string]any{"query_text": "syllabus"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrRetrievalUnavailable)
	assert.Contains(t, err.Error(), "not available")
}

func TestDispatcher_HandlerError(t *testing.T) {
	h := &countingHandler{err: errors.New("connection reset")}
	d := NewDispatcher(testCatalog(t, map[string]tool.Handler{"get_college_notifications": h.handle}), 0, nil)

	_, err := d.Dispatch(context.Background(), tool.Call{Tool: "get_college_notifications"})
	require.Error(t, err)
	te, ok := common.GetToolExecutionError(err)
	require.True(t, ok)
	assert.Equal(t, "get_college_notifications", te.Tool)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestDispatcher_RejectsNone(t *testing.T) {
	d := NewDispatcher(testCatalog(t, nil), 0, nil)
	_, err := d.Dispatch(context.Background(), tool.NoneCall())
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestErrorPayload(t *testing.T) {
	msg, ok := errorPayload(`  {"error": "boom"}`)
	assert.True(t, ok)
	assert.Equal(t, "boom", msg)

	_, ok = errorPayload(`["error"]`)
	assert.False(t, ok)
	_, ok = errorPayload(`{"title": "error"}`)
	assert.False(t, ok)
	_, ok = errorPayload(`{not json`)
	assert.False(t, ok)
}
