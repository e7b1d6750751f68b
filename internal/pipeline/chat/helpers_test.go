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
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"campus-assistant/internal/model/llm"
	"campus-assistant/internal/tool"
)

// scriptedLLM 按 prompt 类型返回预设输出
type scriptedLLM struct {
	mu          sync.Mutex
	classify    string
	classifyErr error
	synthErr    error
	chatReply   string
	prompts     []string
	options     []llm.GenerateOptions
}

func (s *scriptedLLM) GenerateWithContext(ctx context.Context, prompt string, options llm.GenerateOptions) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.options = append(s.options, options)
	s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch {
	case strings.Contains(prompt, "precise tool selector"):
		return s.classify, s.classifyErr
	case strings.Contains(prompt, "You retrieved this data:"):
		if s.synthErr != nil {
			return "", s.synthErr
		}
		return summarize(prompt), nil
	default:
		if s.chatReply == "" {
			return "Hey! How can I help you today? 😊", nil
		}
		return s.chatReply, nil
	}
}

func (s *scriptedLLM) Model() string    { return "scripted" }
func (s *scriptedLLM) Provider() string { return "scripted" }

func (s *scriptedLLM) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

// summarize 把 prompt 中的 JSON 数据渲染为编号列表
func summarize(prompt string) string {
	start := strings.Index(prompt, "You retrieved this data:\n")
	end := strings.Index(prompt, "\n\nNow, present")
	if start < 0 || end < start {
		return "I couldn't find anything."
	}
	payload := prompt[start+len("You retrieved this data:\n") : end]

	var items []map[string]any
	if err := json.Unmarshal([]byte(payload), &items); err == nil {
		var sb strings.Builder
		sb.WriteString("Here's what's going on:\n")
		for i, it := range items {
			title, _ := it["title"].(string)
			fmt.Fprintf(&sb, "%d. %s\n", i+1, title)
		}
		sb.WriteString("Have a great day! 🎉")
		return sb.String()
	}
	var texts []string
	if err := json.Unmarshal([]byte(payload), &texts); err == nil {
		return "Here's what I know: " + strings.Join(texts, " ")
	}
	return payload
}

type countingHandler struct {
	mu      sync.Mutex
	calls   int
	payload string
	err     error
}

func (h *countingHandler) handle(ctx context.Context, args map[string]any) (string, error) {
	h.mu.Lock()
	h.calls++
	h.mu.Unlock()
	return h.payload, h.err
}

// testCatalog 三个内置工具形状的目录；handlers 缺省返回空数组
func testCatalog(t *testing.T, handlers map[string]tool.Handler) *tool.Catalog {
	t.Helper()
	def := func(ctx context.Context, args map[string]any) (string, error) { return "[]", nil }
	get := func(name string) tool.Handler {
		if h, ok := handlers[name]; ok {
			return h
		}
		return def
	}
	c, err := tool.NewCatalog(
		tool.Entry{Descriptor: tool.Descriptor{
			Name:        "get_latest_news",
			Description: "Use for news and events.",
			Schema:      tool.Schema{Type: "object"},
		}, Handler: get("get_latest_news")},
		tool.Entry{Descriptor: tool.Descriptor{
			Name:        "get_college_notifications",
			Description: "Use for notices and circulars.",
			Schema:      tool.Schema{Type: "object"},
		}, Handler: get("get_college_notifications")},
		tool.Entry{Descriptor: tool.Descriptor{
			Name:        "query_knowledge_base",
			Description: "Use to search documents.",
			Schema: tool.Schema{
				Type: "object",
				Properties: map[string]tool.SchemaProperty{
					"query_text": {Type: "string"},
					"n_results":  {Type: "number"},
				},
				Required: []string{"query_text"},
			},
		}, Handler: get("query_knowledge_base")},
	)
	require.NoError(t, err)
	return c
}
