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

package builtin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"campus-assistant/internal/pipeline/common"
	"campus-assistant/internal/tool"
)

// DefaultResults query_knowledge_base 的默认返回条数
const DefaultResults = 3

// ErrKnowledgeUnavailable 知识库不可用时返回给调用方的消息
const ErrKnowledgeUnavailable = "Cannot query. The knowledge base is not available."

// KnowledgeBase 知识库查询接口
type KnowledgeBase interface {
	Query(ctx context.Context, q common.KnowledgeQuery) (*common.RetrievalResult, error)
}

// KnowledgeTool 实现 query_knowledge_base
type KnowledgeTool struct {
	kb KnowledgeBase
}

// NewKnowledgeTool 创建 query_knowledge_base 工具
func NewKnowledgeTool(kb KnowledgeBase) *KnowledgeTool {
	return &KnowledgeTool{kb: kb}
}

// Name 实现 tool.Tool
func (t *KnowledgeTool) Name() string { return "query_knowledge_base" }

// Description 实现 tool.Tool
func (t *KnowledgeTool) Description() string {
	return "Use to search for specific information like syllabus, student details, or specific people. Returns the most relevant document chunks as a JSON array."
}

// Schema 实现 tool.Tool
func (t *KnowledgeTool) Schema() tool.Schema {
	return tool.Schema{
		Type: "object",
		Properties: map[string]tool.SchemaProperty{
			"query_text": {Type: "string", Description: "the user's search query"},
			"n_results":  {Type: "number", Description: "number of chunks to return, default 3"},
		},
		Required: []string{"query_text"},
	}
}

// Execute 实现 tool.Tool；查询失败以 {"error": ...} 作为内容返回
func (t *KnowledgeTool) Execute(ctx context.Context, input map[string]any) (tool.Result, error) {
	if err := t.Schema().Validate(input); err != nil {
		return tool.Result{Err: err.Error()}, nil
	}
	queryText, _ := input["query_text"].(string)
	k, err := resultCount(input["n_results"])
	if err != nil {
		return tool.Result{Err: err.Error()}, nil
	}
	if t.kb == nil {
		return errorPayload(ErrKnowledgeUnavailable), nil
	}

	res, err := t.kb.Query(ctx, common.KnowledgeQuery{Text: queryText, K: k})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return tool.Result{}, ctxErr
		}
		if errors.Is(err, common.ErrRetrievalUnavailable) {
			return errorPayload(ErrKnowledgeUnavailable), nil
		}
		return errorPayload(fmt.Sprintf("An error occurred during the query: %v", err)), nil
	}
	texts := res.Texts
	if texts == nil {
		texts = []string{}
	}
	out, err := json.MarshalIndent(texts, "", "  ")
	if err != nil {
		return tool.Result{}, err
	}
	return tool.Result{Content: string(out)}, nil
}

func errorPayload(msg string) tool.Result {
	out, _ := json.Marshal(map[string]string{"error": msg})
	return tool.Result{Content: string(out)}
}

// resultCount 解析 n_results：缺省为 3，接受整数值的数字或数字字符串
func resultCount(v any) (int, error) {
	switch n := v.(type) {
	case nil:
		return DefaultResults, nil
	case int:
		return positive(n)
	case int64:
		return positive(int(n))
	case float64:
		if n != math.Trunc(n) {
			return 0, common.NewValidationError("n_results", "must be an integer")
		}
		return positive(int(n))
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, common.NewValidationError("n_results", "must be an integer")
		}
		return positive(int(i))
	case string:
		if strings.TrimSpace(n) == "" {
			return DefaultResults, nil
		}
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, common.NewValidationError("n_results", "must be an integer")
		}
		return positive(i)
	default:
		return 0, common.NewValidationError("n_results", fmt.Sprintf("unsupported type %T", v))
	}
}

func positive(n int) (int, error) {
	if n <= 0 {
		return 0, common.NewValidationError("n_results", "must be greater than zero")
	}
	return n, nil
}
