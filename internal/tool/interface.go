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

package tool

import (
	"context"
	"fmt"
	"strings"

	"campus-assistant/internal/pipeline/common"
)

// Schema 工具参数的 JSON Schema（object 形式）
type Schema struct {
	Type        string                    `json:"type"`
	Description string                    `json:"description,omitempty"`
	Properties  map[string]SchemaProperty `json:"properties,omitempty"`
	Required    []string                  `json:"required,omitempty"`
}

// SchemaProperty 表示 Schema 中单个属性的描述
type SchemaProperty struct {
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

// Validate 检查必填参数：存在、非 nil，string 类型还须非空白。多余参数忽略。
func (s Schema) Validate(args map[string]any) error {
	for _, name := range s.Required {
		v, ok := args[name]
		if !ok || v == nil {
			return common.NewValidationError(name, "is required")
		}
		if s.Properties[name].Type == "string" {
			str, isString := v.(string)
			if !isString {
				return common.NewValidationError(name, fmt.Sprintf("must be a string, got %T", v))
			}
			if strings.TrimSpace(str) == "" {
				return common.NewValidationError(name, "must not be blank")
			}
		}
	}
	return nil
}

// Clone 深拷贝
func (s Schema) Clone() Schema {
	out := Schema{Type: s.Type, Description: s.Description}
	if s.Properties != nil {
		out.Properties = make(map[string]SchemaProperty, len(s.Properties))
		for k, v := range s.Properties {
			out.Properties[k] = v
		}
	}
	if s.Required != nil {
		out.Required = append([]string(nil), s.Required...)
	}
	return out
}

// Result 工具执行结果；Err 非空表示工具层面的失败（如知识库不可用）
type Result struct {
	Content string `json:"content"`
	Err     string `json:"error,omitempty"`
}

// Tool 服务端工具接口
type Tool interface {
	Name() string
	Description() string
	Schema() Schema
	Execute(ctx context.Context, input map[string]any) (Result, error)
}
