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
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"campus-assistant/internal/pipeline/common"
	"campus-assistant/internal/tool"
)

var fenceReplacer = strings.NewReplacer("```json", "", "```JSON", "", "```", "")

// StripFences 去掉 markdown 代码块标记
func StripFences(text string) string {
	return strings.TrimSpace(fenceReplacer.Replace(text))
}

// ExtractObject 返回 text 中第一个完整的 JSON 对象：从第一个 '{' 起按深度匹配，
// 字符串字面量内的括号不计入深度
func ExtractObject(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", common.NewClassificationParseError("no JSON object in model output", text)
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", common.NewClassificationParseError("unbalanced braces in model output", text)
}

type rawCall struct {
	Tool      *string         `json:"tool"`
	Arguments json.RawMessage `json:"arguments"`
}

// ParseCall 从模型输出中解析工具调用；工具名须为 none 或目录中的工具
func ParseCall(output string, catalog *tool.Catalog) (tool.Call, error) {
	obj, err := ExtractObject(StripFences(output))
	if err != nil {
		return tool.NoneCall(), err
	}

	var raw rawCall
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return tool.NoneCall(), common.NewClassificationParseError("malformed JSON: "+err.Error(), output)
	}
	if raw.Tool == nil {
		return tool.NoneCall(), common.NewClassificationParseError(`missing "tool" field`, output)
	}
	name := strings.TrimSpace(*raw.Tool)
	if strings.EqualFold(name, tool.None) {
		return tool.NoneCall(), nil
	}
	if !catalog.Has(name) {
		return tool.NoneCall(), common.NewClassificationParseError(fmt.Sprintf("unknown tool %q", name), output)
	}

	args := map[string]any{}
	trimmed := bytes.TrimSpace(raw.Arguments)
	if len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		if trimmed[0] != '{' {
			return tool.NoneCall(), common.NewClassificationParseError(`"arguments" must be an object`, output)
		}
		if err := json.Unmarshal(trimmed, &args); err != nil {
			return tool.NoneCall(), common.NewClassificationParseError("malformed arguments: "+err.Error(), output)
		}
	}
	return tool.Call{Tool: name, Arguments: args}, nil
}
