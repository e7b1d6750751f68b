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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-assistant/internal/pipeline/common"
)

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "fenced with prose",
			text: "Sure! Here you go:\n```json\n{\"tool\":\"none\"}\n```\nHope that helps.",
			want: `{"tool":"none"}`,
		},
		{
			name: "nested arguments",
			text: `{"tool": "query_knowledge_base", "arguments": {"query_text": "fees"}} trailing`,
			want: `{"tool": "query_knowledge_base", "arguments": {"query_text": "fees"}}`,
		},
		{
			name: "second fragment after object",
			text: `{"tool": "get_latest_news", "arguments": {}} or maybe {"tool": "none"}`,
			want: `{"tool": "get_latest_news", "arguments": {}}`,
		},
		{
			name: "braces inside strings",
			text: `{"tool": "query_knowledge_base", "arguments": {"query_text": "what is } and {"}}`,
			want: `{"tool": "query_knowledge_base", "arguments": {"query_text": "what is } and {"}}`,
		},
		{
			name: "escaped quote inside string",
			text: `{"tool": "query_knowledge_base", "arguments": {"query_text": "say \"}\" please"}}`,
			want: `{"tool": "query_knowledge_base", "arguments": {"query_text": "say \"}\" please"}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractObject(StripFences(tt.text))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractObject_Failures(t *testing.T) {
	_, err := ExtractObject("I think you want the news")
	assert.True(t, common.IsClassificationParseError(err))

	_, err = ExtractObject(`{"tool": "none"`)
	assert.True(t, common.IsClassificationParseError(err))
}

func TestParseCall(t *testing.T) {
	catalog := testCatalog(t, nil)

	call, err := ParseCall("```json\n{\"tool\": \"get_latest_news\", \"arguments\": {}}\n```", catalog)
	require.NoError(t, err)
	assert.Equal(t, "get_latest_news", call.Tool)
	assert.Empty(t, call.Arguments)

	call, err = ParseCall(`{"tool": "query_knowledge_base", "arguments": {"query_text": "hostel fees", "n_results": 5}}`, catalog)
	require.NoError(t, err)
	assert.Equal(t, "query_knowledge_base", call.Tool)
	assert.Equal(t, "hostel fees", call.Arguments["query_text"])
	assert.Equal(t, 5.0, call.Arguments["n_results"])

	call, err = ParseCall(`{"tool": "None"}`, catalog)
	require.NoError(t, err)
	assert.True(t, call.IsNone())

	call, err = ParseCall(`{"tool": "get_college_notifications"}`, catalog)
	require.NoError(t, err)
	assert.Equal(t, "get_college_notifications", call.Tool)
	assert.NotNil(t, call.Arguments)
}

func TestParseCall_FallsBackToNone(t *testing.T) {
	catalog := testCatalog(t, nil)
	for name, text := range map[string]string{
		"no object":        "Hello there!",
		"malformed":        `{"tool": get_latest_news}`,
		"unknown tool":     `{"tool": "make_coffee", "arguments": {}}`,
		"missing tool":     `{"arguments": {}}`,
		"tool not string":  `{"tool": 3}`,
		"arguments array":  `{"tool": "get_latest_news", "arguments": ["x"]}`,
		"arguments string": `{"tool": "get_latest_news", "arguments": "x"}`,
	} {
		t.Run(name, func(t *testing.T) {
			call, err := ParseCall(text, catalog)
			assert.True(t, common.IsClassificationParseError(err), "err=%v", err)
			assert.True(t, call.IsNone())
		})
	}
}
