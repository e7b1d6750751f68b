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
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"campus-assistant/internal/pipeline/common"
	"campus-assistant/pkg/metrics"
)

func TestClassifier_PromptAndOptions(t *testing.T) {
	model := &scriptedLLM{classify: `{"tool": "get_latest_news", "arguments": {}}`}
	c := NewClassifier(model, 0, nil)

	call := c.Classify(context.Background(), "What's the latest news?", testCatalog(t, nil))
	assert.Equal(t, "get_latest_news", call.Tool)

	prompt := model.prompts[0]
	assert.Contains(t, prompt, "**get_latest_news**")
	assert.Contains(t, prompt, `{"tool": "query_knowledge_base", "arguments": {"query_text": "string"}}`)
	assert.Contains(t, prompt, `{"tool": "none"}`)
	assert.Contains(t, prompt, "What's the latest news?")
	assert.Equal(t, 0.1, model.options[0].Temperature)
	assert.Equal(t, 0.5, model.options[0].TopP)
}

func TestClassifier_FailuresFallBackToNoneAndAreCounted(t *testing.T) {
	counter := metrics.ClassificationTotal.WithLabelValues("parse_error")
	before := testutil.ToFloat64(counter)

	c := NewClassifier(&scriptedLLM{classify: "I'd pick the news tool!"}, 0, nil)
	assert.True(t, c.Classify(context.Background(), "news?", testCatalog(t, nil)).IsNone())

	c = NewClassifier(&scriptedLLM{classify: `{"tool": "make_coffee"}`}, 0, nil)
	assert.True(t, c.Classify(context.Background(), "coffee", testCatalog(t, nil)).IsNone())

	c = NewClassifier(&scriptedLLM{classifyErr: errors.New("ollama down")}, 0, nil)
	assert.True(t, c.Classify(context.Background(), "hi", testCatalog(t, nil)).IsNone())

	assert.Equal(t, before+3, testutil.ToFloat64(counter))
}

func TestSynthesizer_Options(t *testing.T) {
	model := &scriptedLLM{}
	s := NewSynthesizer(model, Persona{}, 0, nil)

	_, err := s.Synthesize(context.Background(), "news?", &ToolOutput{Payload: `[{"title":"Tech Fest"}]`})
	assert.NoError(t, err)
	assert.Equal(t, SynthesizeOptions, model.options[0])
	assert.Contains(t, model.prompts[0], "BMSCE Assistant")
	assert.Contains(t, model.prompts[0], "DO NOT mention that you got this from a database")

	_, err = s.Chat(context.Background(), "hello")
	assert.NoError(t, err)
	assert.Equal(t, ChatOptions, model.options[1])
}

func TestSynthesizer_EmptyResponseIsError(t *testing.T) {
	s := NewSynthesizer(&scriptedLLM{chatReply: "   "}, Persona{}, 0, nil)
	_, err := s.Chat(context.Background(), "hello")
	assert.ErrorIs(t, err, common.ErrGenerationFailed)
}

func TestTruncate_KeepsRuneBoundary(t *testing.T) {
	s := strings.Repeat("新闻", 100)
	for _, n := range []int{1, 2, 4, 299, 300} {
		out := truncate(s, n)
		assert.True(t, utf8.ValidString(out), "n=%d", n)
		assert.True(t, strings.HasSuffix(out, "..."))
		assert.LessOrEqual(t, len(out), n+len("..."))
	}
	assert.Equal(t, "short", truncate("short", 300))
}
