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
	"fmt"
	"strings"
	"time"

	"campus-assistant/internal/model/llm"
	"campus-assistant/internal/pipeline/common"
	"campus-assistant/pkg/log"
	"campus-assistant/pkg/metrics"
	"campus-assistant/pkg/tracing"
)

var (
	// SynthesizeOptions 生成回答的采样参数：较高温度
	SynthesizeOptions = llm.GenerateOptions{Temperature: 0.8, TopP: 0.9}
	// ChatOptions 自由对话的采样参数
	ChatOptions = llm.GenerateOptions{Temperature: 0.8}
)

// Synthesizer 将工具结果改写为自然语言回答
type Synthesizer struct {
	client  llm.Client
	persona Persona
	timeout time.Duration
	logger  *log.Logger
}

// NewSynthesizer 创建生成器；persona 字段为空时使用默认人设
func NewSynthesizer(client llm.Client, persona Persona, timeout time.Duration, logger *log.Logger) *Synthesizer {
	if persona.Name == "" {
		persona.Name = DefaultPersona.Name
	}
	if persona.College == "" {
		persona.College = DefaultPersona.College
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Synthesizer{client: client, persona: persona, timeout: timeout, logger: logger}
}

// Synthesize 基于工具结果回答 query
func (s *Synthesizer) Synthesize(ctx context.Context, query string, out *ToolOutput) (string, error) {
	if out == nil {
		return "", common.NewValidationError("payload", "is nil")
	}
	return s.generate(ctx, "synthesize", buildSynthesisPrompt(s.persona, query, out.Payload), SynthesizeOptions)
}

// Chat 不调用工具时的自由对话
func (s *Synthesizer) Chat(ctx context.Context, message string) (string, error) {
	return s.generate(ctx, "chat", buildChatPrompt(s.persona, message), ChatOptions)
}

func (s *Synthesizer) generate(ctx context.Context, stage, prompt string, opts llm.GenerateOptions) (string, error) {
	ctx, span := tracing.StartStageSpan(ctx, stage)
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	start := time.Now()
	var text string
	text, err = s.client.GenerateWithContext(ctx, prompt, opts)
	metrics.LLMRequestDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	if err != nil {
		err = common.NewPipelineError(stage, "generation failed", fmt.Errorf("%w: %v", common.ErrGenerationFailed, err))
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		err = common.NewPipelineError(stage, "generation failed", fmt.Errorf("%w: empty response", common.ErrGenerationFailed))
		return "", err
	}
	return text, nil
}
