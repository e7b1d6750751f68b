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

// Package chat 实现单回合对话流水线：意图分类、工具调度与回答生成
package chat

import (
	"context"
	"time"
	"unicode/utf8"

	"campus-assistant/internal/model/llm"
	"campus-assistant/internal/pipeline/common"
	"campus-assistant/internal/tool"
	"campus-assistant/pkg/log"
	"campus-assistant/pkg/metrics"
	"campus-assistant/pkg/tracing"
)

// ClassifyOptions 分类调用的采样参数：低温、窄采样
var ClassifyOptions = llm.GenerateOptions{Temperature: 0.1, TopP: 0.5}

// Classifier 意图分类器
type Classifier struct {
	client  llm.Client
	timeout time.Duration
	logger  *log.Logger
}

// NewClassifier 创建分类器；timeout <= 0 不限制
func NewClassifier(client llm.Client, timeout time.Duration, logger *log.Logger) *Classifier {
	if logger == nil {
		logger = log.Nop()
	}
	return &Classifier{client: client, timeout: timeout, logger: logger}
}

// Classify 将用户消息映射为工具调用；任何失败都记录后退回 none，不返回错误
func (c *Classifier) Classify(ctx context.Context, message string, catalog *tool.Catalog) tool.Call {
	ctx, span := tracing.StartStageSpan(ctx, "classify")
	var spanErr error
	defer func() { tracing.EndSpan(span, spanErr) }()

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	output, err := c.client.GenerateWithContext(callCtx, buildClassifierPrompt(catalog, message), ClassifyOptions)
	metrics.LLMRequestDuration.WithLabelValues("classify").Observe(time.Since(start).Seconds())
	if err != nil {
		if ctx.Err() != nil {
			return tool.NoneCall()
		}
		spanErr = common.NewClassificationParseError("model call failed: "+err.Error(), "")
		c.fail(spanErr, "")
		return tool.NoneCall()
	}

	call, err := ParseCall(output, catalog)
	if err != nil {
		spanErr = err
		c.fail(err, output)
		return tool.NoneCall()
	}
	if call.IsNone() {
		metrics.ClassificationTotal.WithLabelValues("none").Inc()
	} else {
		metrics.ClassificationTotal.WithLabelValues("tool").Inc()
	}
	c.logger.Debug("message classified", "tool", call.Tool, "arguments", call.Arguments)
	return call
}

func (c *Classifier) fail(err error, raw string) {
	metrics.ClassificationTotal.WithLabelValues("parse_error").Inc()
	c.logger.Warn("classification fell back to chat", "error", err, "raw", truncate(raw, 300))
}

// truncate 按字节截断，回退到 rune 边界
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
