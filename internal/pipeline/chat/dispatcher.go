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
	"errors"
	"fmt"
	"strings"
	"time"

	"campus-assistant/internal/pipeline/common"
	"campus-assistant/internal/tool"
	"campus-assistant/pkg/log"
	"campus-assistant/pkg/metrics"
	"campus-assistant/pkg/tracing"
)

// ToolOutput 调度结果，作为生成阶段的输入
type ToolOutput struct {
	Tool     string
	Payload  string
	Duration time.Duration
}

// Dispatcher 按目录执行工具调用，每回合至多一次
type Dispatcher struct {
	catalog *tool.Catalog
	timeout time.Duration
	logger  *log.Logger
}

// NewDispatcher 创建调度器；timeout <= 0 不限制
func NewDispatcher(catalog *tool.Catalog, timeout time.Duration, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Nop()
	}
	return &Dispatcher{catalog: catalog, timeout: timeout, logger: logger}
}

// Dispatch 校验并执行调用，原样返回工具结果。所有失败均为 ToolExecutionError。
func (d *Dispatcher) Dispatch(ctx context.Context, call tool.Call) (*ToolOutput, error) {
	if call.IsNone() {
		return nil, common.NewToolExecutionError(tool.None, fmt.Errorf("%w: nothing to dispatch", common.ErrInvalidInput))
	}
	entry, ok := d.catalog.Lookup(call.Tool)
	if !ok {
		return nil, common.NewToolExecutionError(call.Tool, common.ErrUnknownTool)
	}
	if err := entry.Descriptor.Schema.Validate(call.Arguments); err != nil {
		return nil, common.NewToolExecutionError(call.Tool, err)
	}

	ctx, span := tracing.StartToolSpan(ctx, call.Tool)
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	args := call.Arguments
	if args == nil {
		args = map[string]any{}
	}
	start := time.Now()
	payload, err := entry.Handler(ctx, args)
	elapsed := time.Since(start)
	status := "ok"
	defer func() {
		metrics.ToolDuration.WithLabelValues(call.Tool, status).Observe(elapsed.Seconds())
	}()
	if err != nil {
		status = "error"
		err = common.NewToolExecutionError(call.Tool, err)
		return nil, err
	}
	if msg, isErr := errorPayload(payload); isErr {
		status = "error"
		err = common.NewToolExecutionError(call.Tool, fmt.Errorf("%w: %s", common.ErrRetrievalUnavailable, msg))
		return nil, err
	}
	d.logger.Debug("tool dispatched", "tool", call.Tool, "elapsed", elapsed, "bytes", len(payload))
	return &ToolOutput{Tool: call.Tool, Payload: payload, Duration: elapsed}, nil
}

// errorPayload 识别 {"error": ...} 形式的失败结果
func errorPayload(payload string) (string, bool) {
	trimmed := strings.TrimSpace(payload)
	if !strings.HasPrefix(trimmed, "{") {
		return "", false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return "", false
	}
	raw, ok := obj["error"]
	if !ok {
		return "", false
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err != nil {
		msg = string(raw)
	}
	return msg, true
}

// isCancellation 判断错误是否来自调用方取消
func isCancellation(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled)
}
