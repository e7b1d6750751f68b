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

	"campus-assistant/internal/pipeline/common"
	"campus-assistant/internal/runtime/session"
	"campus-assistant/internal/tool"
	"campus-assistant/pkg/log"
	"campus-assistant/pkg/metrics"
	"campus-assistant/pkg/tracing"
)

// DefaultApology 回合失败时展示给用户的消息
const DefaultApology = "Oops! I had trouble getting that information. Could you try asking in a different way? 😊"

// Recorder 接收工具调用观察
type Recorder interface {
	AddObservation(rec session.ToolCallRecord)
}

// Config Pipeline 构造参数
type Config struct {
	Catalog     *tool.Catalog
	Classifier  *Classifier
	Dispatcher  *Dispatcher
	Synthesizer *Synthesizer
	Recorder    Recorder
	SessionID   string
	Apology     string
	Logger      *log.Logger
}

// Pipeline 两阶段回合处理：classify → (dispatch → synthesize | chat)
type Pipeline struct {
	catalog     *tool.Catalog
	classifier  *Classifier
	dispatcher  *Dispatcher
	synthesizer *Synthesizer
	recorder    Recorder
	sessionID   string
	apology     string
	logger      *log.Logger
}

// NewPipeline 创建 Pipeline
func NewPipeline(cfg Config) (*Pipeline, error) {
	if cfg.Catalog == nil || cfg.Classifier == nil || cfg.Dispatcher == nil || cfg.Synthesizer == nil {
		return nil, errors.New("pipeline requires catalog, classifier, dispatcher and synthesizer")
	}
	apology := cfg.Apology
	if apology == "" {
		apology = DefaultApology
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Nop()
	}
	return &Pipeline{
		catalog:     cfg.Catalog,
		classifier:  cfg.Classifier,
		dispatcher:  cfg.Dispatcher,
		synthesizer: cfg.Synthesizer,
		recorder:    cfg.Recorder,
		sessionID:   cfg.SessionID,
		apology:     apology,
		logger:      logger.With("session_id", cfg.SessionID),
	}, nil
}

// HandleTurn 处理一条用户消息。仅在 ctx 取消时返回错误，其余失败以致歉消息作答。
func (p *Pipeline) HandleTurn(ctx context.Context, message string) (string, error) {
	ctx, span := tracing.StartTurnSpan(ctx, p.sessionID)
	var turnErr error
	defer func() { tracing.EndSpan(span, turnErr) }()

	message = strings.TrimSpace(message)
	call := p.classifier.Classify(ctx, message, p.catalog)
	if err := ctx.Err(); err != nil {
		turnErr = err
		metrics.TurnTotal.WithLabelValues("cancelled").Inc()
		return "", err
	}

	reply, err := p.Respond(ctx, message, call)
	turnErr = err
	return reply, err
}

// Respond 执行已分类的调用并生成回答；none 走自由对话。
// 除取消外的失败都转为致歉回复，不返回错误。
func (p *Pipeline) Respond(ctx context.Context, message string, call tool.Call) (string, error) {
	if call.IsNone() {
		reply, err := p.synthesizer.Chat(ctx, message)
		if err != nil {
			return p.fail(ctx, err, "chat")
		}
		metrics.TurnTotal.WithLabelValues("chat").Inc()
		return reply, nil
	}

	out, err := p.dispatcher.Dispatch(ctx, call)
	p.record(call, err)
	if err != nil {
		return p.fail(ctx, err, call.Tool)
	}
	if err := ctx.Err(); err != nil {
		metrics.TurnTotal.WithLabelValues("cancelled").Inc()
		return "", err
	}

	reply, err := p.synthesizer.Synthesize(ctx, message, out)
	if err != nil {
		return p.fail(ctx, err, call.Tool)
	}
	metrics.TurnTotal.WithLabelValues("tool").Inc()
	return reply, nil
}

func (p *Pipeline) fail(ctx context.Context, err error, stage string) (string, error) {
	if isCancellation(ctx, err) {
		metrics.TurnTotal.WithLabelValues("cancelled").Inc()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", context.Canceled
	}
	attrs := []any{"stage", stage, "error", err}
	if te, ok := common.GetToolExecutionError(err); ok {
		attrs = append(attrs, "tool", te.Tool)
	}
	p.logger.Error("turn failed", attrs...)
	metrics.TurnTotal.WithLabelValues("apology").Inc()
	return p.apology, nil
}

func (p *Pipeline) record(call tool.Call, err error) {
	if p.recorder == nil {
		return
	}
	rec := session.ToolCallRecord{Tool: call.Tool, Input: call.Arguments, Outcome: "ok"}
	if err != nil {
		rec.Outcome = "error"
		rec.Err = err.Error()
	}
	p.recorder.AddObservation(rec)
}
