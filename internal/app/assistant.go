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

package app

import (
	"context"
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"campus-assistant/internal/model/llm"
	"campus-assistant/internal/pipeline/chat"
	"campus-assistant/internal/runtime/session"
	"campus-assistant/pkg/errors"
)

// NewDialer 按 backend.transport 返回连接工具后端的方式
func (b *Bootstrap) NewDialer() (session.Dialer, error) {
	bc := b.Config.Backend
	switch bc.Transport {
	case "", "inprocess":
		// 工具服务在首次连接时构建，之后复用
		var (
			once   sync.Once
			srv    *server.MCPServer
			srvErr error
		)
		return func(ctx context.Context) (session.Backend, error) {
			once.Do(func() { srv, srvErr = b.NewToolServer(ctx) })
			if srvErr != nil {
				return nil, srvErr
			}
			return session.DialInProcess(ctx, srv)
		}, nil
	case "stdio":
		if bc.Command == "" {
			return nil, errors.Wrap(errors.ErrNotConfigured, "backend.command")
		}
		return func(ctx context.Context) (session.Backend, error) {
			return session.DialStdio(ctx, b.Logger, bc.Command, bc.Env, bc.Args...)
		}, nil
	default:
		return nil, errors.Wrapf(errors.ErrInvalidArg, "backend.transport %q", bc.Transport)
	}
}

// NewSessionManager 创建会话管理器
func (b *Bootstrap) NewSessionManager() (*session.Manager, error) {
	dial, err := b.NewDialer()
	if err != nil {
		return nil, err
	}
	return session.NewManager(dial, b.Config.Timeouts.Connect, b.Logger), nil
}

// NewPipeline 以 Session 的工具目录装配单回合处理流程
func (b *Bootstrap) NewPipeline(client llm.Client, s *session.Session) (*chat.Pipeline, error) {
	if client == nil || s == nil {
		return nil, errors.Wrap(errors.ErrInvalidArg, "pipeline requires an llm client and a session")
	}
	logger := b.Logger.With("session_id", s.ID)
	catalog := s.Catalog()
	persona := chat.Persona{Name: b.Config.Assistant.Name}
	return chat.NewPipeline(chat.Config{
		Catalog:     catalog,
		Classifier:  chat.NewClassifier(client, b.Config.Timeouts.LLM, logger),
		Dispatcher:  chat.NewDispatcher(catalog, b.Config.Timeouts.Tool, logger),
		Synthesizer: chat.NewSynthesizer(client, persona, b.Config.Timeouts.LLM, logger),
		Recorder:    s,
		SessionID:   s.ID,
		Apology:     b.Config.Assistant.Apology,
		Logger:      b.Logger,
	})
}
