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

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"campus-assistant/internal/tool"
)

// ToolCallRecord 一次工具调用的观察记录，仅用于诊断
type ToolCallRecord struct {
	Tool    string         `json:"tool"`
	Input   map[string]any `json:"input,omitempty"`
	Outcome string         `json:"outcome"` // ok | error | skipped
	Err     string         `json:"error,omitempty"`
	At      time.Time      `json:"at"`
}

// Session 持有后端连接与能力发现得到的工具目录
type Session struct {
	ID        string
	CreatedAt time.Time

	backend Backend
	catalog *tool.Catalog

	mu        sync.RWMutex
	toolCalls []ToolCallRecord
	closeOnce sync.Once
	closeErr  error
	closed    bool
}

// Connect 在已建立的后端上执行能力发现并创建 Session
func Connect(ctx context.Context, backend Backend) (*Session, error) {
	if backend == nil {
		return nil, errors.New("session requires a backend")
	}
	descs, err := backend.ListTools(ctx)
	if err != nil {
		return nil, err
	}
	s := &Session{
		ID:        "session-" + uuid.New().String(),
		CreatedAt: time.Now(),
		backend:   backend,
	}
	entries := make([]tool.Entry, len(descs))
	for i, d := range descs {
		entries[i] = tool.Entry{Descriptor: d, Handler: s.forward(d.Name)}
	}
	s.catalog, err = tool.NewCatalog(entries...)
	if err != nil {
		return nil, fmt.Errorf("build tool catalog: %w", err)
	}
	return s, nil
}

func (s *Session) forward(name string) tool.Handler {
	return func(ctx context.Context, args map[string]any) (string, error) {
		return s.CallTool(ctx, name, args)
	}
}

// Catalog 工具目录（只读）
func (s *Session) Catalog() *tool.Catalog { return s.catalog }

// CallTool 通过后端执行工具
func (s *Session) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return "", ErrClosed
	}
	return s.backend.CallTool(ctx, name, args)
}

// AddObservation 追加一次工具调用观察
func (s *Session) AddObservation(rec ToolCallRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.At.IsZero() {
		rec.At = time.Now()
	}
	s.toolCalls = append(s.toolCalls, rec)
}

// CopyToolCalls 返回 ToolCalls 的副本
func (s *Session) CopyToolCalls() []ToolCallRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.toolCalls) == 0 {
		return nil
	}
	out := make([]ToolCallRecord, len(s.toolCalls))
	copy(out, s.toolCalls)
	return out
}

// Close 释放后端连接；可重复调用
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		s.closeErr = s.backend.Close()
	})
	return s.closeErr
}

// Closed 是否已关闭
func (s *Session) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
