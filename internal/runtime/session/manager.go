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
	"time"

	"campus-assistant/internal/pipeline/common"
	"campus-assistant/pkg/log"
)

// Manager 管理 Session 的建立与释放
type Manager struct {
	dial           Dialer
	connectTimeout time.Duration
	logger         *log.Logger
}

// NewManager 创建 Manager；connectTimeout <= 0 时不限制
func NewManager(dial Dialer, connectTimeout time.Duration, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Nop()
	}
	return &Manager{dial: dial, connectTimeout: connectTimeout, logger: logger}
}

// Connect 建立后端连接并完成能力发现
func (m *Manager) Connect(ctx context.Context) (*Session, error) {
	if m.dial == nil {
		return nil, errors.New("session manager has no dialer")
	}
	connectCtx := ctx
	if m.connectTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, m.connectTimeout)
		defer cancel()
	}
	backend, err := m.dial(connectCtx)
	if err != nil {
		return nil, fmt.Errorf("connect tool backend: %w: %w", common.ErrBackendUnavailable, err)
	}
	s, err := Connect(connectCtx, backend)
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("discover tools: %w", err)
	}
	m.logger.Info("session connected", "session_id", s.ID, "tools", s.Catalog().Names())
	return s, nil
}

// Run 建立 Session、执行 fn，并在任何退出路径上关闭 Session（包括 panic 与取消）
func (m *Manager) Run(ctx context.Context, fn func(ctx context.Context, s *Session) error) (err error) {
	s, err := m.Connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			m.logger.Warn("session close failed", "session_id", s.ID, "error", cerr)
			if err == nil {
				err = cerr
			}
		} else {
			m.logger.Info("session closed", "session_id", s.ID)
		}
	}()
	return fn(ctx, s)
}
