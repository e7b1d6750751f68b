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

	"campus-assistant/internal/tool"
)

// ErrClosed Session 已关闭
var ErrClosed = errors.New("session is closed")

// Backend 工具执行后端连接
type Backend interface {
	// ListTools 能力发现，按后端顺序返回工具描述
	ListTools(ctx context.Context) ([]tool.Descriptor, error)
	// CallTool 执行一次工具调用，返回原始文本结果
	CallTool(ctx context.Context, name string, args map[string]any) (string, error)
	// Close 释放连接
	Close() error
}

// Dialer 建立后端连接
type Dialer func(ctx context.Context) (Backend, error)
