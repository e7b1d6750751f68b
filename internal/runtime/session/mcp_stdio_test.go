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
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-assistant/internal/api/mcpserver"
	"campus-assistant/pkg/log"
)

const chattyServerEnv = "CAMPUS_ASSISTANT_CHATTY_TOOLSERVER"

// TestMain 在设置环境变量时把测试二进制当作 stdio 工具服务运行
func TestMain(m *testing.M) {
	if os.Getenv(chattyServerEnv) == "1" {
		os.Exit(runChattyToolServer())
	}
	os.Exit(m.Run())
}

// runChattyToolServer 每次调用向 stderr 写 1KB 日志
func runChattyToolServer() int {
	srv := server.NewMCPServer("chatty", "1.0.0", server.WithToolCapabilities(false))
	srv.AddTool(mcp.NewTool("chatty"), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		fmt.Fprintln(os.Stderr, strings.Repeat("x", 1024))
		return mcp.NewToolResultText("ok"), nil
	})
	if err := mcpserver.ServeStdio(context.Background(), srv, os.Stdin, os.Stdout, os.Stderr); err != nil {
		return 1
	}
	return 0
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestDialStdio_ChildStderrDoesNotStallCalls(t *testing.T) {
	exe, err := os.Executable()
	require.NoError(t, err)

	logs := &syncBuffer{}
	logger := log.NewWithWriter(nil, logs)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	b, err := DialStdio(ctx, logger, exe, []string{chattyServerEnv + "=1"}, "-test.run=^$")
	require.NoError(t, err)
	defer b.Close()

	// 累计输出远超管道缓冲
	for i := 0; i < 200; i++ {
		callCtx, callCancel := context.WithTimeout(context.Background(), 3*time.Second)
		out, err := b.CallTool(callCtx, "chatty", map[string]any{})
		callCancel()
		require.NoError(t, err, "call %d", i)
		require.Equal(t, "ok", out)
	}
	assert.Eventually(t, func() bool {
		return strings.Contains(logs.String(), "tool server stderr")
	}, 2*time.Second, 20*time.Millisecond)
	assert.Contains(t, logs.String(), `"component":"toolserver"`)
}

func TestDialStdio_EmptyCommand(t *testing.T) {
	_, err := DialStdio(context.Background(), nil, "", nil)
	assert.Error(t, err)
}
