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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"campus-assistant/internal/tool"
	"campus-assistant/pkg/log"
)

// ClientInfo initialize 握手中上报的客户端信息
var ClientInfo = mcp.Implementation{Name: "campus-assistant", Version: "1.0.0"}

// MCPBackend 基于 mcp-go 客户端的 Backend
type MCPBackend struct {
	client *client.Client
}

// DialStdio 启动工具服务子进程并通过 stdio 完成握手。
// 子进程的 stderr 持续转发到 logger，管道写满会阻塞子进程。
func DialStdio(ctx context.Context, logger *log.Logger, command string, env []string, args ...string) (*MCPBackend, error) {
	if command == "" {
		return nil, errors.New("stdio backend: command is empty")
	}
	if logger == nil {
		logger = log.Nop()
	}
	c, err := client.NewStdioMCPClient(command, env, args...)
	if err != nil {
		return nil, fmt.Errorf("start tool server %s: %w", command, err)
	}
	if stderr, ok := client.GetStderr(c); ok {
		go forwardStderr(stderr, logger.With("component", "toolserver", "command", command))
	}
	return handshake(ctx, c)
}

// forwardStderr 逐行转发直到管道关闭
func forwardStderr(r io.Reader, logger *log.Logger) {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line = strings.TrimRight(line, "\r\n"); line != "" {
			logger.Info("tool server stderr", "line", line)
		}
		if err != nil {
			return
		}
	}
}

// DialInProcess 连接同进程内的 MCP 服务
func DialInProcess(ctx context.Context, srv *server.MCPServer) (*MCPBackend, error) {
	c, err := client.NewInProcessClient(srv)
	if err != nil {
		return nil, fmt.Errorf("in-process client: %w", err)
	}
	if err := c.Start(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("start in-process client: %w", err)
	}
	return handshake(ctx, c)
}

func handshake(ctx context.Context, c *client.Client) (*MCPBackend, error) {
	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = ClientInfo
	if _, err := c.Initialize(ctx, req); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("mcp initialize: %w", err)
	}
	return &MCPBackend{client: c}, nil
}

// ListTools 实现 Backend
func (b *MCPBackend) ListTools(ctx context.Context) ([]tool.Descriptor, error) {
	res, err := b.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("mcp tools/list: %w", err)
	}
	out := make([]tool.Descriptor, 0, len(res.Tools))
	for _, t := range res.Tools {
		out = append(out, descriptorFromMCP(t))
	}
	return out, nil
}

// CallTool 实现 Backend；isError 结果作为错误返回
func (b *MCPBackend) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	res, err := b.client.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("mcp tools/call %s: %w", name, err)
	}
	text := resultText(res)
	if res.IsError {
		if text == "" {
			text = "tool reported an error"
		}
		return "", errors.New(text)
	}
	return text, nil
}

// Close 实现 Backend
func (b *MCPBackend) Close() error {
	return b.client.Close()
}

func resultText(res *mcp.CallToolResult) string {
	var parts []string
	for _, c := range res.Content {
		switch tc := c.(type) {
		case mcp.TextContent:
			parts = append(parts, tc.Text)
		case *mcp.TextContent:
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func descriptorFromMCP(t mcp.Tool) tool.Descriptor {
	schema := tool.Schema{
		Type:       t.InputSchema.Type,
		Properties: make(map[string]tool.SchemaProperty, len(t.InputSchema.Properties)),
		Required:   append([]string(nil), t.InputSchema.Required...),
	}
	for name, raw := range t.InputSchema.Properties {
		var p tool.SchemaProperty
		if m, ok := raw.(map[string]any); ok {
			p.Type, _ = m["type"].(string)
			p.Description, _ = m["description"].(string)
		}
		schema.Properties[name] = p
	}
	return tool.Descriptor{Name: t.Name, Description: t.Description, Schema: schema}
}
