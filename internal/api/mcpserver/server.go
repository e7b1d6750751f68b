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

// Package mcpserver 将工具注册表发布为 MCP 服务
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"campus-assistant/internal/tool"
	"campus-assistant/internal/tool/registry"
	"campus-assistant/pkg/log"
)

// Options 服务参数
type Options struct {
	Name    string
	Version string
	// ToolTimeout 单次工具执行超时，<= 0 不限制
	ToolTimeout time.Duration
	Logger      *log.Logger
}

// New 以已冻结的注册表构建 MCP 服务，工具按注册顺序发布
func New(reg *registry.Registry, opts Options) (*server.MCPServer, error) {
	if reg == nil {
		return nil, errors.New("mcp server requires a tool registry")
	}
	if !reg.Frozen() {
		return nil, errors.New("tool registry must be frozen before serving")
	}
	if opts.Name == "" {
		opts.Name = "campus-assistant-tools"
	}
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}

	srv := server.NewMCPServer(opts.Name, opts.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	for _, t := range reg.List() {
		srv.AddTool(ToolSpec(tool.Describe(t)), handler(t, opts.ToolTimeout, logger))
	}
	return srv, nil
}

// ToolSpec 将 Descriptor 转为 MCP 工具定义
func ToolSpec(d tool.Descriptor) mcp.Tool {
	props := make(map[string]any, len(d.Schema.Properties))
	for name, p := range d.Schema.Properties {
		prop := map[string]any{"type": p.Type}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		props[name] = prop
	}
	schemaType := d.Schema.Type
	if schemaType == "" {
		schemaType = "object"
	}
	return mcp.Tool{
		Name:        d.Name,
		Description: d.Description,
		InputSchema: mcp.ToolInputSchema{
			Type:       schemaType,
			Properties: props,
			Required:   append([]string(nil), d.Schema.Required...),
		},
	}
}

func handler(t tool.Tool, timeout time.Duration, logger *log.Logger) server.ToolHandlerFunc {
	name := t.Name()
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		start := time.Now()
		res, err := t.Execute(ctx, req.GetArguments())
		if err != nil {
			logger.Error("tool execution failed", "tool", name, "error", err)
			return nil, fmt.Errorf("tool %s: %w", name, err)
		}
		if res.Err != "" {
			logger.Warn("tool returned error", "tool", name, "error", res.Err)
			return mcp.NewToolResultError(res.Err), nil
		}
		logger.Debug("tool executed", "tool", name, "elapsed", time.Since(start))
		return mcp.NewToolResultText(res.Content), nil
	}
}

// ServeStdio 在 in/out 上提供 MCP stdio 服务，直到 ctx 取消或输入结束
func ServeStdio(ctx context.Context, srv *server.MCPServer, in io.Reader, out io.Writer, errLog io.Writer) error {
	stdio := server.NewStdioServer(srv)
	if errLog != nil {
		stdio.SetErrorLogger(stdlog.New(errLog, "mcp: ", stdlog.LstdFlags))
	}
	err := stdio.Listen(ctx, in, out)
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, io.EOF)) {
		return nil
	}
	return err
}
