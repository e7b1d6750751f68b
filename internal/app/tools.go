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

	"github.com/mark3labs/mcp-go/server"

	"campus-assistant/internal/api/mcpserver"
	"campus-assistant/internal/scrape"
	"campus-assistant/internal/storage/cache"
	"campus-assistant/internal/tool/builtin"
	"campus-assistant/internal/tool/registry"
	"campus-assistant/pkg/errors"
)

// NewScrapeSource 创建校园网站抓取源，抓取结果写入缓存
func (b *Bootstrap) NewScrapeSource(ctx context.Context) (*scrape.HTTPSource, error) {
	cc := b.Config.Storage.Cache
	var err error
	if cc.Password, err = b.resolveSecret(ctx, "storage.cache.password", cc.Password); err != nil {
		return nil, err
	}
	store, err := cache.NewCache(cc)
	if err != nil {
		return nil, errors.Wrap(err, "init cache")
	}
	b.onClose(store.Close)

	sc := b.Config.Scrape
	return scrape.NewHTTPSource(scrape.Config{
		News:          scrape.Page{URL: sc.News.URL, LinkContains: sc.News.LinkContains},
		Notifications: scrape.Page{URL: sc.Notifications.URL, LinkContains: sc.Notifications.LinkContains},
		MaxItems:      sc.MaxItems,
		CacheTTL:      sc.CacheTTL,
		Timeout:       sc.Timeout,
		UserAgent:     sc.UserAgent,
	}, store, b.Logger), nil
}

// NewToolRegistry 注册三个内置工具并冻结
func (b *Bootstrap) NewToolRegistry(ctx context.Context) (*registry.Registry, error) {
	source, err := b.NewScrapeSource(ctx)
	if err != nil {
		return nil, err
	}
	reg := registry.New()
	if err := builtin.RegisterBuiltin(reg, source, b.NewKnowledgeGateway(ctx)); err != nil {
		return nil, errors.Wrap(err, "register tools")
	}
	return reg, nil
}

// NewToolServer 创建 MCP 工具服务
func (b *Bootstrap) NewToolServer(ctx context.Context) (*server.MCPServer, error) {
	reg, err := b.NewToolRegistry(ctx)
	if err != nil {
		return nil, err
	}
	return mcpserver.New(reg, mcpserver.Options{
		Name:        b.Config.Assistant.Name + " tools",
		Version:     b.Config.Assistant.Version,
		ToolTimeout: b.Config.Timeouts.Tool,
		Logger:      b.Logger.With("component", "toolserver"),
	})
}
