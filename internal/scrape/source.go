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

// Package scrape 抓取学院网站的新闻与通知列表
package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"campus-assistant/internal/storage/cache"
	"campus-assistant/pkg/log"
)

// Source 新闻与通知来源，返回 JSON 文本
type Source interface {
	NewsEvents(ctx context.Context) (string, error)
	Notifications(ctx context.Context) (string, error)
}

// Item 列表条目
type Item struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// Page 抓取页面与链接过滤片段
type Page struct {
	URL          string
	LinkContains string
}

// Config HTTPSource 配置
type Config struct {
	News          Page
	Notifications Page
	MaxItems      int
	CacheTTL      time.Duration
	Timeout       time.Duration
	UserAgent     string
}

// HTTPSource 通过 HTTP 抓取页面并提取链接
type HTTPSource struct {
	cfg    Config
	client *resty.Client
	cache  cache.Store
	logger *log.Logger
}

// NewHTTPSource 创建 HTTPSource；store 为 nil 时不缓存
func NewHTTPSource(cfg Config, store cache.Store, logger *log.Logger) *HTTPSource {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = log.Nop()
	}
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(1).
		SetRetryWaitTime(500 * time.Millisecond)
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}
	return &HTTPSource{cfg: cfg, client: client, cache: store, logger: logger}
}

// NewsEvents 新闻与活动
func (s *HTTPSource) NewsEvents(ctx context.Context) (string, error) {
	return s.fetch(ctx, "news", s.cfg.News)
}

// Notifications 通知与公告
func (s *HTTPSource) Notifications(ctx context.Context) (string, error) {
	return s.fetch(ctx, "notifications", s.cfg.Notifications)
}

func (s *HTTPSource) fetch(ctx context.Context, kind string, page Page) (string, error) {
	if page.URL == "" {
		return "", fmt.Errorf("scrape %s: url not configured", kind)
	}
	key := "scrape:" + kind
	if s.cache != nil {
		var cached string
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("scrape cache read failed", "kind", kind, "error", err)
		}
	}

	resp, err := s.client.R().SetContext(ctx).Get(page.URL)
	if err != nil {
		return "", fmt.Errorf("scrape %s: %w", kind, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("scrape %s: %s returned %d", kind, page.URL, resp.StatusCode())
	}
	items, err := ExtractLinks(strings.NewReader(resp.String()), page.URL, page.LinkContains, s.cfg.MaxItems)
	if err != nil {
		return "", fmt.Errorf("scrape %s: %w", kind, err)
	}
	out, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	payload := string(out)

	if s.cache != nil && s.cfg.CacheTTL > 0 {
		if err := s.cache.Set(ctx, key, payload, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("scrape cache write failed", "kind", kind, "error", err)
		}
	}
	s.logger.Debug("page scraped", "kind", kind, "items", len(items))
	return payload, nil
}
