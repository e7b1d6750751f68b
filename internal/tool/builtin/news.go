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

package builtin

import (
	"context"

	"campus-assistant/internal/scrape"
	"campus-assistant/internal/tool"
)

// NewsTool 实现 get_latest_news
type NewsTool struct {
	source scrape.Source
}

// NewNewsTool 创建 get_latest_news 工具
func NewNewsTool(source scrape.Source) *NewsTool {
	return &NewsTool{source: source}
}

// Name 实现 tool.Tool
func (t *NewsTool) Name() string { return "get_latest_news" }

// Description 实现 tool.Tool
func (t *NewsTool) Description() string {
	return "Use for general inquiries about news, events, festivals, workshops, or what's happening at the college. Returns the latest 'News & Events' entries as JSON."
}

// Schema 实现 tool.Tool
func (t *NewsTool) Schema() tool.Schema {
	return tool.Schema{Type: "object", Properties: map[string]tool.SchemaProperty{}}
}

// Execute 实现 tool.Tool
func (t *NewsTool) Execute(ctx context.Context, input map[string]any) (tool.Result, error) {
	out, err := t.source.NewsEvents(ctx)
	if err != nil {
		return tool.Result{Err: err.Error()}, nil
	}
	return tool.Result{Content: out}, nil
}

// NotificationsTool 实现 get_college_notifications
type NotificationsTool struct {
	source scrape.Source
}

// NewNotificationsTool 创建 get_college_notifications 工具
func NewNotificationsTool(source scrape.Source) *NotificationsTool {
	return &NotificationsTool{source: source}
}

// Name 实现 tool.Tool
func (t *NotificationsTool) Name() string { return "get_college_notifications" }

// Description 实现 tool.Tool
func (t *NotificationsTool) Description() string {
	return "Use for official notices, circulars, announcements, and deadlines. Returns the latest college notifications as JSON."
}

// Schema 实现 tool.Tool
func (t *NotificationsTool) Schema() tool.Schema {
	return tool.Schema{Type: "object", Properties: map[string]tool.SchemaProperty{}}
}

// Execute 实现 tool.Tool
func (t *NotificationsTool) Execute(ctx context.Context, input map[string]any) (tool.Result, error) {
	out, err := t.source.Notifications(ctx)
	if err != nil {
		return tool.Result{Err: err.Error()}, nil
	}
	return tool.Result{Content: out}, nil
}
