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

package tool

import (
	"context"
	"fmt"
	"strings"
)

// None 表示不调用工具
const None = "none"

// Descriptor 工具描述：名称、说明、参数 Schema
type Descriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Schema      Schema `json:"input_schema"`
}

// Describe 由 Tool 生成 Descriptor
func Describe(t Tool) Descriptor {
	return Descriptor{Name: t.Name(), Description: t.Description(), Schema: t.Schema()}
}

// Call 一次结构化工具调用
type Call struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// NoneCall 不调用工具
func NoneCall() Call { return Call{Tool: None} }

// IsNone 是否为不调用工具
func (c Call) IsNone() bool { return c.Tool == "" || strings.EqualFold(c.Tool, None) }

// Handler 执行一次调用，返回原始文本/JSON 结果
type Handler func(ctx context.Context, args map[string]any) (string, error)

// Entry 执行表中的一项
type Entry struct {
	Descriptor Descriptor
	Handler    Handler
}

// Catalog 工具目录与执行表，构造后只读
type Catalog struct {
	entries []Entry
	index   map[string]int
}

// NewCatalog 按给定顺序构建目录；名称为空、重复或缺少 handler 时报错
func NewCatalog(entries ...Entry) (*Catalog, error) {
	c := &Catalog{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		name := e.Descriptor.Name
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("tool catalog: empty tool name")
		}
		if strings.EqualFold(name, None) {
			return nil, fmt.Errorf("tool catalog: %q is reserved", None)
		}
		if _, dup := c.index[name]; dup {
			return nil, fmt.Errorf("tool catalog: duplicate tool %q", name)
		}
		if e.Handler == nil {
			return nil, fmt.Errorf("tool catalog: tool %q has no handler", name)
		}
		e.Descriptor.Schema = e.Descriptor.Schema.Clone()
		c.index[name] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	return c, nil
}

// Lookup 按名称查找
func (c *Catalog) Lookup(name string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	i, ok := c.index[name]
	if !ok {
		return Entry{}, false
	}
	e := c.entries[i]
	e.Descriptor.Schema = e.Descriptor.Schema.Clone()
	return e, true
}

// Has 是否包含该工具
func (c *Catalog) Has(name string) bool {
	_, ok := c.Lookup(name)
	return ok
}

// Descriptors 按发现顺序返回描述的副本
func (c *Catalog) Descriptors() []Descriptor {
	if c == nil {
		return nil
	}
	out := make([]Descriptor, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Descriptor
		out[i].Schema = e.Descriptor.Schema.Clone()
	}
	return out
}

// Names 按发现顺序返回工具名
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Descriptor.Name
	}
	return out
}

// Len 工具数量
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}
