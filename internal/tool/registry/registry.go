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

package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"campus-assistant/internal/tool"
)

// ErrFrozen 注册表冻结后不可再注册
var ErrFrozen = errors.New("tool registry is frozen")

// Registry 工具注册表：按注册顺序保存，Freeze 后只读
type Registry struct {
	mu     sync.RWMutex
	order  []string
	tools  map[string]tool.Tool
	frozen bool
}

// New 创建新的 ToolRegistry
func New() *Registry {
	return &Registry{
		tools: make(map[string]tool.Tool),
	}
}

// Register 注册工具；名称重复或已冻结时报错
func (r *Registry) Register(t tool.Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return ErrFrozen
	}
	name := t.Name()
	if name == "" {
		return fmt.Errorf("tool name is empty")
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}
	r.tools[name] = t
	r.order = append(r.order, name)
	return nil
}

// MustRegister 同 Register，失败时 panic；用于启动期装配
func (r *Registry) MustRegister(tools ...tool.Tool) {
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
}

// Freeze 冻结注册表
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Frozen 是否已冻结
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Get 按名称获取工具
func (r *Registry) Get(name string) (tool.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List 按注册顺序返回所有工具
func (r *Registry) List() []tool.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]tool.Tool, 0, len(r.order))
	for _, name := range r.order {
		list = append(list, r.tools[name])
	}
	return list
}

// Descriptors 按注册顺序返回工具描述
func (r *Registry) Descriptors() []tool.Descriptor {
	tools := r.List()
	out := make([]tool.Descriptor, len(tools))
	for i, t := range tools {
		out[i] = tool.Describe(t)
	}
	return out
}

// Catalog 以本地工具构建只读目录，handler 直接调用 Execute
func (r *Registry) Catalog() (*tool.Catalog, error) {
	tools := r.List()
	entries := make([]tool.Entry, len(tools))
	for i, t := range tools {
		entries[i] = tool.Entry{Descriptor: tool.Describe(t), Handler: LocalHandler(t)}
	}
	return tool.NewCatalog(entries...)
}

// SchemasJSON 返回工具描述列表的 JSON
func (r *Registry) SchemasJSON() ([]byte, error) {
	return json.Marshal(r.Descriptors())
}
