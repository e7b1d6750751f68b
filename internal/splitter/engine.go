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

package splitter

import (
	"fmt"
	"sort"
)

const (
	// DefaultChunkSize 默认窗口宽度（字符）
	DefaultChunkSize = 1000
	// DefaultChunkOverlap 默认窗口重叠（字符）
	DefaultChunkOverlap = 100
)

// Splitter 切片器接口
type Splitter interface {
	Split(text string) ([]string, error)
	Name() string
}

// Engine 切片引擎，按名称选择切片器
type Engine struct {
	splitters map[string]Splitter
}

// NewEngine 创建切片引擎并注册内置切片器；size/overlap 非法时直接失败
func NewEngine(size, overlap int) (*Engine, error) {
	window, err := NewWindow(size, overlap)
	if err != nil {
		return nil, err
	}
	token, err := NewTokenSplitter(size, overlap)
	if err != nil {
		return nil, err
	}
	e := &Engine{splitters: make(map[string]Splitter)}
	e.AddSplitter(window)
	e.AddSplitter(token)
	return e, nil
}

// AddSplitter 添加自定义切片器
func (e *Engine) AddSplitter(s Splitter) {
	e.splitters[s.Name()] = s
}

// GetSplitter 获取切片器
func (e *Engine) GetSplitter(name string) (Splitter, error) {
	s, ok := e.splitters[name]
	if !ok {
		return nil, fmt.Errorf("splitter not found: %s", name)
	}
	return s, nil
}

// Split 执行切片
func (e *Engine) Split(text string, name string) ([]string, error) {
	s, err := e.GetSplitter(name)
	if err != nil {
		return nil, err
	}
	chunks, err := s.Split(text)
	if err != nil {
		return nil, fmt.Errorf("split failed: %w", err)
	}
	return chunks, nil
}

// GetSplitters 获取所有切片器名称（有序）
func (e *Engine) GetSplitters() []string {
	names := make([]string, 0, len(e.splitters))
	for name := range e.splitters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
