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
	"strings"

	"campus-assistant/internal/pipeline/common"
)

// Window 定长滑动窗口切片器，按 rune 计数。
// 每步前进 size-overlap，结果去除首尾空白并丢弃空片。
type Window struct {
	size    int
	overlap int
}

// NewWindow 创建滑动窗口切片器；要求 size > 0 且 0 <= overlap < size
func NewWindow(size, overlap int) (*Window, error) {
	if err := validate(size, overlap); err != nil {
		return nil, err
	}
	return &Window{size: size, overlap: overlap}, nil
}

// Name 返回切片器名称
func (w *Window) Name() string {
	return "window"
}

// Split 切片
func (w *Window) Split(text string) ([]string, error) {
	return slide([]rune(text), w.size, w.overlap, func(r []rune) string { return string(r) }), nil
}

// Chunk 以给定参数对 text 切片，参数非法时返回 ChunkingConfigurationError 且不产生任何切片
func Chunk(text string, size, overlap int) ([]string, error) {
	w, err := NewWindow(size, overlap)
	if err != nil {
		return nil, err
	}
	return w.Split(text)
}

func validate(size, overlap int) error {
	if size <= 0 || overlap < 0 || overlap >= size {
		return &common.ChunkingConfigurationError{Size: size, Overlap: overlap}
	}
	return nil
}

// slide 在 units 上滑动宽度为 size 的窗口，调用方保证 size > overlap >= 0
func slide[T any](units []T, size, overlap int, join func([]T) string) []string {
	step := size - overlap
	var chunks []string
	for start := 0; start < len(units); start += step {
		end := start + size
		if end > len(units) {
			end = len(units)
		}
		if piece := strings.TrimSpace(join(units[start:end])); piece != "" {
			chunks = append(chunks, piece)
		}
	}
	return chunks
}
