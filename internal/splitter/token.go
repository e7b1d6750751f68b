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

import "strings"

// TokenSplitter 以空白分隔的词为单位做滑动窗口
type TokenSplitter struct {
	maxTokens int
	overlap   int
}

// NewTokenSplitter 创建词窗口切片器，参数约束与 Window 相同
func NewTokenSplitter(maxTokens, overlap int) (*TokenSplitter, error) {
	if err := validate(maxTokens, overlap); err != nil {
		return nil, err
	}
	return &TokenSplitter{maxTokens: maxTokens, overlap: overlap}, nil
}

// Name 返回切片器名称
func (s *TokenSplitter) Name() string {
	return "token"
}

// Split 切片
func (s *TokenSplitter) Split(text string) ([]string, error) {
	words := strings.Fields(text)
	return slide(words, s.maxTokens, s.overlap, func(w []string) string { return strings.Join(w, " ") }), nil
}
