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

package common

import "time"

// Chunk 文档切片；ID 由 (source, index) 确定
type Chunk struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Source string `json:"source"`
	Index  int    `json:"index"`
}

// KnowledgeQuery 知识库查询
type KnowledgeQuery struct {
	Text string `json:"query_text"`
	K    int    `json:"n_results"`
}

// Validate 校验查询参数
func (q KnowledgeQuery) Validate() error {
	if q.Text == "" {
		return NewValidationError("query_text", "must not be empty")
	}
	if q.K <= 0 {
		return NewValidationError("n_results", "must be greater than zero")
	}
	return nil
}

// RetrievalResult 按相似度降序排列的切片文本，长度不超过 K
type RetrievalResult struct {
	Texts       []string      `json:"texts"`
	Scores      []float64     `json:"scores,omitempty"`
	ProcessTime time.Duration `json:"process_time"`
}

// Len 结果条数
func (r *RetrievalResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Texts)
}
