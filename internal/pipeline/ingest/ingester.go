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

package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	einodoc "github.com/cloudwego/eino/components/document"

	"campus-assistant/internal/pipeline/common"
	"campus-assistant/internal/splitter"
	"campus-assistant/pkg/log"
)

// Sink 切分并写入一个来源的文本
type Sink interface {
	IngestSource(ctx context.Context, source, text string, s splitter.Splitter) ([]common.Chunk, error)
}

// SourceResult 单个来源的导入结果
type SourceResult struct {
	Source  string
	Chunks  int
	Skipped bool
	Err     error
}

// Report 一次导入的汇总
type Report struct {
	Results []SourceResult
}

// Failed 是否有来源失败
func (r Report) Failed() bool {
	for _, res := range r.Results {
		if res.Err != nil {
			return true
		}
	}
	return false
}

// Total 写入的切片总数
func (r Report) Total() int {
	n := 0
	for _, res := range r.Results {
		n += res.Chunks
	}
	return n
}

// Ingester 逐个来源地加载、切分、写入
type Ingester struct {
	loader   einodoc.Loader
	sink     Sink
	splitter splitter.Splitter
	logger   *log.Logger
}

// NewIngester 创建导入器；loader 为空时使用 FileLoader
func NewIngester(loader einodoc.Loader, sink Sink, s splitter.Splitter, logger *log.Logger) (*Ingester, error) {
	if sink == nil || s == nil {
		return nil, errors.New("ingester requires a sink and a splitter")
	}
	if loader == nil {
		loader = NewFileLoader(0)
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Ingester{loader: loader, sink: sink, splitter: s, logger: logger}, nil
}

// Run 依次导入 sources；单个来源失败不影响其余来源，取消时立即返回已完成部分
func (in *Ingester) Run(ctx context.Context, sources []string) (Report, error) {
	var report Report
	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res := in.ingestOne(ctx, source)
		report.Results = append(report.Results, res)
		switch {
		case res.Err != nil:
			in.logger.Error("ingest failed", "source", source, "error", res.Err)
		case res.Skipped:
			in.logger.Warn("source has no text, skipped", "source", source)
		default:
			in.logger.Info("ingested", "source", source, "chunks", res.Chunks)
		}
	}
	return report, nil
}

func (in *Ingester) ingestOne(ctx context.Context, source string) SourceResult {
	res := SourceResult{Source: source}
	docs, err := in.loader.Load(ctx, einodoc.Source{URI: source})
	if err != nil {
		res.Err = fmt.Errorf("%w: %w", common.ErrLoadingFailed, err)
		return res
	}
	var sb strings.Builder
	for _, d := range docs {
		if text := strings.TrimSpace(d.Content); text != "" {
			if sb.Len() > 0 {
				sb.WriteString("\n\n")
			}
			sb.WriteString(text)
		}
	}
	if sb.Len() == 0 {
		res.Skipped = true
		return res
	}
	chunks, err := in.sink.IngestSource(ctx, source, sb.String(), in.splitter)
	if err != nil {
		res.Err = err
		return res
	}
	res.Chunks = len(chunks)
	return res
}
