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
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	einodoc "github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/schema"
)

const (
	// DefaultMaxFileSize 单个源文件上限
	DefaultMaxFileSize int64 = 100 * 1024 * 1024

	// MetaSource 文档来源路径
	MetaSource = "source"
	// MetaFormat 文档格式（pdf | text）
	MetaFormat = "format"
)

// ErrUnsupportedFormat 不支持的文件类型
var ErrUnsupportedFormat = errors.New("unsupported document format")

// FileLoader 实现 eino document.Loader：PDF 经 unipdf 提取，.txt/.md 原样读取
type FileLoader struct {
	maxSize int64
}

// NewFileLoader 创建本地文件加载器；maxSize <= 0 使用默认上限
func NewFileLoader(maxSize int64) *FileLoader {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &FileLoader{maxSize: maxSize}
}

// Format 按扩展名判断格式
func Format(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "pdf", nil
	case ".txt", ".text", ".md", ".markdown":
		return "text", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}
}

// Load 实现 github.com/cloudwego/eino/components/document.Loader，Source.URI 为本地路径或 file://
func (l *FileLoader) Load(ctx context.Context, src einodoc.Source, opts ...einodoc.LoaderOption) ([]*schema.Document, error) {
	path := strings.TrimSpace(src.URI)
	if path == "" {
		return nil, errors.New("source uri is empty")
	}
	lower := strings.ToLower(path)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return nil, fmt.Errorf("remote sources are not supported: %s", path)
	}
	path = strings.TrimPrefix(path, "file://")
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format, err := Format(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > l.maxSize {
		return nil, fmt.Errorf("%s exceeds size limit: %d > %d", path, info.Size(), l.maxSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	text := string(data)
	if format == "pdf" {
		if text, err = ExtractPDFText(data); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return []*schema.Document{{
		ID:       path,
		Content:  text,
		MetaData: map[string]any{MetaSource: path, MetaFormat: format},
	}}, nil
}

// CollectSources 展开参数：目录递归收集支持的文件，文件原样保留
func CollectSources(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			out = append(out, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if _, ferr := Format(path); ferr == nil {
				out = append(out, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", p, err)
		}
	}
	return out, nil
}
