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

package app

import (
	"context"

	"campus-assistant/internal/einoext"
	"campus-assistant/internal/knowledge"
	"campus-assistant/internal/pipeline/ingest"
	"campus-assistant/internal/splitter"
	"campus-assistant/pkg/errors"
)

// NewKnowledgeGateway 创建向量库网关。
// 初始化失败时返回不可用的网关，工具服务照常启动，知识库查询返回错误载荷。
func (b *Bootstrap) NewKnowledgeGateway(ctx context.Context) *knowledge.Gateway {
	gw, err := b.openKnowledgeGateway(ctx)
	if err != nil {
		b.Logger.Warn("knowledge base unavailable", "error", err, "type", b.Config.Storage.Vector.Type)
		return knowledge.Unavailable(err)
	}
	return gw
}

// OpenKnowledgeGateway 与 NewKnowledgeGateway 相同，但初始化失败直接返回错误；入库程序使用
func (b *Bootstrap) OpenKnowledgeGateway(ctx context.Context) (*knowledge.Gateway, error) {
	return b.openKnowledgeGateway(ctx)
}

func (b *Bootstrap) openKnowledgeGateway(ctx context.Context) (*knowledge.Gateway, error) {
	embedder, err := b.NewEmbedder(ctx)
	if err != nil {
		return nil, err
	}
	vc := b.Config.Storage.Vector
	if vc.DSN, err = b.resolveSecret(ctx, "storage.vector.dsn", vc.DSN); err != nil {
		return nil, err
	}
	if vc.Password, err = b.resolveSecret(ctx, "storage.vector.password", vc.Password); err != nil {
		return nil, err
	}
	comps, err := einoext.New(ctx, vc, embedder)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s vector store", vc.Type)
	}
	gw, err := knowledge.FromComponents(comps, embedder, b.Config.Timeouts.Retrieval, b.Logger)
	if err != nil {
		_ = comps.Close()
		return nil, err
	}
	b.onClose(comps.Close)
	return gw, nil
}

// NewSplitter 按 chunking 配置选择切片器
func (b *Bootstrap) NewSplitter() (splitter.Splitter, error) {
	cc := b.Config.Chunking
	engine, err := splitter.NewEngine(cc.Size, cc.Overlap)
	if err != nil {
		return nil, err
	}
	name := cc.Splitter
	if name == "" {
		name = "window"
	}
	return engine.GetSplitter(name)
}

// NewIngester 装配文档导入器：文件加载、切片、写入向量库
func (b *Bootstrap) NewIngester(ctx context.Context) (*ingest.Ingester, error) {
	s, err := b.NewSplitter()
	if err != nil {
		return nil, errors.Wrap(err, "init splitter")
	}
	gw, err := b.OpenKnowledgeGateway(ctx)
	if err != nil {
		return nil, err
	}
	return ingest.NewIngester(ingest.NewFileLoader(0), gw, s, b.Logger)
}
