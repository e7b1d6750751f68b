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
	"campus-assistant/internal/scrape"
	"campus-assistant/internal/tool/registry"
)

// RegisterBuiltin 按固定顺序注册三个内置工具并冻结注册表
func RegisterBuiltin(reg *registry.Registry, source scrape.Source, kb KnowledgeBase) error {
	if err := reg.Register(NewNewsTool(source)); err != nil {
		return err
	}
	if err := reg.Register(NewNotificationsTool(source)); err != nil {
		return err
	}
	if err := reg.Register(NewKnowledgeTool(kb)); err != nil {
		return err
	}
	reg.Freeze()
	return nil
}
