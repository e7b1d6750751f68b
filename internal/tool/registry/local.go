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
	"context"
	"errors"

	"campus-assistant/internal/tool"
)

// LocalHandler 将 Tool 适配为 tool.Handler；Result.Err 非空时作为错误返回
func LocalHandler(t tool.Tool) tool.Handler {
	return func(ctx context.Context, args map[string]any) (string, error) {
		res, err := t.Execute(ctx, args)
		if err != nil {
			return "", err
		}
		if res.Err != "" {
			return "", errors.New(res.Err)
		}
		return res.Content, nil
	}
}
