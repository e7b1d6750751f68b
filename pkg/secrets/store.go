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

package secrets

import (
	"context"
	"fmt"
	"strings"
)

// RefPrefix 配置值以该前缀开头时按 secret key 解析
const RefPrefix = "secret:"

// Store 只读 secret 来源
type Store interface {
	// Get 获取 secret 值
	Get(ctx context.Context, key string) (string, error)
}

// Config secret 来源配置
type Config struct {
	Provider string      // env | vault | file | memory
	Vault    VaultConfig // provider=vault
	Dir      string      // provider=file
}

// NewStore 根据配置创建 Store
func NewStore(config Config) (Store, error) {
	switch config.Provider {
	case "", "env":
		return NewEnvStore(), nil
	case "memory":
		return NewMemoryStore(nil), nil
	case "vault":
		return NewVaultStore(config.Vault)
	case "file":
		return NewFileStore(config.Dir), nil
	default:
		return nil, fmt.Errorf("unsupported secret provider: %s", config.Provider)
	}
}

// Resolve 若 value 形如 "secret:<key>" 则从 s 读取，否则原样返回
func Resolve(ctx context.Context, s Store, value string) (string, error) {
	key, ok := strings.CutPrefix(value, RefPrefix)
	if !ok {
		return value, nil
	}
	if s == nil {
		return "", fmt.Errorf("secret %q referenced but no secret store configured", key)
	}
	return s.Get(ctx, key)
}
