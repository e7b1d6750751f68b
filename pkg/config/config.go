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

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 助手、工具服务与入库程序共用的配置
type Config struct {
	Assistant  AssistantConfig  `mapstructure:"assistant"`
	Backend    BackendConfig    `mapstructure:"backend"`
	Model      ModelConfig      `mapstructure:"model"`
	RateLimits RateLimitsConfig `mapstructure:"rate_limits"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Chunking   ChunkingConfig   `mapstructure:"chunking"`
	Scrape     ScrapeConfig     `mapstructure:"scrape"`
	Timeouts   TimeoutsConfig   `mapstructure:"timeouts"`
	Secrets    SecretsConfig    `mapstructure:"secrets"`
	Log        LogConfig        `mapstructure:"log"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// AssistantConfig 对话助手配置
type AssistantConfig struct {
	Name     string `mapstructure:"name"`
	Version  string `mapstructure:"version"`
	Greeting string `mapstructure:"greeting"`
	Farewell string `mapstructure:"farewell"`
	Apology  string `mapstructure:"apology"`
}

// BackendConfig 工具后端连接配置
type BackendConfig struct {
	Transport string   `mapstructure:"transport"` // inprocess | stdio
	Command   string   `mapstructure:"command"`   // stdio 模式下启动的工具服务
	Args      []string `mapstructure:"args"`
	Env       []string `mapstructure:"env"`
}

// ModelConfig 模型配置
type ModelConfig struct {
	LLM       LLMConfig       `mapstructure:"llm"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
}

// LLMConfig 生成模型配置
type LLMConfig struct {
	Provider   string        `mapstructure:"provider"` // ollama | openai
	Model      string        `mapstructure:"model"`
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// EmbeddingConfig 向量化模型配置
type EmbeddingConfig struct {
	Provider  string        `mapstructure:"provider"` // ollama | openai
	Model     string        `mapstructure:"model"`
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	Dimension int           `mapstructure:"dimension"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// RateLimitsConfig 限流配置
type RateLimitsConfig struct {
	LLM map[string]LLMRateLimitConfig `mapstructure:"llm"`
}

// LLMRateLimitConfig 单个 LLM Provider 的限流配置
type LLMRateLimitConfig struct {
	TokensPerMinute   int     `mapstructure:"tokens_per_minute"`
	RequestsPerMinute float64 `mapstructure:"requests_per_minute"`
	MaxConcurrent     int     `mapstructure:"max_concurrent"`
}

// StorageConfig 存储配置
type StorageConfig struct {
	Vector VectorConfig `mapstructure:"vector"`
	Cache  CacheConfig  `mapstructure:"cache"`
}

// VectorConfig 向量存储配置
type VectorConfig struct {
	Type     string `mapstructure:"type"` // memory | postgres | redis
	DSN      string `mapstructure:"dsn"`  // postgres 连接串
	Addr     string `mapstructure:"addr"` // redis 地址
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Index    string `mapstructure:"index"`
	Distance string `mapstructure:"distance"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Type     string `mapstructure:"type"` // memory | redis
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ChunkingConfig 文档切片配置
type ChunkingConfig struct {
	Splitter string `mapstructure:"splitter"` // window | token
	Size     int    `mapstructure:"size"`
	Overlap  int    `mapstructure:"overlap"`
}

// ScrapeConfig 校园网站抓取配置
type ScrapeConfig struct {
	News          PageConfig    `mapstructure:"news"`
	Notifications PageConfig    `mapstructure:"notifications"`
	MaxItems      int           `mapstructure:"max_items"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
	Timeout       time.Duration `mapstructure:"timeout"`
	UserAgent     string        `mapstructure:"user_agent"`
}

// PageConfig 单个抓取页面
type PageConfig struct {
	URL          string `mapstructure:"url"`
	LinkContains string `mapstructure:"link_contains"`
}

// TimeoutsConfig 各挂起点的超时
type TimeoutsConfig struct {
	Connect   time.Duration `mapstructure:"connect"`
	LLM       time.Duration `mapstructure:"llm"`
	Tool      time.Duration `mapstructure:"tool"`
	Retrieval time.Duration `mapstructure:"retrieval"`
}

// SecretsConfig 密钥来源配置
type SecretsConfig struct {
	Provider string      `mapstructure:"provider"` // env | vault | memory
	Vault    VaultConfig `mapstructure:"vault"`
}

// VaultConfig HashiCorp Vault 配置
type VaultConfig struct {
	Address    string `mapstructure:"address"`
	Token      string `mapstructure:"token"`
	PathPrefix string `mapstructure:"path_prefix"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// MonitoringConfig 监控配置
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

// PrometheusConfig Prometheus 配置
type PrometheusConfig struct {
	Enable bool `mapstructure:"enable"`
	Port   int  `mapstructure:"port"`
}

// TracingConfig OpenTelemetry 配置
type TracingConfig struct {
	Enable         bool   `mapstructure:"enable"`
	ServiceName    string `mapstructure:"service_name"`
	ExportEndpoint string `mapstructure:"export_endpoint"`
	Insecure       bool   `mapstructure:"insecure"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("assistant.name", "BMSCE Assistant")
	v.SetDefault("assistant.version", "1.0.0")
	v.SetDefault("assistant.greeting", "Hi! I'm the BMSCE Assistant. Ask me about college news, notifications or anything in the handbook. Type 'quit' to leave.")
	v.SetDefault("assistant.farewell", "Goodbye! Have a great day! 👋")
	v.SetDefault("assistant.apology", "Oops! I had trouble getting that information. Could you try asking in a different way? 😊")

	v.SetDefault("backend.transport", "inprocess")
	v.SetDefault("backend.command", "toolserver")

	v.SetDefault("model.llm.provider", "ollama")
	v.SetDefault("model.llm.model", "mistral:7b")
	v.SetDefault("model.llm.base_url", "http://localhost:11434")
	v.SetDefault("model.llm.timeout", 120*time.Second)
	v.SetDefault("model.llm.max_retries", 2)
	v.SetDefault("model.embedding.provider", "ollama")
	v.SetDefault("model.embedding.model", "nomic-embed-text:v1.5")
	v.SetDefault("model.embedding.base_url", "http://localhost:11434")
	v.SetDefault("model.embedding.dimension", 768)
	v.SetDefault("model.embedding.timeout", 60*time.Second)

	v.SetDefault("storage.vector.type", "memory")
	v.SetDefault("storage.vector.index", "docs")
	v.SetDefault("storage.vector.distance", "cosine")
	v.SetDefault("storage.vector.max_conns", 4)
	v.SetDefault("storage.cache.type", "memory")

	v.SetDefault("chunking.splitter", "window")
	v.SetDefault("chunking.size", 1000)
	v.SetDefault("chunking.overlap", 100)

	v.SetDefault("scrape.news.url", "https://bmsce.ac.in/home/news")
	v.SetDefault("scrape.news.link_contains", "news")
	v.SetDefault("scrape.notifications.url", "https://bmsce.ac.in/home/notifications")
	v.SetDefault("scrape.notifications.link_contains", "notification")
	v.SetDefault("scrape.max_items", 10)
	v.SetDefault("scrape.cache_ttl", 10*time.Minute)
	v.SetDefault("scrape.timeout", 15*time.Second)
	v.SetDefault("scrape.user_agent", "campus-assistant/1.0")

	v.SetDefault("timeouts.connect", 30*time.Second)
	v.SetDefault("timeouts.llm", 120*time.Second)
	v.SetDefault("timeouts.tool", 60*time.Second)
	v.SetDefault("timeouts.retrieval", 30*time.Second)

	v.SetDefault("secrets.provider", "env")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("monitoring.prometheus.port", 9464)
	v.SetDefault("monitoring.tracing.service_name", "campus-assistant")
	v.SetDefault("monitoring.tracing.export_endpoint", "localhost:4318")
	v.SetDefault("monitoring.tracing.insecure", true)
}

// DefaultConfigPath 三个程序共用的默认配置文件
const DefaultConfigPath = "configs/assistant.yaml"

// LoadConfigOrDefault 同 LoadConfig；path 为默认路径且文件不存在时只使用默认值与环境变量
func LoadConfigOrDefault(path string) (*Config, error) {
	if path == DefaultConfigPath {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}
	return LoadConfig(path)
}

// LoadConfig 加载配置文件；configPath 为空时只使用默认值与环境变量
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	replaceEnvVars(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验启动前即可发现的配置错误
func (c *Config) Validate() error {
	switch c.Backend.Transport {
	case "inprocess", "stdio":
	default:
		return fmt.Errorf("backend.transport: unsupported value %q", c.Backend.Transport)
	}
	if c.Backend.Transport == "stdio" && c.Backend.Command == "" {
		return fmt.Errorf("backend.command is required for stdio transport")
	}
	if c.Chunking.Size <= 0 || c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("chunking: overlap %d must be >= 0 and smaller than size %d", c.Chunking.Overlap, c.Chunking.Size)
	}
	return nil
}

// replaceEnvVars 替换 ${ENV} 形式的配置值
func replaceEnvVars(cfg *Config) {
	cfg.Model.LLM.APIKey = expandEnv(cfg.Model.LLM.APIKey)
	cfg.Model.Embedding.APIKey = expandEnv(cfg.Model.Embedding.APIKey)
	cfg.Storage.Vector.DSN = expandEnv(cfg.Storage.Vector.DSN)
	cfg.Storage.Vector.Password = expandEnv(cfg.Storage.Vector.Password)
	cfg.Storage.Cache.Password = expandEnv(cfg.Storage.Cache.Password)
	cfg.Secrets.Vault.Token = expandEnv(cfg.Secrets.Vault.Token)
}

func expandEnv(value string) string {
	if !strings.HasPrefix(value, "${") || !strings.HasSuffix(value, "}") {
		return value
	}
	if val := os.Getenv(strings.TrimSuffix(strings.TrimPrefix(value, "${"), "}")); val != "" {
		return val
	}
	return value
}
