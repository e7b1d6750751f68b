package metrics

import (
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

// DefaultRegistry 进程私有的 Prometheus 注册表
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(
		TurnTotal, ClassificationTotal,
		ToolDuration, LLMRequestDuration,
		RetrievalDuration, IngestChunksTotal,
		RateLimitWaitSeconds,
	)
}

// TurnTotal 对话回合数（按结果）
var TurnTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "assistant_turns_total",
		Help: "对话回合数",
	},
	[]string{"outcome"}, // tool | chat | apology | cancelled
)

// ClassificationTotal 意图分类结果
var ClassificationTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "assistant_classifications_total",
		Help: "意图分类结果",
	},
	[]string{"result"}, // tool | none | parse_error
)

// ToolDuration 工具调用耗时（秒）
var ToolDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "assistant_tool_duration_seconds",
		Help:    "工具调用耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"tool", "status"},
)

// LLMRequestDuration 生成模型调用耗时（秒）
var LLMRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "assistant_llm_request_duration_seconds",
		Help:    "生成模型调用耗时（秒）",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
	},
	[]string{"stage"}, // classify | synthesize | chat
)

// RetrievalDuration 知识库查询耗时（秒）
var RetrievalDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "assistant_retrieval_duration_seconds",
		Help:    "知识库查询耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"backend"},
)

// IngestChunksTotal 写入向量库的切片数
var IngestChunksTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "assistant_ingest_chunks_total",
		Help: "写入向量库的切片数",
	},
	[]string{"backend"},
)

// RateLimitWaitSeconds 限流等待时间（秒）
var RateLimitWaitSeconds = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "assistant_rate_limit_wait_seconds",
		Help:    "限流等待时间（秒）",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5},
	},
	[]string{"type", "name"},
)

// Handler 暴露 DefaultRegistry 的 HTTP handler
func Handler() http.Handler {
	return promhttp.HandlerFor(DefaultRegistry, promhttp.HandlerOpts{})
}

// WritePrometheus 将 Prometheus 文本格式写入 w
func WritePrometheus(w io.Writer) error {
	metrics, err := DefaultRegistry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range metrics {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
