// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// llm.MetricsRecorder、similarity.FallbackRecorder、explain.CacheMetricsRecorder、
// draft.PipelineMetricsRecorder、publish.GateMetricsRecorder を満たす。
type Collector struct {
	genAttempts        *prometheus.CounterVec
	genSuccess         *prometheus.CounterVec
	genFailure         *prometheus.CounterVec
	similarityFallback prometheus.Counter
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	draftsGenerated    prometheus.Counter
	draftsFailed       prometheus.Counter
	publishSuccess     prometheus.Counter
	publishFailure     prometheus.Counter
	publishRateLimited prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		genAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "draftman_generation_attempts_total",
			Help: "バックエンド・モデル別の生成試行数",
		}, []string{"backend", "model"}),
		genSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "draftman_generation_success_total",
			Help: "バックエンド・モデル別の生成成功数",
		}, []string{"backend", "model"}),
		genFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "draftman_generation_failure_total",
			Help: "バックエンド・モデル別の生成失敗数",
		}, []string{"backend", "model"}),
		similarityFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "draftman_similarity_fallback_total",
			Help: "類似度判定が中立スコアへフォールバックした回数",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "draftman_explain_cache_hits_total",
			Help: "解説キャッシュヒットの合計数",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "draftman_explain_cache_misses_total",
			Help: "解説キャッシュミスの合計数",
		}),
		draftsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "draftman_drafts_generated_total",
			Help: "生成に成功したドラフトの合計数",
		}),
		draftsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "draftman_drafts_failed_total",
			Help: "生成に失敗したドラフトの合計数",
		}),
		publishSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "draftman_publish_success_total",
			Help: "外部プラットフォームへの投稿成功数",
		}),
		publishFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "draftman_publish_failure_total",
			Help: "外部プラットフォームへの投稿失敗数",
		}),
		publishRateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "draftman_publish_rate_limited_total",
			Help: "レート制限で拒否された投稿要求数",
		}),
	}

	reg.MustRegister(
		c.genAttempts,
		c.genSuccess,
		c.genFailure,
		c.similarityFallback,
		c.cacheHits,
		c.cacheMisses,
		c.draftsGenerated,
		c.draftsFailed,
		c.publishSuccess,
		c.publishFailure,
		c.publishRateLimited,
	)

	return c
}

// RecordGenerationAttempt は生成試行を記録する。
func (c *Collector) RecordGenerationAttempt(backend, model string) {
	c.genAttempts.WithLabelValues(backend, model).Inc()
}

// RecordGenerationSuccess は生成成功を記録する。
func (c *Collector) RecordGenerationSuccess(backend, model string) {
	c.genSuccess.WithLabelValues(backend, model).Inc()
}

// RecordGenerationFailure は生成失敗を記録する。
func (c *Collector) RecordGenerationFailure(backend, model string) {
	c.genFailure.WithLabelValues(backend, model).Inc()
}

// RecordSimilarityFallback は類似度判定のフォールバック発生を記録する。
func (c *Collector) RecordSimilarityFallback() {
	c.similarityFallback.Inc()
}

// RecordCacheHit は解説キャッシュヒットを記録する。
func (c *Collector) RecordCacheHit() {
	c.cacheHits.Inc()
}

// RecordCacheMiss は解説キャッシュミスを記録する。
func (c *Collector) RecordCacheMiss() {
	c.cacheMisses.Inc()
}

// RecordDraftGenerated はドラフト生成成功を記録する。
func (c *Collector) RecordDraftGenerated() {
	c.draftsGenerated.Inc()
}

// RecordDraftFailed はドラフト生成失敗を記録する。
func (c *Collector) RecordDraftFailed() {
	c.draftsFailed.Inc()
}

// RecordPublishSuccess は投稿成功を記録する。
func (c *Collector) RecordPublishSuccess() {
	c.publishSuccess.Inc()
}

// RecordPublishFailure は投稿失敗を記録する。
func (c *Collector) RecordPublishFailure() {
	c.publishFailure.Inc()
}

// RecordPublishRateLimited はレート制限による投稿拒否を記録する。
func (c *Collector) RecordPublishRateLimited() {
	c.publishRateLimited.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
