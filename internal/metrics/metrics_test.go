package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() == name {
			var total float64
			for _, m := range mf.GetMetric() {
				total += m.GetCounter().GetValue()
			}
			return total
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

// TestRecordGenerationAttempt_IncrementsCounter は生成試行カウンタが増加することを検証する。
func TestRecordGenerationAttempt_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordGenerationAttempt("groq", "llama-3.3-70b-versatile")
	c.RecordGenerationAttempt("groq", "llama-3.3-70b-versatile")
	c.RecordGenerationAttempt("openai", "gpt-4o-mini")

	if got := counterValue(t, reg, "draftman_generation_attempts_total"); got != 3 {
		t.Errorf("generation_attempts_total = %v, want 3", got)
	}
}

// TestRecordCacheHitAndMiss はキャッシュヒット/ミスのカウンタを検証する。
func TestRecordCacheHitAndMiss(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordCacheHit()
	c.RecordCacheHit()
	c.RecordCacheMiss()

	if got := counterValue(t, reg, "draftman_explain_cache_hits_total"); got != 2 {
		t.Errorf("cache_hits_total = %v, want 2", got)
	}
	if got := counterValue(t, reg, "draftman_explain_cache_misses_total"); got != 1 {
		t.Errorf("cache_misses_total = %v, want 1", got)
	}
}

// TestRecordPublishCounters は投稿結果カウンタを検証する。
func TestRecordPublishCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordPublishSuccess()
	c.RecordPublishFailure()
	c.RecordPublishRateLimited()
	c.RecordPublishRateLimited()

	if got := counterValue(t, reg, "draftman_publish_success_total"); got != 1 {
		t.Errorf("publish_success_total = %v, want 1", got)
	}
	if got := counterValue(t, reg, "draftman_publish_rate_limited_total"); got != 2 {
		t.Errorf("publish_rate_limited_total = %v, want 2", got)
	}
}

// TestHandler_ServesMetrics は/metricsハンドラーが登録済みメトリクスを公開することを検証する。
func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordDraftGenerated()

	ts := httptest.NewServer(Handler(reg))
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	if err != nil {
		t.Fatalf("failed to scrape metrics: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	if !strings.Contains(string(body), "draftman_drafts_generated_total 1") {
		t.Errorf("metrics output missing drafts_generated_total:\n%s", body)
	}
}
