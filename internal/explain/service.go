// Package explain はURL解説の生成とキャッシュ機能を提供する。
//
// 同一URLに対する解説はLLM呼び出しが高コストなため、
// URLのSHA-256ハッシュをキーとしてPostgresにキャッシュする。
// キャッシュは全アイデア間で共有され、有効期限による無効化は行わない
// (保持期間を超えたエントリはクリーンアップワーカーが削除する)。
package explain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/hitoshi/draftman/internal/model"
	"github.com/hitoshi/draftman/internal/repository"
	"github.com/hitoshi/draftman/internal/security"
)

// maxExtractRunes は抽出テキストの最大文字数。
// プロンプト肥大を防ぐため、これを超える本文は切り詰める。
const maxExtractRunes = 8000

// browserUserAgent はページ取得時のUser-Agent。
// 一部のサイトはデフォルトのGo UAを拒否するため、ブラウザ風のUAを使用する。
const browserUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"

// TextGenerator はLLMによるテキスト生成のインターフェース。
type TextGenerator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// CacheMetricsRecorder は解説キャッシュのメトリクス記録のインターフェース。
type CacheMetricsRecorder interface {
	RecordCacheHit()
	RecordCacheMiss()
}

// noopCacheMetrics はメトリクス未設定時のダミー実装。
type noopCacheMetrics struct{}

func (noopCacheMetrics) RecordCacheHit()  {}
func (noopCacheMetrics) RecordCacheMiss() {}

// Request は解説生成のリクエスト。
type Request struct {
	URL      string
	Category string
	Title    string
}

// Service はURL解説の生成とキャッシュを行う。
type Service struct {
	cacheRepo repository.CacheRepository
	generator TextGenerator
	guard     security.FetchGuardService
	client    *http.Client
	maxSize   int64
	logger    *slog.Logger
	metrics   CacheMetricsRecorder
}

// NewService はServiceの新しいインスタンスを生成する。
// ページ取得にはSSRF防止付きのHTTPクライアントを使用する。
func NewService(
	cacheRepo repository.CacheRepository,
	generator TextGenerator,
	guard security.FetchGuardService,
	fetchTimeout time.Duration,
	maxSize int64,
	logger *slog.Logger,
	metrics CacheMetricsRecorder,
) *Service {
	if metrics == nil {
		metrics = noopCacheMetrics{}
	}
	return &Service{
		cacheRepo: cacheRepo,
		generator: generator,
		guard:     guard,
		client:    guard.NewSafeClient(fetchTimeout, maxSize),
		maxSize:   maxSize,
		logger:    logger,
		metrics:   metrics,
	}
}

// HashURL はキャッシュキーとなるURLのSHA-256ハッシュ(16進文字列)を返す。
func HashURL(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(sum[:])
}

// Explain はURLの解説テキストを返す。
// 2番目の戻り値はキャッシュヒットしたかどうかを示す。
// キャッシュミス時はページを取得・本文抽出してLLMで解説を生成し、
// 結果をハッシュキーでupsertする(後勝ち)。
// ページ取得や本文抽出に失敗した場合はタイトルとURLのみから生成する。
func (s *Service) Explain(ctx context.Context, req Request) (string, bool, error) {
	if err := s.guard.ValidateURL(req.URL); err != nil {
		return "", false, model.NewInvalidURLError(err.Error())
	}

	hash := HashURL(req.URL)

	entry, err := s.cacheRepo.FindByHash(ctx, hash)
	if err != nil {
		return "", false, fmt.Errorf("解説キャッシュの検索に失敗しました: %w", err)
	}
	if entry != nil {
		s.metrics.RecordCacheHit()
		return entry.Explanation, true, nil
	}
	s.metrics.RecordCacheMiss()

	pageText := s.fetchPageText(ctx, req.URL)

	explanation, err := s.generator.Generate(ctx, categorySystemPrompt(req.Category), buildUserPrompt(req, pageText))
	if err != nil {
		return "", false, fmt.Errorf("解説の生成に失敗しました: %w", err)
	}

	if err := s.cacheRepo.Upsert(ctx, &model.CacheEntry{
		URLHash:     hash,
		Category:    req.Category,
		Explanation: explanation,
	}); err != nil {
		return "", false, fmt.Errorf("解説キャッシュの保存に失敗しました: %w", err)
	}

	return explanation, false, nil
}

// fetchPageText はURLのページを取得し、可視テキストを抽出する。
// 失敗時は空文字列を返し、呼び出し側がタイトルとURLのみで生成を続行する。
func (s *Service) fetchPageText(ctx context.Context, rawURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		s.logger.Warn("ページ取得リクエストの作成に失敗しました",
			slog.String("url", rawURL),
			slog.String("error", err.Error()),
		)
		return ""
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("ページの取得に失敗しました。タイトルとURLのみで生成を続行します",
			slog.String("url", rawURL),
			slog.String("error", err.Error()),
		)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn("ページ取得が異常ステータスを返しました",
			slog.String("url", rawURL),
			slog.Int("status", resp.StatusCode),
		)
		return ""
	}

	body := io.LimitReader(resp.Body, s.maxSize)
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		s.logger.Warn("HTMLの解析に失敗しました",
			slog.String("url", rawURL),
			slog.String("error", err.Error()),
		)
		return ""
	}

	doc.Find("script, style, noscript, nav, footer").Remove()
	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	return truncateRunes(text, maxExtractRunes)
}

// truncateRunes は文字列をrune単位で最大n文字に切り詰める。
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
