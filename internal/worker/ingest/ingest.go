// Package ingest はRSS/Atomフィードからのアイデア自動取り込みを提供する。
// 設定されたフィードURLを定期的に取得し、各記事をアイデアとして登録する。
// 取り込み元URLで重複排除するため、同じ記事が二重登録されることはない。
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"

	"github.com/hitoshi/draftman/internal/model"
	"github.com/hitoshi/draftman/internal/repository"
	"github.com/hitoshi/draftman/internal/security"
)

// defaultTechnicalDepth は取り込まれたアイデアの既定の技術深度。
const defaultTechnicalDepth = 3

// fetchUserAgent はフィード取得時のUser-Agent。
const fetchUserAgent = "draftman/1.0 feed ingester"

// Ingester はフィードからのアイデア取り込みワーカー。
type Ingester struct {
	feedURLs  []string
	ideaRepo  repository.IdeaRepository
	guard     security.FetchGuardService
	client    *http.Client
	sanitizer security.ContentSanitizerService
	parser    *gofeed.Parser
	logger    *slog.Logger
}

// NewIngester はIngesterの新しいインスタンスを生成する。
// フィード取得にはSSRF防止付きのHTTPクライアントを使用する。
func NewIngester(
	feedURLs []string,
	ideaRepo repository.IdeaRepository,
	guard security.FetchGuardService,
	fetchTimeout time.Duration,
	maxSize int64,
	sanitizer security.ContentSanitizerService,
	logger *slog.Logger,
) *Ingester {
	return &Ingester{
		feedURLs:  feedURLs,
		ideaRepo:  ideaRepo,
		guard:     guard,
		client:    guard.NewSafeClient(fetchTimeout, maxSize),
		sanitizer: sanitizer,
		parser:    gofeed.NewParser(),
		logger:    logger,
	}
}

// Start は指定間隔のティッカーで取り込みワーカーを起動する。
// 起動直後に1回実行し、以後コンテキストがキャンセルされるまで継続する。
func (i *Ingester) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	i.logger.Info("フィード取り込みワーカーを開始しました",
		slog.Duration("interval", interval),
		slog.Int("feed_count", len(i.feedURLs)),
	)

	i.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			i.logger.Info("フィード取り込みワーカーを停止しました")
			return
		case <-ticker.C:
			i.RunOnce(ctx)
		}
	}
}

// RunOnce は全フィードを1回取り込む。
// フィード単位の失敗は記録して続行し、サイクル全体を中断しない。
func (i *Ingester) RunOnce(ctx context.Context) {
	for _, feedURL := range i.feedURLs {
		created, err := i.ingestFeed(ctx, feedURL)
		if err != nil {
			i.logger.Warn("フィードの取り込みに失敗しました",
				slog.String("feed_url", feedURL),
				slog.String("error", err.Error()),
			)
			continue
		}
		if created > 0 {
			i.logger.Info("フィードからアイデアを取り込みました",
				slog.String("feed_url", feedURL),
				slog.Int("created_count", created),
			)
		}
	}
}

// ingestFeed は1つのフィードを取得し、新規記事をアイデアとして登録する。
// 作成したアイデアの件数を返す。
func (i *Ingester) ingestFeed(ctx context.Context, feedURL string) (int, error) {
	if err := i.guard.ValidateURL(feedURL); err != nil {
		return 0, fmt.Errorf("フィードURLの検証に失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return 0, fmt.Errorf("フィード取得リクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := i.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("フィードの取得に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("フィード取得が異常ステータスを返しました: status=%d", resp.StatusCode)
	}

	feed, err := i.parser.Parse(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("フィードの解析に失敗しました: %w", err)
	}

	created := 0
	for _, item := range feed.Items {
		if item.Link == "" || item.Title == "" {
			continue
		}

		existing, err := i.ideaRepo.FindBySourceURL(ctx, item.Link)
		if err != nil {
			return created, fmt.Errorf("既存アイデアの検索に失敗しました: %w", err)
		}
		if existing != nil {
			continue
		}

		narrative := i.sanitizer.SanitizeText(item.Description)
		if narrative == "" {
			narrative = i.sanitizer.SanitizeText(item.Content)
		}

		idea := &model.Idea{
			ID:             uuid.New().String(),
			Title:          item.Title,
			CoreNarrative:  narrative,
			TechnicalDepth: defaultTechnicalDepth,
			Goal:           model.IdeaGoalDiscussion,
			SourceURL:      item.Link,
			CreatedAt:      time.Now(),
		}
		if err := i.ideaRepo.Create(ctx, idea); err != nil {
			return created, fmt.Errorf("アイデアの作成に失敗しました: %w", err)
		}
		created++
	}

	return created, nil
}
