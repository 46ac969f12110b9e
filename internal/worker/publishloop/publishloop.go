// Package publishloop は投稿期限が到来した承認済みドラフトの定期投稿を提供する。
// 1サイクルあたりの処理件数を小さなバッチ(デフォルト5件)に制限し、
// 1件の失敗が後続ドラフトの投稿を妨げないよう逐次処理する。
package publishloop

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/draftman/internal/publish"
	"github.com/hitoshi/draftman/internal/repository"
)

// defaultBatchSize は1サイクルで処理するドラフトの最大件数。
const defaultBatchSize = 5

// Publisher はドラフト投稿の実行インターフェース。
type Publisher interface {
	Publish(ctx context.Context, draftID string) (*publish.PublishResult, error)
}

// Loop は承認済みドラフトの定期投稿ループ。
type Loop struct {
	draftRepo repository.DraftRepository
	publisher Publisher
	logger    *slog.Logger
	batchSize int
}

// NewLoop はLoopの新しいインスタンスを生成する。
// batchSizeが0以下の場合はデフォルト値5を使用する。
func NewLoop(draftRepo repository.DraftRepository, publisher Publisher, logger *slog.Logger, batchSize int) *Loop {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Loop{
		draftRepo: draftRepo,
		publisher: publisher,
		logger:    logger,
		batchSize: batchSize,
	}
}

// Start は指定間隔のティッカーで投稿ループを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (l *Loop) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	l.logger.Info("投稿ループを開始しました",
		slog.Duration("interval", interval),
		slog.Int("batch_size", l.batchSize),
	)

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("投稿ループを停止しました")
			return
		case <-ticker.C:
			if err := l.RunOnce(ctx); err != nil {
				l.logger.Error("投稿サイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は投稿期限が到来したドラフトを1バッチ分投稿する。
// ドラフトは逐次処理され、個別の失敗(レート制限を含む)は記録して続行する。
func (l *Loop) RunOnce(ctx context.Context) error {
	drafts, err := l.draftRepo.ListDueForPublish(ctx, time.Now(), l.batchSize)
	if err != nil {
		return fmt.Errorf("投稿対象ドラフトの取得に失敗しました: %w", err)
	}

	if len(drafts) == 0 {
		return nil
	}

	l.logger.Info("投稿サイクルを開始します",
		slog.Int("draft_count", len(drafts)),
	)

	published := 0
	for _, draft := range drafts {
		result, err := l.publisher.Publish(ctx, draft.ID)
		if err != nil {
			l.logger.Warn("ドラフトの投稿に失敗しました",
				slog.String("draft_id", draft.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		published++
		l.logger.Info("ドラフトを投稿しました",
			slog.String("draft_id", draft.ID),
			slog.String("url", result.ExternalURL),
		)
	}

	l.logger.Info("投稿サイクルが完了しました",
		slog.Int("draft_count", len(drafts)),
		slog.Int("published_count", published),
	)

	return nil
}
