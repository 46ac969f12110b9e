// Package publish は承認済みドラフトの外部プラットフォームへの投稿を提供する。
//
// 投稿前にレート制限(全体で24時間に1件、投稿先ごとに7日間に1件)を
// 投稿履歴に対して検査し、超過している場合は投稿を拒否する。
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/draftman/internal/model"
	"github.com/hitoshi/draftman/internal/repository"
)

// GateMetricsRecorder は投稿メトリクスの記録インターフェース。
type GateMetricsRecorder interface {
	RecordPublishSuccess()
	RecordPublishFailure()
	RecordPublishRateLimited()
}

// noopGateMetrics はメトリクス未設定時のダミー実装。
type noopGateMetrics struct{}

func (noopGateMetrics) RecordPublishSuccess()     {}
func (noopGateMetrics) RecordPublishFailure()     {}
func (noopGateMetrics) RecordPublishRateLimited() {}

// GateConfig は投稿レート制限の設定。
type GateConfig struct {
	GlobalWindow time.Duration
	GlobalLimit  int
	DestWindow   time.Duration
	DestLimit    int
}

// Gate は投稿レート制限の検査と投稿実行を行う。
type Gate struct {
	draftRepo   repository.DraftRepository
	destRepo    repository.DestinationRepository
	historyRepo repository.HistoryRepository
	submitter   Submitter
	cfg         GateConfig
	now         func() time.Time
	logger      *slog.Logger
	metrics     GateMetricsRecorder
}

// NewGate はGateの新しいインスタンスを生成する。
func NewGate(
	draftRepo repository.DraftRepository,
	destRepo repository.DestinationRepository,
	historyRepo repository.HistoryRepository,
	submitter Submitter,
	cfg GateConfig,
	logger *slog.Logger,
	metrics GateMetricsRecorder,
) *Gate {
	if metrics == nil {
		metrics = noopGateMetrics{}
	}
	return &Gate{
		draftRepo:   draftRepo,
		destRepo:    destRepo,
		historyRepo: historyRepo,
		submitter:   submitter,
		cfg:         cfg,
		now:         time.Now,
		logger:      logger,
		metrics:     metrics,
	}
}

// PublishResult は投稿成功時の結果。
type PublishResult struct {
	ExternalPostID string
	ExternalURL    string
}

// Publish は承認済みドラフトを投稿先へ投稿する。
// 成功時には投稿履歴を作成し、ドラフトをposted状態へ遷移させる。
// posted状態は終端であり、以後のレビュー操作では変更できない。
//
// TODO: レート制限の検査と履歴の挿入が同一トランザクションではないため、
// 同時に2つの投稿要求が来た場合に両方が検査を通過しうる。
// historyテーブルへの条件付きINSERT(閾値未満のときのみ挿入)に置き換える。
func (g *Gate) Publish(ctx context.Context, draftID string) (*PublishResult, error) {
	draft, err := g.draftRepo.FindByID(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("ドラフトの取得に失敗しました: %w", err)
	}
	if draft == nil {
		return nil, model.NewDraftNotFoundError(draftID)
	}
	if draft.Status != model.DraftStatusApproved {
		return nil, model.NewDraftNotApprovedError(draft.Status)
	}

	dest, err := g.destRepo.FindByID(ctx, draft.DestinationID)
	if err != nil {
		return nil, fmt.Errorf("投稿先の取得に失敗しました: %w", err)
	}
	if dest == nil {
		return nil, model.NewDestinationNotFoundError(draft.DestinationID)
	}

	if err := g.checkRateLimits(ctx, dest.Name); err != nil {
		g.metrics.RecordPublishRateLimited()
		return nil, err
	}

	title, body := SplitContent(draft.Content)

	result, err := g.submitter.SubmitPost(ctx, dest.Name, title, body)
	if err != nil {
		g.metrics.RecordPublishFailure()
		g.logger.Error("外部プラットフォームへの投稿に失敗しました",
			slog.String("draft_id", draftID),
			slog.String("destination", dest.Name),
			slog.String("error", err.Error()),
		)
		return nil, model.NewPublishFailedError(err.Error())
	}

	postedAt := g.now()
	record := &model.HistoryRecord{
		ID:              uuid.New().String(),
		DestinationName: dest.Name,
		ExternalPostID:  result.ID,
		ExternalURL:     result.URL,
		PostedAt:        postedAt,
	}
	if err := g.historyRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("投稿履歴の保存に失敗しました: %w", err)
	}

	if err := g.draftRepo.UpdateStatus(ctx, draftID, model.DraftStatusPosted); err != nil {
		return nil, fmt.Errorf("ドラフト状態の更新に失敗しました: %w", err)
	}

	g.metrics.RecordPublishSuccess()
	g.logger.Info("ドラフトを投稿しました",
		slog.String("draft_id", draftID),
		slog.String("destination", dest.Name),
		slog.String("url", result.URL),
	)

	return &PublishResult{
		ExternalPostID: result.ID,
		ExternalURL:    result.URL,
	}, nil
}

// checkRateLimits は全体と投稿先ごとのレート制限を検査する。
func (g *Gate) checkRateLimits(ctx context.Context, destinationName string) error {
	now := g.now()

	globalCount, err := g.historyRepo.CountSince(ctx, now.Add(-g.cfg.GlobalWindow))
	if err != nil {
		return fmt.Errorf("投稿履歴の集計に失敗しました: %w", err)
	}
	if globalCount >= g.cfg.GlobalLimit {
		return model.NewGlobalRateLimitError()
	}

	destCount, err := g.historyRepo.CountByDestinationSince(ctx, destinationName, now.Add(-g.cfg.DestWindow))
	if err != nil {
		return fmt.Errorf("投稿先別履歴の集計に失敗しました: %w", err)
	}
	if destCount >= g.cfg.DestLimit {
		return model.NewDestinationRateLimitError(destinationName)
	}

	return nil
}
