package draft

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/draftman/internal/model"
	"github.com/hitoshi/draftman/internal/repository"
)

// ReviewService はドラフトのレビュー操作(承認、却下、予約)を提供する。
// posted状態は終端であり、いかなるレビュー操作でも他の状態へ戻せない。
type ReviewService struct {
	draftRepo repository.DraftRepository
}

// NewReviewService はReviewServiceの新しいインスタンスを生成する。
func NewReviewService(draftRepo repository.DraftRepository) *ReviewService {
	return &ReviewService{draftRepo: draftRepo}
}

// Get は指定IDのドラフトを取得する。
func (s *ReviewService) Get(ctx context.Context, draftID string) (*model.Draft, error) {
	draft, err := s.draftRepo.FindByID(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("ドラフトの取得に失敗しました: %w", err)
	}
	if draft == nil {
		return nil, model.NewDraftNotFoundError(draftID)
	}
	return draft, nil
}

// List は指定状態のドラフト一覧を返す。statusが空の場合は全状態を対象とする。
func (s *ReviewService) List(ctx context.Context, status string, limit int) ([]*model.Draft, error) {
	if status != "" && !model.ValidDraftStatus(status) {
		return nil, model.NewInvalidRequestError(fmt.Sprintf("不正なドラフト状態です: %s", status))
	}
	drafts, err := s.draftRepo.ListByStatus(ctx, model.DraftStatus(status), limit)
	if err != nil {
		return nil, fmt.Errorf("ドラフト一覧の取得に失敗しました: %w", err)
	}
	return drafts, nil
}

// Approve はドラフトを承認済みに遷移させる。
func (s *ReviewService) Approve(ctx context.Context, draftID string) (*model.Draft, error) {
	return s.transition(ctx, draftID, model.DraftStatusApproved)
}

// Reject はドラフトを却下済みに遷移させる。
func (s *ReviewService) Reject(ctx context.Context, draftID string) (*model.Draft, error) {
	return s.transition(ctx, draftID, model.DraftStatusRejected)
}

// Schedule はドラフトの予約投稿日時を設定する。scheduledAtがnilの場合は予約を解除する。
// 投稿済みドラフトの予約は変更できない。
func (s *ReviewService) Schedule(ctx context.Context, draftID string, scheduledAt *time.Time) (*model.Draft, error) {
	draft, err := s.Get(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if draft.Status == model.DraftStatusPosted {
		return nil, model.NewInvalidRequestError("投稿済みのドラフトは変更できません")
	}

	if err := s.draftRepo.UpdateSchedule(ctx, draftID, scheduledAt); err != nil {
		return nil, fmt.Errorf("予約日時の更新に失敗しました: %w", err)
	}
	draft.ScheduledAt = scheduledAt
	return draft, nil
}

// transition はドラフトを指定状態へ遷移させる。posted状態からの遷移は拒否する。
func (s *ReviewService) transition(ctx context.Context, draftID string, status model.DraftStatus) (*model.Draft, error) {
	draft, err := s.Get(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if draft.Status == model.DraftStatusPosted {
		return nil, model.NewInvalidRequestError("投稿済みのドラフトは変更できません")
	}

	if err := s.draftRepo.UpdateStatus(ctx, draftID, status); err != nil {
		return nil, fmt.Errorf("ドラフト状態の更新に失敗しました: %w", err)
	}
	draft.Status = status
	return draft, nil
}
