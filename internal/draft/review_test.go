package draft

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/draftman/internal/model"
)

func reviewDraft(status model.DraftStatus) *model.Draft {
	return &model.Draft{
		ID:            "draft-1",
		IdeaID:        "idea-1",
		DestinationID: "dest-1",
		Content:       "Title: X\nBody: Y",
		Status:        status,
	}
}

// TestReview_Approve は承認遷移が状態更新を伴うことをテストする。
func TestReview_Approve(t *testing.T) {
	repo := &mockDraftRepo{findByIDFn: func(ctx context.Context, id string) (*model.Draft, error) {
		return reviewDraft(model.DraftStatusDraft), nil
	}}
	s := NewReviewService(repo)

	draft, err := s.Approve(context.Background(), "draft-1")
	if err != nil {
		t.Fatalf("Approve() returned error: %v", err)
	}
	if draft.Status != model.DraftStatusApproved {
		t.Errorf("expected approved status, got %s", draft.Status)
	}
	if len(repo.statusCalls) != 1 || repo.statusCalls[0] != model.DraftStatusApproved {
		t.Errorf("expected one UpdateStatus(approved) call, got %v", repo.statusCalls)
	}
}

// TestReview_PostedIsTerminal は投稿済みドラフトへのレビュー操作が拒否されることをテストする。
func TestReview_PostedIsTerminal(t *testing.T) {
	repo := &mockDraftRepo{findByIDFn: func(ctx context.Context, id string) (*model.Draft, error) {
		return reviewDraft(model.DraftStatusPosted), nil
	}}
	s := NewReviewService(repo)

	if _, err := s.Approve(context.Background(), "draft-1"); err == nil {
		t.Error("Approve() on a posted draft should fail")
	}
	if _, err := s.Reject(context.Background(), "draft-1"); err == nil {
		t.Error("Reject() on a posted draft should fail")
	}
	at := time.Now().Add(time.Hour)
	if _, err := s.Schedule(context.Background(), "draft-1", &at); err == nil {
		t.Error("Schedule() on a posted draft should fail")
	}
	if len(repo.statusCalls) != 0 {
		t.Errorf("no status update should happen for a posted draft, got %v", repo.statusCalls)
	}
}

// TestReview_NotFound は存在しないドラフトでDRAFT_NOT_FOUNDが返ることをテストする。
func TestReview_NotFound(t *testing.T) {
	s := NewReviewService(&mockDraftRepo{})

	_, err := s.Approve(context.Background(), "missing")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "DRAFT_NOT_FOUND" {
		t.Errorf("expected DRAFT_NOT_FOUND, got %v", err)
	}
}

// TestReview_Schedule は予約設定と解除をテストする。
func TestReview_Schedule(t *testing.T) {
	repo := &mockDraftRepo{findByIDFn: func(ctx context.Context, id string) (*model.Draft, error) {
		return reviewDraft(model.DraftStatusApproved), nil
	}}
	s := NewReviewService(repo)

	at := time.Now().Add(24 * time.Hour)
	draft, err := s.Schedule(context.Background(), "draft-1", &at)
	if err != nil {
		t.Fatalf("Schedule() returned error: %v", err)
	}
	if draft.ScheduledAt == nil || !draft.ScheduledAt.Equal(at) {
		t.Errorf("expected scheduled_at %v, got %v", at, draft.ScheduledAt)
	}

	draft, err = s.Schedule(context.Background(), "draft-1", nil)
	if err != nil {
		t.Fatalf("Schedule(nil) returned error: %v", err)
	}
	if draft.ScheduledAt != nil {
		t.Errorf("expected scheduled_at cleared, got %v", draft.ScheduledAt)
	}
}

// TestReview_ListRejectsInvalidStatus は不正な状態指定が拒否されることをテストする。
func TestReview_ListRejectsInvalidStatus(t *testing.T) {
	s := NewReviewService(&mockDraftRepo{})

	_, err := s.List(context.Background(), "bogus", 20)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "INVALID_REQUEST" {
		t.Errorf("expected INVALID_REQUEST, got %v", err)
	}
}
