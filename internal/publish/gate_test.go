package publish

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/hitoshi/draftman/internal/model"
)

// mockDraftRepo はDraftRepositoryのモック実装。
type mockDraftRepo struct {
	findByIDFn  func(ctx context.Context, id string) (*model.Draft, error)
	statusCalls []model.DraftStatus
}

func (m *mockDraftRepo) FindByID(ctx context.Context, id string) (*model.Draft, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockDraftRepo) Create(ctx context.Context, draft *model.Draft) error { return nil }
func (m *mockDraftRepo) UpdateStatus(ctx context.Context, id string, status model.DraftStatus) error {
	m.statusCalls = append(m.statusCalls, status)
	return nil
}
func (m *mockDraftRepo) UpdateSchedule(ctx context.Context, id string, scheduledAt *time.Time) error {
	return nil
}
func (m *mockDraftRepo) ListByIdea(ctx context.Context, ideaID string) ([]*model.Draft, error) {
	return nil, nil
}
func (m *mockDraftRepo) ListByStatus(ctx context.Context, status model.DraftStatus, limit int) ([]*model.Draft, error) {
	return nil, nil
}
func (m *mockDraftRepo) ListDueForPublish(ctx context.Context, now time.Time, limit int) ([]*model.Draft, error) {
	return nil, nil
}

// mockDestRepo はDestinationRepositoryのモック実装。
type mockDestRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.Destination, error)
}

func (m *mockDestRepo) FindByID(ctx context.Context, id string) (*model.Destination, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockDestRepo) FindByName(ctx context.Context, name string) (*model.Destination, error) {
	return nil, nil
}
func (m *mockDestRepo) Create(ctx context.Context, dest *model.Destination) error { return nil }
func (m *mockDestRepo) Update(ctx context.Context, dest *model.Destination) error { return nil }
func (m *mockDestRepo) Delete(ctx context.Context, id string) error               { return nil }
func (m *mockDestRepo) List(ctx context.Context) ([]*model.Destination, error)    { return nil, nil }

// mockHistoryRepo はHistoryRepositoryのモック実装。投稿履歴をメモリ上に保持する。
type mockHistoryRepo struct {
	records []*model.HistoryRecord
}

func (m *mockHistoryRepo) Create(ctx context.Context, record *model.HistoryRecord) error {
	m.records = append(m.records, record)
	return nil
}
func (m *mockHistoryRepo) CountSince(ctx context.Context, since time.Time) (int, error) {
	count := 0
	for _, r := range m.records {
		if !r.PostedAt.Before(since) {
			count++
		}
	}
	return count, nil
}
func (m *mockHistoryRepo) CountByDestinationSince(ctx context.Context, destinationName string, since time.Time) (int, error) {
	count := 0
	for _, r := range m.records {
		if r.DestinationName == destinationName && !r.PostedAt.Before(since) {
			count++
		}
	}
	return count, nil
}
func (m *mockHistoryRepo) ListRecent(ctx context.Context, limit int) ([]*model.HistoryRecord, error) {
	return m.records, nil
}

// mockSubmitter はSubmitterのモック実装。
type mockSubmitter struct {
	submitFn  func(ctx context.Context, destinationName, title, body string) (*SubmitResult, error)
	callCount int
	lastTitle string
	lastBody  string
}

func (m *mockSubmitter) SubmitPost(ctx context.Context, destinationName, title, body string) (*SubmitResult, error) {
	m.callCount++
	m.lastTitle = title
	m.lastBody = body
	if m.submitFn != nil {
		return m.submitFn(ctx, destinationName, title, body)
	}
	return &SubmitResult{ID: "abc123", URL: "https://reddit.example.com/r/test/abc123"}, nil
}

func approvedDraft() *model.Draft {
	return &model.Draft{
		ID:            "draft-1",
		IdeaID:        "idea-1",
		DestinationID: "dest-1",
		Content:       "Title: \"Shipping my side project\"\nBody: after two years of evenings, it finally works",
		Status:        model.DraftStatusApproved,
	}
}

func defaultGateConfig() GateConfig {
	return GateConfig{
		GlobalWindow: 24 * time.Hour,
		GlobalLimit:  1,
		DestWindow:   7 * 24 * time.Hour,
		DestLimit:    1,
	}
}

func newTestGate(draftRepo *mockDraftRepo, destRepo *mockDestRepo, historyRepo *mockHistoryRepo, submitter *mockSubmitter) *Gate {
	return NewGate(draftRepo, destRepo, historyRepo, submitter, defaultGateConfig(), slog.Default(), nil)
}

func approvingRepos() (*mockDraftRepo, *mockDestRepo) {
	draftRepo := &mockDraftRepo{findByIDFn: func(ctx context.Context, id string) (*model.Draft, error) {
		return approvedDraft(), nil
	}}
	destRepo := &mockDestRepo{findByIDFn: func(ctx context.Context, id string) (*model.Destination, error) {
		return &model.Destination{ID: "dest-1", Name: "test"}, nil
	}}
	return draftRepo, destRepo
}

// TestSplitContent はドラフト本文のタイトル/本文分割をテストする。
func TestSplitContent(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantTitle string
		wantBody  string
	}{
		{
			name:      "title and body prefixes",
			content:   "Title: \"Hello world\"\nBody: first line\nsecond line",
			wantTitle: "Hello world",
			wantBody:  "first line\nsecond line",
		},
		{
			name:      "no prefixes",
			content:   "Plain headline\nand the rest",
			wantTitle: "Plain headline",
			wantBody:  "and the rest",
		},
		{
			name:      "lowercase prefix",
			content:   "title: lower\nbody: text",
			wantTitle: "lower",
			wantBody:  "text",
		},
		{
			name:      "single line",
			content:   "Title: only a headline",
			wantTitle: "only a headline",
			wantBody:  "",
		},
		{
			name:      "single quotes stripped",
			content:   "Title: 'quoted'\nrest",
			wantTitle: "quoted",
			wantBody:  "rest",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, body := SplitContent(tt.content)
			if title != tt.wantTitle {
				t.Errorf("title = %q, want %q", title, tt.wantTitle)
			}
			if body != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

// TestPublish_Success は投稿成功時に履歴作成とposted遷移が行われることをテストする。
func TestPublish_Success(t *testing.T) {
	draftRepo, destRepo := approvingRepos()
	historyRepo := &mockHistoryRepo{}
	submitter := &mockSubmitter{}

	g := newTestGate(draftRepo, destRepo, historyRepo, submitter)

	result, err := g.Publish(context.Background(), "draft-1")
	if err != nil {
		t.Fatalf("Publish() returned error: %v", err)
	}
	if result.ExternalURL != "https://reddit.example.com/r/test/abc123" {
		t.Errorf("unexpected external URL: %s", result.ExternalURL)
	}
	if submitter.lastTitle != "Shipping my side project" {
		t.Errorf("unexpected submitted title: %q", submitter.lastTitle)
	}
	if submitter.lastBody != "after two years of evenings, it finally works" {
		t.Errorf("unexpected submitted body: %q", submitter.lastBody)
	}
	if len(historyRepo.records) != 1 {
		t.Fatalf("expected 1 history record, got %d", len(historyRepo.records))
	}
	if historyRepo.records[0].DestinationName != "test" {
		t.Errorf("unexpected history destination: %s", historyRepo.records[0].DestinationName)
	}
	if len(draftRepo.statusCalls) != 1 || draftRepo.statusCalls[0] != model.DraftStatusPosted {
		t.Errorf("expected one UpdateStatus(posted) call, got %v", draftRepo.statusCalls)
	}
}

// TestPublish_DraftNotFound は存在しないドラフトでDRAFT_NOT_FOUNDが返ることをテストする。
func TestPublish_DraftNotFound(t *testing.T) {
	g := newTestGate(&mockDraftRepo{}, &mockDestRepo{}, &mockHistoryRepo{}, &mockSubmitter{})

	_, err := g.Publish(context.Background(), "missing")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeDraftNotFound {
		t.Errorf("expected DRAFT_NOT_FOUND, got %v", err)
	}
}

// TestPublish_NotApproved は未承認ドラフトの投稿が一切の書き込みなしに拒否されることをテストする。
func TestPublish_NotApproved(t *testing.T) {
	draft := approvedDraft()
	draft.Status = model.DraftStatusDraft
	draftRepo := &mockDraftRepo{findByIDFn: func(ctx context.Context, id string) (*model.Draft, error) {
		return draft, nil
	}}
	historyRepo := &mockHistoryRepo{}
	submitter := &mockSubmitter{}

	g := newTestGate(draftRepo, &mockDestRepo{}, historyRepo, submitter)

	_, err := g.Publish(context.Background(), "draft-1")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeDraftNotApproved {
		t.Errorf("expected DRAFT_NOT_APPROVED, got %v", err)
	}
	if submitter.callCount != 0 {
		t.Error("submitter should not be called for an unapproved draft")
	}
	if len(historyRepo.records) != 0 {
		t.Error("no history record should be created for an unapproved draft")
	}
	if len(draftRepo.statusCalls) != 0 {
		t.Error("draft status should not change for an unapproved draft")
	}
}

// TestPublish_GlobalRateLimit は24時間以内の投稿が存在する場合に
// 全体レート制限エラーが返ることをテストする。
func TestPublish_GlobalRateLimit(t *testing.T) {
	draftRepo, destRepo := approvingRepos()
	historyRepo := &mockHistoryRepo{records: []*model.HistoryRecord{
		{DestinationName: "elsewhere", PostedAt: time.Now().Add(-1 * time.Hour)},
	}}
	submitter := &mockSubmitter{}

	g := newTestGate(draftRepo, destRepo, historyRepo, submitter)

	_, err := g.Publish(context.Background(), "draft-1")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeGlobalRateLimit {
		t.Errorf("expected GLOBAL_RATE_LIMIT_EXCEEDED, got %v", err)
	}
	if submitter.callCount != 0 {
		t.Error("submitter should not be called when the global limit is hit")
	}
}

// TestPublish_DestinationRateLimit は7日以内に同じ投稿先への投稿が存在する場合に
// 投稿先別レート制限エラーが返ることをテストする。
// 2日前の投稿は24時間の全体ウィンドウ外なので、投稿先別の制限だけが作動する。
func TestPublish_DestinationRateLimit(t *testing.T) {
	draftRepo, destRepo := approvingRepos()
	historyRepo := &mockHistoryRepo{records: []*model.HistoryRecord{
		{DestinationName: "test", PostedAt: time.Now().Add(-48 * time.Hour)},
	}}
	submitter := &mockSubmitter{}

	g := newTestGate(draftRepo, destRepo, historyRepo, submitter)

	_, err := g.Publish(context.Background(), "draft-1")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeDestinationRateLimit {
		t.Errorf("expected DESTINATION_RATE_LIMIT_EXCEEDED, got %v", err)
	}
	if submitter.callCount != 0 {
		t.Error("submitter should not be called when the destination limit is hit")
	}
}

// TestPublish_SubmitterError は投稿失敗時に履歴も状態も変更されないことをテストする。
func TestPublish_SubmitterError(t *testing.T) {
	draftRepo, destRepo := approvingRepos()
	historyRepo := &mockHistoryRepo{}
	submitter := &mockSubmitter{
		submitFn: func(ctx context.Context, destinationName, title, body string) (*SubmitResult, error) {
			return nil, errors.New("destination rejected the submission")
		},
	}

	g := newTestGate(draftRepo, destRepo, historyRepo, submitter)

	_, err := g.Publish(context.Background(), "draft-1")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodePublishFailed {
		t.Errorf("expected PUBLISH_FAILED, got %v", err)
	}
	if len(historyRepo.records) != 0 {
		t.Error("no history record should be created on submit failure")
	}
	if len(draftRepo.statusCalls) != 0 {
		t.Error("draft status should not change on submit failure")
	}
}
