package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/draftman/internal/draft"
	"github.com/hitoshi/draftman/internal/model"
	"github.com/hitoshi/draftman/internal/publish"
)

// DraftGenerator はドラフト生成パイプラインのインターフェース。
type DraftGenerator interface {
	GenerateDrafts(ctx context.Context, ideaID, destinationID string) (*draft.Result, error)
}

// DraftReviewer はドラフトのレビュー操作のインターフェース。
type DraftReviewer interface {
	Get(ctx context.Context, draftID string) (*model.Draft, error)
	List(ctx context.Context, status string, limit int) ([]*model.Draft, error)
	Approve(ctx context.Context, draftID string) (*model.Draft, error)
	Reject(ctx context.Context, draftID string) (*model.Draft, error)
	Schedule(ctx context.Context, draftID string, scheduledAt *time.Time) (*model.Draft, error)
}

// DraftPublisher はドラフト投稿のインターフェース。
type DraftPublisher interface {
	Publish(ctx context.Context, draftID string) (*publish.PublishResult, error)
}

// DraftHandler はドラフト管理のHTTPハンドラー。
type DraftHandler struct {
	generator DraftGenerator
	reviewer  DraftReviewer
	publisher DraftPublisher
}

// NewDraftHandler はDraftHandlerを生成する。
func NewDraftHandler(generator DraftGenerator, reviewer DraftReviewer, publisher DraftPublisher) *DraftHandler {
	return &DraftHandler{
		generator: generator,
		reviewer:  reviewer,
		publisher: publisher,
	}
}

// generateDraftsRequest はドラフト生成リクエストのボディ。
type generateDraftsRequest struct {
	DestinationID string `json:"destination_id"`
}

// scheduleDraftRequest は予約投稿リクエストのボディ。
// scheduled_atがnullの場合は予約を解除する。
type scheduleDraftRequest struct {
	ScheduledAt *time.Time `json:"scheduled_at"`
}

// draftResponse はドラフトのAPIレスポンス。
type draftResponse struct {
	ID              string     `json:"id"`
	IdeaID          string     `json:"idea_id"`
	DestinationID   string     `json:"destination_id"`
	Content         string     `json:"content"`
	SimilarityScore float64    `json:"similarity_score"`
	Status          string     `json:"status"`
	ScheduledAt     *time.Time `json:"scheduled_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// generationFailureResponse は投稿先ごとの生成失敗のAPIレスポンス。
type generationFailureResponse struct {
	DestinationID   string `json:"destination_id"`
	DestinationName string `json:"destination_name"`
	Error           string `json:"error"`
}

// generateDraftsResponse はドラフト生成のAPIレスポンス。
// 成功したドラフトと投稿先ごとの失敗を両方返し、呼び出し側が失敗分だけ再試行できるようにする。
type generateDraftsResponse struct {
	Drafts   []draftResponse             `json:"drafts"`
	Failures []generationFailureResponse `json:"failures"`
}

// publishResponse は投稿成功のAPIレスポンス。
type publishResponse struct {
	ExternalPostID string `json:"external_post_id"`
	ExternalURL    string `json:"external_url"`
}

func toDraftResponse(d *model.Draft) draftResponse {
	return draftResponse{
		ID:              d.ID,
		IdeaID:          d.IdeaID,
		DestinationID:   d.DestinationID,
		Content:         d.Content,
		SimilarityScore: d.SimilarityScore,
		Status:          string(d.Status),
		ScheduledAt:     d.ScheduledAt,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

// GenerateDrafts はドラフト生成を処理する。
// POST /api/ideas/{id}/drafts
func (h *DraftHandler) GenerateDrafts(w http.ResponseWriter, r *http.Request) {
	ideaID := chi.URLParam(r, "id")

	var req generateDraftsRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeInvalidBodyError(w)
			return
		}
	}

	result, err := h.generator.GenerateDrafts(r.Context(), ideaID, req.DestinationID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := generateDraftsResponse{
		Drafts:   make([]draftResponse, 0, len(result.Drafts)),
		Failures: make([]generationFailureResponse, 0, len(result.Failures)),
	}
	for _, d := range result.Drafts {
		resp.Drafts = append(resp.Drafts, toDraftResponse(d))
	}
	for _, f := range result.Failures {
		resp.Failures = append(resp.Failures, generationFailureResponse{
			DestinationID:   f.DestinationID,
			DestinationName: f.DestinationName,
			Error:           f.Err.Error(),
		})
	}

	writeJSON(w, http.StatusCreated, resp)
}

// GetDraft はドラフト詳細を取得する。
// GET /api/drafts/{id}
func (h *DraftHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	d, err := h.reviewer.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDraftResponse(d))
}

// ListDrafts はドラフト一覧を取得する。
// GET /api/drafts?status=&limit=
func (h *DraftHandler) ListDrafts(w http.ResponseWriter, r *http.Request) {
	drafts, err := h.reviewer.List(r.Context(), r.URL.Query().Get("status"), defaultListLimit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]draftResponse, 0, len(drafts))
	for _, d := range drafts {
		responses = append(responses, toDraftResponse(d))
	}
	writeJSON(w, http.StatusOK, responses)
}

// ApproveDraft はドラフトを承認する。
// POST /api/drafts/{id}/approve
func (h *DraftHandler) ApproveDraft(w http.ResponseWriter, r *http.Request) {
	d, err := h.reviewer.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDraftResponse(d))
}

// RejectDraft はドラフトを却下する。
// POST /api/drafts/{id}/reject
func (h *DraftHandler) RejectDraft(w http.ResponseWriter, r *http.Request) {
	d, err := h.reviewer.Reject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDraftResponse(d))
}

// ScheduleDraft はドラフトの予約投稿日時を設定する。
// POST /api/drafts/{id}/schedule
func (h *DraftHandler) ScheduleDraft(w http.ResponseWriter, r *http.Request) {
	var req scheduleDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyError(w)
		return
	}

	d, err := h.reviewer.Schedule(r.Context(), chi.URLParam(r, "id"), req.ScheduledAt)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDraftResponse(d))
}

// PublishDraft はドラフトを即時投稿する。
// POST /api/drafts/{id}/publish
func (h *DraftHandler) PublishDraft(w http.ResponseWriter, r *http.Request) {
	result, err := h.publisher.Publish(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, publishResponse{
		ExternalPostID: result.ExternalPostID,
		ExternalURL:    result.ExternalURL,
	})
}
