package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hitoshi/draftman/internal/model"
)

// defaultListLimit は一覧取得の既定件数。
const defaultListLimit = 50

// IdeaStore はアイデアハンドラーが必要とする永続化インターフェース。
type IdeaStore interface {
	FindByID(ctx context.Context, id string) (*model.Idea, error)
	Create(ctx context.Context, idea *model.Idea) error
	List(ctx context.Context, limit int) ([]*model.Idea, error)
}

// IdeaHandler はアイデア管理のHTTPハンドラー。
type IdeaHandler struct {
	store IdeaStore
}

// NewIdeaHandler はIdeaHandlerを生成する。
func NewIdeaHandler(store IdeaStore) *IdeaHandler {
	return &IdeaHandler{store: store}
}

// createIdeaRequest はアイデア作成リクエストのボディ。
type createIdeaRequest struct {
	Title          string `json:"title"`
	CoreNarrative  string `json:"core_narrative"`
	TechnicalDepth int    `json:"technical_depth"`
	Goal           string `json:"goal"`
	SourceURL      string `json:"source_url"`
}

// ideaResponse はアイデアのAPIレスポンス。
type ideaResponse struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	CoreNarrative  string    `json:"core_narrative"`
	TechnicalDepth int       `json:"technical_depth"`
	Goal           string    `json:"goal"`
	SourceURL      string    `json:"source_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func toIdeaResponse(idea *model.Idea) ideaResponse {
	return ideaResponse{
		ID:             idea.ID,
		Title:          idea.Title,
		CoreNarrative:  idea.CoreNarrative,
		TechnicalDepth: idea.TechnicalDepth,
		Goal:           string(idea.Goal),
		SourceURL:      idea.SourceURL,
		CreatedAt:      idea.CreatedAt,
	}
}

// CreateIdea はアイデア作成を処理する。
// POST /api/ideas
func (h *IdeaHandler) CreateIdea(w http.ResponseWriter, r *http.Request) {
	var req createIdeaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyError(w)
		return
	}

	if req.Title == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("タイトルは必須です"))
		return
	}
	if req.TechnicalDepth == 0 {
		req.TechnicalDepth = 3
	}
	if req.TechnicalDepth < 1 || req.TechnicalDepth > 5 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("技術深度は1から5の範囲で指定してください"))
		return
	}
	if req.Goal == "" {
		req.Goal = string(model.IdeaGoalDiscussion)
	}
	if !model.ValidIdeaGoal(req.Goal) {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("不正な投稿目的です: "+req.Goal))
		return
	}

	idea := &model.Idea{
		ID:             uuid.New().String(),
		Title:          req.Title,
		CoreNarrative:  req.CoreNarrative,
		TechnicalDepth: req.TechnicalDepth,
		Goal:           model.IdeaGoal(req.Goal),
		SourceURL:      req.SourceURL,
		CreatedAt:      time.Now(),
	}
	if err := h.store.Create(r.Context(), idea); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toIdeaResponse(idea))
}

// GetIdea はアイデア詳細を取得する。
// GET /api/ideas/{id}
func (h *IdeaHandler) GetIdea(w http.ResponseWriter, r *http.Request) {
	ideaID := chi.URLParam(r, "id")

	idea, err := h.store.FindByID(r.Context(), ideaID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if idea == nil {
		handleServiceError(w, model.NewIdeaNotFoundError(ideaID))
		return
	}

	writeJSON(w, http.StatusOK, toIdeaResponse(idea))
}

// ListIdeas はアイデア一覧を取得する。
// GET /api/ideas?limit=
func (h *IdeaHandler) ListIdeas(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("limitは正の整数で指定してください"))
			return
		}
		limit = parsed
	}

	ideas, err := h.store.List(r.Context(), limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]ideaResponse, 0, len(ideas))
	for _, idea := range ideas {
		responses = append(responses, toIdeaResponse(idea))
	}
	writeJSON(w, http.StatusOK, responses)
}
