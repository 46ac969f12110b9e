package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hitoshi/draftman/internal/model"
)

// DestinationStore は投稿先ハンドラーが必要とする永続化インターフェース。
type DestinationStore interface {
	FindByID(ctx context.Context, id string) (*model.Destination, error)
	FindByName(ctx context.Context, name string) (*model.Destination, error)
	Create(ctx context.Context, dest *model.Destination) error
	Update(ctx context.Context, dest *model.Destination) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*model.Destination, error)
}

// DestinationHandler は投稿先管理のHTTPハンドラー。
type DestinationHandler struct {
	store DestinationStore
}

// NewDestinationHandler はDestinationHandlerを生成する。
func NewDestinationHandler(store DestinationStore) *DestinationHandler {
	return &DestinationHandler{store: store}
}

// destinationRequest は投稿先作成・更新リクエストのボディ。
type destinationRequest struct {
	Name            string   `json:"name"`
	Audience        string   `json:"audience"`
	Tone            string   `json:"tone"`
	SelfPromoLevel  string   `json:"self_promo_level"`
	PreferredLength string   `json:"preferred_length"`
	RequiredFlair   string   `json:"required_flair"`
	EndingStyle     string   `json:"ending_style"`
	BannedPhrases   []string `json:"banned_phrases"`
	LinksAllowed    bool     `json:"links_allowed"`
}

// destinationResponse は投稿先のAPIレスポンス。
type destinationResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Audience        string    `json:"audience"`
	Tone            string    `json:"tone"`
	SelfPromoLevel  string    `json:"self_promo_level"`
	PreferredLength string    `json:"preferred_length"`
	RequiredFlair   string    `json:"required_flair"`
	EndingStyle     string    `json:"ending_style"`
	BannedPhrases   []string  `json:"banned_phrases"`
	LinksAllowed    bool      `json:"links_allowed"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toDestinationResponse(dest *model.Destination) destinationResponse {
	return destinationResponse{
		ID:              dest.ID,
		Name:            dest.Name,
		Audience:        dest.Audience,
		Tone:            dest.Tone,
		SelfPromoLevel:  string(dest.SelfPromoLevel),
		PreferredLength: dest.PreferredLength,
		RequiredFlair:   dest.RequiredFlair,
		EndingStyle:     dest.EndingStyle,
		BannedPhrases:   dest.BannedPhrases,
		LinksAllowed:    dest.LinksAllowed,
		CreatedAt:       dest.CreatedAt,
		UpdatedAt:       dest.UpdatedAt,
	}
}

// validate はリクエストの必須項目と列挙値を検証し、デフォルト値を補完する。
func (req *destinationRequest) validate() *model.APIError {
	if req.Name == "" {
		return model.NewInvalidRequestError("投稿先名は必須です")
	}
	if req.SelfPromoLevel == "" {
		req.SelfPromoLevel = string(model.SelfPromoLow)
	}
	if !model.ValidSelfPromoLevel(req.SelfPromoLevel) {
		return model.NewInvalidRequestError("不正な自己宣伝許容度です: " + req.SelfPromoLevel)
	}
	return nil
}

// CreateDestination は投稿先作成を処理する。
// POST /api/destinations
func (h *DestinationHandler) CreateDestination(w http.ResponseWriter, r *http.Request) {
	var req destinationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyError(w)
		return
	}
	if apiErr := req.validate(); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	existing, err := h.store.FindByName(r.Context(), req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if existing != nil {
		writeAPIErrorResponse(w, http.StatusConflict, model.NewInvalidRequestError("同名の投稿先が既に存在します: "+req.Name))
		return
	}

	dest := &model.Destination{
		ID:              uuid.New().String(),
		Name:            req.Name,
		Audience:        req.Audience,
		Tone:            req.Tone,
		SelfPromoLevel:  model.SelfPromoLevel(req.SelfPromoLevel),
		PreferredLength: req.PreferredLength,
		RequiredFlair:   req.RequiredFlair,
		EndingStyle:     req.EndingStyle,
		BannedPhrases:   req.BannedPhrases,
		LinksAllowed:    req.LinksAllowed,
	}
	now := time.Now()
	dest.CreatedAt = now
	dest.UpdatedAt = now
	if err := h.store.Create(r.Context(), dest); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toDestinationResponse(dest))
}

// GetDestination は投稿先詳細を取得する。
// GET /api/destinations/{id}
func (h *DestinationHandler) GetDestination(w http.ResponseWriter, r *http.Request) {
	destID := chi.URLParam(r, "id")

	dest, err := h.store.FindByID(r.Context(), destID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if dest == nil {
		handleServiceError(w, model.NewDestinationNotFoundError(destID))
		return
	}

	writeJSON(w, http.StatusOK, toDestinationResponse(dest))
}

// UpdateDestination は投稿先プロフィールを更新する。
// PUT /api/destinations/{id}
func (h *DestinationHandler) UpdateDestination(w http.ResponseWriter, r *http.Request) {
	destID := chi.URLParam(r, "id")

	dest, err := h.store.FindByID(r.Context(), destID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if dest == nil {
		handleServiceError(w, model.NewDestinationNotFoundError(destID))
		return
	}

	var req destinationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyError(w)
		return
	}
	if apiErr := req.validate(); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	dest.Name = req.Name
	dest.Audience = req.Audience
	dest.Tone = req.Tone
	dest.SelfPromoLevel = model.SelfPromoLevel(req.SelfPromoLevel)
	dest.PreferredLength = req.PreferredLength
	dest.RequiredFlair = req.RequiredFlair
	dest.EndingStyle = req.EndingStyle
	dest.BannedPhrases = req.BannedPhrases
	dest.LinksAllowed = req.LinksAllowed
	dest.UpdatedAt = time.Now()

	if err := h.store.Update(r.Context(), dest); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toDestinationResponse(dest))
}

// DeleteDestination は投稿先を削除する。
// DELETE /api/destinations/{id}
func (h *DestinationHandler) DeleteDestination(w http.ResponseWriter, r *http.Request) {
	destID := chi.URLParam(r, "id")

	dest, err := h.store.FindByID(r.Context(), destID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if dest == nil {
		handleServiceError(w, model.NewDestinationNotFoundError(destID))
		return
	}

	if err := h.store.Delete(r.Context(), destID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListDestinations は投稿先一覧を取得する。
// GET /api/destinations
func (h *DestinationHandler) ListDestinations(w http.ResponseWriter, r *http.Request) {
	destinations, err := h.store.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]destinationResponse, 0, len(destinations))
	for _, dest := range destinations {
		responses = append(responses, toDestinationResponse(dest))
	}
	writeJSON(w, http.StatusOK, responses)
}
