package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/hitoshi/draftman/internal/explain"
	"github.com/hitoshi/draftman/internal/model"
)

// Explainer はURL解説サービスのインターフェース。
type Explainer interface {
	Explain(ctx context.Context, req explain.Request) (string, bool, error)
}

// ExplainHandler はURL解説のHTTPハンドラー。
type ExplainHandler struct {
	explainer Explainer
}

// NewExplainHandler はExplainHandlerを生成する。
func NewExplainHandler(explainer Explainer) *ExplainHandler {
	return &ExplainHandler{explainer: explainer}
}

type explainRequest struct {
	URL      string `json:"url"`
	Category string `json:"category"`
	Title    string `json:"title"`
}

type explainResponse struct {
	Explanation string `json:"explanation"`
	WasCached   bool   `json:"was_cached"`
}

// Explain はURLの解説文を生成または再利用する。
// POST /api/explain
func (h *ExplainHandler) Explain(w http.ResponseWriter, r *http.Request) {
	var req explainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyError(w)
		return
	}

	if strings.TrimSpace(req.URL) == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("urlは必須です"))
		return
	}

	explanation, cached, err := h.explainer.Explain(r.Context(), explain.Request{
		URL:      req.URL,
		Category: req.Category,
		Title:    req.Title,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, explainResponse{
		Explanation: explanation,
		WasCached:   cached,
	})
}
