package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/draftman/internal/model"
)

// mockDestinationStore はDestinationStoreのモック実装。
type mockDestinationStore struct {
	findByIDFn   func(ctx context.Context, id string) (*model.Destination, error)
	findByNameFn func(ctx context.Context, name string) (*model.Destination, error)
	createFn     func(ctx context.Context, dest *model.Destination) error
	updateFn     func(ctx context.Context, dest *model.Destination) error
	deleteFn     func(ctx context.Context, id string) error
	listFn       func(ctx context.Context) ([]*model.Destination, error)
}

func (m *mockDestinationStore) FindByID(ctx context.Context, id string) (*model.Destination, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockDestinationStore) FindByName(ctx context.Context, name string) (*model.Destination, error) {
	if m.findByNameFn != nil {
		return m.findByNameFn(ctx, name)
	}
	return nil, nil
}

func (m *mockDestinationStore) Create(ctx context.Context, dest *model.Destination) error {
	if m.createFn != nil {
		return m.createFn(ctx, dest)
	}
	return nil
}

func (m *mockDestinationStore) Update(ctx context.Context, dest *model.Destination) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, dest)
	}
	return nil
}

func (m *mockDestinationStore) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockDestinationStore) List(ctx context.Context) ([]*model.Destination, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

// --- POST /api/destinations テスト ---

func TestDestinationHandler_CreateDestination_Success(t *testing.T) {
	var created *model.Destination
	store := &mockDestinationStore{
		createFn: func(ctx context.Context, dest *model.Destination) error {
			created = dest
			return nil
		},
	}
	h := NewDestinationHandler(store)

	body := `{
		"name": "golang",
		"audience": "Go開発者",
		"tone": "casual",
		"self_promo_level": "medium",
		"banned_phrases": ["check out my"],
		"links_allowed": true
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/destinations", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	h.CreateDestination(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if created == nil {
		t.Fatal("destination was not persisted")
	}
	if created.ID == "" {
		t.Error("created destination should have a generated ID")
	}
	if created.SelfPromoLevel != model.SelfPromoMedium {
		t.Errorf("SelfPromoLevel = %q, want %q", created.SelfPromoLevel, model.SelfPromoMedium)
	}
	if !created.LinksAllowed {
		t.Error("LinksAllowed should be true")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("created destination should have timestamps set")
	}
}

func TestDestinationHandler_CreateDestination_DuplicateName(t *testing.T) {
	store := &mockDestinationStore{
		findByNameFn: func(ctx context.Context, name string) (*model.Destination, error) {
			return &model.Destination{ID: "dest-1", Name: name}, nil
		},
	}
	h := NewDestinationHandler(store)

	body := `{"name": "golang"}`
	req := httptest.NewRequest(http.MethodPost, "/api/destinations", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	h.CreateDestination(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestDestinationHandler_CreateDestination_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"名前なし", `{"audience": "devs"}`},
		{"不正な自己宣伝レベル", `{"name": "x", "self_promo_level": "max"}`},
		{"不正なJSON", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewDestinationHandler(&mockDestinationStore{})
			req := httptest.NewRequest(http.MethodPost, "/api/destinations", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			h.CreateDestination(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
}

// --- PUT /api/destinations/{id} テスト ---

func TestDestinationHandler_UpdateDestination_Success(t *testing.T) {
	var updated *model.Destination
	store := &mockDestinationStore{
		findByIDFn: func(ctx context.Context, id string) (*model.Destination, error) {
			return &model.Destination{ID: id, Name: "golang", SelfPromoLevel: model.SelfPromoLow}, nil
		},
		updateFn: func(ctx context.Context, dest *model.Destination) error {
			updated = dest
			return nil
		},
	}
	h := NewDestinationHandler(store)

	body := `{"name": "golang", "tone": "formal", "self_promo_level": "high"}`
	req := httptest.NewRequest(http.MethodPut, "/api/destinations/dest-1", bytes.NewBufferString(body))
	req = withChiURLParam(req, "id", "dest-1")
	w := httptest.NewRecorder()

	h.UpdateDestination(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if updated == nil {
		t.Fatal("destination was not updated")
	}
	if updated.Tone != "formal" {
		t.Errorf("Tone = %q, want %q", updated.Tone, "formal")
	}
	if updated.SelfPromoLevel != model.SelfPromoHigh {
		t.Errorf("SelfPromoLevel = %q, want %q", updated.SelfPromoLevel, model.SelfPromoHigh)
	}
	if updated.UpdatedAt.IsZero() {
		t.Error("updated destination should have UpdatedAt set")
	}
}

func TestDestinationHandler_UpdateDestination_NotFound(t *testing.T) {
	h := NewDestinationHandler(&mockDestinationStore{})

	body := `{"name": "golang"}`
	req := httptest.NewRequest(http.MethodPut, "/api/destinations/missing", bytes.NewBufferString(body))
	req = withChiURLParam(req, "id", "missing")
	w := httptest.NewRecorder()

	h.UpdateDestination(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// --- DELETE /api/destinations/{id} テスト ---

func TestDestinationHandler_DeleteDestination_Success(t *testing.T) {
	deleted := ""
	store := &mockDestinationStore{
		findByIDFn: func(ctx context.Context, id string) (*model.Destination, error) {
			return &model.Destination{ID: id, Name: "golang"}, nil
		},
		deleteFn: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	h := NewDestinationHandler(store)

	req := httptest.NewRequest(http.MethodDelete, "/api/destinations/dest-1", nil)
	req = withChiURLParam(req, "id", "dest-1")
	w := httptest.NewRecorder()

	h.DeleteDestination(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if deleted != "dest-1" {
		t.Errorf("deleted = %q, want %q", deleted, "dest-1")
	}
}

func TestDestinationHandler_DeleteDestination_NotFound(t *testing.T) {
	h := NewDestinationHandler(&mockDestinationStore{})

	req := httptest.NewRequest(http.MethodDelete, "/api/destinations/missing", nil)
	req = withChiURLParam(req, "id", "missing")
	w := httptest.NewRecorder()

	h.DeleteDestination(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// --- GET /api/destinations テスト ---

func TestDestinationHandler_ListDestinations_Success(t *testing.T) {
	store := &mockDestinationStore{
		listFn: func(ctx context.Context) ([]*model.Destination, error) {
			return []*model.Destination{
				{ID: "dest-1", Name: "golang"},
				{ID: "dest-2", Name: "selfhosted"},
			}, nil
		},
	}
	h := NewDestinationHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/api/destinations", nil)
	w := httptest.NewRecorder()

	h.ListDestinations(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp []json.RawMessage
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Errorf("len(resp) = %d, want 2", len(resp))
	}
}
