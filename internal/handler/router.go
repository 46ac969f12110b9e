package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/draftman/internal/metrics"
	"github.com/hitoshi/draftman/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	APIToken          string
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// 運用エンドポイント
	HealthChecker HealthChecker
	Gatherer      prometheus.Gatherer

	// アイデア
	IdeaStore IdeaStore

	// 投稿先
	DestinationStore DestinationStore

	// ドラフト
	DraftGenerator DraftGenerator
	DraftReviewer  DraftReviewer
	DraftPublisher DraftPublisher

	// URL解説
	Explainer Explainer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORSMiddleware → SecurityHeaders → Logging → Recovery → Auth → RateLimit(General)
//
// /health と /metrics は認証チェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルートに効くミドルウェア
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewRecoveryMiddleware())

	ideaHandler := NewIdeaHandler(deps.IdeaStore)
	destHandler := NewDestinationHandler(deps.DestinationStore)
	draftHandler := NewDraftHandler(deps.DraftGenerator, deps.DraftReviewer, deps.DraftPublisher)
	explainHandler := NewExplainHandler(deps.Explainer)
	healthHandler := NewHealthHandler(deps.HealthChecker)

	// --- 認証不要のルート ---

	r.Get("/health", healthHandler.Health)
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.APIToken))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// アイデア管理
		r.Route("/api/ideas", func(r chi.Router) {
			r.Post("/", ideaHandler.CreateIdea)
			r.Get("/", ideaHandler.ListIdeas)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", ideaHandler.GetIdea)

				// POST /api/ideas/{id}/drafts - ドラフト生成（生成専用レート制限を追加）
				r.With(deps.RateLimiter.GenerateMiddleware()).Post("/drafts", draftHandler.GenerateDrafts)
			})
		})

		// 投稿先管理
		r.Route("/api/destinations", func(r chi.Router) {
			r.Post("/", destHandler.CreateDestination)
			r.Get("/", destHandler.ListDestinations)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", destHandler.GetDestination)
				r.Put("/", destHandler.UpdateDestination)
				r.Delete("/", destHandler.DeleteDestination)
			})
		})

		// ドラフト管理
		r.Route("/api/drafts", func(r chi.Router) {
			r.Get("/", draftHandler.ListDrafts)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", draftHandler.GetDraft)
				r.Post("/approve", draftHandler.ApproveDraft)
				r.Post("/reject", draftHandler.RejectDraft)
				r.Post("/schedule", draftHandler.ScheduleDraft)
				r.Post("/publish", draftHandler.PublishDraft)
			})
		})

		// URL解説（LLM呼び出しを伴うため生成専用レート制限を追加）
		r.With(deps.RateLimiter.GenerateMiddleware()).Post("/api/explain", explainHandler.Explain)
	})

	return r
}
