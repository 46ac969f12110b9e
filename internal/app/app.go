package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/draftman/internal/config"
	"github.com/hitoshi/draftman/internal/database"
	"github.com/hitoshi/draftman/internal/draft"
	"github.com/hitoshi/draftman/internal/explain"
	"github.com/hitoshi/draftman/internal/handler"
	"github.com/hitoshi/draftman/internal/llm"
	"github.com/hitoshi/draftman/internal/logger"
	"github.com/hitoshi/draftman/internal/metrics"
	"github.com/hitoshi/draftman/internal/middleware"
	"github.com/hitoshi/draftman/internal/publish"
	"github.com/hitoshi/draftman/internal/repository"
	"github.com/hitoshi/draftman/internal/security"
	"github.com/hitoshi/draftman/internal/similarity"
	"github.com/hitoshi/draftman/internal/worker/cleanup"
	"github.com/hitoshi/draftman/internal/worker/ingest"
	"github.com/hitoshi/draftman/internal/worker/publishloop"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// buildProvider は設定からテキスト生成プロバイダを構築する。
// プライマリティアはGroq（OpenAI互換API）、フォールバックティアは
// OpenAI本体とローカルOllama（モデル名が設定された場合のみ）で構成される。
func buildProvider(cfg *config.Config, collector *metrics.Collector) *llm.Provider {
	var primary []llm.Candidate
	if cfg.GroqAPIKey != "" {
		groq := llm.NewOpenAIBackend("groq", cfg.GroqAPIKey, cfg.GroqBaseURL)
		for _, model := range cfg.GroqModels {
			primary = append(primary, llm.Candidate{Backend: groq, Model: model})
		}
	}

	var fallback []llm.Candidate
	if cfg.OpenAIAPIKey != "" {
		openai := llm.NewOpenAIBackend("openai", cfg.OpenAIAPIKey, "")
		for _, model := range cfg.OpenAIModels {
			fallback = append(fallback, llm.Candidate{Backend: openai, Model: model})
		}
	}
	if cfg.OllamaModel != "" {
		ollama, err := llm.NewOllamaBackend()
		if err != nil {
			slog.Warn("Ollamaバックエンドの初期化に失敗しました。候補から除外します",
				slog.String("error", err.Error()),
			)
		} else {
			fallback = append(fallback, llm.Candidate{Backend: ollama, Model: cfg.OllamaModel})
		}
	}

	return llm.NewProvider(primary, fallback, cfg.GenTemperature, slog.Default(), collector)
}

// rateLimiterConfig はreq/min単位の設定値をrate.Limit(req/sec)に変換する。
func rateLimiterConfig(cfg *config.Config) middleware.RateLimiterConfig {
	rlCfg := middleware.DefaultRateLimiterConfig()
	if cfg.RateLimitGeneral > 0 {
		rlCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
		rlCfg.GeneralBurst = cfg.RateLimitGeneral
	}
	if cfg.RateLimitGenerate > 0 {
		rlCfg.GenerateRate = rate.Limit(float64(cfg.RateLimitGenerate) / 60.0)
		rlCfg.GenerateBurst = cfg.RateLimitGenerate
	}
	return rlCfg
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	ideaRepo := repository.NewPostgresIdeaRepo(db)
	destRepo := repository.NewPostgresDestinationRepo(db)
	draftRepo := repository.NewPostgresDraftRepo(db)
	historyRepo := repository.NewPostgresHistoryRepo(db)
	cacheRepo := repository.NewPostgresCacheRepo(db)

	// 3. メトリクスとセキュリティサービスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)
	guard := security.NewFetchGuard()

	// 4. ドメインサービスの初期化
	provider := buildProvider(cfg, collector)
	judge := similarity.NewLLMJudge(provider, slog.Default(), collector)

	explainService := explain.NewService(
		cacheRepo, provider, guard,
		cfg.FetchTimeout, cfg.FetchMaxSize,
		slog.Default(), collector,
	)

	pipeline := draft.NewPipeline(
		ideaRepo, destRepo, draftRepo,
		provider, judge,
		slog.Default(), collector,
	)
	reviewService := draft.NewReviewService(draftRepo)

	redditClient := publish.NewRedditClient(publish.RedditCredentials{
		ClientID:     cfg.RedditClientID,
		ClientSecret: cfg.RedditClientSecret,
		Username:     cfg.RedditUsername,
		Password:     cfg.RedditPassword,
		UserAgent:    cfg.RedditUserAgent,
	})
	gate := publish.NewGate(
		draftRepo, destRepo, historyRepo,
		redditClient,
		publish.GateConfig{
			GlobalWindow: cfg.GlobalPostWindow,
			GlobalLimit:  cfg.GlobalPostLimit,
			DestWindow:   cfg.DestPostWindow,
			DestLimit:    cfg.DestPostLimit,
		},
		slog.Default(), collector,
	)

	// 5. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(rateLimiterConfig(cfg))
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		APIToken:          cfg.APIToken,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),

		HealthChecker: db,
		Gatherer:      registry,

		IdeaStore:        ideaRepo,
		DestinationStore: destRepo,

		DraftGenerator: pipeline,
		DraftReviewer:  reviewService,
		DraftPublisher: gate,

		Explainer: explainService,
	})

	// 6. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // ドラフト生成はLLM呼び出しを複数回含むため長めに取る
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// DB接続を開き、予約投稿ループ・フィード取り込み・キャッシュクリーンアップを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. リポジトリの初期化
	ideaRepo := repository.NewPostgresIdeaRepo(db)
	destRepo := repository.NewPostgresDestinationRepo(db)
	draftRepo := repository.NewPostgresDraftRepo(db)
	historyRepo := repository.NewPostgresHistoryRepo(db)

	// 3. セキュリティサービスの初期化
	guard := security.NewFetchGuard()
	sanitizer := security.NewContentSanitizer()

	// 4. 投稿ゲートの初期化
	redditClient := publish.NewRedditClient(publish.RedditCredentials{
		ClientID:     cfg.RedditClientID,
		ClientSecret: cfg.RedditClientSecret,
		Username:     cfg.RedditUsername,
		Password:     cfg.RedditPassword,
		UserAgent:    cfg.RedditUserAgent,
	})
	gate := publish.NewGate(
		draftRepo, destRepo, historyRepo,
		redditClient,
		publish.GateConfig{
			GlobalWindow: cfg.GlobalPostWindow,
			GlobalLimit:  cfg.GlobalPostLimit,
			DestWindow:   cfg.DestPostWindow,
			DestLimit:    cfg.DestPostLimit,
		},
		slog.Default(), nil,
	)

	// 5. ワーカーの初期化
	publishLoop := publishloop.NewLoop(draftRepo, gate, slog.Default(), cfg.PublishBatchSize)

	ingester := ingest.NewIngester(
		cfg.FeedURLs, ideaRepo, guard,
		cfg.FetchTimeout, cfg.FetchMaxSize,
		sanitizer, slog.Default(),
	)

	cleanupJob := cleanup.NewCleanupJob(db, slog.Default())
	cleanupJob.RetentionDays = cfg.CacheRetentionDays

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("publish_interval", cfg.PublishInterval),
		slog.Duration("ingest_interval", cfg.IngestInterval),
		slog.Int("feed_count", len(cfg.FeedURLs)),
	)

	// フィード取り込みをバックグラウンドで起動（フィード未設定時はスキップ）
	if len(cfg.FeedURLs) > 0 {
		go ingester.Start(ctx, cfg.IngestInterval)
	}

	// クリーンアップジョブを日次でバックグラウンド実行
	go func() {
		// 起動直後に1回実行
		if err := cleanupJob.Run(ctx); err != nil {
			slog.Error("cleanup job failed", slog.String("error", err.Error()))
		}

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := cleanupJob.Run(ctx); err != nil {
					slog.Error("cleanup job failed", slog.String("error", err.Error()))
				}
			}
		}
	}()

	// 予約投稿ループをメインgoroutineで実行（ブロッキング）
	publishLoop.Start(ctx, cfg.PublishInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
