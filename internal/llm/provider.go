package llm

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// ErrAllProvidersExhausted は全候補のバックエンド・モデルの組が失敗したことを示す。
var ErrAllProvidersExhausted = errors.New("すべての生成バックエンド候補が失敗しました")

// MetricsRecorder は生成試行のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordGenerationAttempt(backend, model string)
	RecordGenerationSuccess(backend, model string)
	RecordGenerationFailure(backend, model string)
}

// noopMetrics はメトリクス未設定時のダミー実装。
type noopMetrics struct{}

func (noopMetrics) RecordGenerationAttempt(backend, model string) {}
func (noopMetrics) RecordGenerationSuccess(backend, model string) {}
func (noopMetrics) RecordGenerationFailure(backend, model string) {}

// Provider は複数のバックエンド・モデル候補を順序付きで試行する生成プロバイダ。
//
// 候補はプライマリ（無料ティア、高速）→フォールバック（有料・代替ティア）の
// 2段構成で、各候補は宣言順に1回ずつ試行される。エラーや空応答は記録して
// 次候補へ進み、最初の非空応答を返す。呼び出し側はどのバックエンドが
// 応答したかを意識する必要がない。
type Provider struct {
	primary     []Candidate
	fallback    []Candidate
	temperature float64
	logger      *slog.Logger
	metrics     MetricsRecorder
}

// NewProvider はProviderを生成する。
// primaryが空の場合（プライマリティアの認証情報が未設定の場合）は
// フォールバック候補のみが試行される。metricsはnil可。
func NewProvider(primary, fallback []Candidate, temperature float64, logger *slog.Logger, metrics MetricsRecorder) *Provider {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Provider{
		primary:     primary,
		fallback:    fallback,
		temperature: temperature,
		logger:      logger,
		metrics:     metrics,
	}
}

// Generate はシステムプロンプトとユーザープロンプトからテキストを生成する。
func (p *Provider) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return p.GenerateWithModel(ctx, systemPrompt, userPrompt, "")
}

// GenerateWithModel は呼び出し側が希望モデルを指定できるGenerate。
// preferredModelが指定された場合、フォールバックティアの先頭に
// そのモデルの候補が挿入される。
func (p *Provider) GenerateWithModel(ctx context.Context, systemPrompt, userPrompt, preferredModel string) (string, error) {
	messages := []Message{
		{Role: RoleSystem, Content: systemPrompt},
		{Role: RoleUser, Content: userPrompt},
	}

	candidates := p.candidateOrder(preferredModel)

	for _, c := range candidates {
		p.metrics.RecordGenerationAttempt(c.Backend.Name(), c.Model)

		text, err := c.Backend.ChatComplete(ctx, c.Model, messages, p.temperature)
		if err != nil {
			p.metrics.RecordGenerationFailure(c.Backend.Name(), c.Model)
			p.logger.Warn("生成候補が失敗しました。次の候補へフォールバックします",
				slog.String("backend", c.Backend.Name()),
				slog.String("model", c.Model),
				slog.String("error", err.Error()),
			)
			continue
		}

		text = strings.TrimSpace(text)
		if text == "" {
			p.metrics.RecordGenerationFailure(c.Backend.Name(), c.Model)
			p.logger.Warn("生成候補が空の応答を返しました。次の候補へフォールバックします",
				slog.String("backend", c.Backend.Name()),
				slog.String("model", c.Model),
			)
			continue
		}

		p.metrics.RecordGenerationSuccess(c.Backend.Name(), c.Model)
		return text, nil
	}

	return "", ErrAllProvidersExhausted
}

// candidateOrder は試行順序の候補リストを構築する。
// 順序: プライマリ → 希望モデル（指定時、フォールバックバックエンド上） → フォールバック
func (p *Provider) candidateOrder(preferredModel string) []Candidate {
	candidates := make([]Candidate, 0, len(p.primary)+len(p.fallback)+1)
	candidates = append(candidates, p.primary...)

	if preferredModel != "" && len(p.fallback) > 0 {
		candidates = append(candidates, Candidate{
			Backend: p.fallback[0].Backend,
			Model:   preferredModel,
		})
	}

	candidates = append(candidates, p.fallback...)
	return candidates
}
