// Package draft はドラフト生成パイプラインとレビュー操作を提供する。
//
// パイプラインは投稿先ごとに 生成 → 批評 → 条件付き書き直し → 類似度算出 → 保存
// を順に実行する。投稿先間の処理は逐次であり、1つの投稿先での失敗は
// 他の投稿先の処理を中断しない(失敗は結果に収集される)。
package draft

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/draftman/internal/model"
	"github.com/hitoshi/draftman/internal/repository"
	"github.com/hitoshi/draftman/internal/similarity"
)

// TextGenerator はLLMによるテキスト生成のインターフェース。
type TextGenerator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// PipelineMetricsRecorder はドラフト生成メトリクスの記録インターフェース。
type PipelineMetricsRecorder interface {
	RecordDraftGenerated()
	RecordDraftFailed()
}

// noopPipelineMetrics はメトリクス未設定時のダミー実装。
type noopPipelineMetrics struct{}

func (noopPipelineMetrics) RecordDraftGenerated() {}
func (noopPipelineMetrics) RecordDraftFailed()    {}

// DestinationFailure は1つの投稿先でのドラフト生成失敗を表す。
type DestinationFailure struct {
	DestinationID   string
	DestinationName string
	Err             error
}

// Result はドラフト生成の結果。成功したドラフトと投稿先ごとの失敗を両方保持する。
type Result struct {
	Drafts   []*model.Draft
	Failures []DestinationFailure
}

// Pipeline はドラフト生成パイプライン。
type Pipeline struct {
	ideaRepo  repository.IdeaRepository
	destRepo  repository.DestinationRepository
	draftRepo repository.DraftRepository
	generator TextGenerator
	judge     similarity.Judge
	logger    *slog.Logger
	metrics   PipelineMetricsRecorder
}

// NewPipeline はPipelineの新しいインスタンスを生成する。
func NewPipeline(
	ideaRepo repository.IdeaRepository,
	destRepo repository.DestinationRepository,
	draftRepo repository.DraftRepository,
	generator TextGenerator,
	judge similarity.Judge,
	logger *slog.Logger,
	metrics PipelineMetricsRecorder,
) *Pipeline {
	if metrics == nil {
		metrics = noopPipelineMetrics{}
	}
	return &Pipeline{
		ideaRepo:  ideaRepo,
		destRepo:  destRepo,
		draftRepo: draftRepo,
		generator: generator,
		judge:     judge,
		logger:    logger,
		metrics:   metrics,
	}
}

// GenerateDrafts は指定アイデアのドラフトを生成する。
// destinationIDが空の場合は登録済みの全投稿先を対象とする。
// 投稿先は逐次処理され、個別の失敗はResult.Failuresに収集される。
func (p *Pipeline) GenerateDrafts(ctx context.Context, ideaID, destinationID string) (*Result, error) {
	idea, err := p.ideaRepo.FindByID(ctx, ideaID)
	if err != nil {
		return nil, fmt.Errorf("アイデアの取得に失敗しました: %w", err)
	}
	if idea == nil {
		return nil, model.NewIdeaNotFoundError(ideaID)
	}

	destinations, err := p.resolveDestinations(ctx, destinationID)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for _, dest := range destinations {
		draft, err := p.generateForDestination(ctx, idea, dest)
		if err != nil {
			p.metrics.RecordDraftFailed()
			p.logger.Error("投稿先のドラフト生成に失敗しました",
				slog.String("idea_id", idea.ID),
				slog.String("destination", dest.Name),
				slog.String("error", err.Error()),
			)
			result.Failures = append(result.Failures, DestinationFailure{
				DestinationID:   dest.ID,
				DestinationName: dest.Name,
				Err:             err,
			})
			continue
		}
		p.metrics.RecordDraftGenerated()
		result.Drafts = append(result.Drafts, draft)
	}
	return result, nil
}

// resolveDestinations は処理対象の投稿先リストを決定する。
func (p *Pipeline) resolveDestinations(ctx context.Context, destinationID string) ([]*model.Destination, error) {
	if destinationID != "" {
		dest, err := p.destRepo.FindByID(ctx, destinationID)
		if err != nil {
			return nil, fmt.Errorf("投稿先の取得に失敗しました: %w", err)
		}
		if dest == nil {
			return nil, model.NewDestinationNotFoundError(destinationID)
		}
		return []*model.Destination{dest}, nil
	}

	destinations, err := p.destRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("投稿先一覧の取得に失敗しました: %w", err)
	}
	if len(destinations) == 0 {
		return nil, model.NewNoDestinationsError()
	}
	return destinations, nil
}

// generateForDestination は1つの投稿先に対するドラフトを生成して保存する。
func (p *Pipeline) generateForDestination(ctx context.Context, idea *model.Idea, dest *model.Destination) (*model.Draft, error) {
	systemPrompt := buildPersonaPrompt(dest)

	draftText, err := p.generator.Generate(ctx, systemPrompt, buildIdeaPrompt(idea))
	if err != nil {
		return nil, fmt.Errorf("ドラフトの生成に失敗しました: %w", err)
	}

	critique, err := p.generator.Generate(ctx, critiqueSystemPrompt, buildCritiquePrompt(dest, draftText))
	if err != nil {
		return nil, fmt.Errorf("批評の生成に失敗しました: %w", err)
	}

	if !critiqueIsClean(critique) {
		rewritten, err := p.generator.Generate(ctx, systemPrompt, buildRewritePrompt(draftText, critique))
		if err != nil {
			return nil, fmt.Errorf("書き直しの生成に失敗しました: %w", err)
		}
		draftText = rewritten
	}

	score, err := p.maxSiblingSimilarity(ctx, idea.ID, draftText)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	draft := &model.Draft{
		ID:              uuid.New().String(),
		IdeaID:          idea.ID,
		DestinationID:   dest.ID,
		Content:         draftText,
		SimilarityScore: score,
		Status:          model.DraftStatusDraft,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := p.draftRepo.Create(ctx, draft); err != nil {
		return nil, fmt.Errorf("ドラフトの保存に失敗しました: %w", err)
	}
	return draft, nil
}

// maxSiblingSimilarity は同一アイデアの既存ドラフト全てに対する類似度の最大値を返す。
// 類似度は作成時に1回だけ算出され、後から兄弟が増えても再計算されない。
func (p *Pipeline) maxSiblingSimilarity(ctx context.Context, ideaID, content string) (float64, error) {
	siblings, err := p.draftRepo.ListByIdea(ctx, ideaID)
	if err != nil {
		return 0, fmt.Errorf("兄弟ドラフトの取得に失敗しました: %w", err)
	}

	var maxScore float64
	for _, sibling := range siblings {
		score := p.judge.Score(ctx, content, sibling.Content)
		if score > maxScore {
			maxScore = score
		}
	}
	return maxScore, nil
}
