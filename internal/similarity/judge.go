// Package similarity はドラフト間の類似度判定を提供する。
// 埋め込みベクトル基盤を持たずに、生成バックエンドをゼロショットの
// 判定器として使用する。スコアはレビュアーへの参考情報であり、
// ハードゲートではない。
package similarity

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// maxCompareRunes は判定器へ渡す各テキストの最大文字数。
// 長文ドラフト全体を渡すとトークン消費が無駄に増えるため、先頭のみ比較する。
const maxCompareRunes = 1500

// neutralScore は判定失敗時のフォールバックスコア。
// 判定器の呼び出し失敗とスコアのパース失敗は、どちらも中立値に倒す。
const neutralScore = 0.5

// TextGenerator は類似度判定に使用するテキスト生成インターフェース。
type TextGenerator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Judge は2つのテキストの類似度を0.0（独立）〜1.0（複製）で判定するインターフェース。
// 埋め込みコサイン類似度等の実装に差し替え可能な形にしてある。
type Judge interface {
	Score(ctx context.Context, a, b string) float64
}

// FallbackRecorder は判定フォールバック発生のメトリクス記録インターフェース。
type FallbackRecorder interface {
	RecordSimilarityFallback()
}

// LLMJudge は生成バックエンドを判定器として使用するJudge実装。
type LLMJudge struct {
	generator TextGenerator
	logger    *slog.Logger
	metrics   FallbackRecorder
}

// NewLLMJudge はLLMJudgeを生成する。metricsはnil可。
func NewLLMJudge(generator TextGenerator, logger *slog.Logger, metrics FallbackRecorder) *LLMJudge {
	return &LLMJudge{
		generator: generator,
		logger:    logger,
		metrics:   metrics,
	}
}

const judgeSystemPrompt = `You are a strict similarity judge for social media posts.
Compare two posts for structural and phrasing similarity. A rephrased "spin" of the
same post is highly similar; genuinely different framing and content is not.
Respond with a single decimal number between 0.0 (completely distinct) and
1.0 (near-duplicate). Output only the number.`

// Score は2つのテキストの類似度を判定する。
// 同一文字列は生成呼び出しなしで1.0を返す。判定器の呼び出し失敗・
// パース失敗時は中立値0.5を返し、呼び出し元を失敗させない。
func (j *LLMJudge) Score(ctx context.Context, a, b string) float64 {
	if a == b {
		return 1.0
	}

	userPrompt := fmt.Sprintf("POST A:\n%s\n\nPOST B:\n%s\n\nSimilarity score:",
		truncateRunes(a, maxCompareRunes), truncateRunes(b, maxCompareRunes))

	response, err := j.generator.Generate(ctx, judgeSystemPrompt, userPrompt)
	if err != nil {
		j.logger.Warn("類似度判定の生成呼び出しに失敗しました。中立スコアへフォールバックします",
			slog.String("error", err.Error()),
		)
		j.recordFallback()
		return neutralScore
	}

	score, ok := parseScore(response)
	if !ok {
		j.logger.Warn("類似度判定の応答をスコアとして解釈できませんでした。中立スコアへフォールバックします",
			slog.String("response", truncateRunes(response, 200)),
		)
		j.recordFallback()
		return neutralScore
	}

	return clamp(score)
}

func (j *LLMJudge) recordFallback() {
	if j.metrics != nil {
		j.metrics.RecordSimilarityFallback()
	}
}

// parseScore は判定器の自由テキスト応答から最初の数値トークンを抽出する。
// "0.8" だけでなく "0.8 (the posts share...)" や "Score: 0.8" も許容する。
func parseScore(response string) (float64, bool) {
	for _, field := range strings.Fields(response) {
		field = strings.Trim(field, ".,:;()[]\"'")
		if field == "" {
			continue
		}
		if f, err := strconv.ParseFloat(field, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// clamp はスコアを[0.0, 1.0]の範囲に収める。
func clamp(score float64) float64 {
	if score < 0.0 {
		return 0.0
	}
	if score > 1.0 {
		return 1.0
	}
	return score
}

// truncateRunes は文字列を最大n文字に切り詰める。
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
