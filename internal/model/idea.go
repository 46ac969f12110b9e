// Package model はドメインモデルを定義する。
package model

import "time"

// Idea はドラフト生成の種となるコンテンツアイデアを表す。
// 作成後はイミュータブルとして扱い、DraftPipelineから読み取り専用で参照される。
type Idea struct {
	ID             string
	Title          string
	CoreNarrative  string
	TechnicalDepth int // 1〜5
	Goal           IdeaGoal
	SourceURL      string // RSS取り込み由来の場合のみ設定される
	CreatedAt      time.Time
}

// IdeaGoal はアイデアの投稿目的を表す。
type IdeaGoal string

const (
	// IdeaGoalDiscussion は議論喚起を目的とするアイデア。
	IdeaGoalDiscussion IdeaGoal = "discussion"
	// IdeaGoalFeedback はフィードバック収集を目的とするアイデア。
	IdeaGoalFeedback IdeaGoal = "feedback"
	// IdeaGoalHelp は助けを求めることを目的とするアイデア。
	IdeaGoalHelp IdeaGoal = "help"
	// IdeaGoalShowcase は成果物の紹介を目的とするアイデア。
	IdeaGoalShowcase IdeaGoal = "showcase"
)

// ValidIdeaGoal は指定された文字列が有効な投稿目的かどうかを返す。
func ValidIdeaGoal(goal string) bool {
	switch IdeaGoal(goal) {
	case IdeaGoalDiscussion, IdeaGoalFeedback, IdeaGoalHelp, IdeaGoalShowcase:
		return true
	}
	return false
}
