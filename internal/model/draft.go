// Package model はドメインモデルを定義する。
package model

import "time"

// Draft は1つのIdea×Destinationの組み合わせに対する生成済み投稿候補を表す。
// SimilarityScoreは作成時に兄弟ドラフトと比較して1回だけ算出され、
// 後から兄弟が増えても再計算されない。
type Draft struct {
	ID              string
	IdeaID          string
	DestinationID   string
	Content         string
	SimilarityScore float64 // 0.0（独立）〜 1.0（複製）
	Status          DraftStatus
	ScheduledAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DraftStatus はドラフトの状態を表す。
// postedは終端状態であり、他の状態へ戻ることはない。
type DraftStatus string

const (
	// DraftStatusDraft は生成直後の未レビュー状態。
	DraftStatusDraft DraftStatus = "draft"
	// DraftStatusApproved はレビュー済みで投稿可能な状態。
	DraftStatusApproved DraftStatus = "approved"
	// DraftStatusRejected はレビューで却下された状態。
	DraftStatusRejected DraftStatus = "rejected"
	// DraftStatusPosted は外部プラットフォームへ投稿済みの状態。
	DraftStatusPosted DraftStatus = "posted"
)

// ValidDraftStatus は指定された文字列が有効なドラフト状態かどうかを返す。
func ValidDraftStatus(status string) bool {
	switch DraftStatus(status) {
	case DraftStatusDraft, DraftStatusApproved, DraftStatusRejected, DraftStatusPosted:
		return true
	}
	return false
}
