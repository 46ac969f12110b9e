// Package model はドメインモデルを定義する。
package model

import "time"

// Destination は投稿先（サブレディット等）のプロフィールを表す。
// トーンや禁止フレーズなどの制約はDraftPipelineのプロンプト構築に使用される。
type Destination struct {
	ID              string
	Name            string
	Audience        string
	Tone            string
	SelfPromoLevel  SelfPromoLevel
	PreferredLength string
	RequiredFlair   string
	EndingStyle     string
	BannedPhrases   []string
	LinksAllowed    bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SelfPromoLevel は投稿先の自己宣伝許容度を表す。
type SelfPromoLevel string

const (
	// SelfPromoLow は自己宣伝をほとんど許容しない投稿先。
	SelfPromoLow SelfPromoLevel = "low"
	// SelfPromoMedium は文脈次第で自己宣伝を許容する投稿先。
	SelfPromoMedium SelfPromoLevel = "medium"
	// SelfPromoHigh は自己宣伝に寛容な投稿先。
	SelfPromoHigh SelfPromoLevel = "high"
)

// ValidSelfPromoLevel は指定された文字列が有効な自己宣伝許容度かどうかを返す。
func ValidSelfPromoLevel(level string) bool {
	switch SelfPromoLevel(level) {
	case SelfPromoLow, SelfPromoMedium, SelfPromoHigh:
		return true
	}
	return false
}
