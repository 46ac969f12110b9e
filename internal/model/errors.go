// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, generation, publish, auth, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeIdeaNotFound         = "IDEA_NOT_FOUND"
	ErrCodeNoDestinations       = "NO_DESTINATIONS"
	ErrCodeDestinationNotFound  = "DESTINATION_NOT_FOUND"
	ErrCodeDraftNotFound        = "DRAFT_NOT_FOUND"
	ErrCodeDraftNotApproved     = "DRAFT_NOT_APPROVED"
	ErrCodeGlobalRateLimit      = "GLOBAL_RATE_LIMIT_EXCEEDED"
	ErrCodeDestinationRateLimit = "DESTINATION_RATE_LIMIT_EXCEEDED"
	ErrCodeProvidersExhausted   = "PROVIDERS_EXHAUSTED"
	ErrCodeInvalidURL           = "INVALID_URL"
	ErrCodeInvalidRequest       = "INVALID_REQUEST"
	ErrCodePublishFailed        = "PUBLISH_FAILED"
)

// NewIdeaNotFoundError はアイデア未検出エラーを生成する。
func NewIdeaNotFoundError(ideaID string) *APIError {
	return &APIError{
		Code:     ErrCodeIdeaNotFound,
		Message:  fmt.Sprintf("指定されたアイデアが見つかりません: %s", ideaID),
		Category: "validation",
		Action:   "アイデアIDを確認してください。",
	}
}

// NewNoDestinationsError は投稿先未登録エラーを生成する。
func NewNoDestinationsError() *APIError {
	return &APIError{
		Code:     ErrCodeNoDestinations,
		Message:  "ドラフト生成の対象となる投稿先が登録されていません。",
		Category: "validation",
		Action:   "先に投稿先プロフィールを登録してください。",
	}
}

// NewDestinationNotFoundError は投稿先未検出エラーを生成する。
func NewDestinationNotFoundError(destinationID string) *APIError {
	return &APIError{
		Code:     ErrCodeDestinationNotFound,
		Message:  fmt.Sprintf("指定された投稿先が見つかりません: %s", destinationID),
		Category: "validation",
		Action:   "投稿先IDを確認してください。",
	}
}

// NewDraftNotFoundError はドラフト未検出エラーを生成する。
func NewDraftNotFoundError(draftID string) *APIError {
	return &APIError{
		Code:     ErrCodeDraftNotFound,
		Message:  fmt.Sprintf("指定されたドラフトが見つかりません: %s", draftID),
		Category: "validation",
		Action:   "ドラフトIDを確認してください。",
	}
}

// NewDraftNotApprovedError は未承認ドラフトの公開試行エラーを生成する。
func NewDraftNotApprovedError(status DraftStatus) *APIError {
	return &APIError{
		Code:     ErrCodeDraftNotApproved,
		Message:  fmt.Sprintf("承認済みでないドラフトは公開できません（現在の状態: %s）", status),
		Category: "publish",
		Action:   "ドラフトを承認してから公開してください。",
	}
}

// NewGlobalRateLimitError は全体投稿レート制限エラーを生成する。
func NewGlobalRateLimitError() *APIError {
	return &APIError{
		Code:     ErrCodeGlobalRateLimit,
		Message:  "システム全体の投稿レート制限に達しています（24時間に1件）。",
		Category: "publish",
		Action:   "前回の投稿から24時間経過してから再度お試しください。",
	}
}

// NewDestinationRateLimitError は投稿先ごとのレート制限エラーを生成する。
func NewDestinationRateLimitError(destinationName string) *APIError {
	return &APIError{
		Code:     ErrCodeDestinationRateLimit,
		Message:  fmt.Sprintf("投稿先 %s のレート制限に達しています（7日間に1件）。", destinationName),
		Category: "publish",
		Action:   "同じ投稿先への前回の投稿から7日間経過してから再度お試しください。",
	}
}

// NewProvidersExhaustedError は全生成バックエンド失敗エラーを生成する。
func NewProvidersExhaustedError() *APIError {
	return &APIError{
		Code:     ErrCodeProvidersExhausted,
		Message:  "すべてのテキスト生成バックエンドが失敗しました。",
		Category: "generation",
		Action:   "APIキーの設定を確認し、しばらく待ってから再度お試しください。",
	}
}

// NewInvalidURLError は無効なURLエラーを生成する。
func NewInvalidURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidURL,
		Message:  fmt.Sprintf("無効なURLです: %s", reason),
		Category: "validation",
		Action:   "正しいURL形式（http:// または https:// で始まるURL）を入力してください。",
	}
}

// NewInvalidRequestError はリクエスト検証エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "リクエスト内容を確認してください。",
	}
}

// NewPublishFailedError は外部プラットフォームへの投稿失敗エラーを生成する。
func NewPublishFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodePublishFailed,
		Message:  fmt.Sprintf("投稿に失敗しました: %s", reason),
		Category: "publish",
		Action:   "投稿先の認証情報と制約を確認し、再度お試しください。",
	}
}
