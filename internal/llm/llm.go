// Package llm はテキスト生成バックエンドの抽象化と順序付きフォールバックを提供する。
package llm

import "context"

// ロールの定義。チャット補完APIの共通語彙に合わせる。
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message はチャット補完の1メッセージを表す。
type Message struct {
	Role    string
	Content string
}

// Backend は1つのテキスト生成バックエンド（OpenAI互換API、Ollama等）を抽象化する。
type Backend interface {
	// Name はログ・メトリクス用のバックエンド識別名を返す。
	Name() string

	// ChatComplete は指定モデルでチャット補完を1回実行し、応答テキストを返す。
	// ネットワーク・認証・レスポンス形式のエラーはそのまま返す（リトライしない）。
	ChatComplete(ctx context.Context, model string, messages []Message, temperature float64) (string, error)
}

// Candidate はフォールバック順序の1候補（バックエンドとモデルの組）を表す。
type Candidate struct {
	Backend Backend
	Model   string
}
