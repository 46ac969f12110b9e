package llm

import (
	"context"
	"fmt"
	"strings"

	ollama "github.com/jmorganca/ollama/api"
)

// OllamaBackend はローカルのOllamaサーバーを呼び出すバックエンド。
// 接続先はOLLAMA_HOST環境変数から解決される（デフォルト: http://localhost:11434）。
type OllamaBackend struct {
	client *ollama.Client
}

// NewOllamaBackend はOllamaBackendを生成する。
// Ollamaサーバーへの接続設定が解決できない場合はエラーを返す。
func NewOllamaBackend() (*OllamaBackend, error) {
	client, err := ollama.ClientFromEnvironment()
	if err != nil {
		return nil, fmt.Errorf("Ollamaクライアントの生成に失敗しました: %w", err)
	}
	return &OllamaBackend{client: client}, nil
}

// Name はバックエンド識別名を返す。
func (b *OllamaBackend) Name() string {
	return "ollama"
}

// ChatComplete は指定モデルでチャット補完を1回実行する。
// ストリーミング応答を結合して1つのテキストとして返す。
func (b *OllamaBackend) ChatComplete(ctx context.Context, model string, messages []Message, temperature float64) (string, error) {
	msgs := make([]ollama.Message, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, ollama.Message{Role: m.Role, Content: m.Content})
	}

	var response strings.Builder
	err := b.client.Chat(ctx, &ollama.ChatRequest{
		Model:    model,
		Messages: msgs,
		Options: map[string]interface{}{
			"temperature": temperature,
		},
	}, func(res ollama.ChatResponse) error {
		response.WriteString(res.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("Ollamaへのチャットリクエストに失敗しました: %w", err)
	}

	return response.String(), nil
}
