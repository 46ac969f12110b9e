package llm

import (
	"context"
	"fmt"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIBackend はOpenAI互換のチャット補完APIを呼び出すバックエンド。
// ベースURLを差し替えることでGroq等のOpenAI互換プロバイダにも接続できる。
type OpenAIBackend struct {
	name string
	opts []option.RequestOption
}

// NewOpenAIBackend はOpenAIBackendを生成する。
// baseURLが空の場合はSDKのデフォルト（OpenAI本体）が使用される。
func NewOpenAIBackend(name, apiKey, baseURL string) *OpenAIBackend {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIBackend{name: name, opts: opts}
}

// Name はバックエンド識別名を返す。
func (b *OpenAIBackend) Name() string {
	return b.name
}

// ChatComplete は指定モデルでチャット補完を1回実行する。
func (b *OpenAIBackend) ChatComplete(ctx context.Context, model string, messages []Message, temperature float64) (string, error) {
	client := openai.NewClient(b.opts...)

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case RoleAssistant:
			msgs = append(msgs, openai.ChatCompletionMessageParamOfAssistant(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    msgs,
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		return "", fmt.Errorf("チャット補完リクエストに失敗しました: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("チャット補完の応答にchoicesが含まれていません")
	}

	return resp.Choices[0].Message.Content, nil
}
