package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はフィード由来コンテンツのサニタイズ機能のインターフェースを定義する。
// RSSの要約はアイデアの核となるナラティブとしてプレーンテキストで保存されるため、
// HTMLタグを全て除去した上で保存する。
type ContentSanitizerService interface {
	// SanitizeText はHTMLコンテンツから全てのタグを除去し、プレーンテキストを返す。
	// HTMLエンティティ（&amp; 等）はデコードされ、連続する空白は1つにまとめられる。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeText(rawHTML string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyは全てのタグと属性を除去するため、
// script, iframe, style および on* イベント属性も自動的に除去される。
func NewContentSanitizer() *contentSanitizer {
	return &contentSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeText はHTMLコンテンツから全てのタグを除去し、プレーンテキストを返す。
func (s *contentSanitizer) SanitizeText(rawHTML string) string {
	stripped := s.policy.Sanitize(rawHTML)
	decoded := html.UnescapeString(stripped)
	return strings.Join(strings.Fields(decoded), " ")
}
