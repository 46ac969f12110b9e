package publish

import "strings"

// SplitContent はドラフト本文をタイトルと本文に分割する。
// 先頭行がタイトルとなり、"Title:" プレフィックスと囲みの引用符は除去される。
// 残りの行が本文となり、先頭の "Body:" プレフィックスは除去される。
func SplitContent(content string) (title, body string) {
	lines := strings.Split(strings.TrimSpace(content), "\n")

	title = strings.TrimSpace(lines[0])
	title = stripPrefixFold(title, "Title:")
	title = strings.Trim(title, `"'`)
	title = strings.TrimSpace(title)

	if len(lines) > 1 {
		body = strings.TrimSpace(strings.Join(lines[1:], "\n"))
		body = stripPrefixFold(body, "Body:")
		body = strings.TrimSpace(body)
	}
	return title, body
}

// stripPrefixFold は大文字小文字を区別せずにプレフィックスを除去する。
func stripPrefixFold(s, prefix string) string {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return strings.TrimSpace(s[len(prefix):])
	}
	return s
}
