package explain

import (
	"fmt"
	"strings"
)

// categorySystemPrompt はカテゴリに応じた解説生成のシステムプロンプトを返す。
// 未知のカテゴリには汎用プロンプトを使用する。
func categorySystemPrompt(category string) string {
	switch strings.ToLower(category) {
	case "news":
		return "You are a tech journalist. Explain the following news article in 2-3 short paragraphs: what happened, why it matters, and who is affected. Plain language, no hype."
	case "tool":
		return "You are a developer advocate. Explain the following tool or library in 2-3 short paragraphs: what problem it solves, how it works at a high level, and when you would reach for it. Plain language, no marketing copy."
	case "paper":
		return "You are a research communicator. Summarize the following paper in 2-3 short paragraphs: the problem, the approach, and the key result. Assume a technically literate reader who has not read the paper."
	default:
		return "Explain the following web page in 2-3 short paragraphs for a technically literate reader. Focus on what it is about and why someone would care. Plain language."
	}
}

// buildUserPrompt は解説生成のユーザープロンプトを組み立てる。
// ページ本文が取得できなかった場合はタイトルとURLのみを渡す。
func buildUserPrompt(req Request, pageText string) string {
	var b strings.Builder
	if req.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", req.Title)
	}
	fmt.Fprintf(&b, "URL: %s\n", req.URL)
	if pageText != "" {
		fmt.Fprintf(&b, "\nPage content:\n%s\n", pageText)
	} else {
		b.WriteString("\nThe page content could not be retrieved. Explain based on the title and URL alone, and say so if the topic is unclear.\n")
	}
	return b.String()
}
