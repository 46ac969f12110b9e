package draft

import (
	"fmt"
	"strings"

	"github.com/hitoshi/draftman/internal/model"
)

// critiqueSystemPrompt はドラフト批評に使う固定のモデレーターペルソナ。
// 問題がない場合にCLEANと明言させることで、書き直し要否の判定に使う。
const critiqueSystemPrompt = "You are a strict subreddit moderator reviewing a post before it goes live. Check the post against the community constraints you are given: tone, self-promotion level, banned phrases, required ending style. List every concrete problem you find, one per line. If the post has no problems at all, reply with the single word CLEAN."

// buildPersonaPrompt は投稿先プロフィールからドラフト生成のシステムプロンプトを組み立てる。
func buildPersonaPrompt(dest *model.Destination) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a long-time member of the community %q writing a post that fits in naturally.\n", dest.Name)
	fmt.Fprintf(&b, "Audience: %s\n", dest.Audience)
	fmt.Fprintf(&b, "Tone: %s\n", dest.Tone)
	fmt.Fprintf(&b, "Self-promotion tolerance: %s. Stay within it.\n", dest.SelfPromoLevel)
	if dest.PreferredLength != "" {
		fmt.Fprintf(&b, "Preferred length: %s\n", dest.PreferredLength)
	}
	if dest.RequiredFlair != "" {
		fmt.Fprintf(&b, "The post must fit the flair %q.\n", dest.RequiredFlair)
	}
	if dest.EndingStyle != "" {
		fmt.Fprintf(&b, "End the post like this: %s\n", dest.EndingStyle)
	}
	if len(dest.BannedPhrases) > 0 {
		fmt.Fprintf(&b, "Never use any of these phrases: %s\n", strings.Join(dest.BannedPhrases, ", "))
	}
	if !dest.LinksAllowed {
		b.WriteString("Do not include any links.\n")
	}
	b.WriteString("Output exactly two lines of structure: a first line starting with \"Title:\" followed by the post title, then the body starting with \"Body:\".")
	return b.String()
}

// buildIdeaPrompt はアイデアからドラフト生成のユーザープロンプトを組み立てる。
func buildIdeaPrompt(idea *model.Idea) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a post about the following idea.\n")
	fmt.Fprintf(&b, "Topic: %s\n", idea.Title)
	fmt.Fprintf(&b, "Core narrative: %s\n", idea.CoreNarrative)
	fmt.Fprintf(&b, "Technical depth: %d of 5\n", idea.TechnicalDepth)
	fmt.Fprintf(&b, "Goal of the post: %s\n", idea.Goal)
	return b.String()
}

// buildCritiquePrompt は批評パスのユーザープロンプトを組み立てる。
// 投稿先の制約を再掲し、ドラフト本文を検査対象として渡す。
func buildCritiquePrompt(dest *model.Destination, draftText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Community: %s\n", dest.Name)
	fmt.Fprintf(&b, "Tone: %s\n", dest.Tone)
	fmt.Fprintf(&b, "Self-promotion tolerance: %s\n", dest.SelfPromoLevel)
	if len(dest.BannedPhrases) > 0 {
		fmt.Fprintf(&b, "Banned phrases: %s\n", strings.Join(dest.BannedPhrases, ", "))
	}
	if dest.EndingStyle != "" {
		fmt.Fprintf(&b, "Required ending style: %s\n", dest.EndingStyle)
	}
	fmt.Fprintf(&b, "\nPost under review:\n%s\n", draftText)
	return b.String()
}

// buildRewritePrompt は書き直しパスのユーザープロンプトを組み立てる。
// 元のドラフトと批評を渡し、指摘を全て反映した完全な書き直しを指示する。
func buildRewritePrompt(draftText, critique string) string {
	var b strings.Builder
	b.WriteString("A moderator reviewed your draft and found problems. Rewrite the post completely, fixing every problem listed. Keep the same Title:/Body: structure.\n")
	fmt.Fprintf(&b, "\nOriginal draft:\n%s\n", draftText)
	fmt.Fprintf(&b, "\nModerator review:\n%s\n", critique)
	return b.String()
}

// critiqueIsClean は批評テキストが書き直し不要を示しているかを判定する。
// 大文字小文字を区別せずに "clean" を含むかで判定する。
func critiqueIsClean(critique string) bool {
	return strings.Contains(strings.ToLower(critique), "clean")
}
