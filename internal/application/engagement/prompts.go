package engagement

import "strings"

const welcomePrompt = `Write a short, warm personalized opening paragraph for a welcome email to a new member of Signalist,
a stock market watchlist and alerts app. Reference the member's profile below naturally and in at most two sentences.
Return plain text only, no greeting line, no markdown.

User profile:
{{userProfile}}`

const newsSummaryPrompt = `Summarize the following market news articles for a daily email digest.
Group related stories, highlight what matters for an individual investor, and keep it under 250 words.
Return simple HTML paragraphs and list items only.

Articles (JSON):
{{newsData}}`

// DefaultIntro AI 失敗或無內容時的歡迎詞。
const DefaultIntro = "Thanks for joining Signalist. You now have the tools to track markets and make smarter moves."

// DefaultNewsContent AI 無內容時的摘要。
const DefaultNewsContent = "No market news."

func fill(tpl, key, value string) string {
	return strings.ReplaceAll(tpl, "{{"+key+"}}", value)
}
