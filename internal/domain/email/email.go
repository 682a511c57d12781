package email

// DateLayout 每日摘要信中的日期格式。
const DateLayout = "Monday, January 2, 2006"

// Welcome 註冊歡迎信。
type Welcome struct {
	Email string
	Name  string
	Intro string
}

// NewsSummary 每日新聞摘要信。
type NewsSummary struct {
	Email   string
	Date    string
	Content string
}

// InactiveReminder 久未登入提醒信。
type InactiveReminder struct {
	Email          string
	Name           string
	DashboardURL   string
	UnsubscribeURL string
}
