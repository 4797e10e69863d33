package respond

import (
	"regexp"
)

var (
	// 注意: より具体的なパターンから適用する
	anthropicKeyPattern = regexp.MustCompile(`sk-ant-[a-zA-Z0-9-_]+`)
	openaiKeyPattern    = regexp.MustCompile(`sk-[a-zA-Z0-9]{10,}`)

	// Telegram bot token (<bot id>:<secret>)
	telegramTokenPattern = regexp.MustCompile(`\d{6,}:[A-Za-z0-9_-]{30,}`)
	// ServerChan SendKey
	serverChanKeyPattern = regexp.MustCompile(`\bSCT[0-9A-Za-z]{8,}`)
	// Slack / Discord webhook secrets live in the path
	webhookPathPattern = regexp.MustCompile(`(hooks\.slack\.com/services|discord(?:app)?\.com/api/webhooks)/[^\s"']+`)

	// DSN内のパスワード
	dbPasswordPattern = regexp.MustCompile(`://([^:/\s]+):([^@\s]+)@`)
)

// SanitizeError は機密情報をマスクしたエラーメッセージを返す
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	msg = anthropicKeyPattern.ReplaceAllString(msg, "sk-ant-****")
	msg = openaiKeyPattern.ReplaceAllString(msg, "sk-****")
	msg = telegramTokenPattern.ReplaceAllString(msg, "****:****")
	msg = serverChanKeyPattern.ReplaceAllString(msg, "SCT****")
	msg = webhookPathPattern.ReplaceAllString(msg, "$1/****")
	msg = dbPasswordPattern.ReplaceAllString(msg, "://$1:****@")
	return msg
}
