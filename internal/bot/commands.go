package bot

// Command constants for Telegram bot commands.
const (
	CommandStart   = "/start"
	CommandHelp    = "/help"
	CommandReport  = "/report"
	CommandAward   = "/award"
	CommandDaily   = "/daily"
	CommandMonth   = "/month"
	CommandCancel  = "/cancel"
	CommandProfile = "/me"
)
