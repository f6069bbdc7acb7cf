package bot

const (
	CommandStart    = "start"
	CommandHelp     = "help"
	CommandAdvice   = "advice"
	CommandStatus   = "status"
	CommandSettings = "settings"
)
