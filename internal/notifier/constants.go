package notifier

// Discord formatting constants
const (
	DiscordUsername = "API File Processor"

	maxFieldValueLength  = 1024 // Discord embed field value limit
	maxFields            = 25   // Discord embed field limit
	maxErrorSampleCount  = 3
	maxSingleErrorLength = 150
)
