package summary

// RunStatus defines the possible outcomes of a run.
type RunStatus string

const (
	RunStatusStarted             RunStatus = "STARTED"
	RunStatusCompleted           RunStatus = "COMPLETED"
	RunStatusCompletedWithIssues RunStatus = "COMPLETED_WITH_ISSUES"
	RunStatusFailed              RunStatus = "FAILED"
	RunStatusInterrupted         RunStatus = "INTERRUPTED"
	RunStatusNoFiles             RunStatus = "NO_FILES"
)

// IsSuccess checks if the run finished without any failure
func (rs RunStatus) IsSuccess() bool {
	return rs == RunStatusCompleted || rs == RunStatusNoFiles
}

// IsFailure checks if the run had file or folder failures, or was interrupted
func (rs RunStatus) IsFailure() bool {
	return rs == RunStatusFailed || rs == RunStatusCompletedWithIssues || rs == RunStatusInterrupted
}

// GetColor returns appropriate Discord color for the status
func (rs RunStatus) GetColor() int {
	switch rs {
	case RunStatusCompleted:
		return DiscordColorSuccess
	case RunStatusFailed:
		return DiscordColorError
	case RunStatusCompletedWithIssues, RunStatusInterrupted:
		return DiscordColorWarning
	case RunStatusStarted:
		return DiscordColorInfo
	default:
		return DiscordColorDefault
	}
}
