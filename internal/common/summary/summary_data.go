package summary

import "time"

// Discord color constants for different types of notifications
const (
	DiscordColorSuccess = 0x00ff00 // Green
	DiscordColorError   = 0xff0000 // Red
	DiscordColorWarning = 0xffa500 // Orange
	DiscordColorInfo    = 0x0099ff // Blue
	DiscordColorDefault = 0x36393f // Discord default gray
)

// FolderSummary holds the counters of one processed folder.
type FolderSummary struct {
	FolderPath string
	Endpoint   string
	Succeeded  int
	Failed     int
	Skipped    int
	Duration   time.Duration
	Error      string // Folder-level failure, empty when the folder was processed
}

// RunSummary holds all relevant information about a run to be used in logs,
// history and notifications.
type RunSummary struct {
	RunID            string
	ConfigPath       string
	Folders          []FolderSummary
	FoldersProcessed int
	FoldersFailed    int
	FilesSucceeded   int
	FilesFailed      int
	FilesSkipped     int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
	Status           RunStatus
	ErrorMessages    []string
}

// TotalFiles is the number of files seen across all folders
func (s RunSummary) TotalFiles() int {
	return s.FilesSucceeded + s.FilesFailed + s.FilesSkipped
}

// ExitCode is 0 unless a folder could not be processed or the run was
// interrupted. Individual file failures do not change it.
func (s RunSummary) ExitCode() int {
	if s.FoldersFailed > 0 || s.Status == RunStatusInterrupted {
		return 1
	}
	return 0
}
