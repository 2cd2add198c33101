package dispatcher

import (
	"time"

	"github.com/aleister1102/apifileprocessor/internal/config"
	"github.com/aleister1102/apifileprocessor/internal/lifecycle"
)

// FileResult is the final state of one file after its lifecycle and the move
type FileResult struct {
	lifecycle.Outcome
	// ProcessedPath is where the source was moved, empty unless the file succeeded
	ProcessedPath string
	// Skipped is set for files never started because the folder was aborted or the run stopped
	Skipped bool
}

// Succeeded reports a file that has its result written and its source moved
func (r FileResult) Succeeded() bool {
	return r.Err == nil && r.State == lifecycle.StateDone && r.ProcessedPath != ""
}

// FolderReport is what ProcessFolder returns for one folder
type FolderReport struct {
	Folder    config.FolderConfig
	Files     []FileResult
	Succeeded int
	Failed    int
	Skipped   int
	// Err is a folder-level failure: unreadable folder, auth failure, an
	// exhausted rate limit or a permission problem on the processed subfolder
	Err       error
	StartTime time.Time
	Duration  time.Duration
}
