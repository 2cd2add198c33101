package lifecycle

import (
	"path/filepath"
	"time"

	"github.com/aleister1102/apifileprocessor/internal/config"
)

// FileTask is one discovered file on its way through a remote job
type FileTask struct {
	SourcePath string
	Folder     config.FolderConfig
	State      State
	JobID      string
}

// NewFileTask creates a task in the Created state
func NewFileTask(sourcePath string, folder config.FolderConfig) *FileTask {
	return &FileTask{
		SourcePath: sourcePath,
		Folder:     folder,
		State:      StateCreated,
	}
}

// Name is the source file's base name
func (t *FileTask) Name() string {
	return filepath.Base(t.SourcePath)
}

func (t *FileTask) moveTo(to State) error {
	if err := Transition(t.State, to); err != nil {
		return err
	}
	t.State = to
	return nil
}

// Outcome is the terminal result of running a FileTask
type Outcome struct {
	SourcePath   string
	JobID        string
	State        State
	OutputPath   string
	Err          error
	PollAttempts int
	Duration     time.Duration
}

// Succeeded reports a Done outcome
func (o Outcome) Succeeded() bool {
	return o.State == StateDone
}
