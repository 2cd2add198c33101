package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aleister1102/apifileprocessor/internal/common/summary"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a run is not in the history
var ErrNotFound = errors.New("history: record not found")

// Store wraps the SQL database connection and records runs and file results.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// RunRecord represents a row of the runs table.
type RunRecord struct {
	ID               int64
	RunID            string
	ConfigPath       string
	StartTime        time.Time
	EndTime          sql.NullTime
	Status           string
	NumFolders       int
	FoldersProcessed int
	FoldersFailed    int
	FilesSucceeded   int
	FilesFailed      int
	FilesSkipped     int
	LogSummary       sql.NullString
}

// FileRecord represents a row of the file_results table.
type FileRecord struct {
	RunID         string
	FolderPath    string
	SourcePath    string
	JobID         string
	State         string
	OutputPath    string
	ProcessedPath string
	ErrorKind     string
	ErrorMessage  string
	PollAttempts  int
	Duration      time.Duration
	FinishedAt    time.Time
}

// NewStore opens the database at dataSourceName and ensures the schema is set up.
func NewStore(dataSourceName string, logger zerolog.Logger) (*Store, error) {
	logger = logger.With().Str("module", "HistoryStore").Logger()
	logger.Info().Str("db_path", dataSourceName).Msg("Initializing history database connection")

	dbDir := filepath.Dir(dataSourceName)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		logger.Error().Err(err).Str("directory", dbDir).Msg("Failed to create history database directory")
		return nil, fmt.Errorf("failed to create history database directory %s: %w", dbDir, err)
	}

	dbInstance, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		logger.Error().Err(err).Str("db_path", dataSourceName).Msg("Failed to open history database")
		return nil, fmt.Errorf("sql.Open failed for %s: %w", dataSourceName, err)
	}
	// Folders and files record concurrently; sqlite has a single writer
	dbInstance.SetMaxOpenConns(1)

	s := &Store{
		db:     dbInstance,
		logger: logger,
	}

	if err := s.InitSchema(); err != nil {
		s.Close()
		logger.Error().Err(err).Msg("Failed to initialize database schema")
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	logger.Debug().Str("path", dataSourceName).Msg("History database initialized and schema verified")
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InitSchema creates the runs and file_results tables if they don't already exist.
func (s *Store) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT UNIQUE NOT NULL,
		config_path TEXT,
		start_time DATETIME NOT NULL,
		end_time DATETIME,
		status TEXT NOT NULL,
		num_folders INTEGER DEFAULT 0,
		folders_processed INTEGER DEFAULT 0,
		folders_failed INTEGER DEFAULT 0,
		files_succeeded INTEGER DEFAULT 0,
		files_failed INTEGER DEFAULT 0,
		files_skipped INTEGER DEFAULT 0,
		log_summary TEXT
	);
	CREATE TABLE IF NOT EXISTS file_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		folder_path TEXT NOT NULL,
		source_path TEXT NOT NULL,
		job_id TEXT,
		state TEXT NOT NULL,
		output_path TEXT,
		processed_path TEXT,
		error_kind TEXT,
		error_message TEXT,
		poll_attempts INTEGER DEFAULT 0,
		duration_ms INTEGER DEFAULT 0,
		finished_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_file_results_folder ON file_results (folder_path, finished_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		s.logger.Error().Err(err).Msg("Failed to initialize schema")
		return err
	}
	return nil
}

// RecordRunStart inserts a new run with status STARTED.
func (s *Store) RecordRunStart(runID, configPath string, numFolders int, startTime time.Time) error {
	query := `INSERT INTO runs (run_id, config_path, num_folders, start_time, status) VALUES (?, ?, ?, ?, ?)`
	if _, err := s.db.Exec(query, runID, configPath, numFolders, startTime.UTC(), string(summary.RunStatusStarted)); err != nil {
		s.logger.Error().Err(err).Str("run_id", runID).Msg("Failed to record run start")
		return fmt.Errorf("failed to insert run start record: %w", err)
	}
	s.logger.Debug().Str("run_id", runID).Msg("Recorded run start")
	return nil
}

// RecordRunCompletion updates the run row with the final summary.
func (s *Store) RecordRunCompletion(sum summary.RunSummary) error {
	logSummary := ""
	if len(sum.ErrorMessages) > 0 {
		logSummary = fmt.Sprintf("%d error(s); first: %s", len(sum.ErrorMessages), sum.ErrorMessages[0])
	}

	query := `UPDATE runs SET end_time = ?, status = ?, folders_processed = ?, folders_failed = ?,
		files_succeeded = ?, files_failed = ?, files_skipped = ?, log_summary = ? WHERE run_id = ?`
	res, err := s.db.Exec(query,
		sum.EndTime.UTC(), string(sum.Status),
		sum.FoldersProcessed, sum.FoldersFailed,
		sum.FilesSucceeded, sum.FilesFailed, sum.FilesSkipped,
		sql.NullString{String: logSummary, Valid: logSummary != ""},
		sum.RunID,
	)
	if err != nil {
		s.logger.Error().Err(err).Str("run_id", sum.RunID).Msg("Failed to update run completion")
		return fmt.Errorf("failed to update run completion for %s: %w", sum.RunID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s: %w", sum.RunID, ErrNotFound)
	}
	s.logger.Debug().Str("run_id", sum.RunID).Str("status", string(sum.Status)).Msg("Updated run completion")
	return nil
}

// RecordFileResult stores the outcome of one file.
func (s *Store) RecordFileResult(rec FileRecord) error {
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = time.Now()
	}
	query := `INSERT INTO file_results (run_id, folder_path, source_path, job_id, state, output_path,
		processed_path, error_kind, error_message, poll_attempts, duration_ms, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.Exec(query,
		rec.RunID, rec.FolderPath, rec.SourcePath, rec.JobID, rec.State, rec.OutputPath,
		rec.ProcessedPath, rec.ErrorKind, rec.ErrorMessage, rec.PollAttempts,
		rec.Duration.Milliseconds(), rec.FinishedAt.UTC(),
	)
	if err != nil {
		s.logger.Error().Err(err).Str("file", rec.SourcePath).Msg("Failed to record file result")
		return fmt.Errorf("failed to insert file result for %s: %w", rec.SourcePath, err)
	}
	return nil
}

// LastRun returns the most recently started run of configPath.
func (s *Store) LastRun(configPath string) (*RunRecord, error) {
	query := `SELECT id, run_id, config_path, start_time, end_time, status, num_folders, folders_processed,
		folders_failed, files_succeeded, files_failed, files_skipped, log_summary FROM runs
		WHERE config_path = ? ORDER BY start_time DESC, id DESC LIMIT 1`
	var r RunRecord
	var storedPath sql.NullString
	err := s.db.QueryRow(query, configPath).Scan(
		&r.ID, &r.RunID, &storedPath, &r.StartTime, &r.EndTime, &r.Status, &r.NumFolders,
		&r.FoldersProcessed, &r.FoldersFailed, &r.FilesSucceeded, &r.FilesFailed, &r.FilesSkipped,
		&r.LogSummary,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no run for %s: %w", configPath, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query last run of %s: %w", configPath, err)
	}
	r.ConfigPath = storedPath.String
	return &r, nil
}

// RecentFailures returns the latest files of folder that ended with an error,
// newest first. This includes files whose result was written but whose move failed.
func (s *Store) RecentFailures(folderPath string, limit int) ([]FileRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT run_id, folder_path, source_path, job_id, state, output_path, processed_path,
		error_kind, error_message, poll_attempts, duration_ms, finished_at
		FROM file_results WHERE folder_path = ? AND error_kind IS NOT NULL AND error_kind != ''
		ORDER BY finished_at DESC, id DESC LIMIT ?`
	rows, err := s.db.Query(query, folderPath, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent failures: %w", err)
	}
	defer rows.Close()

	var records []FileRecord
	for rows.Next() {
		var rec FileRecord
		var jobID, outputPath, processedPath, errorKind, errorMessage sql.NullString
		var durationMs int64
		if err := rows.Scan(
			&rec.RunID, &rec.FolderPath, &rec.SourcePath, &jobID, &rec.State, &outputPath,
			&processedPath, &errorKind, &errorMessage, &rec.PollAttempts, &durationMs, &rec.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan file result: %w", err)
		}
		rec.JobID = jobID.String
		rec.OutputPath = outputPath.String
		rec.ProcessedPath = processedPath.String
		rec.ErrorKind = errorKind.String
		rec.ErrorMessage = errorMessage.String
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		records = append(records, rec)
	}
	return records, rows.Err()
}
