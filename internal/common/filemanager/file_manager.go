package filemanager

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	tempFilePrefix = ".apifp-"
	tempFileSuffix = ".tmp"
)

// TimestampPrefix formats t as YYYYMMDD-HHMMSSmmm, used to keep file names unique
func TimestampPrefix(t time.Time) string {
	return fmt.Sprintf("%s%03d", t.Format("20060102-150405"), t.Nanosecond()/int(time.Millisecond))
}

// FileManager provides the file operations of a run with standardized error handling and logging
type FileManager struct {
	logger zerolog.Logger
	now    func() time.Time
	// moveMu serializes moves so two tasks never pick the same free destination name
	moveMu sync.Mutex
}

// NewFileManager creates a new FileManager instance
func NewFileManager(logger zerolog.Logger) *FileManager {
	return &FileManager{
		logger: logger.With().Str("component", "FileManager").Logger(),
		now:    time.Now,
	}
}

// ReadFile reads a whole file, refusing files larger than maxSize (0 for no limit)
func (fm *FileManager) ReadFile(path string, maxSize int64) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, newIOError("stat", path, err)
	}
	if info.IsDir() {
		return nil, newIOError("read", path, errors.New("is a directory, not a file"))
	}
	if maxSize > 0 && info.Size() > maxSize {
		return nil, newIOError("read", path, fmt.Errorf("size %d exceeds maximum of %d bytes", info.Size(), maxSize))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newIOError("read", path, err)
	}
	return data, nil
}

// WriteFileAtomic writes data to dir/name through a uniquely named temp file
// in the same directory, syncs it and renames it into place. Readers never
// observe a partially written file and a failed write leaves nothing behind.
func (fm *FileManager) WriteFileAtomic(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", newIOError("create directory", dir, err)
	}

	finalPath := filepath.Join(dir, name)
	tmpPath := filepath.Join(dir, tempFilePrefix+uuid.NewString()+tempFileSuffix)

	if err := writeAndSync(tmpPath, data); err != nil {
		_ = os.Remove(tmpPath)
		return "", newIOError("write", tmpPath, err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", newIOError("rename", finalPath, err)
	}

	fm.logger.Debug().Str("path", finalPath).Int("bytes", len(data)).Msg("File written successfully")
	return finalPath, nil
}

func writeAndSync(path string, data []byte) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// MoveFile renames src into dstDir keeping its name. When the name is already
// taken the moved file gets a timestamp prefix.
func (fm *FileManager) MoveFile(src, dstDir string) (string, error) {
	if err := os.MkdirAll(dstDir, 0755); err != nil {
		ioErr := newIOError("create directory", dstDir, err)
		ioErr.FolderLevel = IsPermission(err)
		return "", ioErr
	}

	fm.moveMu.Lock()
	defer fm.moveMu.Unlock()

	name := filepath.Base(src)
	dst := filepath.Join(dstDir, name)
	if _, err := os.Lstat(dst); err == nil {
		dst = filepath.Join(dstDir, TimestampPrefix(fm.now())+"_"+name)
	}

	if err := os.Rename(src, dst); err != nil {
		var linkErr *os.LinkError
		if !errors.As(err, &linkErr) || !isCrossDevice(err) {
			return "", newIOError("move", src, err)
		}
		if err := copyAndRemove(src, dst); err != nil {
			return "", newIOError("move", src, err)
		}
	}

	fm.logger.Debug().Str("from", src).Str("to", dst).Msg("File moved")
	return dst, nil
}

func copyAndRemove(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return err
	}
	in.Close()
	return os.Remove(src)
}

// ListOptions controls which files ListFiles returns
type ListOptions struct {
	Recursive bool
	// SkipDirs are absolute directory paths never descended into
	SkipDirs []string
}

// ListFiles returns the regular, non-hidden files of root in lexical order.
// In-flight temp files are never returned.
func (fm *FileManager) ListFiles(root string, opts ListOptions) ([]string, error) {
	skip := make(map[string]bool, len(opts.SkipDirs))
	for _, d := range opts.SkipDirs {
		if abs, err := filepath.Abs(d); err == nil {
			skip[abs] = true
		}
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			fm.logger.Warn().Err(err).Str("path", path).Msg("Skipping unreadable entry")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			abs, _ := filepath.Abs(path)
			if !opts.Recursive || skip[abs] || isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || isHidden(d.Name()) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		ioErr := newIOError("list", root, err)
		ioErr.FolderLevel = true
		return nil, ioErr
	}

	sort.Strings(files)
	return files, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
