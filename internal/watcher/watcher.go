package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aleister1102/apifileprocessor/internal/config"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ChangeFunc is called once a watched folder has been quiet for the debounce period
type ChangeFunc func(ctx context.Context, folder config.FolderConfig)

type watchedFolder struct {
	cfg     config.FolderConfig
	root    string
	ignored []string
}

// Watcher triggers folder processing when files appear in a watched folder.
// Calls for the same folder never overlap; changes seen while a call is
// running schedule exactly one more call.
type Watcher struct {
	watcher  *fsnotify.Watcher
	folders  []watchedFolder
	debounce time.Duration
	logger   zerolog.Logger
}

// NewWatcher sets up fsnotify watches on every folder_path (and on its
// subdirectories for recursive folders).
func NewWatcher(folders []config.FolderConfig, debounce time.Duration, logger zerolog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		watcher:  fw,
		debounce: debounce,
		logger:   logger.With().Str("component", "Watcher").Logger(),
	}

	for _, fc := range folders {
		wf := watchedFolder{
			cfg:     fc,
			root:    absPath(fc.FolderPath),
			ignored: []string{absPath(fc.ProcessedFolder()), absPath(fc.OutputFolder)},
		}
		w.folders = append(w.folders, wf)
		if err := w.addTree(wf, wf.root); err != nil {
			fw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Close releases the underlying watches
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// addTree watches dir, and its subdirectories when the folder is recursive
func (w *Watcher) addTree(wf watchedFolder, dir string) error {
	if !wf.cfg.Recursive {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch folder '%s': %w", dir, err)
		}
		w.logger.Info().Str("folder", dir).Msg("Watching folder")
		return nil
	}

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && (wf.isIgnored(path) || strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch folder '%s': %w", path, err)
		}
		w.logger.Debug().Str("folder", path).Msg("Watching folder")
		return nil
	})
}

func (wf watchedFolder) isIgnored(path string) bool {
	for _, ign := range wf.ignored {
		if path == ign || strings.HasPrefix(path, ign+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// owner returns the index of the folder a path belongs to, or -1
func (w *Watcher) owner(path string) int {
	dir := filepath.Dir(path)
	for i, wf := range w.folders {
		if wf.isIgnored(path) {
			continue
		}
		if dir == wf.root {
			return i
		}
		if wf.cfg.Recursive && strings.HasPrefix(dir, wf.root+string(filepath.Separator)) {
			return i
		}
	}
	return -1
}

// Run blocks until ctx is done, calling onChange for folders with new files.
// It waits for running calls to return before it returns.
func (w *Watcher) Run(ctx context.Context, onChange ChangeFunc) error {
	fire := make(chan int, len(w.folders))
	done := make(chan int, len(w.folders))
	timers := make(map[int]*time.Timer)
	running := make(map[int]bool)
	pending := make(map[int]bool)
	var wg sync.WaitGroup

	start := func(i int) {
		running[i] = true
		wg.Add(1)
		go func() {
			defer wg.Done()
			onChange(ctx, w.folders[i].cfg)
			done <- i
		}()
	}

	defer func() {
		for _, t := range timers {
			t.Stop()
		}
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Watch loop stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			path := absPath(event.Name)
			i := w.owner(path)
			if i < 0 || strings.HasPrefix(filepath.Base(path), ".") {
				continue
			}

			if event.Op&fsnotify.Create != 0 && w.folders[i].cfg.Recursive {
				if info, err := os.Stat(path); err == nil && info.IsDir() {
					if err := w.addTree(w.folders[i], path); err != nil {
						w.logger.Warn().Err(err).Str("folder", path).Msg("Cannot watch new subfolder")
					}
				}
			}

			w.logger.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("Change detected")
			if t, ok := timers[i]; ok {
				t.Reset(w.debounce)
			} else {
				idx := i
				timers[i] = time.AfterFunc(w.debounce, func() {
					select {
					case fire <- idx:
					case <-ctx.Done():
					}
				})
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("File watcher error")

		case i := <-fire:
			if running[i] {
				pending[i] = true
				continue
			}
			start(i)

		case i := <-done:
			running[i] = false
			if pending[i] {
				pending[i] = false
				start(i)
			}
		}
	}
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
