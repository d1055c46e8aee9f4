// Package watch reports filesystem changes that can affect a project's visible tree.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/stitch/internal/filter"
	"github.com/temirov/stitch/internal/types"
)

const (
	createWatcherMessageFormat  = "create watcher: %w"
	watchDirectoryMessageFormat = "watch %s: %w"
	watcherErrorMessage         = "watcher error"
	watchDirectoryFailedMessage = "cannot watch directory"
	pathFieldName               = "path"
	rawEventBufferSize          = 64
)

// Watcher follows every visible directory under a root.
type Watcher struct {
	root     string
	filter   types.FilterConfig
	logger   *zap.Logger
	notifier *fsnotify.Watcher
}

// New starts watching root and its visible subdirectories. Directories hidden
// by config are not watched.
func New(root string, config types.FilterConfig, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	absoluteRoot, absoluteError := filepath.Abs(root)
	if absoluteError != nil {
		return nil, fmt.Errorf(createWatcherMessageFormat, absoluteError)
	}
	notifier, notifierError := fsnotify.NewWatcher()
	if notifierError != nil {
		return nil, fmt.Errorf(createWatcherMessageFormat, notifierError)
	}
	watcher := &Watcher{root: filepath.Clean(absoluteRoot), filter: config, logger: logger, notifier: notifier}
	if addError := watcher.notifier.Add(watcher.root); addError != nil {
		_ = notifier.Close()
		return nil, fmt.Errorf(watchDirectoryMessageFormat, watcher.root, addError)
	}
	watcher.addSubdirectories(watcher.root)
	return watcher, nil
}

// Close stops the underlying notifier.
func (watcher *Watcher) Close() error {
	return watcher.notifier.Close()
}

func (watcher *Watcher) addSubdirectories(directory string) {
	entries, readError := os.ReadDir(directory)
	if readError != nil {
		watcher.logger.Debug(watchDirectoryFailedMessage, zap.String(pathFieldName, directory), zap.Error(readError))
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() || !filter.IsVisible(entry.Name(), types.KindDirectory, watcher.filter) {
			continue
		}
		subdirectory := filepath.Join(directory, entry.Name())
		if addError := watcher.notifier.Add(subdirectory); addError != nil {
			watcher.logger.Debug(watchDirectoryFailedMessage, zap.String(pathFieldName, subdirectory), zap.Error(addError))
			continue
		}
		watcher.addSubdirectories(subdirectory)
	}
}

// Paths forwards the absolute path of every relevant change until ctx ends or
// the notifier is closed. Newly created directories are watched as they appear.
func (watcher *Watcher) Paths(ctx context.Context, changes chan<- string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, open := <-watcher.notifier.Events:
			if !open {
				return nil
			}
			isDirectory := false
			if info, statError := os.Stat(event.Name); statError == nil && info.IsDir() {
				isDirectory = true
			}
			if !filter.IsEventPathRelevant(watcher.root, event.Name, isDirectory, watcher.filter) {
				continue
			}
			if isDirectory && event.Has(fsnotify.Create) {
				if addError := watcher.notifier.Add(event.Name); addError == nil {
					watcher.addSubdirectories(event.Name)
				}
			}
			select {
			case changes <- event.Name:
			case <-ctx.Done():
				return ctx.Err()
			}
		case watchError, open := <-watcher.notifier.Errors:
			if !open {
				return nil
			}
			if errors.Is(watchError, fs.ErrNotExist) {
				continue
			}
			watcher.logger.Warn(watcherErrorMessage, zap.Error(watchError))
		}
	}
}

// Run emits one Request per burst of relevant changes on requests and closes
// it when ctx ends.
func (watcher *Watcher) Run(ctx context.Context, window time.Duration, requests chan<- Request) error {
	changes := make(chan string, rawEventBufferSize)
	group, groupContext := errgroup.WithContext(ctx)
	group.Go(func() error {
		defer close(changes)
		return watcher.Paths(groupContext, changes)
	})
	group.Go(func() error {
		Debounce(groupContext, changes, window, requests)
		return nil
	})
	return group.Wait()
}
