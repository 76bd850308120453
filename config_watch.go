package wisp

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// configDebounce collapses the burst of events an editor produces on save.
const configDebounce = 100 * time.Millisecond

// ConfigWatcher reloads a YAML config file whenever it changes on disk and
// hands every valid result to a callback. Invalid files are logged and
// skipped, keeping the last good configuration in effect.
type ConfigWatcher struct {
	path     string
	logger   *zap.Logger
	onChange func(Config)
	watcher  *fsnotify.Watcher

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// WatchConfig starts watching path. onChange runs on the watcher's goroutine.
func WatchConfig(path string, logger *zap.Logger, onChange func(Config)) (*ConfigWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch config: %w", err)
	}
	// Editors often replace the file on save; watch the directory instead.
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch config %s: %w", path, err)
	}
	cw := &ConfigWatcher{
		path:     filepath.Clean(path),
		logger:   logger.Named("config"),
		onChange: onChange,
		watcher:  w,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	go cw.run()
	cw.logger.Info("watching config", zap.String("path", cw.path))
	return cw, nil
}

// Stop ends watching and waits for the goroutine to exit. Stop is idempotent.
func (cw *ConfigWatcher) Stop() error {
	var err error
	cw.stopOnce.Do(func() {
		close(cw.stopCh)
		<-cw.doneCh
		err = cw.watcher.Close()
	})
	return err
}

func (cw *ConfigWatcher) run() {
	defer close(cw.doneCh)

	var pending <-chan time.Time
	for {
		select {
		case <-cw.stopCh:
			return
		case ev, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != cw.path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			pending = time.After(configDebounce)
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.Warn("config watcher error", zap.Error(err))
		case <-pending:
			pending = nil
			cw.reload()
		}
	}
}

func (cw *ConfigWatcher) reload() {
	cfg, err := LoadConfig(cw.path)
	if err != nil {
		cw.logger.Warn("config reload rejected", zap.String("path", cw.path), zap.Error(err))
		return
	}
	cw.logger.Info("config reloaded", zap.String("path", cw.path))
	if cw.onChange != nil {
		cw.onChange(cfg)
	}
}
