package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ConfigWatcher reloads the configuration when its file changes
type ConfigWatcher struct {
	configManager *ConfigManager
	watcher       *fsnotify.Watcher
	path          string
	debounceTime  time.Duration
	logger        *zap.Logger

	mu       sync.Mutex
	timer    *time.Timer
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewConfigWatcher creates a watcher for the file last loaded by configManager
func NewConfigWatcher(configManager *ConfigManager, logger *zap.Logger) (*ConfigWatcher, error) {
	path := configManager.ConfigPath()
	if path == "" {
		return nil, fmt.Errorf("no config path set")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &ConfigWatcher{
		configManager: configManager,
		watcher:       watcher,
		path:          abs,
		debounceTime:  500 * time.Millisecond,
		logger:        logger.With(zap.String("config", abs)),
		stopChan:      make(chan struct{}),
	}, nil
}

// SetDebounceTime sets how long the watcher waits for writes to settle
func (cw *ConfigWatcher) SetDebounceTime(duration time.Duration) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.debounceTime = duration
}

// Start watches the directory of the config file, so editors replacing the
// file by rename are seen as well.
func (cw *ConfigWatcher) Start() error {
	dir := filepath.Dir(cw.path)
	if err := cw.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	cw.logger.Info("config watcher started")
	go cw.watchLoop()
	return nil
}

// Stop stops the watcher. It is safe to call more than once.
func (cw *ConfigWatcher) Stop() {
	cw.stopOnce.Do(func() {
		close(cw.stopChan)
		cw.mu.Lock()
		if cw.timer != nil {
			cw.timer.Stop()
		}
		cw.mu.Unlock()
		if err := cw.watcher.Close(); err != nil {
			cw.logger.Warn("failed to close config watcher", zap.Error(err))
		}
	})
}

func (cw *ConfigWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			cw.handleFileEvent(event)

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.Warn("config watcher error", zap.Error(err))

		case <-cw.stopChan:
			return
		}
	}
}

func (cw *ConfigWatcher) handleFileEvent(event fsnotify.Event) {
	name, err := filepath.Abs(event.Name)
	if err != nil || name != cw.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	cw.mu.Lock()
	defer cw.mu.Unlock()
	if cw.timer != nil {
		cw.timer.Stop()
	}
	cw.timer = time.AfterFunc(cw.debounceTime, cw.reload)
}

func (cw *ConfigWatcher) reload() {
	select {
	case <-cw.stopChan:
		return
	default:
	}

	if err := cw.configManager.Reload(); err != nil {
		cw.logger.Error("failed to reload configuration", zap.Error(err))
		return
	}
	cw.logger.Info("configuration reloaded")
}
