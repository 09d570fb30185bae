package driftfield

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ConfigWatcher reloads a config file after it changes on disk and publishes
// valid results on Updates. Invalid files are logged and skipped.
type ConfigWatcher struct {
	path     string
	debounce time.Duration
	logger   Logger
	watcher  *fsnotify.Watcher
	updates  chan Config
}

func NewConfigWatcher(path string, debounce time.Duration, logger Logger) (*ConfigWatcher, error) {
	if logger == nil {
		logger = NewNopLogger()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config path: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	// Watch the directory: editors often replace the file instead of writing it.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &ConfigWatcher{
		path:     abs,
		debounce: debounce,
		logger:   logger,
		watcher:  watcher,
		updates:  make(chan Config, 1),
	}, nil
}

// Updates delivers reloaded configs. Only the newest pending one is kept.
func (cw *ConfigWatcher) Updates() <-chan Config { return cw.updates }

// Start watches until ctx ends or Stop is called.
func (cw *ConfigWatcher) Start(ctx context.Context) {
	debounceTimer := time.NewTimer(0)
	<-debounceTimer.C

	go func() {
		for {
			select {
			case event, ok := <-cw.watcher.Events:
				if !ok {
					return
				}
				if cw.shouldProcessEvent(event) {
					debounceTimer.Reset(cw.debounce)
				}

			case err, ok := <-cw.watcher.Errors:
				if !ok {
					return
				}
				cw.logger.Warnf("config watcher: %v", err)

			case <-debounceTimer.C:
				cw.reload()

			case <-ctx.Done():
				return
			}
		}
	}()
}

func (cw *ConfigWatcher) Stop() error {
	return cw.watcher.Close()
}

func (cw *ConfigWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}
	return filepath.Clean(event.Name) == cw.path
}

func (cw *ConfigWatcher) reload() {
	cfg, err := LoadConfig(cw.path)
	if err != nil {
		cw.logger.Warnf("config reload skipped: %v", err)
		return
	}
	select {
	case <-cw.updates:
	default:
	}
	cw.updates <- cfg
	cw.logger.Infof("config reloaded from %s", cw.path)
}

// ConfigReloadModule applies emitter tuning from a watched config file to
// every particle system. Install it after ParticlesModule.
type ConfigReloadModule struct {
	Path     string
	Debounce time.Duration
}

func (m ConfigReloadModule) Install(app *App, cmd *Commands) {
	if m.Path == "" {
		return
	}
	if m.Debounce <= 0 {
		m.Debounce = 250 * time.Millisecond
	}
	logger := app.Logger().Named("config")
	cw, err := NewConfigWatcher(m.Path, m.Debounce, logger)
	if err != nil {
		logger.Warnf("hot reload disabled: %v", err)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	cw.Start(ctx)

	cmd.AddResources(cw)
	cmd.OnShutdown(func() {
		cancel()
		_ = cw.Stop()
	})
	cmd.UseSystem(System(configReloadSystem).InStage(PreUpdate))
}

func configReloadSystem(cw *ConfigWatcher, registry *ParticleRegistry, logger Logger) {
	select {
	case cfg := <-cw.Updates():
		if err := registry.ApplyTuning(cfg.Tuning()); err != nil {
			logger.Warnf("tuning not applied: %v", err)
			return
		}
		logger.Infof("tuning applied to %d particle systems", registry.Len())
	default:
	}
}
