package daemon

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/jmylchreest/toastd/internal/config"
	"github.com/jmylchreest/toastd/internal/layout"
)

// ConfigWatcher reloads the configuration file and the active content
// template when they change on disk.
type ConfigWatcher struct {
	mu     sync.RWMutex
	logger *slog.Logger

	configPath string
	loader     *layout.Loader
	files      *FileWatcher

	currentConfig    *config.Config // As last loaded from the file
	templateLocation string         // Active template, including runtime changes
	templatePath     string         // Watched file for the active template, if any

	onReload         func(newConfig *config.Config, changed config.Partial)
	onError          func(err error)
	onTemplateReload func(location string)
	onTemplateError  func(location string, err error)
}

// NewConfigWatcher creates a watcher for the config file at configPath.
// An empty path uses the default location.
func NewConfigWatcher(configPath string, loader *layout.Loader, logger *slog.Logger) (*ConfigWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if configPath == "" {
		configPath = config.Path()
	}
	if configPath == "" {
		return nil, fmt.Errorf("could not determine config path")
	}

	w := &ConfigWatcher{
		logger:     logger,
		configPath: filepath.Clean(configPath),
		loader:     loader,
	}

	files, err := NewFileWatcher(w.handleChange, logger)
	if err != nil {
		return nil, err
	}
	w.files = files
	return w, nil
}

// SetReloadCallback sets the callback run after a successful reload that
// changed at least one setting.
func (w *ConfigWatcher) SetReloadCallback(callback func(newConfig *config.Config, changed config.Partial)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReload = callback
}

// SetErrorCallback sets the callback run when the config file fails to load.
func (w *ConfigWatcher) SetErrorCallback(callback func(err error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onError = callback
}

// SetTemplateCallbacks sets the callbacks run when the active template file
// changes and parses, or fails to.
func (w *ConfigWatcher) SetTemplateCallbacks(reload func(location string), fail func(location string, err error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onTemplateReload = reload
	w.onTemplateError = fail
}

// Start begins watching, using initialConfig as the baseline for diffs.
func (w *ConfigWatcher) Start(initialConfig *config.Config) error {
	w.mu.Lock()
	w.currentConfig = initialConfig
	w.templateLocation = initialConfig.Content.Template
	w.mu.Unlock()

	if err := w.files.Add(w.configPath); err != nil {
		return err
	}
	if err := w.WatchTemplate(initialConfig.Content.Template); err != nil {
		w.logger.Warn("failed to watch template", "template", initialConfig.Content.Template, "error", err)
	}

	w.files.Start()
	w.logger.Info("config watcher started", "path", w.configPath)
	return nil
}

// Stop stops watching.
func (w *ConfigWatcher) Stop() error {
	return w.files.Stop()
}

// GetCurrentConfig returns the last successfully loaded configuration.
func (w *ConfigWatcher) GetCurrentConfig() *config.Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.currentConfig
}

// TemplateLocation returns the active template, which may have been set at
// runtime rather than read from the file.
func (w *ConfigWatcher) TemplateLocation() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.templateLocation
}

// WatchTemplate switches the watched template to location. Named templates
// are watched at their user override path so that creating one is seen.
func (w *ConfigWatcher) WatchTemplate(location string) error {
	path := w.templateFile(location)

	w.mu.Lock()
	old := w.templatePath
	w.templatePath = path
	w.mu.Unlock()

	if old == path {
		return nil
	}
	if old != "" && old != w.configPath {
		w.files.Remove(old)
	}
	if path == "" {
		return nil
	}
	return w.files.Add(path)
}

func (w *ConfigWatcher) templateFile(location string) string {
	if location == "" {
		location = layout.DefaultName
	}
	if layout.IsPath(location) {
		p, err := filepath.Abs(location)
		if err != nil {
			return ""
		}
		return p
	}

	if w.loader == nil || w.loader.Dir() == "" {
		return ""
	}
	dir := w.loader.Dir()
	p, err := filepath.Abs(filepath.Join(dir, location+".xml"))
	if err != nil {
		return ""
	}
	return p
}

// handleChange is called by the file watcher.
func (w *ConfigWatcher) handleChange(path string) {
	configPath, _ := filepath.Abs(w.configPath)

	w.mu.RLock()
	templatePath := w.templatePath
	w.mu.RUnlock()

	switch path {
	case configPath:
		w.reloadConfig()
	case templatePath:
		w.reloadTemplate(path)
	}
}

func (w *ConfigWatcher) reloadConfig() {
	newConfig, err := config.Load(w.configPath)
	if err != nil {
		w.logger.Error("failed to reload config", "error", err)
		w.mu.RLock()
		cb := w.onError
		w.mu.RUnlock()
		if cb != nil {
			cb(err)
		}
		return
	}

	w.mu.Lock()
	changed := w.currentConfig.Diff(newConfig)
	w.currentConfig = newConfig
	if changed.Template != nil {
		w.templateLocation = *changed.Template
	}
	cb := w.onReload
	w.mu.Unlock()

	if changed.IsEmpty() {
		w.logger.Debug("config file changed but settings are identical")
		return
	}

	if changed.Template != nil {
		if err := w.WatchTemplate(*changed.Template); err != nil {
			w.logger.Warn("failed to watch template", "template", *changed.Template, "error", err)
		}
	}

	w.logger.Info("config reloaded", "path", w.configPath)
	if cb != nil {
		cb(newConfig, changed)
	}
}

func (w *ConfigWatcher) reloadTemplate(path string) {
	w.mu.RLock()
	location := w.templateLocation
	reload, fail := w.onTemplateReload, w.onTemplateError
	w.mu.RUnlock()

	if w.loader == nil {
		return
	}

	if err := w.loader.Validate(location); err != nil {
		w.logger.Error("template failed to load", "template", location, "path", path, "error", err)
		if fail != nil {
			fail(location, err)
		}
		return
	}

	w.logger.Info("template reloaded", "template", location, "path", path)
	if reload != nil {
		reload(location)
	}
}

// SetTemplateLocation records a template change made outside the config
// file and watches the new location. The file baseline is left alone so a
// later edit of other keys does not revert it.
func (w *ConfigWatcher) SetTemplateLocation(location string) {
	w.mu.Lock()
	w.templateLocation = location
	w.mu.Unlock()

	if err := w.WatchTemplate(location); err != nil {
		w.logger.Warn("failed to watch template", "template", location, "error", err)
	}
}
