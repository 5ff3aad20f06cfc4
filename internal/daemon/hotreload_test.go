package daemon

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastd/internal/config"
	"github.com/jmylchreest/toastd/internal/layout"
)

type reloadRecorder struct {
	mu             sync.Mutex
	reloads        []config.Partial
	errs           []error
	templates      []string
	templateErrors []string
}

func (r *reloadRecorder) attach(w *ConfigWatcher) {
	w.SetReloadCallback(func(_ *config.Config, changed config.Partial) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.reloads = append(r.reloads, changed)
	})
	w.SetErrorCallback(func(err error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.errs = append(r.errs, err)
	})
	w.SetTemplateCallbacks(
		func(location string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.templates = append(r.templates, location)
		},
		func(location string, _ error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.templateErrors = append(r.templateErrors, location)
		},
	)
}

func (r *reloadRecorder) counts() (reloads, errs, templates, templateErrors int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reloads), len(r.errs), len(r.templates), len(r.templateErrors)
}

func startConfigWatcher(t *testing.T, cfg *config.Config) (*ConfigWatcher, *reloadRecorder, string) {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	path := filepath.Join(dir, "toastd.toml")
	require.NoError(t, cfg.Save(path))

	w, err := NewConfigWatcher(path, layout.NewLoader(config.TemplatesDir()), discardLogger())
	require.NoError(t, err)
	w.files.SetDebounce(10 * time.Millisecond)

	rec := &reloadRecorder{}
	rec.attach(w)
	require.NoError(t, w.Start(cfg))
	t.Cleanup(func() { _ = w.Stop() })

	return w, rec, path
}

func TestConfigWatcher_ReloadsChangedSettings(t *testing.T) {
	cfg := config.DefaultConfig()
	w, rec, path := startConfigWatcher(t, cfg)

	next := cfg.Clone()
	next.Display.Width = 420
	require.NoError(t, next.Save(path))

	require.Eventually(t, func() bool {
		n, _, _, _ := rec.counts()
		return n == 1
	}, 2*time.Second, 10*time.Millisecond)

	rec.mu.Lock()
	changed := rec.reloads[0]
	rec.mu.Unlock()
	require.NotNil(t, changed.Width)
	assert.Equal(t, 420, *changed.Width)
	assert.Nil(t, changed.Height)
	assert.Equal(t, 420, w.GetCurrentConfig().Display.Width)
}

func TestConfigWatcher_InvalidConfigReportsError(t *testing.T) {
	cfg := config.DefaultConfig()
	w, rec, path := startConfigWatcher(t, cfg)

	require.NoError(t, os.WriteFile(path, []byte("[display]\nwidth = 1\n"), 0o600))

	require.Eventually(t, func() bool {
		_, n, _, _ := rec.counts()
		return n >= 1
	}, 2*time.Second, 10*time.Millisecond)

	reloads, _, _, _ := rec.counts()
	assert.Zero(t, reloads)
	assert.Equal(t, config.DefaultWidth, w.GetCurrentConfig().Display.Width)
}

func TestConfigWatcher_TemplateFile(t *testing.T) {
	tmplPath := filepath.Join(t.TempDir(), "custom.xml")
	require.NoError(t, os.WriteFile(tmplPath, []byte("<toast><title /></toast>"), 0o600))

	cfg := config.DefaultConfig()
	cfg.Content.Template = tmplPath
	_, rec, _ := startConfigWatcher(t, cfg)

	require.NoError(t, os.WriteFile(tmplPath, []byte("<toast><title /><text /></toast>"), 0o600))
	require.Eventually(t, func() bool {
		_, _, n, _ := rec.counts()
		return n >= 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(tmplPath, []byte("<nottoast>"), 0o600))
	require.Eventually(t, func() bool {
		_, _, _, n := rec.counts()
		return n >= 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestConfigWatcher_SetTemplateLocation(t *testing.T) {
	cfg := config.DefaultConfig()
	w, rec, _ := startConfigWatcher(t, cfg)

	dir := config.TemplatesDir()
	require.NoError(t, os.MkdirAll(dir, 0o700))

	w.SetTemplateLocation("compact")
	assert.Equal(t, config.DefaultTemplate, w.GetCurrentConfig().Content.Template,
		"file baseline is unchanged")

	// Creating a user override for the active named template is picked up.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "compact.xml"), []byte("<toast><title /></toast>"), 0o600))

	require.Eventually(t, func() bool {
		_, _, n, _ := rec.counts()
		return n >= 1
	}, 2*time.Second, 10*time.Millisecond)

	rec.mu.Lock()
	assert.Equal(t, "compact", rec.templates[0])
	rec.mu.Unlock()
}

func TestConfigWatcher_RuntimeTemplateSurvivesUnrelatedEdit(t *testing.T) {
	cfg := config.DefaultConfig()
	w, rec, path := startConfigWatcher(t, cfg)

	w.SetTemplateLocation("compact")

	next := cfg.Clone()
	next.Display.Width = 420
	require.NoError(t, next.Save(path))

	require.Eventually(t, func() bool {
		n, _, _, _ := rec.counts()
		return n == 1
	}, 2*time.Second, 10*time.Millisecond)

	rec.mu.Lock()
	changed := rec.reloads[0]
	rec.mu.Unlock()
	require.NotNil(t, changed.Width)
	assert.Equal(t, 420, *changed.Width)
	assert.Nil(t, changed.Template, "an edit to width must not reset the runtime template")
}

func TestConfigWatcher_FileTemplateEditOverridesRuntime(t *testing.T) {
	cfg := config.DefaultConfig()
	w, rec, path := startConfigWatcher(t, cfg)

	w.SetTemplateLocation("compact")

	next := cfg.Clone()
	next.Content.Template = "minimal"
	require.NoError(t, next.Save(path))

	require.Eventually(t, func() bool {
		n, _, _, _ := rec.counts()
		return n == 1
	}, 2*time.Second, 10*time.Millisecond)

	rec.mu.Lock()
	changed := rec.reloads[0]
	rec.mu.Unlock()
	require.NotNil(t, changed.Template)
	assert.Equal(t, "minimal", *changed.Template)
}
