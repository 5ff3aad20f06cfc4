package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastd/internal/config"
	"github.com/jmylchreest/toastd/internal/dbus"
)

func TestParseSettings(t *testing.T) {
	settings, err := parseSettings([]string{"width=320", "display_time=8s", "template=compact"})
	require.NoError(t, err)

	assert.Equal(t, int32(320), settings["width"].Value())
	assert.Equal(t, "8s", settings["display_time"].Value())
	assert.Equal(t, "compact", settings["template"].Value())

	p, err := dbus.PartialFromVariants(settings)
	require.NoError(t, err)
	require.NotNil(t, p.Width)
	assert.Equal(t, 320, *p.Width)
	require.NotNil(t, p.DisplayTime)
	assert.Equal(t, 8*time.Second, *p.DisplayTime)
}

func TestParseSettings_Invalid(t *testing.T) {
	for _, arg := range []string{"width", "=3", ""} {
		_, err := parseSettings([]string{arg})
		assert.Error(t, err, arg)
	}
}

func TestPrintConfig(t *testing.T) {
	cfg := config.DefaultConfig()

	var toml bytes.Buffer
	require.NoError(t, printConfig(&toml, cfg, "toml"))
	assert.Contains(t, toml.String(), "[display]")
	assert.Contains(t, toml.String(), "max_visible")

	var yml bytes.Buffer
	require.NoError(t, printConfig(&yml, cfg, "yaml"))
	assert.Contains(t, yml.String(), "display:")
	assert.Contains(t, yml.String(), "display_time: 5s")

	assert.Error(t, printConfig(&bytes.Buffer{}, cfg, "ini"))
}

func TestPersist(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	saved := globalOpts
	t.Cleanup(func() { globalOpts = saved })
	globalOpts.configPath = ""

	width := 420
	require.NoError(t, persist(config.Partial{Width: &width}))

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 420, cfg.Display.Width)
}
