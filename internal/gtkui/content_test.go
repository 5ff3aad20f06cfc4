package gtkui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmylchreest/toastd/internal/display"
	"github.com/jmylchreest/toastd/internal/layout"
)

func TestAttrInt(t *testing.T) {
	tests := []struct {
		name  string
		attrs map[string]string
		want  int
	}{
		{"unset", nil, 32},
		{"plain", map[string]string{"size": "24"}, 24},
		{"pixels", map[string]string{"size": "48px"}, 48},
		{"malformed", map[string]string{"size": "big"}, 32},
		{"negative", map[string]string{"size": "-4"}, 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := layout.Element{Type: layout.ElementTypeIcon, Attributes: tt.attrs}
			assert.Equal(t, tt.want, attrInt(e, "size", 32))
		})
	}
}

func TestIsIconPath(t *testing.T) {
	assert.True(t, isIconPath("/usr/share/icons/app.png"))
	assert.True(t, isIconPath("file:///tmp/icon.svg"))
	assert.False(t, isIconPath("mail-unread"))
	assert.False(t, isIconPath(""))
}

func TestSanitizeClassName(t *testing.T) {
	tests := map[string]string{
		"compact":         "compact",
		"My Template":     "my-template",
		"a..b//c":         "a-b-c",
		"--leading":       "leading",
		"trailing!!":      "trailing",
		"Firefox_Nightly": "firefox-nightly",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeClassName(in), in)
	}
}

func TestContentClasses(t *testing.T) {
	assert.Empty(t, contentClasses(display.Content{Title: "only a title"}))

	got := contentClasses(display.Content{
		Title:    "t",
		Text:     "body",
		Icon:     "mail-unread",
		URL:      "https://example.com",
		Template: "compact",
	})
	assert.Equal(t, []string{"has-text", "has-icon", "has-link", "template-compact"}, got)

	// Template paths do not produce a class.
	got = contentClasses(display.Content{Template: "/home/user/toast.xml"})
	assert.Empty(t, got)
}
