package gtkui

import (
	_ "embed"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
)

//go:embed style.css
var styleCSS string

// ApplyStyle installs the toast stylesheet on the default display.
func ApplyStyle() {
	disp := gdk.DisplayGetDefault()
	if disp == nil {
		return
	}

	provider := gtk.NewCSSProvider()
	provider.LoadFromString(styleCSS)
	gtk.StyleContextAddProviderForDisplay(disp, provider, gtk.STYLE_PROVIDER_PRIORITY_APPLICATION)
}

// colorSchemeClass returns "dark" or "light" following libadwaita.
func colorSchemeClass() string {
	if adw.StyleManagerGetDefault().Dark() {
		return "dark"
	}
	return "light"
}
