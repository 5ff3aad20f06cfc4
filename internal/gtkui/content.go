package gtkui

import (
	"strconv"
	"strings"

	"github.com/diamondburned/gotk4/pkg/gtk/v4"
	"github.com/diamondburned/gotk4/pkg/pango"

	"github.com/jmylchreest/toastd/internal/display"
	"github.com/jmylchreest/toastd/internal/layout"
)

const (
	defaultIconSize = 32
	defaultIcon     = "dialog-information"
)

// contentBuilder turns a layout and content into a widget tree.
type contentBuilder struct {
	content display.Content
	onClose func()
	onLink  func()
}

func (b *contentBuilder) build(l *layout.Layout) gtk.Widgetter {
	root := gtk.NewBox(gtk.OrientationVertical, 4)
	root.AddCSSClass("toast")
	root.AddCSSClass(colorSchemeClass())
	for _, class := range contentClasses(b.content) {
		root.AddCSSClass(class)
	}
	root.SetMarginTop(8)
	root.SetMarginBottom(8)
	root.SetMarginStart(12)
	root.SetMarginEnd(12)
	if l.MinHeight > 0 {
		root.SetSizeRequest(-1, l.MinHeight-16)
	}

	for _, e := range l.Elements {
		if widget := b.buildElement(e); widget != nil {
			root.Append(widget)
		}
	}
	return root
}

func (b *contentBuilder) buildElement(e layout.Element) gtk.Widgetter {
	switch e.Type {
	case layout.ElementTypeHeader:
		return b.buildContainer(e, gtk.OrientationHorizontal, "toast-header")
	case layout.ElementTypeBox:
		orientation := gtk.OrientationVertical
		if e.Attr("orientation", "vertical") == "horizontal" {
			orientation = gtk.OrientationHorizontal
		}
		return b.buildContainer(e, orientation, "toast-box")
	case layout.ElementTypeTitle:
		return b.buildLabel(b.content.Title, "toast-title", 1, e)
	case layout.ElementTypeText:
		return b.buildLabel(b.content.Text, "toast-text", 2, e)
	case layout.ElementTypeSubtext:
		return b.buildLabel(b.content.Subtext, "toast-subtext", 1, e)
	case layout.ElementTypeIcon:
		return b.buildIcon(e)
	case layout.ElementTypeLink:
		return b.buildLink(e)
	case layout.ElementTypeClose:
		return b.buildClose()
	default:
		return nil
	}
}

func (b *contentBuilder) buildContainer(e layout.Element, orientation gtk.Orientation, class string) gtk.Widgetter {
	box := gtk.NewBox(orientation, attrInt(e, "spacing", 8))
	box.AddCSSClass(class)
	if orientation == gtk.OrientationVertical {
		box.SetHExpand(true)
	}
	for _, child := range e.Children {
		if widget := b.buildElement(child); widget != nil {
			box.Append(widget)
		}
	}
	return box
}

func (b *contentBuilder) buildLabel(text, class string, defLines int, e layout.Element) gtk.Widgetter {
	if text == "" {
		return nil
	}

	lbl := gtk.NewLabel(text)
	lbl.AddCSSClass(class)
	lbl.SetXAlign(0)
	lbl.SetHExpand(true)
	lbl.SetEllipsize(pango.EllipsizeEnd)

	if lines := attrInt(e, "lines", defLines); lines > 1 {
		lbl.SetWrap(true)
		lbl.SetWrapMode(pango.WrapWordChar)
		lbl.SetLines(lines)
	} else {
		lbl.SetSingleLineMode(true)
	}
	return lbl
}

func (b *contentBuilder) buildIcon(e layout.Element) gtk.Widgetter {
	icon := b.content.Icon
	if icon == "" {
		icon = e.Attr("fallback", defaultIcon)
	}

	img := gtk.NewImage()
	img.AddCSSClass("toast-icon")
	img.SetPixelSize(attrInt(e, "size", defaultIconSize))
	if isIconPath(icon) {
		img.SetFromFile(strings.TrimPrefix(icon, "file://"))
	} else {
		img.SetFromIconName(icon)
	}
	return img
}

func (b *contentBuilder) buildLink(e layout.Element) gtk.Widgetter {
	if b.content.URL == "" {
		return nil
	}

	btn := gtk.NewButtonWithLabel(e.Attr("label", "Open"))
	btn.AddCSSClass("toast-link")
	btn.SetTooltipText(b.content.URL)
	btn.ConnectClicked(b.onLink)
	return btn
}

func (b *contentBuilder) buildClose() gtk.Widgetter {
	btn := gtk.NewButtonFromIconName("window-close-symbolic")
	btn.AddCSSClass("toast-close")
	btn.SetVAlign(gtk.AlignStart)
	btn.ConnectClicked(b.onClose)
	return btn
}

// attrInt returns an integer attribute, or def when unset or malformed.
func attrInt(e layout.Element, name string, def int) int {
	v := e.Attr(name, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSuffix(v, "px"))
	if err != nil || n < 0 {
		return def
	}
	return n
}

// isIconPath reports whether an icon names a file rather than a theme icon.
func isIconPath(icon string) bool {
	return strings.HasPrefix(icon, "/") || strings.HasPrefix(icon, "file://")
}

// contentClasses returns the CSS classes describing what a toast carries.
func contentClasses(c display.Content) []string {
	var classes []string
	if c.Text != "" {
		classes = append(classes, "has-text")
	}
	if c.Icon != "" {
		classes = append(classes, "has-icon")
	}
	if c.URL != "" {
		classes = append(classes, "has-link")
	}
	if c.Template != "" && !layout.IsPath(c.Template) {
		classes = append(classes, "template-"+sanitizeClassName(c.Template))
	}
	return classes
}

// sanitizeClassName converts a string to a valid CSS class name.
// Runs of other characters become a single hyphen.
func sanitizeClassName(name string) string {
	var result strings.Builder
	prevHyphen := false

	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			result.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen && result.Len() > 0 {
				result.WriteRune('-')
				prevHyphen = true
			}
		}
	}

	return strings.TrimSuffix(result.String(), "-")
}
