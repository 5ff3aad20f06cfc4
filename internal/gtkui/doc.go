// Package gtkui presents toasts as GTK4 layer-shell windows and runs the
// toast manager on the GTK main loop.
package gtkui
