package display

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// WorkArea is the usable rectangle of the primary display.
type WorkArea struct {
	X, Y          int
	Width, Height int
}

// Point is a screen coordinate.
type Point struct {
	X, Y int
}

// WindowOptions describes a window to create.
type WindowOptions struct {
	ID       string // Assigned by the manager, echoed back in Signals
	Width    int
	Height   int
	Template string // Content template location
}

// Presenter creates on-screen windows and reports display geometry.
// Implementations must invoke window callbacks on the manager's loop.
type Presenter interface {
	WorkArea() (WorkArea, error)
	CreateWindow(opts WindowOptions) (Window, error)
}

// Window is a single borderless toast window.
// Every method must be a no-op once the window has been destroyed.
type Window interface {
	ID() string
	SetPosition(x, y int)
	Position() (x, y int)
	SetSize(width, height int)
	ShowInactive()
	Hide()
	Destroy()
	Destroyed() bool

	// OnClosed registers the callback for the window's close event.
	OnClosed(cb func())
	// OnContentReady registers the callback fired once content can be delivered.
	OnContentReady(cb func())
	// SendPayload delivers the content to render.
	SendPayload(c Content) error
}

// URLOpener opens a URL outside the daemon.
type URLOpener interface {
	Open(url string) error
}

// CommandOpener opens URLs by running an external command such as xdg-open.
type CommandOpener struct {
	Command string
	Timeout time.Duration
}

// NewCommandOpener returns an opener using xdg-open.
func NewCommandOpener() *CommandOpener {
	return &CommandOpener{Command: "xdg-open", Timeout: 5 * time.Second}
}

// Open implements URLOpener. The command is started and reaped in the
// background; it is killed if it outlives Timeout.
func (o *CommandOpener) Open(url string) error {
	if url == "" {
		return nil
	}
	path, err := exec.LookPath(o.Command)
	if err != nil {
		return fmt.Errorf("url opener %q not found: %w", o.Command, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), o.Timeout)
	cmd := exec.CommandContext(ctx, path, url)
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("failed to open %q: %w", url, err)
	}
	go func() {
		defer cancel()
		_ = cmd.Wait()
	}()
	return nil
}
