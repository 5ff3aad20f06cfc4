package dbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/toastd/internal/config"
	"github.com/jmylchreest/toastd/internal/display"
)

const (
	// ControlInterface is the toastd control interface name.
	ControlInterface = "io.github.jmylchreest.toastd.Control"
	// ControlPath is the control object path.
	ControlPath = "/io/github/jmylchreest/toastd"
	// ControlBusName is the bus name claimed for the control interface.
	ControlBusName = "io.github.jmylchreest.toastd"
)

// statusTimeout bounds how long Status waits for the manager loop.
const statusTimeout = 2 * time.Second

// Controller is the part of the notification manager the control
// interface drives.
type Controller interface {
	CloseAll()
	Snapshot(ctx context.Context) (display.Snapshot, error)
	ContentTemplateLocation() string
	SetContentTemplateLocation(location string) error
	SetConfiguration(p config.Partial) error
}

// ControlServer exports the toastd control interface.
type ControlServer struct {
	conn       *dbus.Conn
	controller Controller
	logger     *slog.Logger

	// validateTemplate checks a template location before it is applied.
	validateTemplate func(location string) error
}

// NewControlServer creates a control server for the given controller.
func NewControlServer(controller Controller, logger *slog.Logger) *ControlServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ControlServer{
		controller: controller,
		logger:     logger,
	}
}

// SetTemplateValidator sets the check run before SetContentTemplate applies.
func (c *ControlServer) SetTemplateValidator(fn func(location string) error) {
	c.validateTemplate = fn
}

// Start exports the control object on conn and claims the control bus name.
func (c *ControlServer) Start(conn *dbus.Conn) error {
	c.conn = conn

	if err := conn.Export(c, ControlPath, ControlInterface); err != nil {
		return fmt.Errorf("failed to export control object: %w", err)
	}

	node := &introspect.Node{
		Name: ControlPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    ControlInterface,
				Methods: controlMethods(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), ControlPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(ControlBusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", ControlBusName)
	}

	c.logger.Info("D-Bus control server started", "interface", ControlInterface, "path", ControlPath)
	return nil
}

// Stop releases the control bus name.
func (c *ControlServer) Stop() error {
	if c.conn == nil {
		return nil
	}
	if _, err := c.conn.ReleaseName(ControlBusName); err != nil {
		return fmt.Errorf("failed to release bus name: %w", err)
	}
	return nil
}

// CloseAll closes every notification.
// D-Bus method: CloseAll() -> nothing
func (c *ControlServer) CloseAll() *dbus.Error {
	c.logger.Debug("CloseAll called")
	c.controller.CloseAll()
	return nil
}

// Status returns the manager snapshot as JSON.
// D-Bus method: Status() -> s
func (c *ControlServer) Status() (string, *dbus.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), statusTimeout)
	defer cancel()

	snap, err := c.controller.Snapshot(ctx)
	if err != nil {
		return "", dbus.MakeFailedError(fmt.Errorf("failed to read status: %w", err))
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return string(data), nil
}

// GetContentTemplate returns the current content template location.
// D-Bus method: GetContentTemplate() -> s
func (c *ControlServer) GetContentTemplate() (string, *dbus.Error) {
	return c.controller.ContentTemplateLocation(), nil
}

// SetContentTemplate changes the template used for new toasts.
// D-Bus method: SetContentTemplate(s) -> nothing
func (c *ControlServer) SetContentTemplate(location string) *dbus.Error {
	c.logger.Debug("SetContentTemplate called", "location", location)

	if c.validateTemplate != nil {
		if err := c.validateTemplate(location); err != nil {
			return dbus.MakeFailedError(err)
		}
	}
	if err := c.controller.SetContentTemplateLocation(location); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

// SetConfiguration applies a partial configuration update.
// D-Bus method: SetConfiguration(a{sv}) -> nothing
func (c *ControlServer) SetConfiguration(settings map[string]dbus.Variant) *dbus.Error {
	p, err := PartialFromVariants(settings)
	if err != nil {
		return dbus.MakeFailedError(err)
	}
	if p.Template != nil && c.validateTemplate != nil {
		if err := c.validateTemplate(*p.Template); err != nil {
			return dbus.MakeFailedError(err)
		}
	}
	if err := c.controller.SetConfiguration(p); err != nil {
		return dbus.MakeFailedError(err)
	}

	c.logger.Info("configuration updated over D-Bus", "keys", len(settings))
	return nil
}

// Setting keys accepted by SetConfiguration.
const (
	KeyWidth             = "width"
	KeyHeight            = "height"
	KeyPadding           = "padding"
	KeyOffsetX           = "offset_x"
	KeyOffsetY           = "offset_y"
	KeyMaxVisible        = "max_visible"
	KeyDisplayTime       = "display_time"
	KeyContentReady      = "content_ready"
	KeyAnimationDuration = "animation_duration"
	KeyAnimationStep     = "animation_step"
	KeyIcon              = "icon"
	KeyTemplate          = "template"
)

// PartialFromVariants converts SetConfiguration arguments to a config update.
// Integers are accepted for sizes; durations are integer milliseconds or
// duration strings such as "150ms".
func PartialFromVariants(settings map[string]dbus.Variant) (config.Partial, error) {
	var p config.Partial

	for key, v := range settings {
		var err error
		switch key {
		case KeyWidth:
			p.Width, err = variantInt(v)
		case KeyHeight:
			p.Height, err = variantInt(v)
		case KeyPadding:
			p.Padding, err = variantInt(v)
		case KeyOffsetX:
			p.OffsetX, err = variantInt(v)
		case KeyOffsetY:
			p.OffsetY, err = variantInt(v)
		case KeyMaxVisible:
			p.MaxVisible, err = variantInt(v)
		case KeyDisplayTime:
			p.DisplayTime, err = variantDuration(v)
		case KeyContentReady:
			p.ContentReady, err = variantDuration(v)
		case KeyAnimationDuration:
			p.AnimationDuration, err = variantDuration(v)
		case KeyAnimationStep:
			p.AnimationStep, err = variantDuration(v)
		case KeyIcon:
			p.Icon, err = variantString(v)
		case KeyTemplate:
			p.Template, err = variantString(v)
		default:
			return config.Partial{}, fmt.Errorf("unknown setting %q", key)
		}
		if err != nil {
			return config.Partial{}, fmt.Errorf("setting %q: %w", key, err)
		}
	}

	return p, nil
}

func variantInt(v dbus.Variant) (*int, error) {
	var n int
	switch val := v.Value().(type) {
	case int32:
		n = int(val)
	case uint32:
		n = int(val)
	case int64:
		n = int(val)
	case uint64:
		n = int(val)
	case int16:
		n = int(val)
	case uint16:
		n = int(val)
	case byte:
		n = int(val)
	default:
		return nil, fmt.Errorf("expected integer, got %s", v.Signature())
	}
	return &n, nil
}

func variantDuration(v dbus.Variant) (*time.Duration, error) {
	if s, ok := v.Value().(string); ok {
		var d config.Duration
		if err := d.UnmarshalText([]byte(s)); err != nil {
			return nil, err
		}
		out := d.Duration()
		return &out, nil
	}

	ms, err := variantInt(v)
	if err != nil {
		return nil, err
	}
	d := time.Duration(*ms) * time.Millisecond
	return &d, nil
}

func variantString(v dbus.Variant) (*string, error) {
	s, ok := v.Value().(string)
	if !ok {
		return nil, fmt.Errorf("expected string, got %s", v.Signature())
	}
	return &s, nil
}

// controlMethods returns the control interface introspection data.
func controlMethods() []introspect.Method {
	return []introspect.Method{
		{Name: "CloseAll"},
		{
			Name: "Status",
			Args: []introspect.Arg{
				{Name: "status", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "GetContentTemplate",
			Args: []introspect.Arg{
				{Name: "location", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "SetContentTemplate",
			Args: []introspect.Arg{
				{Name: "location", Type: "s", Direction: "in"},
			},
		},
		{
			Name: "SetConfiguration",
			Args: []introspect.Arg{
				{Name: "settings", Type: "a{sv}", Direction: "in"},
			},
		},
	}
}
