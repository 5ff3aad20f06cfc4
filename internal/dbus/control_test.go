package dbus

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastd/internal/config"
	"github.com/jmylchreest/toastd/internal/display"
)

type fakeController struct {
	closedAll   int
	template    string
	partials    []config.Partial
	snapshot    display.Snapshot
	snapshotErr error
	configErr   error
}

func (c *fakeController) CloseAll() { c.closedAll++ }

func (c *fakeController) Snapshot(context.Context) (display.Snapshot, error) {
	return c.snapshot, c.snapshotErr
}

func (c *fakeController) ContentTemplateLocation() string { return c.template }

func (c *fakeController) SetContentTemplateLocation(location string) error {
	c.template = location
	return nil
}

func (c *fakeController) SetConfiguration(p config.Partial) error {
	if c.configErr != nil {
		return c.configErr
	}
	c.partials = append(c.partials, p)
	return nil
}

func TestControl_CloseAll(t *testing.T) {
	ctrl := &fakeController{}
	c := NewControlServer(ctrl, nil)

	require.Nil(t, c.CloseAll())
	assert.Equal(t, 1, ctrl.closedAll)
}

func TestControl_Status(t *testing.T) {
	ctrl := &fakeController{snapshot: display.Snapshot{
		MaxVisible: 3,
		Active:     []display.ToastSnapshot{{ID: 4, Slot: 0, Title: "hello"}},
		Pending:    []uint32{5},
		QueueState: "idle",
	}}
	c := NewControlServer(ctrl, nil)

	raw, dErr := c.Status()
	require.Nil(t, dErr)

	var got display.Snapshot
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	assert.Equal(t, 3, got.MaxVisible)
	require.Len(t, got.Active, 1)
	assert.Equal(t, "hello", got.Active[0].Title)
	assert.Equal(t, []uint32{5}, got.Pending)

	ctrl.snapshotErr = context.DeadlineExceeded
	_, dErr = c.Status()
	assert.NotNil(t, dErr)
}

func TestControl_ContentTemplate(t *testing.T) {
	ctrl := &fakeController{template: "default"}
	c := NewControlServer(ctrl, nil)

	loc, dErr := c.GetContentTemplate()
	require.Nil(t, dErr)
	assert.Equal(t, "default", loc)

	c.SetTemplateValidator(func(location string) error {
		if location == "broken" {
			return errors.New("layout template not found")
		}
		return nil
	})

	assert.NotNil(t, c.SetContentTemplate("broken"))
	assert.Equal(t, "default", ctrl.template)

	require.Nil(t, c.SetContentTemplate("compact"))
	assert.Equal(t, "compact", ctrl.template)
}

func TestControl_SetConfiguration(t *testing.T) {
	ctrl := &fakeController{}
	c := NewControlServer(ctrl, nil)

	dErr := c.SetConfiguration(map[string]dbus.Variant{
		KeyDisplayTime: dbus.MakeVariant(int32(100)),
		KeyMaxVisible:  dbus.MakeVariant(uint32(3)),
	})
	require.Nil(t, dErr)
	require.Len(t, ctrl.partials, 1)
	assert.Equal(t, 100*time.Millisecond, *ctrl.partials[0].DisplayTime)
	assert.Equal(t, 3, *ctrl.partials[0].MaxVisible)

	ctrl.configErr = errors.New("invalid configuration update")
	assert.NotNil(t, c.SetConfiguration(map[string]dbus.Variant{KeyWidth: dbus.MakeVariant(int32(1))}))

	assert.NotNil(t, c.SetConfiguration(map[string]dbus.Variant{"colour": dbus.MakeVariant("red")}))
}

func TestPartialFromVariants(t *testing.T) {
	p, err := PartialFromVariants(map[string]dbus.Variant{
		KeyWidth:             dbus.MakeVariant(int32(320)),
		KeyHeight:            dbus.MakeVariant(int64(80)),
		KeyPadding:           dbus.MakeVariant(uint32(6)),
		KeyOffsetX:           dbus.MakeVariant(int32(10)),
		KeyOffsetY:           dbus.MakeVariant(byte(4)),
		KeyMaxVisible:        dbus.MakeVariant(int32(5)),
		KeyDisplayTime:       dbus.MakeVariant("2s"),
		KeyContentReady:      dbus.MakeVariant(int32(1500)),
		KeyAnimationDuration: dbus.MakeVariant("0"),
		KeyAnimationStep:     dbus.MakeVariant(uint32(8)),
		KeyIcon:              dbus.MakeVariant("dialog-warning"),
		KeyTemplate:          dbus.MakeVariant("compact"),
	})
	require.NoError(t, err)

	assert.Equal(t, 320, *p.Width)
	assert.Equal(t, 80, *p.Height)
	assert.Equal(t, 6, *p.Padding)
	assert.Equal(t, 10, *p.OffsetX)
	assert.Equal(t, 4, *p.OffsetY)
	assert.Equal(t, 5, *p.MaxVisible)
	assert.Equal(t, 2*time.Second, *p.DisplayTime)
	assert.Equal(t, 1500*time.Millisecond, *p.ContentReady)
	assert.Equal(t, time.Duration(0), *p.AnimationDuration)
	assert.Equal(t, 8*time.Millisecond, *p.AnimationStep)
	assert.Equal(t, "dialog-warning", *p.Icon)
	assert.Equal(t, "compact", *p.Template)

	merged, err := config.DefaultConfig().Merge(p)
	require.NoError(t, err)
	assert.Equal(t, 320, merged.Display.Width)
}

func TestPartialFromVariants_Errors(t *testing.T) {
	tests := []struct {
		name     string
		settings map[string]dbus.Variant
		wantErr  string
	}{
		{"unknown key", map[string]dbus.Variant{"colour": dbus.MakeVariant("red")}, "unknown setting"},
		{"string for int", map[string]dbus.Variant{KeyWidth: dbus.MakeVariant("wide")}, "expected integer"},
		{"bad duration", map[string]dbus.Variant{KeyDisplayTime: dbus.MakeVariant("soon")}, KeyDisplayTime},
		{"int for string", map[string]dbus.Variant{KeyIcon: dbus.MakeVariant(int32(1))}, "expected string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PartialFromVariants(tt.settings)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	p, err := PartialFromVariants(nil)
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())
}
