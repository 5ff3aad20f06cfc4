package config

import (
	"fmt"
	"time"
)

// Partial is a sparse configuration update. Nil fields are left unchanged.
type Partial struct {
	Width             *int
	Height            *int
	Padding           *int
	OffsetX           *int
	OffsetY           *int
	MaxVisible        *int
	DisplayTime       *time.Duration
	ContentReady      *time.Duration
	AnimationDuration *time.Duration
	AnimationStep     *time.Duration
	Icon              *string
	Template          *string
}

// IsEmpty reports whether the update sets nothing.
func (p Partial) IsEmpty() bool {
	return p == Partial{}
}

// AffectsGeometry reports whether applying p requires recomputing slot geometry.
func (p Partial) AffectsGeometry() bool {
	return p.Width != nil || p.Height != nil || p.Padding != nil ||
		p.OffsetX != nil || p.OffsetY != nil || p.MaxVisible != nil
}

// Merge returns a copy of c with p applied. The receiver is not modified.
// The merged configuration is validated; on error the original stays in effect.
func (c *Config) Merge(p Partial) (*Config, error) {
	next := c.Clone()

	setInt(&next.Display.Width, p.Width)
	setInt(&next.Display.Height, p.Height)
	setInt(&next.Display.Padding, p.Padding)
	setInt(&next.Display.OffsetX, p.OffsetX)
	setInt(&next.Display.OffsetY, p.OffsetY)
	setInt(&next.Display.MaxVisible, p.MaxVisible)

	if p.DisplayTime != nil {
		next.Timeouts.DisplayTime = Duration(*p.DisplayTime)
	}
	if p.ContentReady != nil {
		next.Timeouts.ContentReady = Duration(*p.ContentReady)
	}
	if p.AnimationDuration != nil {
		next.Animation.Duration = Duration(*p.AnimationDuration)
	}
	if p.AnimationStep != nil {
		next.Animation.Step = Duration(*p.AnimationStep)
	}
	if p.Icon != nil {
		next.Content.Icon = *p.Icon
	}
	if p.Template != nil {
		next.Content.Template = *p.Template
	}

	if err := next.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration update: %w", err)
	}
	return next, nil
}

// Diff returns the Partial that turns c into other.
// Used by the hot-reload path to feed file changes through the same merge logic.
func (c *Config) Diff(other *Config) Partial {
	var p Partial
	if c.Display.Width != other.Display.Width {
		p.Width = &other.Display.Width
	}
	if c.Display.Height != other.Display.Height {
		p.Height = &other.Display.Height
	}
	if c.Display.Padding != other.Display.Padding {
		p.Padding = &other.Display.Padding
	}
	if c.Display.OffsetX != other.Display.OffsetX {
		p.OffsetX = &other.Display.OffsetX
	}
	if c.Display.OffsetY != other.Display.OffsetY {
		p.OffsetY = &other.Display.OffsetY
	}
	if c.Display.MaxVisible != other.Display.MaxVisible {
		p.MaxVisible = &other.Display.MaxVisible
	}
	if c.Timeouts.DisplayTime != other.Timeouts.DisplayTime {
		d := other.Timeouts.DisplayTime.Duration()
		p.DisplayTime = &d
	}
	if c.Timeouts.ContentReady != other.Timeouts.ContentReady {
		d := other.Timeouts.ContentReady.Duration()
		p.ContentReady = &d
	}
	if c.Animation.Duration != other.Animation.Duration {
		d := other.Animation.Duration.Duration()
		p.AnimationDuration = &d
	}
	if c.Animation.Step != other.Animation.Step {
		d := other.Animation.Step.Duration()
		p.AnimationStep = &d
	}
	if c.Content.Icon != other.Content.Icon {
		p.Icon = &other.Content.Icon
	}
	if c.Content.Template != other.Content.Template {
		p.Template = &other.Content.Template
	}
	return p
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
