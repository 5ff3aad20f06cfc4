// Package layout parses the XML content templates that describe what a toast
// window renders and where its pieces go.
package layout

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultName is the template used when no location is configured.
const DefaultName = "default"

// ErrTemplateNotFound is returned when a template location resolves to nothing.
var ErrTemplateNotFound = errors.New("layout template not found")

// ElementType identifies the type of layout element.
type ElementType string

const (
	ElementTypeHeader  ElementType = "header"
	ElementTypeTitle   ElementType = "title"
	ElementTypeText    ElementType = "text"
	ElementTypeSubtext ElementType = "subtext"
	ElementTypeIcon    ElementType = "icon"
	ElementTypeLink    ElementType = "link"
	ElementTypeClose   ElementType = "close"
	ElementTypeBox     ElementType = "box"
)

// ValidElements lists all recognized element types.
var ValidElements = map[string]ElementType{
	"header":  ElementTypeHeader,
	"title":   ElementTypeTitle,
	"text":    ElementTypeText,
	"subtext": ElementTypeSubtext,
	"icon":    ElementTypeIcon,
	"link":    ElementTypeLink,
	"close":   ElementTypeClose,
	"box":     ElementTypeBox,
}

// Layout is a parsed template ready for building a window.
type Layout struct {
	// Height bounds, 0 = use the configured slot height.
	MinHeight int
	MaxHeight int
	Elements  []Element
}

// Element is a single node in the layout tree.
type Element struct {
	Type       ElementType
	Attributes map[string]string
	Children   []Element
}

// Attr returns an attribute value or def when unset.
func (e Element) Attr(name, def string) string {
	if v, ok := e.Attributes[name]; ok && v != "" {
		return v
	}
	return def
}

// Walk calls fn for every element in depth-first order.
func (l *Layout) Walk(fn func(e Element)) {
	var walk func(elems []Element)
	walk = func(elems []Element) {
		for _, e := range elems {
			fn(e)
			walk(e.Children)
		}
	}
	walk(l.Elements)
}

// Has reports whether the layout contains an element of the given type.
func (l *Layout) Has(t ElementType) bool {
	found := false
	l.Walk(func(e Element) {
		if e.Type == t {
			found = true
		}
	})
	return found
}

// ParseTemplate parses an XML layout template from a reader.
func ParseTemplate(r io.Reader) (*Layout, error) {
	decoder := xml.NewDecoder(r)

	var (
		l    Layout
		root bool
	)
	for !root {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read template: %w", err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if se.Name.Local != "toast" {
			return nil, fmt.Errorf("template root must be <toast>, got <%s>", se.Name.Local)
		}
		root = true

		for _, attr := range se.Attr {
			switch attr.Name.Local {
			case "min-height":
				if v, err := parsePixelValue(attr.Value); err == nil {
					l.MinHeight = v
				}
			case "max-height":
				if v, err := parsePixelValue(attr.Value); err == nil {
					l.MaxHeight = v
				}
			}
		}

		elements, err := parseElements(decoder)
		if err != nil {
			return nil, err
		}
		l.Elements = elements
	}

	if !root {
		return nil, errors.New("template has no <toast> element")
	}
	return &l, nil
}

// parsePixelValue parses a pixel value string (e.g., "300", "300px") to int.
func parsePixelValue(s string) (int, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "px")
	var v int
	_, err := fmt.Sscanf(s, "%d", &v)
	return v, err
}

// parseElements recursively parses child elements.
func parseElements(decoder *xml.Decoder) ([]Element, error) {
	var elements []Element

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read element: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := strings.ToLower(t.Name.Local)
			elemType, ok := ValidElements[name]
			if !ok {
				return nil, fmt.Errorf("unknown element type: %s", name)
			}

			elem := Element{Type: elemType}
			if len(t.Attr) > 0 {
				elem.Attributes = make(map[string]string, len(t.Attr))
				for _, attr := range t.Attr {
					elem.Attributes[attr.Name.Local] = attr.Value
				}
			}

			children, err := parseElements(decoder)
			if err != nil {
				return nil, err
			}
			elem.Children = children

			elements = append(elements, elem)

		case xml.EndElement:
			return elements, nil
		}
	}

	return elements, nil
}

// ParseTemplateString parses a template from a string.
func ParseTemplateString(s string) (*Layout, error) {
	return ParseTemplate(strings.NewReader(s))
}

// LoadTemplate loads a template from file.
func LoadTemplate(path string) (*Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open template: %w", err)
	}
	defer func() { _ = f.Close() }()

	l, err := ParseTemplate(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// IsPath reports whether a template location names a file rather than a
// template by name.
func IsPath(location string) bool {
	return strings.ContainsRune(location, os.PathSeparator) || strings.HasSuffix(location, ".xml")
}

// Loader resolves template locations. A location is either a file path or
// a name looked up in the user templates directory and then the embedded set.
type Loader struct {
	templatesDir string
}

// NewLoader creates a new template loader.
func NewLoader(templatesDir string) *Loader {
	return &Loader{templatesDir: templatesDir}
}

// Dir returns the user templates directory.
func (l *Loader) Dir() string {
	return l.templatesDir
}

// Resolve returns the file backing a location, if there is one.
func (l *Loader) Resolve(location string) (string, bool) {
	if IsPath(location) {
		return location, true
	}
	if location == "" || l.templatesDir == "" {
		return "", false
	}

	path := filepath.Join(l.templatesDir, location+".xml")
	if _, err := os.Stat(path); err == nil {
		return path, true
	}
	return "", false
}

// Load loads the layout for a template location.
func (l *Loader) Load(location string) (*Layout, error) {
	if location == "" {
		location = DefaultName
	}

	if path, ok := l.Resolve(location); ok {
		return LoadTemplate(path)
	}
	if layout, ok := GetEmbeddedTemplate(location); ok {
		return layout, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, location)
}

// Validate checks that a location resolves to a parseable template.
func (l *Loader) Validate(location string) error {
	_, err := l.Load(location)
	return err
}

// DefaultLayout returns the built-in layout, used when a template fails to load.
func DefaultLayout() *Layout {
	return &Layout{
		MinHeight: 65,
		MaxHeight: 65,
		Elements: []Element{
			{
				Type: ElementTypeHeader,
				Children: []Element{
					{Type: ElementTypeIcon, Attributes: map[string]string{"size": "32"}},
					{
						Type:       ElementTypeBox,
						Attributes: map[string]string{"orientation": "vertical"},
						Children: []Element{
							{Type: ElementTypeTitle},
							{Type: ElementTypeText, Attributes: map[string]string{"lines": "2"}},
						},
					},
					{Type: ElementTypeClose},
				},
			},
			{Type: ElementTypeSubtext},
		},
	}
}
