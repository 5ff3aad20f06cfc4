package layout

import (
	"embed"
	"io/fs"
	"path"
	"slices"
	"strings"
)

//go:embed templates/*.xml
var builtin embed.FS

// GetEmbeddedTemplate returns the built-in template called name, without
// the .xml extension. Names containing a slash never match.
func GetEmbeddedTemplate(name string) (*Layout, bool) {
	if name == "" || strings.ContainsRune(name, '/') {
		return nil, false
	}
	data, err := builtin.ReadFile(path.Join("templates", name+".xml"))
	if err != nil {
		return nil, false
	}

	l, err := ParseTemplateString(string(data))
	if err != nil {
		return nil, false
	}
	return l, true
}

// ListEmbeddedTemplates returns the sorted names of the built-in templates.
func ListEmbeddedTemplates() []string {
	matches, err := fs.Glob(builtin, "templates/*.xml")
	if err != nil {
		return nil
	}

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(path.Base(m), ".xml"))
	}
	slices.Sort(names)
	return names
}
