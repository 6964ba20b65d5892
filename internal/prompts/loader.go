package prompts

import (
	"embed"
	"fmt"
	"strings"
	"sync"
	"text/template"
)

// The pipeline reads three named templates: analyst, generator, critic.
// Defaults are embedded; a directory of *.tmpl files can override them.

//go:embed templates/*.tmpl
var defaultTemplates embed.FS

// Set is a loaded, parsed template collection. Safe for concurrent use.
type Set struct {
	tmpl *template.Template
}

var funcs = template.FuncMap{
	"join": strings.Join,
}

var (
	defaultOnce sync.Once
	defaultSet  *Set
	defaultErr  error
)

// LoadDefault parses the embedded templates. Parsed once, cached for the
// process lifetime.
func LoadDefault() (*Set, error) {
	defaultOnce.Do(func() {
		t, err := template.New("").Funcs(funcs).ParseFS(defaultTemplates, "templates/*.tmpl")
		if err != nil {
			defaultErr = fmt.Errorf("parse embedded templates: %w", err)
			return
		}
		defaultSet = &Set{tmpl: t}
	})
	return defaultSet, defaultErr
}

// LoadDir parses *.tmpl files from a directory. The three templates
// analyst.tmpl, generator.tmpl, and critic.tmpl must all be present.
func LoadDir(dir string) (*Set, error) {
	t, err := template.New("").Funcs(funcs).ParseGlob(dir + "/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates in %s: %w", dir, err)
	}
	s := &Set{tmpl: t}
	for _, name := range []string{"analyst.tmpl", "generator.tmpl", "critic.tmpl"} {
		if t.Lookup(name) == nil {
			return nil, fmt.Errorf("template %s missing from %s", name, dir)
		}
	}
	return s, nil
}

// Load returns LoadDir(dir) when dir is non-empty, the embedded defaults
// otherwise.
func Load(dir string) (*Set, error) {
	if dir != "" {
		return LoadDir(dir)
	}
	return LoadDefault()
}

// Render executes the named template ("analyst", "generator", "critic")
// with the given data.
func (s *Set) Render(name string, data any) (string, error) {
	var b strings.Builder
	if err := s.tmpl.ExecuteTemplate(&b, name+".tmpl", data); err != nil {
		return "", fmt.Errorf("render %s template: %w", name, err)
	}
	return b.String(), nil
}
