// Package template renders job-description templates. Placeholders are
// written {{NAME}} and substitution is exact-match, all occurrences.
// Rendering validates the binding map in both directions: a placeholder
// without a binding and a binding without a placeholder both fail,
// rather than silently producing a half-rendered job script.
package template

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{\{([A-Za-z_][A-Za-z0-9_]*)\}\}`)

// Template is a parsed job-description template
type Template struct {
	text         string
	placeholders []string // unique, in order of first appearance
}

// MissingBindingError reports placeholders present in the template with
// no supplied value
type MissingBindingError struct {
	Placeholders []string
}

func (e *MissingBindingError) Error() string {
	return fmt.Sprintf("missing bindings for placeholders: %s", strings.Join(e.Placeholders, ", "))
}

// UnusedBindingError reports supplied values that match no placeholder
type UnusedBindingError struct {
	Names []string
}

func (e *UnusedBindingError) Error() string {
	return fmt.Sprintf("bindings match no placeholder: %s", strings.Join(e.Names, ", "))
}

// Parse parses template text and records its placeholders
func Parse(text string) *Template {
	seen := make(map[string]bool)
	var placeholders []string
	for _, m := range placeholderRe.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			placeholders = append(placeholders, m[1])
		}
	}
	return &Template{text: text, placeholders: placeholders}
}

// Load reads and parses a template file
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", path, err)
	}
	return Parse(string(data)), nil
}

// Placeholders returns the unique placeholder names in order of first
// appearance
func (t *Template) Placeholders() []string {
	out := make([]string, len(t.placeholders))
	copy(out, t.placeholders)
	return out
}

// Render substitutes every occurrence of each placeholder with its
// bound value. It is pure: no side effects, identical inputs yield
// identical output.
func (t *Template) Render(bindings map[string]string) (string, error) {
	var missing []string
	for _, name := range t.placeholders {
		if _, ok := bindings[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return "", &MissingBindingError{Placeholders: missing}
	}

	known := make(map[string]bool, len(t.placeholders))
	for _, name := range t.placeholders {
		known[name] = true
	}
	var unused []string
	for name := range bindings {
		if !known[name] {
			unused = append(unused, name)
		}
	}
	if len(unused) > 0 {
		sort.Strings(unused)
		return "", &UnusedBindingError{Names: unused}
	}

	rendered := t.text
	for _, name := range t.placeholders {
		rendered = strings.ReplaceAll(rendered, "{{"+name+"}}", bindings[name])
	}
	return rendered, nil
}
