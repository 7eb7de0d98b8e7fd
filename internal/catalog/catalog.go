// Package catalog loads the template catalog: the list of registry packages
// that can seed a new project or component. The catalog is a YAML file in
// the CLI home; when it is absent the catalog compiled into the binary is
// used. Every catalog is validated against a JSON Schema before use.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

//go:embed default.yaml
var defaultCatalog []byte

// Template types.
const (
	TypeProject   = "project"
	TypeComponent = "component"
)

// EmbeddedSource names the built-in catalog in Catalog.Source.
const EmbeddedSource = "embedded"

// Template is one catalog entry.
type Template struct {
	Name           string   `yaml:"name" json:"name"`
	Package        string   `yaml:"package" json:"package"`
	Version        string   `yaml:"version,omitempty" json:"version"`
	Type           string   `yaml:"type" json:"type"`
	Description    string   `yaml:"description,omitempty" json:"description,omitempty"`
	InstallCommand string   `yaml:"install_command,omitempty" json:"install_command,omitempty"`
	StartCommand   string   `yaml:"start_command,omitempty" json:"start_command,omitempty"`
	Ignore         []string `yaml:"ignore,omitempty" json:"ignore,omitempty"`
	Tags           []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// Catalog is a validated set of templates.
type Catalog struct {
	Templates []Template `yaml:"templates"`
	// Source is the file the catalog was read from, or EmbeddedSource.
	Source string `yaml:"-"`
}

// InvalidError reports a catalog that does not satisfy the schema.
type InvalidError struct {
	Source string
	Issues []ValidationIssue
}

func (e *InvalidError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "invalid template catalog %s:", e.Source)
	for _, issue := range e.Issues {
		b.WriteString("\n  - ")
		if issue.Path != "" {
			b.WriteString(issue.Path + ": ")
		}
		b.WriteString(issue.Message)
	}
	return b.String()
}

// Load reads the catalog at path, falling back to the embedded catalog
// when the file does not exist.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(defaultCatalog, EmbeddedSource)
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Parse(defaultCatalog, EmbeddedSource)
	}
	if err != nil {
		return nil, fmt.Errorf("reading template catalog %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse validates and decodes catalog YAML. Templates without a version
// default to "latest".
func Parse(data []byte, source string) (*Catalog, error) {
	result, err := Validate(data)
	if err != nil {
		return nil, fmt.Errorf("validating template catalog %s: %w", source, err)
	}
	if !result.Valid {
		return nil, &InvalidError{Source: source, Issues: result.Issues}
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing template catalog %s: %w", source, err)
	}
	for i := range c.Templates {
		if c.Templates[i].Version == "" {
			c.Templates[i].Version = "latest"
		}
	}
	c.Source = source
	return &c, nil
}

// ByType returns the templates of the given type, in catalog order.
func (c *Catalog) ByType(typ string) []Template {
	var out []Template
	for _, t := range c.Templates {
		if t.Type == typ {
			out = append(out, t)
		}
	}
	return out
}

// Find looks a template up by package name or display name.
func (c *Catalog) Find(key string) (*Template, bool) {
	for i := range c.Templates {
		t := &c.Templates[i]
		if t.Package == key || strings.EqualFold(t.Name, key) {
			return t, true
		}
	}
	return nil, false
}
