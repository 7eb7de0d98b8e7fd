package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validCatalog = `templates:
  - name: Vue app
    package: "@acme/template-vue"
    version: 1.2.0
    type: project
    install_command: npm install
    start_command: npm run dev
  - name: Button kit
    package: button-kit
    type: component
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(validCatalog), "test.yaml")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(c.Templates) != 2 {
		t.Fatalf("len(Templates) = %d, want 2", len(c.Templates))
	}
	if c.Source != "test.yaml" {
		t.Errorf("Source = %q", c.Source)
	}
	if got := c.Templates[0].StartCommand; got != "npm run dev" {
		t.Errorf("StartCommand = %q", got)
	}
	if got := c.Templates[1].Version; got != "latest" {
		t.Errorf("default Version = %q, want latest", got)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		wantPath string
	}{
		{
			name:     "bad type",
			yaml:     "templates:\n  - name: x\n    package: x\n    type: library\n",
			wantPath: "/templates/0/type",
		},
		{
			name:     "missing package",
			yaml:     "templates:\n  - name: x\n    type: project\n",
			wantPath: "/templates/0",
		},
		{
			name:     "bad version",
			yaml:     "templates:\n  - name: x\n    package: x\n    type: project\n    version: one\n",
			wantPath: "/templates/0/version",
		},
		{
			name:     "unknown field",
			yaml:     "templates: []\nextra: true\n",
			wantPath: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), "bad.yaml")
			var invalid *InvalidError
			if !errors.As(err, &invalid) {
				t.Fatalf("Parse() error = %v, want *InvalidError", err)
			}
			found := false
			for _, issue := range invalid.Issues {
				if issue.Path == tt.wantPath {
					found = true
				}
			}
			if !found {
				t.Errorf("no issue at %q in %+v", tt.wantPath, invalid.Issues)
			}
			if !strings.Contains(err.Error(), "bad.yaml") {
				t.Errorf("error %q should name the source", err)
			}
		})
	}
}

func TestParse_MalformedYAML(t *testing.T) {
	_, err := Parse([]byte("templates: [\n"), "broken.yaml")
	if err == nil {
		t.Fatal("Parse() expected error")
	}
	var invalid *InvalidError
	if errors.As(err, &invalid) {
		t.Error("malformed YAML is not a schema violation")
	}
}

func TestLoad_FallsBackToEmbedded(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if c.Source != EmbeddedSource {
		t.Errorf("Source = %q, want %q", c.Source, EmbeddedSource)
	}
	if len(c.ByType(TypeProject)) == 0 {
		t.Error("embedded catalog should list project templates")
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	if err := os.WriteFile(path, []byte(validCatalog), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if c.Source != path {
		t.Errorf("Source = %q, want %q", c.Source, path)
	}
}

func TestByTypeAndFind(t *testing.T) {
	c, err := Parse([]byte(validCatalog), "test.yaml")
	if err != nil {
		t.Fatal(err)
	}

	if got := c.ByType(TypeComponent); len(got) != 1 || got[0].Package != "button-kit" {
		t.Errorf("ByType(component) = %+v", got)
	}
	if got := c.ByType("other"); got != nil {
		t.Errorf("ByType(other) = %+v, want nil", got)
	}

	if tpl, ok := c.Find("@acme/template-vue"); !ok || tpl.Name != "Vue app" {
		t.Errorf("Find(package) = %+v, %v", tpl, ok)
	}
	if tpl, ok := c.Find("button KIT"); !ok || tpl.Package != "button-kit" {
		t.Errorf("Find(name) = %+v, %v", tpl, ok)
	}
	if _, ok := c.Find("nope"); ok {
		t.Error("Find(nope) should miss")
	}
}

func TestEmbeddedCatalogIsValid(t *testing.T) {
	result, err := Validate(defaultCatalog)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Valid {
		t.Errorf("embedded catalog invalid: %+v", result.Issues)
	}
}
