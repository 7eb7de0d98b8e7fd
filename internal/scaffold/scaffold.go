package scaffold

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"unicode"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"

	"github.com/stencil-labs/stencil/internal/logging"
	"github.com/stencil-labs/stencil/internal/runtime"
)

// TemplateDir is the directory inside a template package that is copied.
const TemplateDir = "template"

// Template actions use ejs-style delimiters so that Vue and Handlebars
// mustaches pass through untouched.
const (
	leftDelim  = "<%="
	rightDelim = "%>"
)

// ProjectInfo holds the variables available to template files.
type ProjectInfo struct {
	Name        string // e.g. "myApp"
	ClassName   string // kebab-case of Name, e.g. "my-app"
	Version     string
	Description string
	Type        string // "project" or "component"
}

// NewProjectInfo returns ProjectInfo with ClassName derived from name.
func NewProjectInfo(name, version, description, typ string) ProjectInfo {
	return ProjectInfo{
		Name:        name,
		ClassName:   kebabCase(name),
		Version:     version,
		Description: description,
		Type:        typ,
	}
}

// CommandRunner runs one command line in dir.
type CommandRunner func(ctx context.Context, phase runtime.Phase, line, dir string) error

// Options describes one generation.
type Options struct {
	// PackageDir is the installed template package; its template/
	// subdirectory is the source.
	PackageDir string
	OutputDir  string
	Info       ProjectInfo
	// Ignore lists doublestar globs, relative to the output directory, of
	// files copied without rendering.
	Ignore []string

	InstallCommand string
	StartCommand   string
	SkipInstall    bool
	SkipStart      bool

	// Run defaults to runtime.RunCommandLine.
	Run    CommandRunner
	Logger *log.Logger
}

// Result is the outcome of Generate.
type Result struct {
	OutputDir string
	Files     []string
	Rendered  []string
}

// Generate copies and renders the template, then runs the install and start
// commands unless skipped. The output directory may already exist.
func Generate(ctx context.Context, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	run := opts.Run
	if run == nil {
		run = runtime.RunCommandLine
	}

	for _, pat := range opts.Ignore {
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("invalid ignore pattern %q", pat)
		}
	}

	src := filepath.Join(opts.PackageDir, TemplateDir)
	if info, err := os.Stat(src); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("template directory not found in %s", opts.PackageDir)
	}

	logger.Debug("copying template", "from", src, "to", opts.OutputDir)
	files, err := copyDir(src, opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("copying template: %w", err)
	}

	result := &Result{OutputDir: opts.OutputDir, Files: files}
	for _, rel := range files {
		if ignored(opts.Ignore, rel) {
			continue
		}
		rendered, err := renderFile(filepath.Join(opts.OutputDir, filepath.FromSlash(rel)), rel, opts.Info)
		if err != nil {
			return nil, err
		}
		if rendered {
			result.Rendered = append(result.Rendered, rel)
		}
	}

	if !opts.SkipInstall && opts.InstallCommand != "" {
		logger.Info("installing dependencies", "command", opts.InstallCommand)
		if err := run(ctx, runtime.PhaseInstall, opts.InstallCommand, opts.OutputDir); err != nil {
			return result, err
		}
	}
	if !opts.SkipStart && opts.StartCommand != "" {
		logger.Info("starting project", "command", opts.StartCommand)
		if err := run(ctx, runtime.PhaseStart, opts.StartCommand, opts.OutputDir); err != nil {
			return result, err
		}
	}
	return result, nil
}

func ignored(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// funcs exposes the project variables under their lowerCamel names, so
// `<%= className %>` works as well as `<%= .ClassName %>`.
func (p ProjectInfo) funcs() template.FuncMap {
	return template.FuncMap{
		"name":        func() string { return p.Name },
		"className":   func() string { return p.ClassName },
		"version":     func() string { return p.Version },
		"description": func() string { return p.Description },
		"type":        func() string { return p.Type },
	}
}

// renderFile executes path as a template in place. Files without actions
// and non-text files are left untouched.
func renderFile(path, rel string, info ProjectInfo) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", rel, err)
	}
	if !bytes.Contains(data, []byte(leftDelim)) || !utf8.Valid(data) {
		return false, nil
	}

	tmpl, err := template.New(rel).
		Delims(leftDelim, rightDelim).
		Funcs(info.funcs()).
		Option("missingkey=error").
		Parse(string(data))
	if err != nil {
		return false, fmt.Errorf("parsing template %s: %w", rel, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, info); err != nil {
		return false, fmt.Errorf("rendering template %s: %w", rel, err)
	}

	st, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(path, buf.Bytes(), st.Mode().Perm()); err != nil {
		return false, fmt.Errorf("writing %s: %w", rel, err)
	}
	return true, nil
}

func kebabCase(s string) string {
	var b strings.Builder
	var prev rune
	for i, r := range s {
		if r == '_' || r == ' ' || r == '-' {
			if b.Len() > 0 && prev != '-' {
				b.WriteRune('-')
			}
			prev = '-'
			continue
		}
		if unicode.IsUpper(r) && i > 0 && (unicode.IsLower(prev) || unicode.IsDigit(prev)) {
			b.WriteRune('-')
		}
		b.WriteRune(unicode.ToLower(r))
		prev = r
	}
	return strings.TrimSuffix(b.String(), "-")
}
