// Package scaffold creates a project from a template package. The package's
// template/ directory is copied into the output directory, every file not
// matched by an ignore pattern is rendered with text/template against the
// project information, and the template's install and start commands run in
// the new project. Actions are written <%= .Name %> or <%= name %>; {{ }}
// is left alone.
package scaffold
