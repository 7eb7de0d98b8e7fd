package updater

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/stencil-labs/stencil/internal/branding"
	"github.com/stencil-labs/stencil/internal/logging"
)

// Source finds the highest published version above current.
type Source interface {
	HigherThan(ctx context.Context, current, name string) (string, bool)
}

// Updater checks for CLI releases.
type Updater struct {
	currentVersion string
	pkg            string
	source         Source
	maxAge         time.Duration
	now            func() time.Time
	logger         *log.Logger
}

// Option configures an Updater.
type Option func(*Updater)

// WithPackage overrides the package checked for releases.
func WithPackage(name string) Option {
	return func(u *Updater) {
		u.pkg = name
	}
}

// WithMaxAge overrides DefaultCacheMaxAge.
func WithMaxAge(d time.Duration) Option {
	return func(u *Updater) {
		u.maxAge = d
	}
}

// WithClock replaces time.Now (useful for testing).
func WithClock(now func() time.Time) Option {
	return func(u *Updater) {
		u.now = now
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(u *Updater) {
		u.logger = l
	}
}

// New creates an Updater for the running CLI version.
func New(currentVersion string, source Source, opts ...Option) *Updater {
	u := &Updater{
		currentVersion: currentVersion,
		pkg:            branding.CLIPackage(),
		source:         source,
		maxAge:         DefaultCacheMaxAge,
		now:            time.Now,
		logger:         logging.Discard(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// CurrentVersion returns the version this updater was created with.
func (u *Updater) CurrentVersion() string {
	return u.currentVersion
}

// Package returns the package checked for releases.
func (u *Updater) Package() string {
	return u.pkg
}
