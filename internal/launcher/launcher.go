// Package launcher runs CLI commands that are backed by registry packages.
//
// A command maps to a package name in the configuration. Without a target
// path the package is kept in the CLI's dependency cache, installed on first
// use and moved to the newest version on later runs. With a target path the
// package at that path is used as is. Either way the package's entry file is
// then run under Node.js and handed the invocation.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/stencil-labs/stencil/internal/config"
	"github.com/stencil-labs/stencil/internal/logging"
	"github.com/stencil-labs/stencil/internal/pkgcache"
	"github.com/stencil-labs/stencil/internal/runtime"
)

var (
	// ErrNoEntryPoint is returned when the package declares no entry file.
	ErrNoEntryPoint = errors.New("no executable file found")
	// ErrNoPackage is returned for a command with no package mapping.
	ErrNoPackage = errors.New("no package configured for command")
)

// Invocation is what a package entry receives: the command name, its
// parsed options and its positional arguments.
type Invocation struct {
	Command string         `json:"command"`
	Options map[string]any `json:"options"`
	Args    []string       `json:"args"`
}

// Runner executes an entry file with a JSON payload.
type Runner interface {
	Run(ctx context.Context, entry string, payload any) (int, error)
}

// Launcher resolves, installs and runs command packages.
type Launcher struct {
	cfg       *config.Config
	source    pkgcache.VersionSource
	installer pkgcache.Installer
	runner    Runner
	checkNode func(ctx context.Context) error
	logger    *log.Logger
	progress  pkgcache.ProgressFunc
}

// Option configures a Launcher.
type Option func(*Launcher)

// WithVersionSource sets the resolver used for "latest".
func WithVersionSource(src pkgcache.VersionSource) Option {
	return func(l *Launcher) { l.source = src }
}

// WithInstaller sets the installer for cached packages.
func WithInstaller(in pkgcache.Installer) Option {
	return func(l *Launcher) { l.installer = in }
}

// WithRunner replaces Node.js as the entry runner. The Node.js version
// check is skipped for custom runners.
func WithRunner(r Runner) Option {
	return func(l *Launcher) { l.runner = r }
}

// WithLogger sets the logger.
func WithLogger(lg *log.Logger) Option {
	return func(l *Launcher) { l.logger = lg }
}

// WithProgress sets the progress indicator shown around installs.
func WithProgress(fn pkgcache.ProgressFunc) Option {
	return func(l *Launcher) { l.progress = fn }
}

// New returns a Launcher for cfg.
func New(cfg *config.Config, opts ...Option) *Launcher {
	l := &Launcher{
		cfg:    cfg,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.runner == nil {
		l.runner = &runtime.NodeRuntime{}
		l.checkNode = func(ctx context.Context) error {
			v, err := runtime.CheckNodeVersion(ctx, cfg.NodeMinVersion)
			if err == nil {
				l.logger.Debug("node version", "version", v)
			}
			return err
		}
	}
	return l
}

// Handles reports whether command is backed by a package.
func (l *Launcher) Handles(command string) bool {
	return l.cfg.CommandPackage(command) != ""
}

// Package returns the package backing a command, ready to use. With a
// target path configured the package there is used as is; otherwise the
// package is kept under the dependencies directory of the CLI home.
func (l *Launcher) Package(ctx context.Context, name string) (*pkgcache.Package, error) {
	if l.cfg.TargetPath != "" {
		l.logger.Debug("using local package", "package", name, "path", l.cfg.TargetPath)
		return pkgcache.New(pkgcache.Request{
			TargetPath: l.cfg.TargetPath,
			Name:       name,
			Version:    pkgcache.LatestVersion,
		}, l.packageOptions()...)
	}
	return l.Ensure(ctx, l.cfg.DependenciesPath(), name, pkgcache.LatestVersion)
}

// Ensure makes name@version available in cached mode under root, with the
// store at <root>/node_modules. A cached copy of "latest" is moved to the
// newest release; a pinned version is installed once and then reused
// without calling Update, since Update would move it off the pin.
func (l *Launcher) Ensure(ctx context.Context, root, name, version string) (*pkgcache.Package, error) {
	pkg, err := pkgcache.New(pkgcache.Request{
		TargetPath: root,
		StoreDir:   filepath.Join(root, "node_modules"),
		Name:       name,
		Version:    version,
	}, l.packageOptions()...)
	if err != nil {
		return nil, err
	}

	exists, err := pkg.Exists(ctx)
	if err != nil {
		return nil, err
	}
	switch {
	case exists && version != pkgcache.LatestVersion && version != "":
		l.logger.Debug("using cached package", "package", name, "version", pkg.Version())
	case exists:
		l.logger.Debug("updating cached package", "package", name, "version", pkg.Version())
		err = pkg.Update(ctx)
	default:
		l.logger.Debug("installing package", "package", name, "version", pkg.Version())
		err = pkg.Install(ctx)
	}
	if err != nil {
		return nil, err
	}
	return pkg, nil
}

func (l *Launcher) packageOptions() []pkgcache.Option {
	opts := []pkgcache.Option{
		pkgcache.WithVersionSource(l.source),
		pkgcache.WithInstaller(l.installer),
		pkgcache.WithRegistry(l.cfg.Registry),
		pkgcache.WithLogger(l.logger),
	}
	if l.progress != nil {
		opts = append(opts, pkgcache.WithProgress(l.progress))
	}
	return opts
}

// Run executes inv through its command package.
func (l *Launcher) Run(ctx context.Context, inv Invocation) error {
	name := l.cfg.CommandPackage(inv.Command)
	if name == "" {
		return fmt.Errorf("%w: %s", ErrNoPackage, inv.Command)
	}

	pkg, err := l.Package(ctx, name)
	if err != nil {
		return err
	}

	entry, err := pkg.RootFilePath()
	if err != nil {
		return fmt.Errorf("reading %s manifest: %w", name, err)
	}
	if entry == "" {
		return fmt.Errorf("%w in %s", ErrNoEntryPoint, pkg.Dir())
	}

	if l.checkNode != nil {
		if err := l.checkNode(ctx); err != nil {
			return err
		}
	}

	if inv.Args == nil {
		inv.Args = []string{}
	}
	if inv.Options == nil {
		inv.Options = map[string]any{}
	}

	l.logger.Debug("running entry", "entry", entry, "command", inv.Command)
	code, err := l.runner.Run(ctx, entry, inv)
	if err != nil {
		return &runtime.SubprocessError{Phase: runtime.PhaseCommand, Command: inv.Command, ExitCode: code, Err: err}
	}
	l.logger.Debug("entry finished", "code", code)
	if code != 0 {
		return &runtime.SubprocessError{Phase: runtime.PhaseCommand, Command: inv.Command, ExitCode: code}
	}
	return nil
}
