package pkgcache

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/stencil-labs/stencil/internal/logging"
	"github.com/stencil-labs/stencil/internal/manifest"
)

// Request describes the package a Package manages.
type Request struct {
	// TargetPath is where a direct-mode package lives, and the install root
	// in cached mode.
	TargetPath string
	// StoreDir selects cached mode when non-empty.
	StoreDir string
	// Name is the registry name, possibly scoped ("@acme/init").
	Name string
	// Version is a concrete version or LatestVersion. Empty means LatestVersion.
	Version string
}

// Spec names one package version to install.
type Spec struct {
	Name    string
	Version string
}

// InstallRequest is handed to an Installer.
type InstallRequest struct {
	Root     string
	StoreDir string
	Registry string
	Pkgs     []Spec
}

// Installer materializes packages on disk. Implementations must create
// CachePath(req.StoreDir, name, version) for every spec, or fail.
type Installer interface {
	Install(ctx context.Context, req InstallRequest) error
}

// VersionSource resolves the newest published version of a package.
type VersionSource interface {
	Latest(ctx context.Context, name string) (string, bool)
}

// ProgressFunc starts a progress indicator for msg and returns the function
// that stops it. stop is always called, with the operation's error.
type ProgressFunc func(msg string) (stop func(err error))

// Package tracks one package and its resolved version.
type Package struct {
	targetPath string
	storeDir   string
	name       string
	version    string

	source    VersionSource
	installer Installer
	registry  string
	logger    *log.Logger
	progress  ProgressFunc
}

// Option configures a Package.
type Option func(*Package)

// WithVersionSource sets the resolver used for "latest" and Update.
func WithVersionSource(src VersionSource) Option {
	return func(p *Package) {
		p.source = src
	}
}

// WithInstaller sets the installer used by Install and Update.
func WithInstaller(in Installer) Option {
	return func(p *Package) {
		p.installer = in
	}
}

// WithRegistry sets the registry URL passed to the installer.
func WithRegistry(url string) Option {
	return func(p *Package) {
		p.registry = url
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(p *Package) {
		p.logger = l
	}
}

// WithProgress sets the progress indicator wrapped around installs.
func WithProgress(fn ProgressFunc) Option {
	return func(p *Package) {
		p.progress = fn
	}
}

// New validates req and returns a Package. It performs no I/O.
func New(req Request, opts ...Option) (*Package, error) {
	if req.Name == "" {
		return nil, &OpError{Op: "pkgcache.new", Kind: KindConfig, Err: errors.New("package name is empty")}
	}
	if req.TargetPath == "" && req.StoreDir == "" {
		return nil, &OpError{Op: "pkgcache.new", Kind: KindConfig, Package: req.Name, Err: errors.New("target path and store dir are both empty")}
	}

	version := req.Version
	if version == "" {
		version = LatestVersion
	}

	p := &Package{
		targetPath: req.TargetPath,
		storeDir:   req.StoreDir,
		name:       req.Name,
		version:    version,
		logger:     logging.Discard(),
		progress:   func(string) func(error) { return func(error) {} },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name returns the package name.
func (p *Package) Name() string { return p.name }

// Version returns the current version: LatestVersion until resolved.
func (p *Package) Version() string { return p.version }

// Cached reports whether the package is managed under a store directory.
func (p *Package) Cached() bool { return p.storeDir != "" }

// TargetPath returns the install root or direct-mode location.
func (p *Package) TargetPath() string { return p.targetPath }

// StoreDir returns the store directory, "" in direct mode.
func (p *Package) StoreDir() string { return p.storeDir }

// CacheFilePath returns the cache directory for the current version.
func (p *Package) CacheFilePath() string {
	return CachePath(p.storeDir, p.name, p.version)
}

// CachePathFor returns the cache directory for an arbitrary version.
func (p *Package) CachePathFor(version string) string {
	return CachePath(p.storeDir, p.name, version)
}

// Dir returns the directory holding the package contents: the cache
// directory in cached mode, the target path otherwise.
func (p *Package) Dir() string {
	if p.Cached() {
		return p.CacheFilePath()
	}
	return p.targetPath
}

// Prepare creates the store directory when needed and pins LatestVersion to
// a concrete version. It must complete before any version-dependent path is
// computed. On a resolution failure the version stays LatestVersion, so a
// later call resolves again.
func (p *Package) Prepare(ctx context.Context) error {
	if p.storeDir != "" && !pathExists(p.storeDir) {
		if err := os.MkdirAll(p.storeDir, 0755); err != nil {
			return &OpError{Op: "pkgcache.prepare", Kind: KindConfig, Package: p.name,
				Err: fmt.Errorf("creating store directory %s: %w", p.storeDir, err)}
		}
	}

	if p.version != LatestVersion {
		return nil
	}

	latest, err := p.latest(ctx, "pkgcache.prepare")
	if err != nil {
		return err
	}
	p.logger.Debug("resolved latest version", "package", p.name, "version", latest)
	p.version = latest
	return nil
}

// Exists reports whether the package is present on disk. In cached mode the
// version is resolved first and the version's cache directory is checked;
// in direct mode only the target path is checked.
func (p *Package) Exists(ctx context.Context) (bool, error) {
	if !p.Cached() {
		return pathExists(p.targetPath), nil
	}
	if err := p.Prepare(ctx); err != nil {
		return false, err
	}
	return pathExists(p.CacheFilePath()), nil
}

// Install resolves the version and installs it. Installer failures are
// returned as KindInstall errors; nothing is retried.
func (p *Package) Install(ctx context.Context) (err error) {
	if err := p.Prepare(ctx); err != nil {
		return err
	}
	if p.installer == nil {
		return &OpError{Op: "pkgcache.install", Kind: KindConfig, Package: p.name, Err: errors.New("no installer configured")}
	}

	stop := p.progress(fmt.Sprintf("installing %s@%s", p.name, p.version))
	defer func() { stop(err) }()

	p.logger.Debug("installing package", "package", p.name, "version", p.version, "store", p.storeDir)
	if ierr := p.installer.Install(ctx, p.installRequest(p.version)); ierr != nil {
		return &OpError{Op: "pkgcache.install", Kind: KindInstall, Package: p.name, Err: ierr}
	}
	return nil
}

// Update moves the package to the newest published version. The newest
// version is always taken, even when it is not above the current one; the
// installer only runs when that version's cache directory is missing.
func (p *Package) Update(ctx context.Context) (err error) {
	if !p.Cached() {
		return &OpError{Op: "pkgcache.update", Kind: KindConfig, Package: p.name, Err: errors.New("update requires a store directory")}
	}

	latest, err := p.latest(ctx, "pkgcache.update")
	if err != nil {
		return err
	}

	if pathExists(p.CachePathFor(latest)) {
		p.logger.Debug("latest version already cached", "package", p.name, "version", latest)
		p.version = latest
		return nil
	}

	if p.installer == nil {
		return &OpError{Op: "pkgcache.update", Kind: KindConfig, Package: p.name, Err: errors.New("no installer configured")}
	}

	stop := p.progress(fmt.Sprintf("updating %s to %s", p.name, latest))
	defer func() { stop(err) }()

	p.logger.Debug("updating package", "package", p.name, "from", p.version, "to", latest)
	if ierr := p.installer.Install(ctx, p.installRequest(latest)); ierr != nil {
		return &OpError{Op: "pkgcache.update", Kind: KindUpdate, Package: p.name, Err: ierr}
	}
	p.version = latest
	return nil
}

// RootFilePath returns the forward-slash absolute path of the package's
// declared entry file, or "" when there is no manifest or no entry.
func (p *Package) RootFilePath() (string, error) {
	return manifest.Locate(p.Dir())
}

func (p *Package) latest(ctx context.Context, op string) (string, error) {
	if p.source == nil {
		return "", &OpError{Op: op, Kind: KindConfig, Package: p.name, Err: errors.New("no version source configured")}
	}
	v, ok := p.source.Latest(ctx, p.name)
	if !ok {
		return "", &OpError{Op: op, Kind: KindResolution, Package: p.name, Err: ErrNotResolved}
	}
	return v, nil
}

func (p *Package) installRequest(version string) InstallRequest {
	return InstallRequest{
		Root:     p.targetPath,
		StoreDir: p.storeDir,
		Registry: p.registry,
		Pkgs:     []Spec{{Name: p.name, Version: version}},
	}
}

func pathExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
