// Package installer downloads package tarballs from a registry and unpacks
// them into version-keyed cache directories.
//
// Each package is downloaded and extracted into a uniquely named staging
// directory inside the store, verified, and then renamed onto its cache
// path. Readers therefore see either no cache directory or a complete one.
// When the cache path already exists the package is skipped, and losing a
// rename race to another process counts as success.
//
// Dependencies declared by the installed package are not installed.
package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/stencil-labs/stencil/internal/branding"
	"github.com/stencil-labs/stencil/internal/logging"
	"github.com/stencil-labs/stencil/internal/pkgcache"
	"github.com/stencil-labs/stencil/internal/platform"
	"github.com/stencil-labs/stencil/internal/registry"
)

// ErrVersionNotPublished is returned when the registry has no such version.
var ErrVersionNotPublished = errors.New("version not published")

const stagingPrefix = ".staging-"

// Installer installs packages from a registry.
type Installer struct {
	httpClient *http.Client
	logger     *log.Logger
}

// Option configures an Installer.
type Option func(*Installer)

// WithHTTPClient sets the client used for metadata and tarball requests.
func WithHTTPClient(c *http.Client) Option {
	return func(in *Installer) {
		in.httpClient = c
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(in *Installer) {
		in.logger = l
	}
}

// New returns an Installer.
func New(opts ...Option) *Installer {
	in := &Installer{
		httpClient: http.DefaultClient,
		logger:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Install places every requested package at its cache path under
// req.StoreDir and, when req.Root is set, links it as
// <Root>/node_modules/<name>. Packages are installed in order and the first
// failure stops the run.
func (in *Installer) Install(ctx context.Context, req pkgcache.InstallRequest) error {
	if req.StoreDir == "" {
		return errors.New("store directory is empty")
	}
	if err := os.MkdirAll(req.StoreDir, 0755); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}

	client := registry.NewClient(req.Registry,
		registry.WithHTTPClient(in.httpClient),
		registry.WithLogger(in.logger))

	for _, spec := range req.Pkgs {
		dest, err := in.installOne(ctx, client, req.StoreDir, spec)
		if err != nil {
			return fmt.Errorf("installing %s@%s: %w", spec.Name, spec.Version, err)
		}
		if req.Root != "" {
			link := filepath.Join(req.Root, "node_modules", filepath.FromSlash(spec.Name))
			if err := platform.LinkDir(dest, link); err != nil {
				in.logger.Warn("could not link package", "package", spec.Name, "link", link, "err", err)
			}
		}
	}
	return nil
}

func (in *Installer) installOne(ctx context.Context, client *registry.Client, storeDir string, spec pkgcache.Spec) (string, error) {
	dest := pkgcache.CachePath(storeDir, spec.Name, spec.Version)
	if _, err := os.Stat(dest); err == nil {
		in.logger.Debug("already installed", "package", spec.Name, "version", spec.Version)
		return dest, nil
	}

	meta, err := client.Metadata(ctx, spec.Name)
	if err != nil {
		return "", err
	}
	vm, ok := meta.Versions[spec.Version]
	if !ok {
		return "", fmt.Errorf("%w: %s@%s", ErrVersionNotPublished, spec.Name, spec.Version)
	}
	if vm.Dist.Tarball == "" {
		return "", fmt.Errorf("no tarball listed for %s@%s", spec.Name, spec.Version)
	}

	staging := filepath.Join(storeDir, stagingPrefix+uuid.NewString())
	if err := os.MkdirAll(staging, 0755); err != nil {
		return "", fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	archive := filepath.Join(staging, "package.tgz")
	in.logger.Debug("downloading tarball", "url", vm.Dist.Tarball)
	if err := in.download(ctx, vm.Dist.Tarball, archive); err != nil {
		return "", err
	}
	if err := verify(archive, vm.Dist); err != nil {
		return "", err
	}

	unpacked := filepath.Join(staging, "package")
	if err := extractTarGz(archive, unpacked); err != nil {
		return "", err
	}

	// Scoped cache keys span two segments, so the parent may not exist yet.
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", fmt.Errorf("creating cache parent: %w", err)
	}
	if err := os.Rename(unpacked, dest); err != nil {
		if _, statErr := os.Stat(dest); statErr == nil {
			in.logger.Debug("lost install race, using existing copy", "path", dest)
			return dest, nil
		}
		return "", fmt.Errorf("moving package into place: %w", err)
	}
	return dest, nil
}

func (in *Installer) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating download request: %w", err)
	}
	req.Header.Set("User-Agent", branding.CLIName())

	resp, err := in.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download of %s returned status %d", url, resp.StatusCode)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating archive file: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return fmt.Errorf("reading download stream: %w", err)
	}
	return f.Close()
}

// StagingDirs lists leftover staging directories in storeDir, which only
// exist after an interrupted install.
func StagingDirs(storeDir string) ([]string, error) {
	return filepath.Glob(filepath.Join(storeDir, stagingPrefix+"*"))
}
