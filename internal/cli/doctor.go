package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/stencil-labs/stencil/internal/branding"
	"github.com/stencil-labs/stencil/internal/catalog"
	"github.com/stencil-labs/stencil/internal/installer"
	"github.com/stencil-labs/stencil/internal/runtime"
)

var (
	checkRuntime  bool
	checkHome     bool
	checkRegistry bool
	checkCache    bool
	checkCatalog  string
)

const registryCheckTimeout = 10 * time.Second

func init() {
	doctorCmd.Flags().BoolVar(&checkRuntime, "check-runtime", false, "Verify Node.js and npm are available")
	doctorCmd.Flags().BoolVar(&checkHome, "check-home", false, "Verify the CLI home directory")
	doctorCmd.Flags().BoolVar(&checkRegistry, "check-registry", false, "Verify the registry is reachable")
	doctorCmd.Flags().BoolVar(&checkCache, "check-cache", false, "Look for interrupted installs in the cache")
	doctorCmd.Flags().StringVar(&checkCatalog, "check-catalog", "", "Validate a template catalog file at the given path")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Health check for the " + branding.DisplayName() + " installation",
	Long:  `Run diagnostic checks on the CLI home, the package cache and the environment.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := mustApp()
		if err != nil {
			return err
		}
		r := &doctorReport{w: cmd.OutOrStdout()}

		all := !checkRuntime && !checkHome && !checkRegistry && !checkCache && checkCatalog == ""
		if all || checkRuntime {
			runRuntimeCheck(cmd.Context(), r, a.cfg.NodeMinVersion)
		}
		if all || checkHome {
			runHomeCheck(r, a.cfg.CLIHome)
		}
		if all || checkRegistry {
			runRegistryCheck(cmd.Context(), r, a)
		}
		if all || checkCache {
			runCacheCheck(r, a.stores())
		}
		if all || checkCatalog != "" {
			path := checkCatalog
			if path == "" {
				path = a.cfg.CatalogFile
			}
			runCatalogCheck(r, path)
		}

		if r.failed > 0 {
			return fmt.Errorf("%d check(s) failed", r.failed)
		}
		return nil
	},
}

// doctorReport prints check results and counts failures.
type doctorReport struct {
	w      io.Writer
	failed int
}

func (r *doctorReport) section(title string) {
	fmt.Fprintln(r.w, titleStyle.Render(title))
}

func (r *doctorReport) ok(format string, args ...any) {
	fmt.Fprintf(r.w, "  %s %s\n", successStyle.Render("[ OK ]"), fmt.Sprintf(format, args...))
}

func (r *doctorReport) warn(format string, args ...any) {
	fmt.Fprintf(r.w, "  %s %s\n", warningStyle.Render("[WARN]"), fmt.Sprintf(format, args...))
}

func (r *doctorReport) fail(format string, args ...any) {
	r.failed++
	fmt.Fprintf(r.w, "  %s %s\n", errorStyle.Render("[FAIL]"), fmt.Sprintf(format, args...))
}

func runRuntimeCheck(ctx context.Context, r *doctorReport, minNode string) {
	r.section("Runtime check:")
	version, err := runtime.CheckNodeVersion(ctx, minNode)
	switch {
	case errors.Is(err, runtime.ErrNodeTooOld):
		r.fail("%v", err)
	case err != nil:
		r.fail("node: %v", err)
	default:
		r.ok("node v%s", version)
	}

	if path, err := exec.LookPath("npm"); err != nil {
		r.warn("npm not found; template install commands may fail")
	} else {
		r.ok("npm found at %s", path)
	}
}

func runHomeCheck(r *doctorReport, cliHome string) {
	r.section("Home check:")
	if os.Geteuid() == 0 {
		r.warn("running as root; cached packages will be owned by root")
	}

	info, err := os.Stat(cliHome)
	if err != nil || !info.IsDir() {
		r.fail("CLI home %s does not exist", cliHome)
		return
	}
	probe, err := os.CreateTemp(cliHome, ".doctor-*")
	if err != nil {
		r.fail("CLI home %s is not writable: %v", cliHome, err)
		return
	}
	probe.Close()
	os.Remove(probe.Name())
	r.ok("CLI home %s", cliHome)
}

func runRegistryCheck(ctx context.Context, r *doctorReport, a *appContext) {
	r.section("Registry check:")
	ctx, cancel := context.WithTimeout(ctx, registryCheckTimeout)
	defer cancel()

	start := time.Now()
	meta, err := a.client.Metadata(ctx, branding.CLIPackage())
	if err != nil {
		r.fail("%s: %v", a.client.BaseURL(), err)
		return
	}
	r.ok("%s answered in %s (%d versions of %s)",
		a.client.BaseURL(), time.Since(start).Round(time.Millisecond), len(meta.Versions), branding.CLIPackage())
}

func runCacheCheck(r *doctorReport, stores []store) {
	r.section("Cache check:")
	for _, s := range stores {
		staging, err := installer.StagingDirs(s.Dir)
		if err != nil {
			r.fail("%s cache: %v", s.Kind, err)
			continue
		}
		if len(staging) > 0 {
			r.warn("%s cache has %d interrupted install(s); run `%s cache clean`", s.Kind, len(staging), branding.CLIName())
			continue
		}
		rows, err := cachedPackages([]store{s})
		if err != nil {
			r.fail("%v", err)
			continue
		}
		r.ok("%s cache: %d package version(s) in %s", s.Kind, len(rows), s.Dir)
	}
}

func runCatalogCheck(r *doctorReport, path string) {
	r.section("Catalog check:")
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		r.ok("no catalog at %s; using the built-in catalog", filepath.Clean(path))
		return
	}

	cat, err := catalog.Load(path)
	var invalid *catalog.InvalidError
	switch {
	case errors.As(err, &invalid):
		r.fail("%d validation issue(s) in %s:", len(invalid.Issues), path)
		for _, issue := range invalid.Issues {
			if issue.Path != "" {
				fmt.Fprintf(r.w, "    - %s: %s\n", issue.Path, issue.Message)
			} else {
				fmt.Fprintf(r.w, "    - %s\n", issue.Message)
			}
		}
	case err != nil:
		r.fail("%v", err)
	default:
		r.ok("%s: %d template(s)", cat.Source, len(cat.Templates))
	}
}
