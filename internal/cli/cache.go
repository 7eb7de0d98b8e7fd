package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/stencil-labs/stencil/internal/installer"
	"github.com/stencil-labs/stencil/internal/pkgcache"
	"github.com/stencil-labs/stencil/internal/platform"
	"github.com/stencil-labs/stencil/internal/registry"
)

var (
	cacheListJSON bool
	cacheCleanAll bool
)

func init() {
	cacheListCmd.Flags().BoolVar(&cacheListJSON, "json", false, "Output as JSON")
	cacheCleanCmd.Flags().BoolVar(&cacheCleanAll, "all", false, "Remove every cached version, not only superseded ones")
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheCleanCmd)
	rootCmd.AddCommand(cacheCmd)
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and prune the package cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached command and template packages",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := mustApp()
		if err != nil {
			return err
		}
		rows, err := cachedPackages(a.stores())
		if err != nil {
			return err
		}
		if cacheListJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rows)
		}
		printCacheTable(cmd.OutOrStdout(), rows)
		return nil
	},
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove superseded package versions and interrupted installs",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := mustApp()
		if err != nil {
			return err
		}
		total := 0
		for _, s := range a.stores() {
			n, err := cleanStore(s.Dir, cacheCleanAll, a.logger)
			if err != nil {
				return fmt.Errorf("cleaning %s cache: %w", s.Kind, err)
			}
			total += n
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d cache entries\n", successStyle.Render("Removed"), total)
		return nil
	},
}

type store struct {
	Kind string
	Dir  string
}

// stores returns the package stores under the CLI home.
func (a *appContext) stores() []store {
	return []store{
		{Kind: "command", Dir: filepath.Join(a.cfg.DependenciesPath(), "node_modules")},
		{Kind: "template", Dir: filepath.Join(a.cfg.TemplatesPath(), "node_modules")},
	}
}

type cacheRow struct {
	Kind    string `json:"kind"`
	Name    string `json:"name"`
	Version string `json:"version"`
	Path    string `json:"path"`
	// Linked is set for the version node_modules/<name> points at.
	Linked bool `json:"linked"`
}

func cachedPackages(stores []store) ([]cacheRow, error) {
	rows := []cacheRow{}
	for _, s := range stores {
		entries, err := pkgcache.List(s.Dir)
		if err != nil {
			return nil, fmt.Errorf("listing %s cache: %w", s.Kind, err)
		}
		for _, e := range entries {
			target, _ := platform.ReadLinkTarget(filepath.Join(s.Dir, filepath.FromSlash(e.Name)))
			rows = append(rows, cacheRow{
				Kind:    s.Kind,
				Name:    e.Name,
				Version: e.Version,
				Path:    e.Path,
				Linked:  target != "" && filepath.Clean(target) == filepath.Clean(e.Path),
			})
		}
	}
	return rows, nil
}

func printCacheTable(w io.Writer, rows []cacheRow) {
	if len(rows) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("The cache is empty."))
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tNAME\tVERSION\tLINKED\tPATH")
	for _, r := range rows {
		linked := ""
		if r.Linked {
			linked = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Kind, r.Name, r.Version, linked, r.Path)
	}
	tw.Flush()
}

// cleanStore removes leftover staging directories and every cached version
// but the newest of each package, or everything when all is set. The
// node_modules link of a package is pointed at the surviving version, or
// removed with the package. It returns the number of directories removed.
func cleanStore(dir string, all bool, logger *log.Logger) (int, error) {
	removed := 0

	staging, err := installer.StagingDirs(dir)
	if err != nil {
		return 0, err
	}
	for _, s := range staging {
		logger.Debug("removing interrupted install", "dir", s)
		if err := os.RemoveAll(s); err != nil {
			return removed, err
		}
		removed++
	}

	entries, err := pkgcache.List(dir)
	if err != nil {
		return removed, err
	}
	byName := map[string][]pkgcache.Entry{}
	var names []string
	for _, e := range entries {
		if _, seen := byName[e.Name]; !seen {
			names = append(names, e.Name)
		}
		byName[e.Name] = append(byName[e.Name], e)
	}

	for _, name := range names {
		group := byName[name]
		versions := make([]string, len(group))
		for i, e := range group {
			versions[i] = e.Version
		}
		newest, _ := registry.MaxVersion(versions)
		link := filepath.Join(dir, filepath.FromSlash(name))

		var keep *pkgcache.Entry
		for i, e := range group {
			if !all && (e.Version == newest || newest == "") {
				keep = &group[i]
				continue
			}
			logger.Debug("removing cached version", "package", e.Name, "version", e.Version)
			if err := pkgcache.Remove(dir, e); err != nil {
				return removed, err
			}
			removed++
		}

		if keep == nil {
			if err := platform.RemoveLink(link); err != nil {
				logger.Warn("could not remove package link", "link", link, "err", err)
			}
			continue
		}
		if err := platform.LinkDir(keep.Path, link); err != nil {
			logger.Warn("could not relink package", "link", link, "err", err)
		}
	}
	return removed, nil
}
