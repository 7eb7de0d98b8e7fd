package updater

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	bannerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	commandStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

// Latest returns the newest release above the running version, consulting
// the cache in dir and refreshing it from the registry when stale. It
// returns "" when the CLI is current or nothing could be learned.
func (u *Updater) Latest(ctx context.Context, dir string) string {
	cache, err := LoadCache(dir)
	if err != nil {
		u.logger.Debug("ignoring unreadable version cache", "err", err)
		cache = nil
	}
	if !cache.Stale(u.pkg, u.currentVersion, u.now(), u.maxAge) {
		return u.validate(cache.LatestVersion)
	}

	latest, ok := u.source.HigherThan(ctx, u.currentVersion, u.pkg)
	if !ok {
		latest = ""
	}
	if ctx.Err() != nil {
		// An interrupted lookup says nothing; try again next run.
		return ""
	}

	fresh := &VersionCache{
		Package:        u.pkg,
		CurrentVersion: u.currentVersion,
		LatestVersion:  latest,
		CheckedAt:      u.now(),
	}
	if err := SaveCache(dir, fresh); err != nil {
		u.logger.Debug("could not save version cache", "err", err)
	}
	return u.validate(latest)
}

func (u *Updater) validate(latest string) string {
	if latest == "" {
		return ""
	}
	newer, err := IsNewer(u.currentVersion, latest)
	if err != nil || !newer {
		return ""
	}
	return latest
}

// CheckAndPrintBanner prints an update banner to w when a newer release is
// known. Development builds ("dev" or any non-semver version) are skipped.
func (u *Updater) CheckAndPrintBanner(ctx context.Context, w io.Writer, dir string) {
	if _, err := parseSemver(u.currentVersion); err != nil {
		return
	}
	if latest := u.Latest(ctx, dir); latest != "" {
		PrintUpdateBanner(w, u.pkg, u.currentVersion, latest)
	}
}

// PrintUpdateBanner prints the update notification to w.
func PrintUpdateBanner(w io.Writer, pkg, current, latest string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, bannerStyle.Render(fmt.Sprintf("Update available: %s -> %s", current, latest)))
	fmt.Fprintf(w, "    Run %s to upgrade\n\n", commandStyle.Render("npm install -g "+pkg))
}
