package updater

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// IsNewer reports whether candidate is a higher version than current.
// A leading "v" is tolerated on both.
func IsNewer(current, candidate string) (bool, error) {
	cv, err := parseSemver(current)
	if err != nil {
		return false, fmt.Errorf("parsing current version %q: %w", current, err)
	}
	nv, err := parseSemver(candidate)
	if err != nil {
		return false, fmt.Errorf("parsing candidate version %q: %w", candidate, err)
	}
	return nv.GreaterThan(cv), nil
}

func parseSemver(version string) (*semver.Version, error) {
	return semver.NewVersion(strings.TrimPrefix(version, "v"))
}
