package registry

import (
	"context"
	"sort"

	"github.com/Masterminds/semver/v3"
)

// MetadataSource provides package metadata. Implementations return nil
// when the package cannot be looked up.
type MetadataSource interface {
	FetchMetadata(ctx context.Context, name string) *Metadata
}

// Resolver turns a registry's version list into concrete versions.
type Resolver struct {
	source MetadataSource
}

// NewResolver returns a Resolver backed by src.
func NewResolver(src MetadataSource) *Resolver {
	return &Resolver{source: src}
}

// Versions returns every published version of name, in no particular order.
// It returns an empty slice when the registry has no data for the package.
func (r *Resolver) Versions(ctx context.Context, name string) []string {
	meta := r.source.FetchMetadata(ctx, name)
	if meta == nil {
		return []string{}
	}
	versions := make([]string, 0, len(meta.Versions))
	for v := range meta.Versions {
		versions = append(versions, v)
	}
	return versions
}

// Latest returns the highest published version of name.
// The boolean is false when no version can be resolved.
func (r *Resolver) Latest(ctx context.Context, name string) (string, bool) {
	return MaxVersion(r.Versions(ctx, name))
}

// HigherThan returns the newest published version of name that is strictly
// greater than current. The boolean is false when none qualifies.
func (r *Resolver) HigherThan(ctx context.Context, current, name string) (string, bool) {
	higher := HigherVersions(current, r.Versions(ctx, name))
	if len(higher) == 0 {
		return "", false
	}
	return higher[len(higher)-1], true
}

// SortVersions returns the valid semantic versions in ascending order.
// Strings that do not parse are dropped.
func SortVersions(versions []string) []string {
	type parsed struct {
		raw string
		v   *semver.Version
	}
	ps := make([]parsed, 0, len(versions))
	for _, raw := range versions {
		v, err := semver.StrictNewVersion(raw)
		if err != nil {
			continue
		}
		ps = append(ps, parsed{raw: raw, v: v})
	}
	sort.SliceStable(ps, func(i, j int) bool {
		return ps[i].v.LessThan(ps[j].v)
	})

	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.raw
	}
	return out
}

// MaxVersion returns the highest valid semantic version in versions.
func MaxVersion(versions []string) (string, bool) {
	sorted := SortVersions(versions)
	if len(sorted) == 0 {
		return "", false
	}
	return sorted[len(sorted)-1], true
}

// HigherVersions returns, ascending, the versions strictly greater than
// current. It returns nil when current is not a valid version.
func HigherVersions(current string, versions []string) []string {
	cv, err := semver.NewVersion(current)
	if err != nil {
		return nil
	}
	var out []string
	for _, raw := range SortVersions(versions) {
		if semver.MustParse(raw).GreaterThan(cv) {
			out = append(out, raw)
		}
	}
	return out
}
