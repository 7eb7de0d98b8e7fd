package pkgcache

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestCacheKey(t *testing.T) {
	tests := []struct {
		name    string
		pkg     string
		version string
		want    string
	}{
		{"scoped", "@acme/init", "1.1.3", "_@acme_init@1.1.3@@acme/init"},
		{"unscoped", "left-pad", "1.0.0", "_left-pad@1.0.0@left-pad"},
		{"prerelease", "@acme/init", "2.0.0-beta.1", "_@acme_init@2.0.0-beta.1@@acme/init"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CacheKey(tt.pkg, tt.version); got != tt.want {
				t.Errorf("CacheKey(%q, %q) = %q, want %q", tt.pkg, tt.version, got, tt.want)
			}
		})
	}
}

func TestCachePath_Deterministic(t *testing.T) {
	store := t.TempDir()
	a := CachePath(store, "@acme/init", "1.0.0")
	b := CachePath(store, "@acme/init", "1.0.0")
	if a != b {
		t.Errorf("CachePath not deterministic: %q vs %q", a, b)
	}
	if !filepath.IsAbs(a) {
		t.Errorf("CachePath() = %q, want absolute", a)
	}
}

func TestCachePath_DistinctPerVersion(t *testing.T) {
	store := t.TempDir()
	versions := []string{"0.9.0", "1.0.0", "1.0.1", "1.10.0", "2.0.0-beta", "2.0.0"}
	seen := map[string]string{}
	for _, v := range versions {
		p := CachePath(store, "@acme/init", v)
		if prev, ok := seen[p]; ok {
			t.Errorf("versions %s and %s share cache path %s", prev, v, p)
		}
		seen[p] = v
	}
}

func TestCachePath_RelativeStoreIsMadeAbsolute(t *testing.T) {
	got := CachePath("store", "left-pad", "1.0.0")
	if !filepath.IsAbs(got) {
		t.Errorf("CachePath() = %q, want absolute", got)
	}
	if filepath.Base(got) != "_left-pad@1.0.0@left-pad" {
		t.Errorf("base = %q", filepath.Base(got))
	}
}

func TestOpError(t *testing.T) {
	cause := errors.New("boom")
	err := &OpError{Op: "pkgcache.install", Kind: KindInstall, Package: "@acme/init", Err: cause}

	want := "pkgcache.install: install (package=@acme/init): boom"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should see the cause")
	}
	if KindOf(err) != KindInstall {
		t.Errorf("KindOf() = %q, want %q", KindOf(err), KindInstall)
	}
	if IsKind(cause, KindInstall) || KindOf(cause) != "" {
		t.Error("plain errors have no kind")
	}

	var nilErr *OpError
	if nilErr.Error() != "<nil>" || nilErr.Unwrap() != nil {
		t.Error("nil OpError should be safe")
	}
}
