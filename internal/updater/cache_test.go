package updater

import (
	"os"
	"testing"
	"time"
)

func TestLoadCache_Missing(t *testing.T) {
	cache, err := LoadCache(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache != nil {
		t.Error("expected nil cache for missing file")
	}
}

func TestSaveAndLoadCache(t *testing.T) {
	tmp := t.TempDir()
	now := time.Now().Truncate(time.Second)
	original := &VersionCache{
		Package:        "@stencil-labs/cli",
		CurrentVersion: "1.1.0",
		LatestVersion:  "1.2.0",
		CheckedAt:      now,
	}

	if err := SaveCache(tmp, original); err != nil {
		t.Fatalf("SaveCache failed: %v", err)
	}
	loaded, err := LoadCache(tmp)
	if err != nil {
		t.Fatalf("LoadCache failed: %v", err)
	}
	if *loaded != *original {
		t.Errorf("loaded = %+v, want %+v", loaded, original)
	}

	entries, err := os.ReadDir(tmp)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}

func TestLoadCache_Corrupted(t *testing.T) {
	tmp := t.TempDir()
	if err := os.WriteFile(CachePath(tmp), []byte("not valid json{{{"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCache(tmp); err == nil {
		t.Error("expected error for corrupted cache")
	}
}

func TestVersionCache_Stale(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	fresh := &VersionCache{Package: "p", CurrentVersion: "1.0.0", CheckedAt: now.Add(-time.Hour)}

	tests := []struct {
		name  string
		cache *VersionCache
		pkg   string
		cur   string
		want  bool
	}{
		{"nil", nil, "p", "1.0.0", true},
		{"fresh", fresh, "p", "1.0.0", false},
		{"old", &VersionCache{Package: "p", CurrentVersion: "1.0.0", CheckedAt: now.Add(-25 * time.Hour)}, "p", "1.0.0", true},
		{"cli upgraded", fresh, "p", "1.1.0", true},
		{"other package", fresh, "q", "1.0.0", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cache.Stale(tt.pkg, tt.cur, now, DefaultCacheMaxAge); got != tt.want {
				t.Errorf("Stale() = %v, want %v", got, tt.want)
			}
		})
	}
}
