package pkgcache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeSource returns a fixed latest version, or fails when version is "".
type fakeSource struct {
	version string
	calls   int
}

func (f *fakeSource) Latest(_ context.Context, _ string) (string, bool) {
	f.calls++
	if f.version == "" {
		return "", false
	}
	return f.version, true
}

// fakeInstaller records requests and creates the cache directories it is
// asked for, writing a package.json with the given main field.
type fakeInstaller struct {
	requests []InstallRequest
	main     string
	err      error
}

func (f *fakeInstaller) Install(_ context.Context, req InstallRequest) error {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return f.err
	}
	for _, spec := range req.Pkgs {
		dir := CachePath(req.StoreDir, spec.Name, spec.Version)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		body := `{"name":"` + spec.Name + `","version":"` + spec.Version + `","main":"` + f.main + `"}`
		if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte(body), 0644); err != nil {
			return err
		}
	}
	return nil
}

func newCached(t *testing.T, src *fakeSource, inst *fakeInstaller, version string) (*Package, string) {
	t.Helper()
	target := filepath.Join(t.TempDir(), "dependencies")
	store := filepath.Join(target, "node_modules")
	p, err := New(Request{TargetPath: target, StoreDir: store, Name: "@acme/init", Version: version},
		WithVersionSource(src), WithInstaller(inst), WithRegistry("https://registry.example.com/"))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return p, store
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Request{TargetPath: "/tmp/x"})
	if !IsKind(err, KindConfig) {
		t.Errorf("empty name: err = %v, want KindConfig", err)
	}

	_, err = New(Request{Name: "@acme/init"})
	if !IsKind(err, KindConfig) {
		t.Errorf("no paths: err = %v, want KindConfig", err)
	}

	p, err := New(Request{TargetPath: "/tmp/x", Name: "@acme/init"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if p.Version() != LatestVersion {
		t.Errorf("Version() = %q, want %q", p.Version(), LatestVersion)
	}
	if p.Cached() {
		t.Error("package without store dir should be in direct mode")
	}
}

func TestPrepare_CreatesStoreAndResolves(t *testing.T) {
	src := &fakeSource{version: "1.2.0"}
	p, store := newCached(t, src, &fakeInstaller{}, LatestVersion)

	if err := p.Prepare(context.Background()); err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	if _, err := os.Stat(store); err != nil {
		t.Errorf("store dir not created: %v", err)
	}
	if p.Version() != "1.2.0" {
		t.Errorf("Version() = %q, want %q", p.Version(), "1.2.0")
	}

	// A concrete version is not re-resolved.
	if err := p.Prepare(context.Background()); err != nil {
		t.Fatalf("second Prepare() error: %v", err)
	}
	if src.calls != 1 {
		t.Errorf("source called %d times, want 1", src.calls)
	}
}

func TestExists_CachedResolvesLatestFirst(t *testing.T) {
	src := &fakeSource{version: "2.0.0"}
	p, store := newCached(t, src, &fakeInstaller{}, LatestVersion)

	ok, err := p.Exists(context.Background())
	if err != nil {
		t.Fatalf("Exists() error: %v", err)
	}
	if ok {
		t.Error("Exists() = true before install")
	}
	want := CachePath(store, "@acme/init", "2.0.0")
	if p.CacheFilePath() != want {
		t.Errorf("CacheFilePath() = %q, want %q", p.CacheFilePath(), want)
	}

	if err := os.MkdirAll(want, 0755); err != nil {
		t.Fatal(err)
	}
	first, _ := p.Exists(context.Background())
	second, _ := p.Exists(context.Background())
	if !first || !second {
		t.Errorf("Exists() = %v then %v, want true twice", first, second)
	}
}

func TestExists_DirectModeSkipsResolution(t *testing.T) {
	src := &fakeSource{version: "1.0.0"}
	target := t.TempDir()
	p, err := New(Request{TargetPath: target, Name: "@acme/init"}, WithVersionSource(src))
	if err != nil {
		t.Fatal(err)
	}

	ok, err := p.Exists(context.Background())
	if err != nil || !ok {
		t.Errorf("Exists() = (%v, %v), want (true, nil)", ok, err)
	}
	if src.calls != 0 {
		t.Errorf("direct mode consulted the registry %d times", src.calls)
	}
	if p.Version() != LatestVersion {
		t.Errorf("Version() = %q, want unchanged %q", p.Version(), LatestVersion)
	}
}

func TestExists_ResolutionFailure(t *testing.T) {
	src := &fakeSource{}
	p, _ := newCached(t, src, &fakeInstaller{}, LatestVersion)

	ok, err := p.Exists(context.Background())
	if ok {
		t.Error("Exists() = true on resolution failure")
	}
	if !IsKind(err, KindResolution) || !errors.Is(err, ErrNotResolved) {
		t.Errorf("err = %v, want KindResolution wrapping ErrNotResolved", err)
	}
	if p.Version() != LatestVersion {
		t.Errorf("Version() = %q after a failed resolution, want %q", p.Version(), LatestVersion)
	}

	src.version = "1.4.0"
	if _, err := p.Exists(context.Background()); err != nil {
		t.Fatalf("Exists() after the registry recovers: %v", err)
	}
	if p.Version() != "1.4.0" || src.calls != 2 {
		t.Errorf("Version() = %q after %d lookups, want 1.4.0 after 2", p.Version(), src.calls)
	}
}

func TestInstall(t *testing.T) {
	inst := &fakeInstaller{main: "lib/index.js"}
	p, store := newCached(t, &fakeSource{version: "1.1.0"}, inst, LatestVersion)

	var started, stopped int
	var stopErr error
	WithProgress(func(msg string) func(error) {
		started++
		if !strings.Contains(msg, "@acme/init@1.1.0") {
			t.Errorf("progress message = %q", msg)
		}
		return func(err error) { stopped++; stopErr = err }
	})(p)

	if err := p.Install(context.Background()); err != nil {
		t.Fatalf("Install() error: %v", err)
	}
	if len(inst.requests) != 1 {
		t.Fatalf("installer called %d times, want 1", len(inst.requests))
	}
	req := inst.requests[0]
	if req.StoreDir != store || req.Registry != "https://registry.example.com/" {
		t.Errorf("request = %+v", req)
	}
	if req.Pkgs[0] != (Spec{Name: "@acme/init", Version: "1.1.0"}) {
		t.Errorf("spec = %+v, want pinned to 1.1.0", req.Pkgs[0])
	}
	if started != 1 || stopped != 1 || stopErr != nil {
		t.Errorf("progress started=%d stopped=%d err=%v", started, stopped, stopErr)
	}

	ok, err := p.Exists(context.Background())
	if err != nil || !ok {
		t.Errorf("Exists() after install = (%v, %v)", ok, err)
	}
}

func TestInstall_InstallerFailureStopsProgress(t *testing.T) {
	boom := errors.New("tarball download failed")
	p, _ := newCached(t, &fakeSource{version: "1.1.0"}, &fakeInstaller{err: boom}, LatestVersion)

	var stopErr error
	stopped := false
	WithProgress(func(string) func(error) {
		return func(err error) { stopped = true; stopErr = err }
	})(p)

	err := p.Install(context.Background())
	if !IsKind(err, KindInstall) || !errors.Is(err, boom) {
		t.Fatalf("Install() err = %v, want KindInstall wrapping cause", err)
	}
	if !stopped || !errors.Is(stopErr, boom) {
		t.Errorf("progress not stopped with the error: stopped=%v err=%v", stopped, stopErr)
	}
}

func TestInstall_ResolutionFailure(t *testing.T) {
	inst := &fakeInstaller{}
	p, _ := newCached(t, &fakeSource{}, inst, LatestVersion)

	err := p.Install(context.Background())
	if !errors.Is(err, ErrNotResolved) {
		t.Errorf("Install() err = %v, want ErrNotResolved", err)
	}
	if len(inst.requests) != 0 {
		t.Error("installer must not run without a resolved version")
	}
}

func TestUpdate_InstallsMissingLatest(t *testing.T) {
	inst := &fakeInstaller{}
	p, store := newCached(t, &fakeSource{version: "1.3.0"}, inst, "1.0.0")

	if err := p.Update(context.Background()); err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if len(inst.requests) != 1 || inst.requests[0].Pkgs[0].Version != "1.3.0" {
		t.Fatalf("requests = %+v, want one install of 1.3.0", inst.requests)
	}
	if p.Version() != "1.3.0" {
		t.Errorf("Version() = %q, want %q", p.Version(), "1.3.0")
	}
	if _, err := os.Stat(CachePath(store, "@acme/init", "1.3.0")); err != nil {
		t.Errorf("latest cache dir missing: %v", err)
	}
}

func TestUpdate_LatestAlreadyCachedSkipsInstaller(t *testing.T) {
	inst := &fakeInstaller{}
	p, store := newCached(t, &fakeSource{version: "1.3.0"}, inst, "1.0.0")
	if err := os.MkdirAll(CachePath(store, "@acme/init", "1.3.0"), 0755); err != nil {
		t.Fatal(err)
	}

	if err := p.Update(context.Background()); err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if len(inst.requests) != 0 {
		t.Errorf("installer called %d times, want 0", len(inst.requests))
	}
	if p.Version() != "1.3.0" {
		t.Errorf("Version() = %q, want %q", p.Version(), "1.3.0")
	}
}

// Update always moves to the absolute latest version, even when that is
// below the version currently held. This mirrors the documented behavior.
func TestUpdate_JumpsToAbsoluteLatestEvenIfLower(t *testing.T) {
	inst := &fakeInstaller{}
	p, _ := newCached(t, &fakeSource{version: "1.0.0"}, inst, "2.0.0")

	if err := p.Update(context.Background()); err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if p.Version() != "1.0.0" {
		t.Errorf("Version() = %q, want %q", p.Version(), "1.0.0")
	}
	if len(inst.requests) != 1 {
		t.Errorf("installer called %d times, want 1", len(inst.requests))
	}
}

func TestUpdate_Failures(t *testing.T) {
	boom := errors.New("registry unavailable")
	p, _ := newCached(t, &fakeSource{version: "1.3.0"}, &fakeInstaller{err: boom}, "1.0.0")
	err := p.Update(context.Background())
	if !IsKind(err, KindUpdate) || !errors.Is(err, boom) {
		t.Errorf("Update() err = %v, want KindUpdate", err)
	}
	if p.Version() != "1.0.0" {
		t.Errorf("Version() changed to %q after failed update", p.Version())
	}

	p, _ = newCached(t, &fakeSource{}, &fakeInstaller{}, "1.0.0")
	if err := p.Update(context.Background()); !IsKind(err, KindResolution) {
		t.Errorf("Update() err = %v, want KindResolution", err)
	}

	direct, _ := New(Request{TargetPath: t.TempDir(), Name: "@acme/init"})
	if err := direct.Update(context.Background()); !IsKind(err, KindConfig) {
		t.Errorf("direct Update() err = %v, want KindConfig", err)
	}
}

func TestRootFilePath(t *testing.T) {
	inst := &fakeInstaller{main: "lib/index.js"}
	p, store := newCached(t, &fakeSource{version: "1.0.0"}, inst, LatestVersion)
	if err := p.Install(context.Background()); err != nil {
		t.Fatal(err)
	}

	got, err := p.RootFilePath()
	if err != nil {
		t.Fatalf("RootFilePath() error: %v", err)
	}
	want := filepath.ToSlash(filepath.Join(CachePath(store, "@acme/init", "1.0.0"), "lib", "index.js"))
	if got != want {
		t.Errorf("RootFilePath() = %q, want %q", got, want)
	}
	if strings.Contains(got, `\`) {
		t.Errorf("RootFilePath() contains backslashes: %q", got)
	}
}

func TestRootFilePath_DirectModeNoManifest(t *testing.T) {
	// Nested inside a fresh temp dir so no ancestor holds a package.json.
	target := filepath.Join(t.TempDir(), "a", "b")
	if err := os.MkdirAll(target, 0755); err != nil {
		t.Fatal(err)
	}
	p, _ := New(Request{TargetPath: target, Name: "@acme/init"})

	got, err := p.RootFilePath()
	if err != nil {
		t.Fatalf("RootFilePath() error: %v", err)
	}
	if got != "" {
		t.Errorf("RootFilePath() = %q, want empty", got)
	}
}
