package scaffold

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stencil-labs/stencil/internal/runtime"
)

type call struct {
	phase runtime.Phase
	line  string
	dir   string
}

type recorder struct {
	calls []call
	fail  runtime.Phase
}

func (r *recorder) run(_ context.Context, phase runtime.Phase, line, dir string) error {
	r.calls = append(r.calls, call{phase, line, dir})
	if phase == r.fail {
		return &runtime.SubprocessError{Phase: phase, Command: line, ExitCode: 1}
	}
	return nil
}

func writeTemplate(t *testing.T, files map[string]string) string {
	t.Helper()
	pkg := t.TempDir()
	for rel, body := range files {
		path := filepath.Join(pkg, TemplateDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return pkg
}

func readGenerated(t *testing.T, dir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("reading %s: %v", rel, err)
	}
	return string(data)
}

func TestGenerate(t *testing.T) {
	pkg := writeTemplate(t, map[string]string{
		"package.json":        `{"name": "<%= .ClassName %>", "version": "<%= version %>", "description": "<%= .Description %>"}`,
		"src/App.vue":         "<template><h1><%= name %></h1></template>",
		"public/index.html":   "<div><%= raw %></div>",
		"README.md":           "plain text",
		"node_modules/x/a.js": "skipped",
	})
	out := filepath.Join(t.TempDir(), "myApp")
	rec := &recorder{}

	result, err := Generate(context.Background(), Options{
		PackageDir:     pkg,
		OutputDir:      out,
		Info:           NewProjectInfo("myApp", "1.0.0", "demo app", "project"),
		Ignore:         []string{"**/public/**", "public/**"},
		InstallCommand: "npm install",
		StartCommand:   "npm run dev",
		Run:            rec.run,
	})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	if got := readGenerated(t, out, "package.json"); got != `{"name": "my-app", "version": "1.0.0", "description": "demo app"}` {
		t.Errorf("package.json = %s", got)
	}
	if got := readGenerated(t, out, "src/App.vue"); !strings.Contains(got, "<h1>myApp</h1>") {
		t.Errorf("App.vue = %s", got)
	}
	if got := readGenerated(t, out, "public/index.html"); got != "<div><%= raw %></div>" {
		t.Errorf("ignored file was rendered: %s", got)
	}
	if _, err := os.Stat(filepath.Join(out, "node_modules")); !os.IsNotExist(err) {
		t.Error("node_modules should not be copied")
	}

	if len(result.Files) != 4 {
		t.Errorf("Files = %v, want 4 entries", result.Files)
	}
	if len(result.Rendered) != 2 {
		t.Errorf("Rendered = %v, want package.json and src/App.vue", result.Rendered)
	}

	want := []call{
		{runtime.PhaseInstall, "npm install", out},
		{runtime.PhaseStart, "npm run dev", out},
	}
	if len(rec.calls) != len(want) {
		t.Fatalf("calls = %+v, want %+v", rec.calls, want)
	}
	for i := range want {
		if rec.calls[i] != want[i] {
			t.Errorf("call %d = %+v, want %+v", i, rec.calls[i], want[i])
		}
	}
}

func TestGenerate_MustachesPassThrough(t *testing.T) {
	hello := "<template>\n  <h1>{{ msg }}</h1>\n  <p>{{ count * 2 }}</p>\n</template>\n"
	pkg := writeTemplate(t, map[string]string{
		"src/components/HelloWorld.vue": hello,
		"src/App.vue":                   "<h1>{{ title }}</h1><p><%= className %></p>",
		"public/favicon.png":            "png",
	})
	out := t.TempDir()

	result, err := Generate(context.Background(), Options{
		PackageDir: pkg,
		OutputDir:  out,
		Info:       NewProjectInfo("myApp", "1.0.0", "", "project"),
		Ignore:     []string{"public/**", "*.png"},
		Run:        (&recorder{}).run,
	})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if got := readGenerated(t, out, "src/components/HelloWorld.vue"); got != hello {
		t.Errorf("HelloWorld.vue = %q, want it unchanged", got)
	}
	if got := readGenerated(t, out, "src/App.vue"); got != "<h1>{{ title }}</h1><p>my-app</p>" {
		t.Errorf("App.vue = %q", got)
	}
	if len(result.Rendered) != 1 || result.Rendered[0] != "src/App.vue" {
		t.Errorf("Rendered = %v, want [src/App.vue]", result.Rendered)
	}
}

func TestGenerate_SkipCommands(t *testing.T) {
	pkg := writeTemplate(t, map[string]string{"a.txt": "a"})
	rec := &recorder{}
	_, err := Generate(context.Background(), Options{
		PackageDir:     pkg,
		OutputDir:      t.TempDir(),
		InstallCommand: "npm install",
		StartCommand:   "npm run dev",
		SkipInstall:    true,
		SkipStart:      true,
		Run:            rec.run,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.calls) != 0 {
		t.Errorf("calls = %+v, want none", rec.calls)
	}
}

func TestGenerate_InstallFailureStopsStart(t *testing.T) {
	pkg := writeTemplate(t, map[string]string{"a.txt": "a"})
	rec := &recorder{fail: runtime.PhaseInstall}
	_, err := Generate(context.Background(), Options{
		PackageDir:     pkg,
		OutputDir:      t.TempDir(),
		InstallCommand: "npm install",
		StartCommand:   "npm run dev",
		Run:            rec.run,
	})
	var se *runtime.SubprocessError
	if !errors.As(err, &se) || se.Phase != runtime.PhaseInstall {
		t.Fatalf("Generate() error = %v, want install SubprocessError", err)
	}
	if len(rec.calls) != 1 {
		t.Errorf("start should not run after a failed install: %+v", rec.calls)
	}
}

func TestGenerate_Errors(t *testing.T) {
	t.Run("missing template dir", func(t *testing.T) {
		_, err := Generate(context.Background(), Options{PackageDir: t.TempDir(), OutputDir: t.TempDir()})
		if err == nil {
			t.Error("expected error")
		}
	})

	t.Run("bad template syntax", func(t *testing.T) {
		pkg := writeTemplate(t, map[string]string{"a.txt": "<%= .Name "})
		_, err := Generate(context.Background(), Options{PackageDir: pkg, OutputDir: t.TempDir(), Run: (&recorder{}).run})
		if err == nil || !strings.Contains(err.Error(), "a.txt") {
			t.Errorf("error = %v, want a parse error naming a.txt", err)
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		pkg := writeTemplate(t, map[string]string{"a.txt": "<%= .Author %>"})
		_, err := Generate(context.Background(), Options{PackageDir: pkg, OutputDir: t.TempDir(), Run: (&recorder{}).run})
		if err == nil {
			t.Error("expected render error")
		}
	})

	t.Run("bad ignore pattern", func(t *testing.T) {
		pkg := writeTemplate(t, map[string]string{"a.txt": "a"})
		_, err := Generate(context.Background(), Options{PackageDir: pkg, OutputDir: t.TempDir(), Ignore: []string{"[unclosed"}})
		if err == nil {
			t.Error("expected pattern error")
		}
	})
}

func TestKebabCase(t *testing.T) {
	tests := map[string]string{
		"myApp":      "my-app",
		"MyApp":      "my-app",
		"my_app":     "my-app",
		"vue-admin2": "vue-admin2",
		"ABC":        "abc",
		"app2Go":     "app2-go",
		"a":          "a",
	}
	for in, want := range tests {
		if got := kebabCase(in); got != want {
			t.Errorf("kebabCase(%q) = %q, want %q", in, got, want)
		}
	}
}
