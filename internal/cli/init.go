package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/stencil-labs/stencil/internal/branding"
	"github.com/stencil-labs/stencil/internal/catalog"
	"github.com/stencil-labs/stencil/internal/launcher"
	"github.com/stencil-labs/stencil/internal/pkgcache"
	"github.com/stencil-labs/stencil/internal/runtime"
	"github.com/stencil-labs/stencil/internal/scaffold"
)

var (
	initForce       bool
	initType        string
	initTemplate    string
	initVersion     string
	initDescription string
	initSkipInstall bool
	initSkipStart   bool
)

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Empty a non-empty project directory first")
	initCmd.Flags().StringVar(&initType, "type", catalog.TypeProject, "Template type: project or component")
	initCmd.Flags().StringVar(&initTemplate, "template", "", "Template package or name from the catalog")
	initCmd.Flags().StringVar(&initVersion, "version", "1.0.0", "Initial version of the new project")
	initCmd.Flags().StringVar(&initDescription, "description", "", "Project description")
	initCmd.Flags().BoolVar(&initSkipInstall, "skip-install", false, "Do not install dependencies")
	initCmd.Flags().BoolVar(&initSkipStart, "skip-start", false, "Do not run the start command")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init [projectName]",
	Short: "Create a project or component from a template",
	Long: `Create a new project or component in ./<projectName> from a template in the catalog.

The template package is downloaded into the template cache, its template/
directory is copied and rendered, and the template's install and start
commands are run in the new directory.

When the init command is mapped to a package (config key commands.init, or
--target-path), that package runs instead and receives the arguments and
options.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := mustApp()
		if err != nil {
			return err
		}
		l := a.launcher()
		if l.Handles("init") {
			return l.Run(cmd.Context(), launcher.Invocation{
				Command: "init",
				Args:    args,
				Options: invocationOptions(cmd),
			})
		}

		if len(args) == 0 {
			return errors.New("a project name is required")
		}
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolving working directory: %w", err)
		}
		res, err := runInit(cmd.Context(), a, l, runtime.RunCommandLine, initRequest{
			Name:        args[0],
			Dir:         cwd,
			Type:        initType,
			Template:    initTemplate,
			Version:     initVersion,
			Description: initDescription,
			Force:       initForce,
			SkipInstall: initSkipInstall,
			SkipStart:   initSkipStart,
		})
		if err != nil {
			return err
		}
		printInitResult(cmd.OutOrStdout(), args[0], res)
		return nil
	},
}

// templateEnsurer makes a template package available in the cache.
type templateEnsurer interface {
	Ensure(ctx context.Context, root, name, version string) (*pkgcache.Package, error)
}

type initRequest struct {
	Name        string
	Dir         string // parent of the project directory
	Type        string
	Template    string
	Version     string
	Description string
	Force       bool
	SkipInstall bool
	SkipStart   bool
}

func runInit(ctx context.Context, a *appContext, ensurer templateEnsurer, run scaffold.CommandRunner, req initRequest) (*scaffold.Result, error) {
	if err := scaffold.ValidateProjectName(req.Name); err != nil {
		return nil, err
	}
	version, err := scaffold.ValidateVersion(req.Version)
	if err != nil {
		return nil, err
	}

	out := filepath.Join(req.Dir, req.Name)
	empty, err := scaffold.IsDirEmpty(out)
	if err != nil {
		return nil, err
	}
	if !empty && !req.Force {
		return nil, fmt.Errorf("directory %s is not empty; use --force to overwrite it", out)
	}

	cat, err := catalog.Load(a.cfg.CatalogFile)
	if err != nil {
		return nil, err
	}
	tmpl, err := selectTemplate(cat, req.Type, req.Template, a.logger)
	if err != nil {
		return nil, err
	}

	pkg, err := ensurer.Ensure(ctx, a.cfg.TemplatesPath(), tmpl.Package, tmpl.Version)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("template ready", "package", tmpl.Package, "version", pkg.Version(), "dir", pkg.Dir())

	// Only empty the directory once there is a template to put in it.
	if !empty {
		a.logger.Warn("emptying project directory", "dir", out)
		if err := scaffold.EmptyDir(out); err != nil {
			return nil, err
		}
	}

	return scaffold.Generate(ctx, scaffold.Options{
		PackageDir:     pkg.Dir(),
		OutputDir:      out,
		Info:           scaffold.NewProjectInfo(req.Name, version, req.Description, tmpl.Type),
		Ignore:         tmpl.Ignore,
		InstallCommand: tmpl.InstallCommand,
		StartCommand:   tmpl.StartCommand,
		SkipInstall:    req.SkipInstall,
		SkipStart:      req.SkipStart,
		Run:            run,
		Logger:         a.logger,
	})
}

// selectTemplate picks a catalog template by key, or the first template of
// the requested type.
func selectTemplate(cat *catalog.Catalog, typ, key string, logger *log.Logger) (*catalog.Template, error) {
	if key != "" {
		t, ok := cat.Find(key)
		if !ok {
			return nil, fmt.Errorf("template %q not found in catalog %s", key, cat.Source)
		}
		return t, nil
	}

	if typ != catalog.TypeProject && typ != catalog.TypeComponent {
		return nil, fmt.Errorf("unknown template type %q (want %s or %s)", typ, catalog.TypeProject, catalog.TypeComponent)
	}
	candidates := cat.ByType(typ)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no %s templates in catalog %s", typ, cat.Source)
	}
	if len(candidates) > 1 {
		logger.Info("using the first matching template; pick another with --template",
			"template", candidates[0].Name,
			"see", branding.CLIName()+" templates")
	}
	return &candidates[0], nil
}

func printInitResult(w io.Writer, name string, res *scaffold.Result) {
	fmt.Fprintf(w, "%s %s in %s (%d files, %d rendered)\n",
		successStyle.Render("Created"), titleStyle.Render(name), res.OutputDir, len(res.Files), len(res.Rendered))
}

// invocationOptions collects the command's flags, local and inherited, as
// camelCase keys with typed values.
func invocationOptions(cmd *cobra.Command) map[string]any {
	opts := map[string]any{}
	collect := func(f *pflag.Flag) {
		if f.Name == "help" {
			return
		}
		key := camelCase(f.Name)
		switch f.Value.Type() {
		case "bool":
			b, _ := strconv.ParseBool(f.Value.String())
			opts[key] = b
		default:
			opts[key] = f.Value.String()
		}
	}
	cmd.InheritedFlags().VisitAll(collect)
	cmd.LocalFlags().VisitAll(collect)
	return opts
}

func camelCase(name string) string {
	parts := strings.Split(name, "-")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}
