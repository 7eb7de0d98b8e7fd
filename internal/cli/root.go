package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/stencil-labs/stencil/internal/branding"
	"github.com/stencil-labs/stencil/internal/config"
	"github.com/stencil-labs/stencil/internal/installer"
	"github.com/stencil-labs/stencil/internal/launcher"
	"github.com/stencil-labs/stencil/internal/logging"
	"github.com/stencil-labs/stencil/internal/registry"
	"github.com/stencil-labs/stencil/internal/runtime"
	"github.com/stencil-labs/stencil/internal/updater"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	flagDebug      bool
	flagTargetPath string
)

// updateCheckTimeout bounds the registry lookup behind the update banner.
const updateCheckTimeout = 3 * time.Second

// appContext is built once per invocation by the root pre-run hook and
// shared by every command.
type appContext struct {
	cfg      *config.Config
	logger   *log.Logger
	client   *registry.Client
	resolver *registry.Resolver
}

var app *appContext

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "d", false, "Enable debug output")
	rootCmd.PersistentFlags().StringVarP(&flagTargetPath, "target-path", "t", "", "Run command packages from this directory instead of the cache")
}

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` creates projects and components from templates published to a
package registry. Template and command packages are downloaded once into a
version-keyed cache under the CLI home and kept up to date.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		a, err := newAppContext(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		app = a

		switch cmd.Name() {
		case "version", "config", "get", "set":
			return nil
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), updateCheckTimeout)
		defer cancel()
		u := updater.New(buildVersion, a.resolver, updater.WithLogger(a.logger))
		u.CheckAndPrintBanner(ctx, cmd.ErrOrStderr(), a.cfg.CLIHome)
		return nil
	},
}

func newAppContext(stderr io.Writer) (*appContext, error) {
	cfg, err := config.Load(config.Overrides{
		TargetPath: flagTargetPath,
		Debug:      flagDebug,
	})
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDir(); err != nil {
		return nil, err
	}

	logger := logging.New(stderr, cfg.Debug)
	client := registry.NewClient(cfg.Registry, registry.WithLogger(logger))
	logger.Debug("configuration loaded", "home", cfg.CLIHome, "registry", client.BaseURL(), "target", cfg.TargetPath)

	return &appContext{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		resolver: registry.NewResolver(client),
	}, nil
}

// launcher returns a launcher wired to the registry and a Node.js runner.
func (a *appContext) launcher() *launcher.Launcher {
	return launcher.New(a.cfg,
		launcher.WithVersionSource(a.resolver),
		launcher.WithInstaller(installer.New(installer.WithLogger(a.logger))),
		launcher.WithLogger(a.logger),
		launcher.WithProgress(progress(a.logger)),
	)
}

// Execute runs the root command with build info injected via ldflags.
// Errors are rendered to stderr before being returned.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		renderError(os.Stderr, err, debugEnabled())
	}
	return err
}

// ExitCode maps an error returned by Execute to a process exit code. A
// failed subprocess passes its own code through.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var se *runtime.SubprocessError
	if errors.As(err, &se) && se.ExitCode > 0 {
		return se.ExitCode
	}
	return 1
}

func debugEnabled() bool {
	if app != nil {
		return app.cfg.Debug
	}
	return flagDebug || os.Getenv(branding.EnvVar("DEBUG")) == "true"
}

// mustApp guards commands run without the root pre-run hook.
func mustApp() (*appContext, error) {
	if app == nil {
		return nil, fmt.Errorf("%s is not initialized", branding.CLIName())
	}
	return app, nil
}
