package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/stencil-labs/stencil/internal/branding"
	"github.com/stencil-labs/stencil/internal/pkgcache"
)

// renderError prints err as a single styled line. In debug mode the error
// kind and every wrapped error, with its type, follow.
func renderError(w io.Writer, err error, debug bool) {
	if err == nil {
		return
	}
	fmt.Fprintf(w, "%s %s\n", errorStyle.Render("Error:"), err)
	if !debug {
		fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("Run with --debug for details, or set %s=true.", branding.EnvVar("DEBUG"))))
		return
	}

	if kind := pkgcache.KindOf(err); kind != "" {
		fmt.Fprintf(w, "  %s %s\n", mutedStyle.Render("kind:"), kind)
	}
	fmt.Fprintln(w, mutedStyle.Render("  chain:"))
	for depth, e := 0, err; e != nil; depth, e = depth+1, errors.Unwrap(e) {
		fmt.Fprintf(w, "    %d. %s %v\n", depth, cmdStyle.Render(fmt.Sprintf("%T", e)), e)
	}
}
