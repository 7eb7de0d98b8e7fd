package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stencil-labs/stencil/internal/catalog"
)

var (
	templatesType string
	templatesJSON bool
)

func init() {
	templatesCmd.Flags().StringVar(&templatesType, "type", "", "Only show templates of this type (project or component)")
	templatesCmd.Flags().BoolVar(&templatesJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(templatesCmd)
}

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the templates in the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := mustApp()
		if err != nil {
			return err
		}
		cat, err := catalog.Load(a.cfg.CatalogFile)
		if err != nil {
			return err
		}

		templates := cat.Templates
		if templatesType != "" {
			templates = cat.ByType(templatesType)
		}

		if templatesJSON {
			if templates == nil {
				templates = []catalog.Template{}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(templates)
		}
		printTemplates(cmd.OutOrStdout(), cat.Source, templates)
		return nil
	},
}

func printTemplates(w io.Writer, source string, templates []catalog.Template) {
	if len(templates) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No templates found."))
		return
	}
	fmt.Fprintln(w, mutedStyle.Render("Catalog: "+source))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTYPE\tPACKAGE\tVERSION\tTAGS")
	for _, t := range templates {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.Name, t.Type, t.Package, t.Version, strings.Join(t.Tags, ","))
	}
	tw.Flush()
}
