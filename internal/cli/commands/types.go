package commands

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/wirequery/internal/cli/ui"
	"github.com/conduit-lang/wirequery/internal/query/schema"
	"github.com/conduit-lang/wirequery/internal/web/api"
)

func newTypesCommand(global *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "types [name]",
		Short: "List the entity types in the schema",
		Long: `List the entity types declared in the schema file, or show the
properties of one type. Inherited properties are included.`,
		Example: `  # List all types
  wirequery types

  # Show one type
  wirequery types Model.Product --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "table" && format != "json" {
				return fmt.Errorf("unknown format %q", format)
			}
			_, reg, err := global.load(cmd)
			if err != nil {
				return err
			}

			var types []*schema.Type
			if len(args) == 1 {
				t, ok := reg.Lookup(args[0])
				if !ok || t.Kind() != schema.KindComplex {
					fmt.Fprintln(cmd.ErrOrStderr(), ui.TypeNotFoundError(args[0], suggestTypes(reg, args[0]), global.noColor))
					return errReported
				}
				types = append(types, t)
			} else {
				types = reg.Types()
				sort.Slice(types, func(i, j int) bool { return types[i].Name() < types[j].Name() })
			}

			described := make([]api.TypeResponse, 0, len(types))
			for _, t := range types {
				described = append(described, api.Describe(t))
			}

			if format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if len(args) == 1 {
					return enc.Encode(described[0])
				}
				return enc.Encode(described)
			}

			printTypes(cmd, described, global.noColor)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: json or table")
	return cmd
}

func printTypes(cmd *cobra.Command, types []api.TypeResponse, noColor bool) {
	w := cmd.OutOrStdout()
	nameColor := color.New(color.FgCyan, color.Bold)
	dim := color.New(color.Faint)
	if noColor {
		nameColor.DisableColor()
		dim.DisableColor()
	}

	for i, t := range types {
		if i > 0 {
			fmt.Fprintln(w)
		}
		nameColor.Fprint(w, t.Name)
		if t.Base != "" {
			dim.Fprintf(w, " : %s", t.Base)
		}
		fmt.Fprintln(w)

		table := ui.NewTable(w, []string{"Property", "Type"}, &ui.TableOptions{NoColor: noColor, Indent: "  "})
		for _, p := range t.Properties {
			table.AddRow(p.Name, p.Type)
		}
		table.Render()
	}
}
