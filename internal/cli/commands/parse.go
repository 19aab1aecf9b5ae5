package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/wirequery/internal/cli/ui"
	qerrors "github.com/conduit-lang/wirequery/internal/query/errors"
	"github.com/conduit-lang/wirequery/internal/query/ir"
	"github.com/conduit-lang/wirequery/internal/query/schema"
	"github.com/conduit-lang/wirequery/internal/query/wire"
)

type parseOptions struct {
	*globalOptions
	options map[string]*string
	maxTop  int
	output  string
}

// parsed is the JSON form of a normalized query
type parsed struct {
	Type    string            `json:"type"`
	Query   string            `json:"query"`
	Options map[string]string `json:"options"`
}

var optionFlags = []struct {
	flag, name, usage string
}{
	{"filter", wire.Filter, "Boolean filter expression"},
	{"orderby", wire.OrderBy, "Comma separated sort keys"},
	{"top", wire.Top, "Maximum number of rows"},
	{"skip", wire.Skip, "Number of rows to skip"},
	{"select", wire.Select, "Comma separated projection columns"},
	{"format", wire.Format, "Response format"},
	{"inlinecount", wire.InlineCount, "allpages or none"},
}

func newParseCommand(global *globalOptions) *cobra.Command {
	opts := &parseOptions{globalOptions: global, options: make(map[string]*string)}

	cmd := &cobra.Command{
		Use:   "parse <type> [query]",
		Short: "Parse and normalize a query against a schema type",
		Long: `Parse a query string against an entity type from the schema and print
its canonical encoding.

The query may be passed as a URL query string, as individual option flags,
or both. Flags win over options of the same name in the query string.
Parameters not starting with "$" are ignored.`,
		Example: `  # Normalize a raw query string
  wirequery parse Model.Product '$filter=Price gt 20&$top=5'

  # The same query from flags
  wirequery parse Model.Product --filter "Price gt 20" --top 5

  # JSON output for tooling
  wirequery parse Model.Product --filter "Name eq 'x'" --output json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, args)
		},
	}

	for _, f := range optionFlags {
		opts.options[f.name] = cmd.Flags().String(f.flag, "", f.usage)
	}
	cmd.Flags().IntVar(&opts.maxTop, "max-top", -1, "Reject larger $top values (default: parser.max_top)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "text", "Output format: text or json")

	return cmd
}

func (o *parseOptions) run(cmd *cobra.Command, args []string) error {
	if o.output != "text" && o.output != "json" {
		return fmt.Errorf("unknown output format %q", o.output)
	}

	cfg, reg, err := o.load(cmd)
	if err != nil {
		return err
	}
	maxTop := cfg.Parser.MaxTop
	if o.maxTop >= 0 {
		maxTop = o.maxTop
	}

	root, ok := reg.Lookup(args[0])
	if !ok || root.Kind() != schema.KindComplex {
		fmt.Fprintln(cmd.ErrOrStderr(), ui.TypeNotFoundError(args[0], suggestTypes(reg, args[0]), o.noColor))
		return errReported
	}

	values := url.Values{}
	if len(args) == 2 {
		values, err = url.ParseQuery(strings.TrimPrefix(args[1], "?"))
		if err != nil {
			return fmt.Errorf("invalid query string: %w", err)
		}
	}
	for _, f := range optionFlags {
		if cmd.Flags().Changed(f.flag) {
			values.Set(f.name, *o.options[f.name])
		}
	}

	decodeOpts := []wire.Option{wire.WithRegistry(reg), wire.WithMaxTop(maxTop)}
	q, err := wire.Decode(root, values, decodeOpts...)
	if err != nil {
		option, text := failingOption(root, values, decodeOpts)
		fmt.Fprintln(cmd.ErrOrStderr(), ui.QueryError(err, option, text, suggestProperties(reg, err), o.noColor))
		return errReported
	}

	out := parsed{Type: root.Name(), Query: wire.Encode(q), Options: make(map[string]string)}
	params := ir.Params(q)
	for _, p := range params {
		out.Options[p.Name] = p.Value
	}

	if o.output == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, out.Query)
	kv := ui.NewKeyValueTable(w, "  ", o.noColor)
	for _, p := range params {
		kv.AddRow(p.Name, p.Value)
	}
	kv.Render()
	return nil
}

// failingOption finds the option Decode stopped at by decoding each one
// on its own, in the order Decode visits them.
func failingOption(root *schema.Type, values url.Values, opts []wire.Option) (string, string) {
	names := make([]string, 0, len(values))
	for name := range values {
		if strings.HasPrefix(name, "$") {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if _, err := wire.Decode(root, url.Values{name: values[name]}, opts...); err != nil {
			return name, values.Get(name)
		}
	}
	return "", ""
}

// suggestTypes lists the complex types close to name, or every complex
// type when none is
func suggestTypes(reg *schema.Registry, name string) []string {
	var all []string
	for _, t := range reg.Types() {
		if t.Kind() == schema.KindComplex {
			all = append(all, t.Name())
		}
	}
	if matches := ui.Suggest(name, all); len(matches) > 0 {
		return matches
	}
	sort.Strings(all)
	return all
}

// suggestProperties offers property names close to the one an unknown
// property error names
func suggestProperties(reg *schema.Registry, err error) []string {
	var pe *qerrors.ParseError
	if !errors.As(err, &pe) || pe.Code != qerrors.ErrUnknownPropertyName {
		return nil
	}
	var names []string
	for _, t := range reg.Types() {
		for _, p := range t.Properties() {
			names = append(names, p.Name)
		}
	}
	return ui.Suggest(pe.Near, names)
}
