package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"sqlcatalog/internal/api"
	"sqlcatalog/internal/catalog"
	"sqlcatalog/internal/domain"
	"sqlcatalog/internal/sqlident"
)

// resolveConcurrency bounds lookups running at once.
const resolveConcurrency = 4

// kindValue is a pflag.Value accepting any spelling domain.ParseKind does.
type kindValue domain.Kind

var _ pflag.Value = (*kindValue)(nil)

func (k *kindValue) String() string { return domain.Kind(*k).String() }

func (k *kindValue) Set(s string) error {
	parsed, err := domain.ParseKind(s)
	if err != nil {
		return err
	}
	*k = kindValue(parsed)
	return nil
}

func (k *kindValue) Type() string { return "kind" }

func newResolveCmd(opts *options) *cobra.Command {
	kind := kindValue(domain.KindTable)

	cmd := &cobra.Command{
		Use:   "resolve <path>...",
		Short: "Resolve dotted names against the configured catalogs",
		Long: "Resolve each dotted path (for example sales.`order items`) against the\n" +
			"configured sources. Sources are searched in order: catalog file, metastore, DuckDB.",
		Example: "  catalogctl resolve --catalog-file catalog.yaml sales.eu.orders\n" +
			"  catalogctl resolve --kind type --meta-db meta.sqlite warehouse.pkg.Msg",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k := domain.Kind(kind)
			paths := make([][]string, len(args))
			for i, arg := range args {
				path, err := sqlident.ParsePath(arg)
				if err != nil {
					return err
				}
				if err := catalog.CheckPathLength(path, opts.maxSegments); err != nil {
					return err
				}
				paths[i] = path
			}

			ctx := cmd.Context()
			a, err := opts.openApp(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			values, err := catalog.ResolveMany(ctx, a.Current(), k, paths, catalog.FindOptions{}, resolveConcurrency)
			if err != nil {
				return err
			}

			results := make([]api.ObjectResponse, len(values))
			for i, v := range values {
				results[i] = api.Describe(k, paths[i], v)
			}

			if opts.output == "json" {
				if len(results) == 1 {
					return printJSON(cmd.OutOrStdout(), results[0])
				}
				return printJSON(cmd.OutOrStdout(), results)
			}
			rows := make([][]string, len(results))
			for i, r := range results {
				rows[i] = []string{args[i], r.Kind, r.FullName, r.Description}
			}
			return printTable(cmd.OutOrStdout(), []string{"path", "kind", "full_name", "description"}, rows)
		},
	}
	cmd.Flags().VarP(&kind, "kind", "k", "Object kind (table, type, function, tvf, procedure, model, connection, constant, property_graph, catalog)")
	return cmd
}
