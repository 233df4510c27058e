package cli

import (
	"errors"
	"strconv"

	"github.com/spf13/cobra"

	"sqlcatalog/internal/app"
	"sqlcatalog/internal/catalogfile"
	"sqlcatalog/internal/metastore"
)

var errNoMetastore = errors.New("no metastore configured: use --meta-db or META_DB_PATH")

func newImportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a YAML catalog definition into the metastore",
		Long: "Load a YAML catalog definition (local path or s3:// URI) into the SQLite\n" +
			"metastore. An existing root with the same name is replaced.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.metaDB == "" {
				return errNoMetastore
			}
			ctx := cmd.Context()
			cfg := opts.config()

			var s3 catalogfile.ObjectGetter
			if cfg.HasS3Config() {
				s3 = catalogfile.NewS3Client(app.S3Config(cfg))
			}
			def, err := catalogfile.Load(ctx, s3, args[0])
			if err != nil {
				return err
			}

			store, err := metastore.Open(opts.metaDB, opts.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			res, err := store.Import(ctx, def)
			if err != nil {
				return err
			}

			if opts.output == "json" {
				return printJSON(cmd.OutOrStdout(), res)
			}
			return printTable(cmd.OutOrStdout(),
				[]string{"root", "replaced", "catalogs", "objects"},
				[][]string{{res.Root, strconv.FormatBool(res.Replaced), strconv.Itoa(res.Catalogs), strconv.Itoa(res.Objects)}})
		},
	}
}

func newRootsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "roots",
		Short: "List the root catalogs stored in the metastore",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.metaDB == "" {
				return errNoMetastore
			}
			store, err := metastore.Open(opts.metaDB, opts.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			roots, err := store.Roots(cmd.Context())
			if err != nil {
				return err
			}
			if opts.output == "json" {
				if roots == nil {
					roots = []string{}
				}
				return printJSON(cmd.OutOrStdout(), map[string][]string{"roots": roots})
			}
			rows := make([][]string, len(roots))
			for i, r := range roots {
				rows[i] = []string{r}
			}
			return printTable(cmd.OutOrStdout(), []string{"root"}, rows)
		},
	}
}
