package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"sqlcatalog/internal/domain"
	"sqlcatalog/internal/sqlident"
)

func newQuoteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "quote <segment>...",
		Short:   "Format segments as a dotted path, quoting where needed",
		Example: "  catalogctl quote sales 'order items' select   # sales.`order items`.`select`",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := sqlident.FormatPath(args)
			if opts.output == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]string{"path": path})
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}
}

func newParseCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <path>",
		Short: "Split a dotted path into its segments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := sqlident.ParsePath(args[0])
			if err != nil {
				return err
			}
			if opts.output == "json" {
				return printJSON(cmd.OutOrStdout(), map[string][]string{"segments": path})
			}
			rows := make([][]string, len(path))
			for i, seg := range path {
				rows[i] = []string{strconv.Itoa(i), seg, sqlident.ToIdentifierLiteral(seg)}
			}
			return printTable(cmd.OutOrStdout(), []string{"#", "segment", "literal"}, rows)
		},
	}
}

func newKindsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the object kinds names can resolve to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			type kindInfo struct {
				Kind          string `json:"kind"`
				CaseSensitive bool   `json:"case_sensitive"`
			}
			kinds := domain.Kinds()
			infos := make([]kindInfo, len(kinds))
			rows := make([][]string, len(kinds))
			for i, k := range kinds {
				infos[i] = kindInfo{Kind: k.String(), CaseSensitive: k.CaseSensitive()}
				rows[i] = []string{k.String(), strconv.FormatBool(k.CaseSensitive())}
			}
			if opts.output == "json" {
				return printJSON(cmd.OutOrStdout(), infos)
			}
			return printTable(cmd.OutOrStdout(), []string{"kind", "case_sensitive"}, rows)
		},
	}
}
