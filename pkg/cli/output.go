package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"sqlcatalog/internal/domain"
)

func validateOutputFormat(output string) error {
	if output != "" && output != "table" && output != "json" {
		return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", output)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTable writes an aligned table with an upper-cased header row.
func printTable(w io.Writer, headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	upper := make([]string, len(headers))
	for i, h := range headers {
		upper[i] = strings.ToUpper(h)
	}
	fmt.Fprintln(tw, strings.Join(upper, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// errorCode classifies err for JSON error output.
func errorCode(err error) string {
	var (
		notFound   *domain.NotFoundError
		contract   *domain.ContractViolationError
		validation *domain.ValidationError
		conflict   *domain.ConflictError
	)
	switch {
	case errors.As(err, &notFound):
		return "NOT_FOUND"
	case errors.As(err, &contract):
		return "CONTRACT_VIOLATION"
	case errors.As(err, &validation):
		return "INVALID_ARGUMENT"
	case errors.As(err, &conflict):
		return "CONFLICT"
	default:
		return "INTERNAL"
	}
}
