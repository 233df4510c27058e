package catalog

import (
	"context"
	"strings"

	"sqlcatalog/internal/domain"
	"sqlcatalog/internal/sqlident"
)

// ConvertPathToProtoName joins path into a single dotted structured-type name
// such as "pkg.Msg". It returns "" when path is empty or any segment is not a
// valid unquoted identifier.
func ConvertPathToProtoName(path []string) string {
	for _, seg := range path {
		if !sqlident.IsValidIdentifier(seg) {
			return ""
		}
	}
	return strings.Join(path, ".")
}

// protoNameFallback runs when path[0] is not a nested catalog of cat during a
// type lookup. Dotted proto names are indistinguishable from catalog paths, so
// the whole remaining path is retried on cat as one type name.
func protoNameFallback(ctx context.Context, cat Catalog, path []string, opts FindOptions) (domain.Type, error) {
	name := path[0]
	protoName := ConvertPathToProtoName(path)
	if protoName == "" {
		return nil, catalogNotFound(domain.KindType, name, cat)
	}

	typ, err := getType(ctx, cat, protoName, opts)
	if err != nil {
		return nil, err
	}
	if typ == nil {
		return nil, domain.ErrNotFound("Type not found: %s is not a type and %s is not a nested Catalog in Catalog %s",
			sqlident.ToIdentifierLiteral(protoName), sqlident.ToIdentifierLiteral(name), cat.FullName())
	}
	return typ, nil
}
