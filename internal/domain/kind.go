package domain

import (
	"fmt"
	"strings"
)

// Kind identifies the kind of schema object a path is resolved to.
type Kind int

// KindTable and friends enumerate every resolvable object kind.
const (
	KindTable Kind = iota
	KindType
	KindFunction
	KindTableValuedFunction
	KindProcedure
	KindModel
	KindConnection
	KindConstant
	KindPropertyGraph
	KindCatalog
)

var kindNames = [...]string{
	KindTable:               "Table",
	KindType:                "Type",
	KindFunction:            "Function",
	KindTableValuedFunction: "TableValuedFunction",
	KindProcedure:           "Procedure",
	KindModel:               "Model",
	KindConnection:          "Connection",
	KindConstant:            "Constant",
	KindPropertyGraph:       "PropertyGraph",
	KindCatalog:             "Catalog",
}

// kindAliases maps accepted user spellings (lowercase) to kinds.
var kindAliases = map[string]Kind{
	"table":                 KindTable,
	"type":                  KindType,
	"function":              KindFunction,
	"tablevaluedfunction":   KindTableValuedFunction,
	"table_valued_function": KindTableValuedFunction,
	"tvf":                   KindTableValuedFunction,
	"procedure":             KindProcedure,
	"model":                 KindModel,
	"connection":            KindConnection,
	"constant":              KindConstant,
	"propertygraph":         KindPropertyGraph,
	"property_graph":        KindPropertyGraph,
	"graph":                 KindPropertyGraph,
	"catalog":               KindCatalog,
}

// String returns the kind name as used in diagnostics ("Table", "Type", ...).
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k >= 0 && int(k) < len(kindNames)
}

// CaseSensitive reports whether names of this kind are matched exactly.
// Type names follow proto naming and are case-sensitive; every other kind
// matches names case-insensitively like SQL identifiers.
func (k Kind) CaseSensitive() bool {
	return k == KindType
}

// Key returns the lookup key for name under k's case rules.
func (k Kind) Key(name string) string {
	if k.CaseSensitive() {
		return name
	}
	return strings.ToLower(name)
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, len(kindNames))
	for i := range kindNames {
		out[i] = Kind(i)
	}
	return out
}

// ParseKind parses a user-supplied kind name such as "table", "tvf" or
// "PropertyGraph".
func ParseKind(s string) (Kind, error) {
	if k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return 0, ErrValidation("unknown object kind %q", s)
}
