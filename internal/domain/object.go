package domain

// Object is the capability every resolvable schema object exposes. The
// resolver treats objects as opaque; these accessors exist for diagnostics and
// for the HTTP and CLI surfaces.
type Object interface {
	Kind() Kind
	Name() string
	FullName() string
	Description() string
}

// Column describes one output column of a table-like object.
type Column struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
}

// Table is a relation that can appear in a FROM clause.
type Table interface {
	Object
	Columns() []Column
}

// Type is a named SQL or structured (proto/enum) type.
type Type interface{ Object }

// Function is a scalar, aggregate or analytic function.
type Function interface{ Object }

// TableValuedFunction is a function producing a relation.
type TableValuedFunction interface {
	Object
	Columns() []Column
}

// Procedure is a callable stored procedure.
type Procedure interface{ Object }

// Model is a machine-learning model usable from SQL.
type Model interface {
	Object
	Columns() []Column
}

// Connection is a named connection to an external system.
type Connection interface{ Object }

// Constant is a named constant value.
type Constant interface{ Object }

// PropertyGraph is a named property graph.
type PropertyGraph interface{ Object }

// SimpleObject is a plain value implementation of every object kind.
type SimpleObject struct {
	kind        Kind
	name        string
	fullName    string
	description string
	columns     []Column
}

// NewObject creates a SimpleObject of the given kind. The full name defaults
// to name until WithFullName is used.
func NewObject(kind Kind, name string) *SimpleObject {
	return &SimpleObject{kind: kind, name: name}
}

// WithFullName sets the fully-qualified name and returns o.
func (o *SimpleObject) WithFullName(fullName string) *SimpleObject {
	o.fullName = fullName
	return o
}

// WithDescription sets the description and returns o.
func (o *SimpleObject) WithDescription(description string) *SimpleObject {
	o.description = description
	return o
}

// WithColumns sets the output columns and returns o.
func (o *SimpleObject) WithColumns(columns ...Column) *SimpleObject {
	o.columns = append([]Column(nil), columns...)
	return o
}

func (o *SimpleObject) Kind() Kind          { return o.kind }
func (o *SimpleObject) Name() string        { return o.name }
func (o *SimpleObject) Description() string { return o.description }

func (o *SimpleObject) FullName() string {
	if o.fullName == "" {
		return o.name
	}
	return o.fullName
}

// Columns returns a copy of the output columns.
func (o *SimpleObject) Columns() []Column {
	return append([]Column(nil), o.columns...)
}
