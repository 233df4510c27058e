package api

import (
	"sqlcatalog/internal/catalog"
	"sqlcatalog/internal/domain"
)

// ObjectResponse describes one resolved object or catalog.
type ObjectResponse struct {
	Kind        string          `json:"kind"`
	Name        string          `json:"name"`
	FullName    string          `json:"full_name"`
	Description string          `json:"description,omitempty"`
	Columns     []domain.Column `json:"columns,omitempty"`
}

// BatchRequest is the body of a batch resolve.
type BatchRequest struct {
	Paths []string `json:"paths"`
}

// BatchResponse holds results in request order.
type BatchResponse struct {
	Results []ObjectResponse `json:"results"`
}

// Describe converts a value returned by catalog.Find into an ObjectResponse.
// Catalogs have no name of their own, so the last path segment is used.
func Describe(k domain.Kind, path []string, v any) ObjectResponse {
	out := ObjectResponse{Kind: k.String()}
	switch obj := v.(type) {
	case domain.Object:
		out.Name = obj.Name()
		out.FullName = obj.FullName()
		out.Description = obj.Description()
		if c, ok := obj.(interface{ Columns() []domain.Column }); ok {
			out.Columns = c.Columns()
		}
	case catalog.Catalog:
		if len(path) > 0 {
			out.Name = path[len(path)-1]
		}
		out.FullName = obj.FullName()
	}
	return out
}
