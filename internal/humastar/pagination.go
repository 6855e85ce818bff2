// pagination.go — RFC 8288 pagination Link headers.
//
// Response bodies implement Pager to emit first/prev/next/last links; the
// Links transformer reads them and sets the headers.
package humastar

import "fmt"

// Pager is implemented by response bodies that carry pagination metadata.
type Pager interface {
	PaginationLinks(basePath string) []string
}

// PageBody is a generic paginated response envelope.
type PageBody[T any] struct {
	Total  int `json:"total" doc:"Total number of items"`
	Offset int `json:"offset" doc:"Current offset"`
	Limit  int `json:"limit" doc:"Page size"`
	Data   []T `json:"data" doc:"Items"`
}

// PageInput is the offset/limit query every paginated list accepts.
type PageInput struct {
	Offset int `query:"offset" minimum:"0" default:"0" doc:"Number of items to skip"`
	Limit  int `query:"limit" minimum:"1" maximum:"100" default:"20" doc:"Page size"`
}

// PaginationLinks returns the first, prev, next and last links. A zero
// limit yields no links.
func (p PageBody[T]) PaginationLinks(basePath string) []string {
	if p.Limit <= 0 {
		return nil
	}
	link := func(offset int, rel string) string {
		return fmt.Sprintf(`<%s?offset=%d&limit=%d>; rel="%s"`, basePath, offset, p.Limit, rel)
	}

	links := []string{link(0, "first")}
	if p.Offset > 0 {
		links = append(links, link(max(p.Offset-p.Limit, 0), "prev"))
	}
	if p.Offset+p.Limit < p.Total {
		links = append(links, link(p.Offset+p.Limit, "next"))
	}
	last := max((p.Total-1)/p.Limit*p.Limit, 0)
	return append(links, link(last, "last"))
}
