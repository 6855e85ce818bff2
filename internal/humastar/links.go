package humastar

import (
	"fmt"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/danielgtaylor/huma/v2"
)

// Links holds the RFC 8288 Link headers derived from an API's OpenAPI spec,
// keyed by operation path. Register Transformer in the Huma config before
// creating the API and call Generate once all routes exist.
type Links struct {
	mu     sync.RWMutex
	byPath map[string][]string
	entry  string
}

// NewLinks creates an empty link set whose entry point is entry (e.g. "/health").
func NewLinks(entry string) *Links {
	return &Links{byPath: map[string][]string{}, entry: entry}
}

// Generate walks the OpenAPI paths and derives collection, item, edit and
// entry point links. Paths tagged "editor" (SSE endpoints) are skipped.
func (l *Links) Generate(api huma.API) {
	oapi := api.OpenAPI()

	var collections, items []string
	for p, pi := range oapi.Paths {
		if slices.Contains(primaryTags(pi), "editor") {
			continue
		}
		if strings.Contains(p, "{") {
			items = append(items, p)
		} else {
			collections = append(collections, p)
		}
	}
	slices.Sort(collections)
	slices.Sort(items)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.byPath = map[string][]string{}

	for _, item := range items {
		parent := path.Dir(item)
		if _, ok := oapi.Paths[parent]; ok {
			l.add(item, parent, "collection")
			l.add(item, parent, "up")
		}
		pi := oapi.Paths[item]
		if pi.Put != nil || pi.Patch != nil {
			l.add(item, item, "edit")
		}
	}
	for _, coll := range collections {
		for _, item := range items {
			if path.Dir(item) == coll {
				l.add(coll, item, "item")
			}
		}
		if oapi.Paths[coll].Post != nil {
			l.add(coll, coll, "create-form")
		}
		if coll != l.entry {
			l.add(coll, l.entry, "up")
			l.add(l.entry, coll, lastSegment(coll))
		}
	}
	l.add(l.entry, "/openapi.json", "service-desc")
	l.add(l.entry, "/docs", "service-doc")

	for p, pi := range oapi.Paths {
		if ref := responseSchemaRef(pi); ref != "" {
			l.add(p, "/openapi.json#/components/schemas/"+ref, "describedby")
		}
	}
	for p, pi := range oapi.Paths {
		for _, op := range operationsOf(pi) {
			if op != nil {
				injectResponseLinks(op, l.byPath[p])
			}
		}
	}
}

func (l *Links) add(from, to, rel string) {
	val := fmt.Sprintf(`<%s>; rel="%s"`, to, rel)
	if !slices.Contains(l.byPath[from], val) {
		l.byPath[from] = append(l.byPath[from], val)
	}
}

// For returns the generated Link headers of an operation path.
func (l *Links) For(opPath string) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.byPath[opPath])
}

// Transformer returns a Huma Transformer that sets the generated links, a
// self link on item paths, and the links of Pager and Actor bodies.
func (l *Links) Transformer() huma.Transformer {
	return func(ctx huma.Context, status string, v any) (any, error) {
		op := ctx.Operation()
		if op == nil {
			return v, nil
		}
		for _, link := range l.For(op.Path) {
			ctx.AppendHeader("Link", link)
		}
		if strings.Contains(op.Path, "{") {
			ctx.AppendHeader("Link", fmt.Sprintf(`<%s>; rel="self"`, ctx.URL().Path))
		}
		if p, ok := v.(Pager); ok {
			for _, link := range p.PaginationLinks(ctx.URL().Path) {
				ctx.AppendHeader("Link", link)
			}
		}
		if a, ok := v.(Actor); ok {
			for _, action := range a.Actions() {
				ctx.AppendHeader("Link", action.LinkHeader())
			}
		}
		return v, nil
	}
}

func primaryTags(pi *huma.PathItem) []string {
	for _, op := range operationsOf(pi) {
		if op != nil && len(op.Tags) > 0 {
			return op.Tags
		}
	}
	return nil
}

func operationsOf(pi *huma.PathItem) []*huma.Operation {
	return []*huma.Operation{pi.Get, pi.Post, pi.Put, pi.Patch, pi.Delete}
}

func lastSegment(p string) string {
	return path.Base(strings.TrimRight(p, "/"))
}

// injectResponseLinks documents the links on the operation's 2xx response.
func injectResponseLinks(op *huma.Operation, headers []string) {
	if op.Responses == nil || len(headers) == 0 {
		return
	}
	var resp *huma.Response
	for code, r := range op.Responses {
		if strings.HasPrefix(code, "2") {
			resp = r
			break
		}
	}
	if resp == nil {
		return
	}
	if resp.Links == nil {
		resp.Links = map[string]*huma.Link{}
	}
	for _, h := range headers {
		rel, href := parseLinkHeader(h)
		if rel == "" {
			continue
		}
		resp.Links[rel] = &huma.Link{
			OperationRef: href,
			Description:  "Related: " + rel,
		}
	}
}

func responseSchemaRef(pi *huma.PathItem) string {
	if pi.Get == nil {
		return ""
	}
	for code, resp := range pi.Get.Responses {
		if !strings.HasPrefix(code, "2") || resp.Content == nil {
			continue
		}
		for _, mt := range resp.Content {
			if mt.Schema != nil && mt.Schema.Ref != "" {
				return path.Base(mt.Schema.Ref)
			}
		}
	}
	return ""
}

// parseLinkHeader splits `<url>; rel="name"`.
func parseLinkHeader(h string) (rel, href string) {
	target, params, ok := strings.Cut(h, ";")
	if !ok {
		return "", ""
	}
	href = strings.Trim(strings.TrimSpace(target), "<>")
	params = strings.TrimSpace(params)
	if after, ok := strings.CutPrefix(params, `rel="`); ok {
		rel, _, _ = strings.Cut(after, `"`)
	}
	return rel, href
}
