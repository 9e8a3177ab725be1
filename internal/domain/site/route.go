package site

import (
	"fmt"
	"net/url"
	"strings"
)

type RouteKind string

const (
	RouteIndex    RouteKind = "index"
	RouteBlog     RouteKind = "blog"
	RoutePost     RouteKind = "post"
	RouteTag      RouteKind = "tag"
	RouteCategory RouteKind = "category"
)

type Route struct {
	Kind RouteKind
	Slug string
	Page int
	Path string
}

func PostPath(slug string) string {
	return "/blog/" + slug
}

func TagPath(tag string) string {
	return "/tag/" + url.PathEscape(tag)
}

func CategoryPath(cat string) string {
	return "/blog?category=" + url.QueryEscape(cat)
}

// Absolute joins base and the route path without doubling slashes.
func (r Route) Absolute(base string) string {
	base = strings.TrimRight(base, "/")
	if r.Path == "" || r.Path == "/" {
		return base
	}
	return base + r.Path
}

func (r Route) String() string {
	var parts []string
	parts = append(parts, string(r.Kind))
	if r.Slug != "" {
		parts = append(parts, "slug="+r.Slug)
	}
	if r.Page > 0 {
		parts = append(parts, fmt.Sprintf("page=%d", r.Page))
	}
	if r.Path != "" {
		parts = append(parts, "path="+r.Path)
	}
	return strings.Join(parts, " ")
}
