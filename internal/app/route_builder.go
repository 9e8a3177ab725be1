package app

import (
	"sort"

	"github.com/jongmin-chung/jamie/internal/domain/content"
	"github.com/jongmin-chung/jamie/internal/domain/site"
)

type RouteBuilder struct {
	Repo *Repository
}

// PostRoutes returns one /blog/<slug> route per post, in input order.
func (rb *RouteBuilder) PostRoutes(posts []content.Post) []site.Route {
	routes := make([]site.Route, 0, len(posts))
	for _, p := range posts {
		routes = append(routes, site.Route{
			Kind: site.RoutePost,
			Slug: p.Slug,
			Path: site.PostPath(p.Slug),
		})
	}
	return routes
}

// CategoryRoutes returns a route per category that has at least one post,
// in configured order.
func (rb *RouteBuilder) CategoryRoutes() []site.Route {
	var routes []site.Route
	for _, cat := range rb.Repo.Config().Categories {
		if len(rb.Repo.ByCategory(cat.ID)) == 0 {
			continue
		}
		routes = append(routes, site.Route{
			Kind: site.RouteCategory,
			Slug: cat.ID,
			Path: site.CategoryPath(cat.ID),
		})
	}
	return routes
}

// TagRoutes returns a route per used tag, sorted by name.
func (rb *RouteBuilder) TagRoutes() []site.Route {
	seen := make(map[string]struct{})
	var tags []string
	for _, p := range rb.Repo.All() {
		for _, t := range p.Tags {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			tags = append(tags, t)
		}
	}
	sort.Strings(tags)

	routes := make([]site.Route, 0, len(tags))
	for _, t := range tags {
		routes = append(routes, site.Route{Kind: site.RouteTag, Slug: t, Path: site.TagPath(t)})
	}
	return routes
}

// SiteRoutes is the home page, the blog listing, then every post.
func (rb *RouteBuilder) SiteRoutes() []site.Route {
	routes := []site.Route{
		{Kind: site.RouteIndex, Path: "/"},
		{Kind: site.RouteBlog, Path: "/blog"},
	}
	return append(routes, rb.PostRoutes(rb.Repo.All())...)
}
