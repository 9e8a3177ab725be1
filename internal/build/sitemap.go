package build

import (
	"encoding/xml"
	"time"

	"github.com/jongmin-chung/jamie/internal/domain/content"
	"github.com/jongmin-chung/jamie/internal/domain/site"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// Sitemap renders routes as a sitemap.xml document. Post entries carry the
// post's last modification date; listing pages carry now.
func Sitemap(siteURL string, routes []site.Route, posts []content.Post, now time.Time) ([]byte, error) {
	modified := make(map[string]time.Time, len(posts))
	for _, p := range posts {
		t := p.PublishedAt
		if p.UpdatedAt != nil && p.UpdatedAt.After(t) {
			t = *p.UpdatedAt
		}
		modified[p.Slug] = t
	}

	set := urlSet{XMLNS: sitemapNS}
	for _, r := range routes {
		u := sitemapURL{Loc: r.Absolute(siteURL)}
		switch r.Kind {
		case site.RouteIndex:
			u.LastMod = now.UTC().Format(content.DateLayout)
			u.ChangeFreq = "daily"
			u.Priority = "1.0"
		case site.RoutePost:
			if t, ok := modified[r.Slug]; ok {
				u.LastMod = t.UTC().Format(content.DateLayout)
			}
			u.ChangeFreq = "weekly"
			u.Priority = "0.8"
		default:
			u.LastMod = now.UTC().Format(content.DateLayout)
			u.ChangeFreq = "daily"
			u.Priority = "0.9"
		}
		set.URLs = append(set.URLs, u)
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(xml.Header)+len(body)+1)
	out = append(out, xml.Header...)
	out = append(out, body...)
	return append(out, '\n'), nil
}
