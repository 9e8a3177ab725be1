// Package build writes the static data artifacts consumed by the
// presentation layer: search index, post metadata, taxonomies, site stats,
// per-post page data, sitemap and a manifest.
package build

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jongmin-chung/jamie/internal/app"
	dbuild "github.com/jongmin-chung/jamie/internal/domain/build"
	"github.com/jongmin-chung/jamie/internal/domain/config"
	"github.com/jongmin-chung/jamie/internal/domain/content"
	"github.com/jongmin-chung/jamie/internal/logger"
	"github.com/jongmin-chung/jamie/internal/metrics"
	"github.com/jongmin-chung/jamie/internal/render"
	"github.com/jongmin-chung/jamie/internal/search"
)

const (
	SearchIndexFile   = "search-index.json"
	PostsMetadataFile = "posts-metadata.json"
	CategoriesFile    = "categories.json"
	TagsFile          = "tags.json"
	SiteStatsFile     = "site-stats.json"
	SitemapFile       = "sitemap.xml"
	ManifestFile      = "manifest.json"
	PostsDir          = "posts"
)

// Generator turns the repository snapshot into artifacts under
// Cfg.Build.PublicDir.
type Generator struct {
	Cfg      config.Config
	Repo     *app.Repository
	Renderer *render.MarkdownRenderer
	// Now stamps lastUpdated and the manifest. Defaults to time.Now.
	Now func() time.Time
}

type Result struct {
	Posts           int             `json:"posts"`
	Artifacts       []string        `json:"artifacts"`
	SearchIndexSize int             `json:"searchIndexSize"`
	Manifest        dbuild.Manifest `json:"manifest"`
	Took            time.Duration   `json:"took"`
}

// SiteStats is site-stats.json.
type SiteStats struct {
	TotalPosts         int       `json:"totalPosts"`
	TotalCategories    int       `json:"totalCategories"`
	TotalTags          int       `json:"totalTags"`
	AverageReadingTime int       `json:"averageReadingTime"`
	LastUpdated        time.Time `json:"lastUpdated"`
	SearchIndexSize    int       `json:"searchIndexSize"`
}

func (g *Generator) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

// Run writes every artifact in a fixed order and stops at the first error.
// Artifacts written before the failure are left in place.
func (g *Generator) Run(ctx context.Context) (*Result, error) {
	log := logger.For("build")
	start := time.Now()
	defer func() { metrics.GenerateDuration.Observe(time.Since(start).Seconds()) }()

	md := g.Renderer
	if md == nil {
		md = render.NewMarkdownRenderer(render.DefaultOptions())
	}
	outDir := g.Cfg.Build.PublicDir
	now := g.now().UTC()
	posts := g.Repo.All()
	log.Info().Int("posts", len(posts)).Str("out", outDir).Msg("generating static data")

	res := &Result{Posts: len(posts)}
	fp := dbuild.NewFingerprint()
	emit := func(name string, data []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeFile(outDir, name, data); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		fp.Add(filepath.ToSlash(name), data)
		res.Artifacts = append(res.Artifacts, filepath.ToSlash(name))
		log.Debug().Str("file", name).Int("bytes", len(data)).Msg("artifact written")
		return nil
	}

	indexJSON, err := search.Serialize(search.Build(posts))
	if err != nil {
		return nil, fmt.Errorf("serialize search index: %w", err)
	}
	if err := emit(SearchIndexFile, indexJSON); err != nil {
		return nil, err
	}
	res.SearchIndexSize = len(indexJSON)

	metas := make([]content.PostMetadata, 0, len(posts))
	for _, p := range posts {
		metas = append(metas, p.Metadata())
	}
	if err := emitJSON(emit, PostsMetadataFile, metas, false); err != nil {
		return nil, err
	}

	cats := Categories(g.Cfg, posts)
	if err := emitJSON(emit, CategoriesFile, cats, false); err != nil {
		return nil, err
	}

	tags := Tags(posts)
	if err := emitJSON(emit, TagsFile, tags, false); err != nil {
		return nil, err
	}

	stats := SiteStats{
		TotalPosts:         len(posts),
		TotalCategories:    len(cats),
		TotalTags:          len(tags),
		AverageReadingTime: averageReadingTime(posts),
		LastUpdated:        now,
		SearchIndexSize:    len(indexJSON),
	}
	if err := emitJSON(emit, SiteStatsFile, stats, true); err != nil {
		return nil, err
	}

	if g.Cfg.Build.PageData {
		version := g.Repo.Version()
		for _, p := range posts {
			related := g.Repo.Related(p, g.Cfg.Build.RelatedLimit)
			page, err := md.BuildPostPage(ctx, p, related, version)
			if err != nil {
				return nil, fmt.Errorf("render %s: %w", p.Slug, err)
			}
			name := filepath.Join(PostsDir, safePathSegment(p.Slug)+".json")
			if err := emitJSON(emit, name, page, false); err != nil {
				return nil, err
			}
		}
	}

	if g.Cfg.Build.Sitemap {
		rb := &app.RouteBuilder{Repo: g.Repo}
		data, err := Sitemap(g.Cfg.Site.SiteURL, rb.SiteRoutes(), posts, now)
		if err != nil {
			return nil, fmt.Errorf("build sitemap: %w", err)
		}
		if err := emit(SitemapFile, data); err != nil {
			return nil, err
		}
	}

	fp.ComputeHash()
	res.Manifest = dbuild.Manifest{
		Version:     g.Repo.Version(),
		BuildID:     uuid.NewString(),
		GeneratedAt: now,
		Posts:       len(posts),
		Fingerprint: fp,
	}
	data, err := json.MarshalIndent(res.Manifest, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := writeFile(outDir, ManifestFile, data); err != nil {
		return nil, fmt.Errorf("write %s: %w", ManifestFile, err)
	}
	res.Artifacts = append(res.Artifacts, ManifestFile)

	res.Took = time.Since(start)
	log.Info().
		Int("artifacts", len(res.Artifacts)).
		Int("search_index_bytes", res.SearchIndexSize).
		Str("build_id", res.Manifest.BuildID).
		Dur("took", res.Took).
		Msg("static data generated")
	return res, nil
}

func emitJSON(emit func(string, []byte) error, name string, v any, pretty bool) error {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return emit(name, data)
}

func averageReadingTime(posts []content.Post) int {
	if len(posts) == 0 {
		return 0
	}
	total := 0
	for _, p := range posts {
		total += p.ReadingTime
	}
	return int(math.Round(float64(total) / float64(len(posts))))
}
