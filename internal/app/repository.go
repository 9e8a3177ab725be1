// Package app holds the content repository: an in-memory, versioned
// snapshot of every valid post, refreshed on explicit reloads.
package app

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jongmin-chung/jamie/internal/domain/config"
	"github.com/jongmin-chung/jamie/internal/domain/content"
	"github.com/jongmin-chung/jamie/internal/index"
	"github.com/jongmin-chung/jamie/internal/ingest"
	"github.com/jongmin-chung/jamie/internal/logger"
	"github.com/jongmin-chung/jamie/internal/metrics"
	"github.com/jongmin-chung/jamie/internal/render"
)

var ErrNoStore = errors.New("repository has no index store")

// Report describes the outcome of the last Reload.
type Report struct {
	Posts    int              `json:"posts"`
	Failures []ingest.Failure `json:"failures"`
	Version  uint64           `json:"version"`
	LoadedAt time.Time        `json:"loadedAt"`
	Took     time.Duration    `json:"took"`
}

type snapshot struct {
	posts   []content.Post
	bySlug  map[string]int
	version uint64
}

func newSnapshot(posts []content.Post, version uint64) *snapshot {
	s := &snapshot{posts: posts, bySlug: make(map[string]int, len(posts)), version: version}
	for i, p := range posts {
		s.bySlug[p.Slug] = i
	}
	return s
}

// Repository answers post queries from memory. Queries never touch the file
// system; Reload and Restore swap in a new snapshot atomically.
type Repository struct {
	cfg   config.Config
	store *index.Store

	mu     sync.RWMutex
	snap   *snapshot
	report Report
}

// NewRepository creates an empty repository. store may be nil, in which case
// versions are counted in memory.
func NewRepository(cfg config.Config, store *index.Store) *Repository {
	return &Repository{cfg: cfg, store: store, snap: newSnapshot(nil, 0)}
}

func IngestOptions(cfg config.Config) ingest.Options {
	model := render.ReadingWords
	if cfg.Search.ReadingModel == config.ReadingMixed {
		model = render.ReadingMixed
	}
	return ingest.Options{
		Reading: render.ReadingOptions{
			Model:                model,
			WordsPerMinute:       cfg.Search.WordsPerMinute,
			KoreanCharsPerMinute: cfg.Search.KoreanCharsPerMinute,
		},
		DefaultCategory: cfg.Content.DefaultCategory,
		Now:             func() time.Time { return cfg.Build.Now },
	}
}

// Reload re-reads the content dir, persists the catalog and swaps the
// snapshot. Invalid documents are reported, not returned as errors.
func (r *Repository) Reload(ctx context.Context) (*Report, error) {
	log := logger.For("content")
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := ingest.Load(r.cfg.Content.Dir, IngestOptions(r.cfg))
	if err != nil {
		metrics.ContentReloadsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	version, err := r.persist(res.Posts)
	if err != nil {
		metrics.ContentReloadsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	for _, f := range res.Failures {
		log.Warn().Str("path", f.Path).Str("slug", f.Slug).Msg(f.Reason)
	}

	rep := Report{
		Posts:    len(res.Posts),
		Failures: res.Failures,
		Version:  version,
		LoadedAt: time.Now().UTC(),
		Took:     time.Since(start),
	}

	r.mu.Lock()
	r.snap = newSnapshot(res.Posts, version)
	r.report = rep
	r.mu.Unlock()

	metrics.ContentReloadsTotal.WithLabelValues("ok").Inc()
	metrics.ContentPosts.Set(float64(rep.Posts))
	metrics.ContentFailures.Set(float64(len(rep.Failures)))
	metrics.ContentVersion.Set(float64(version))

	log.Info().
		Int("posts", rep.Posts).
		Int("failures", len(rep.Failures)).
		Uint64("version", version).
		Dur("took", rep.Took).
		Msg("content reloaded")
	return &rep, nil
}

func (r *Repository) persist(posts []content.Post) (uint64, error) {
	if r.store != nil {
		return r.store.Rebuild(posts)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap.version + 1, nil
}

// Restore loads the snapshot from the index store without parsing sources.
func (r *Repository) Restore() error {
	if r.store == nil {
		return ErrNoStore
	}
	posts, err := r.store.All()
	if err != nil {
		return err
	}
	version, err := r.store.Version()
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.snap = newSnapshot(posts, version)
	r.report = Report{Posts: len(posts), Version: version, LoadedAt: time.Now().UTC()}
	r.mu.Unlock()

	metrics.ContentPosts.Set(float64(len(posts)))
	metrics.ContentVersion.Set(float64(version))
	logger.For("content").Debug().Int("posts", len(posts)).Uint64("version", version).Msg("content restored from index")
	return nil
}

func (r *Repository) current() *snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap
}

// All returns every valid post, newest first.
func (r *Repository) All() []content.Post {
	s := r.current()
	out := make([]content.Post, len(s.posts))
	copy(out, s.posts)
	return out
}

func (r *Repository) BySlug(slug string) (content.Post, bool) {
	s := r.current()
	i, ok := s.bySlug[slug]
	if !ok {
		return content.Post{}, false
	}
	return s.posts[i], true
}

func (r *Repository) ByCategory(category string) []content.Post {
	var out []content.Post
	for _, p := range r.current().posts {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

func (r *Repository) ByTag(tag string) []content.Post {
	var out []content.Post
	for _, p := range r.current().posts {
		if p.HasTag(tag) {
			out = append(out, p)
		}
	}
	return out
}

// Featured returns the n most recent posts.
func (r *Repository) Featured(n int) []content.Post {
	posts := r.current().posts
	if n < 0 {
		n = 0
	}
	if n > len(posts) {
		n = len(posts)
	}
	out := make([]content.Post, n)
	copy(out, posts[:n])
	return out
}

// RelatedScore: same category +10, each shared tag +5, same author +3.
func RelatedScore(a, b content.Post) int {
	score := 0
	if a.Category == b.Category {
		score += 10
	}
	for _, t := range a.Tags {
		if b.HasTag(t) {
			score += 5
		}
	}
	if a.Author == b.Author {
		score += 3
	}
	return score
}

// Related ranks every other post by RelatedScore. Ties keep newest-first
// order.
func (r *Repository) Related(post content.Post, limit int) []content.Post {
	if limit <= 0 {
		return nil
	}
	type scored struct {
		post  content.Post
		score int
	}
	var cands []scored
	for _, p := range r.current().posts {
		if p.Slug == post.Slug {
			continue
		}
		cands = append(cands, scored{post: p, score: RelatedScore(post, p)})
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })

	if len(cands) > limit {
		cands = cands[:limit]
	}
	out := make([]content.Post, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.post)
	}
	return out
}

// Version identifies the current snapshot; it changes on every reload.
func (r *Repository) Version() uint64 {
	return r.current().version
}

func (r *Repository) LastReport() Report {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.report
}

func (r *Repository) Config() config.Config {
	return r.cfg
}

// CatalogInfo describes the persisted catalog behind the snapshot.
type CatalogInfo struct {
	Indexed int       `json:"indexed"`
	BuiltAt time.Time `json:"builtAt"`
}

func (r *Repository) CatalogInfo() (CatalogInfo, error) {
	if r.store == nil {
		return CatalogInfo{}, ErrNoStore
	}
	n, err := r.store.Count()
	if err != nil {
		return CatalogInfo{}, err
	}
	builtAt, err := r.store.BuiltAt()
	if err != nil {
		return CatalogInfo{}, err
	}
	return CatalogInfo{Indexed: n, BuiltAt: builtAt}, nil
}

// Taxonomy lists catalog categories and tags by post count, then name.
func (r *Repository) Taxonomy() (categories, tags []index.TermSummary, err error) {
	if r.store == nil {
		return nil, nil, ErrNoStore
	}
	if categories, err = r.store.CategorySummaries(); err != nil {
		return nil, nil, err
	}
	if tags, err = r.store.TagSummaries(); err != nil {
		return nil, nil, err
	}
	return categories, tags, nil
}

// Page reads one page of catalog posts, newest first. category takes
// precedence over tag; both empty lists everything.
func (r *Repository) Page(category, tag string, opt index.ListOptions) ([]content.Post, error) {
	if r.store == nil {
		return nil, ErrNoStore
	}
	switch {
	case category != "":
		return r.store.ListByCategory(category, opt)
	case tag != "":
		return r.store.ListByTag(tag, opt)
	default:
		return r.store.List(opt)
	}
}

// Stored reads one post from the catalog, index.ErrNotFound when absent.
func (r *Repository) Stored(slug string) (content.Post, error) {
	if r.store == nil {
		return content.Post{}, ErrNoStore
	}
	return r.store.Get(slug)
}
