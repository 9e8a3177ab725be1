package serve

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jongmin-chung/jamie/internal/app"
	"github.com/jongmin-chung/jamie/internal/build"
	"github.com/jongmin-chung/jamie/internal/domain/content"
	"github.com/jongmin-chung/jamie/internal/index"
	"github.com/jongmin-chung/jamie/internal/logger"
	"github.com/jongmin-chung/jamie/internal/search"
)

const defaultSuggestLimit = 5

// VersionInfo lets clients detect a changed snapshot. Indexed and BuiltAt
// describe the persisted catalog and are omitted without one.
type VersionInfo struct {
	Version  uint64     `json:"version"`
	Posts    int        `json:"posts"`
	Failures int        `json:"failures"`
	LoadedAt time.Time  `json:"loadedAt"`
	Indexed  int        `json:"indexed,omitempty"`
	BuiltAt  *time.Time `json:"builtAt,omitempty"`
}

// SearchStats is the query log plus a summary of the live index.
type SearchStats struct {
	search.StatsSnapshot
	Index search.IndexStats `json:"index"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := search.Query{
		Term:     q.Get("q"),
		Category: q.Get("category"),
		Tags:     q["tag"],
		Limit:    intParam(q.Get("limit"), s.cfg.Search.DefaultLimit),
		Offset:   intParam(q.Get("offset"), 0),
	}
	resp := s.currentEngine().Run(query)
	if query.Term != "" {
		s.stats.Record(query.Term, time.Duration(resp.Took*float64(time.Millisecond)), resp.Total)
	}
	if q.Get("highlight") != "" && query.Term != "" {
		for i := range resp.Results {
			resp.Results[i].Title = search.Highlight(resp.Results[i].Title, query.Term)
			resp.Results[i].Description = search.Highlight(resp.Results[i].Description, query.Term)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := intParam(q.Get("limit"), defaultSuggestLimit)
	writeJSON(w, http.StatusOK, s.currentEngine().Suggestions(q.Get("q"), limit))
}

func (s *Server) handlePosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var posts []content.Post
	paged := q.Get("page") != "" || q.Get("size") != ""
	switch {
	case paged:
		var err error
		posts, err = s.repo.Page(q.Get("category"), q.Get("tag"), index.ListOptions{
			Page: intParam(q.Get("page"), 1),
			Size: intParam(q.Get("size"), 0),
		})
		if errors.Is(err, app.ErrNoStore) {
			writeError(w, http.StatusNotImplemented, "paging needs an index store")
			return
		}
		if err != nil {
			logger.For("serve").Error().Err(err).Msg("list posts")
			writeError(w, http.StatusInternalServerError, "list posts failed")
			return
		}
	case q.Get("category") != "":
		posts = s.repo.ByCategory(q.Get("category"))
	case q.Get("tag") != "":
		posts = s.repo.ByTag(q.Get("tag"))
	default:
		posts = s.repo.All()
	}
	out := make([]content.PostMetadata, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Metadata())
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	p, ok := s.repo.BySlug(slug)
	if !ok {
		writeError(w, http.StatusNotFound, "post not found: "+slug)
		return
	}
	related := s.repo.Related(p, s.cfg.Build.RelatedLimit)
	page, err := s.md.BuildPostPage(r.Context(), p, related, s.repo.Version())
	if err != nil {
		logger.For("serve").Error().Err(err).Str("slug", slug).Msg("render post")
		writeError(w, http.StatusInternalServerError, "render post failed")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, build.Categories(s.cfg, s.repo.All()))
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, build.Tags(s.repo.All()))
}

func (s *Server) handleSearchStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SearchStats{
		StatsSnapshot: s.stats.Snapshot(),
		Index:         s.indexSummary(),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	rep := s.repo.LastReport()
	info := VersionInfo{
		Version:  s.repo.Version(),
		Posts:    len(s.repo.All()),
		Failures: len(rep.Failures),
		LoadedAt: rep.LoadedAt,
	}
	switch cat, err := s.repo.CatalogInfo(); {
	case err == nil:
		info.Indexed = cat.Indexed
		if !cat.BuiltAt.IsZero() {
			info.BuiltAt = &cat.BuiltAt
		}
	case !errors.Is(err, app.ErrNoStore):
		logger.For("serve").Warn().Err(err).Msg("read catalog info")
	}
	writeJSON(w, http.StatusOK, info)
}

func intParam(v string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.For("serve").Warn().Err(err).Msg("write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
