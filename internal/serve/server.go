// Package serve is the local preview server: JSON data and search API over
// the current content snapshot, the generated public dir, and live reload.
package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/hlog"

	"github.com/jongmin-chung/jamie/internal/app"
	"github.com/jongmin-chung/jamie/internal/build"
	"github.com/jongmin-chung/jamie/internal/domain/config"
	"github.com/jongmin-chung/jamie/internal/logger"
	"github.com/jongmin-chung/jamie/internal/render"
	"github.com/jongmin-chung/jamie/internal/search"
)

const debounceDelay = 200 * time.Millisecond

type Server struct {
	cfg   config.Config
	repo  *app.Repository
	gen   *build.Generator
	md    *render.MarkdownRenderer
	stats *search.QueryStats

	mu      sync.RWMutex
	engine  *search.Engine
	summary search.IndexStats

	sseMu     sync.Mutex
	sseConns  map[chan string]struct{}
	watcher   *fsnotify.Watcher
	watchOnce sync.Once
}

func New(cfg config.Config, repo *app.Repository) *Server {
	md := render.NewMarkdownRenderer(render.DefaultOptions())
	return &Server{
		cfg:      cfg,
		repo:     repo,
		gen:      &build.Generator{Cfg: cfg, Repo: repo, Renderer: md},
		md:       md,
		stats:    search.NewQueryStats(),
		engine:   search.NewEngine(search.Index{}),
		sseConns: make(map[chan string]struct{}),
	}
}

func (s *Server) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	log := logger.For("serve")
	if err := s.Rebuild(ctx); err != nil {
		return err
	}
	if err := s.startWatch(ctx); err != nil {
		return fmt.Errorf("watch %s: %w", s.cfg.Content.Dir, err)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Str("public", s.cfg.Build.PublicDir).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Rebuild reloads content, swaps the search engine, regenerates the public
// artifacts and tells connected browsers to reload.
func (s *Server) Rebuild(ctx context.Context) error {
	log := logger.For("serve")

	rep, err := s.repo.Reload(ctx)
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	idx := search.Build(s.repo.All())
	summary := search.Summarize(idx)
	engine := search.NewEngine(search.Optimize(idx))
	s.mu.Lock()
	s.engine = engine
	s.summary = summary
	s.mu.Unlock()

	res, err := s.gen.Run(ctx)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	log.Info().
		Int("posts", rep.Posts).
		Int("failures", len(rep.Failures)).
		Int("indexed", engine.Len()).
		Int("artifacts", len(res.Artifacts)).
		Uint64("version", rep.Version).
		Msg("rebuild complete")
	s.broadcastSSE("reload")
	return nil
}

func (s *Server) currentEngine() *search.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

func (s *Server) indexSummary() search.IndexStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("GET /api/suggest", s.handleSuggest)
	mux.HandleFunc("GET /api/posts", s.handlePosts)
	mux.HandleFunc("GET /api/posts/{slug}", s.handlePost)
	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("GET /api/tags", s.handleTags)
	mux.HandleFunc("GET /api/search-stats", s.handleSearchStats)
	mux.HandleFunc("GET /api/version", s.handleVersion)

	// dev SSE
	mux.HandleFunc("GET /dev/events", s.handleSSE)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /", http.FileServer(http.Dir(s.cfg.Build.PublicDir)))

	log := logger.For("serve")
	h := hlog.AccessHandler(func(r *http.Request, status, size int, took time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("took", took).
			Msg("request")
	})(mux)
	return hlog.NewHandler(*log)(h)
}

func (s *Server) startWatch(ctx context.Context) error {
	var err error
	s.watchOnce.Do(func() {
		w, e := fsnotify.NewWatcher()
		if e != nil {
			err = e
			return
		}
		s.watcher = w

		go s.watchLoop(ctx)

		err = filepath.Walk(s.cfg.Content.Dir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return w.Add(path)
			}
			return nil
		})
	})
	return err
}

func (s *Server) watchLoop(ctx context.Context) {
	log := logger.For("serve")
	log.Info().Str("dir", s.cfg.Content.Dir).Msg("watching for file changes")

	debounce := time.NewTimer(time.Hour)
	debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					_ = s.watcher.Add(ev.Name)
				}
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				debounce.Reset(debounceDelay)
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("watcher error")
		case <-debounce.C:
			ctx2, cancel := context.WithTimeout(ctx, 10*time.Second)
			if err := s.Rebuild(ctx2); err != nil {
				log.Error().Err(err).Msg("rebuild failed")
			}
			cancel()
		}
	}
}

func (s *Server) subscribe() chan string {
	ch := make(chan string, 8)
	s.sseMu.Lock()
	s.sseConns[ch] = struct{}{}
	s.sseMu.Unlock()
	return ch
}

func (s *Server) unsubscribe(ch chan string) {
	s.sseMu.Lock()
	delete(s.sseConns, ch)
	close(ch)
	s.sseMu.Unlock()
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.subscribe()
	defer s.unsubscribe(ch)

	fmt.Fprintf(w, "data: %s\n\n", "hello")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// broadcastSSE drops the message for subscribers whose buffer is full.
func (s *Server) broadcastSSE(msg string) {
	s.sseMu.Lock()
	defer s.sseMu.Unlock()
	for ch := range s.sseConns {
		select {
		case ch <- msg:
		default:
		}
	}
}
