package ingest

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/jongmin-chung/jamie/internal/domain/content"
	"github.com/jongmin-chung/jamie/internal/render"
)

type Options struct {
	Reading render.ReadingOptions
	// DefaultCategory replaces content.DefaultCategory when set.
	DefaultCategory string
	// Now supplies the date for ApplyDefaults. Defaults to time.Now.
	Now     func() time.Time
	Workers int
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Failure records why a document did not become a Post.
type Failure struct {
	Path   string `json:"path"`
	Slug   string `json:"slug"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Path, f.Reason)
}

func (f Failure) Unwrap() error { return f.Err }

// LoadResult carries both the valid posts and the documents that were
// skipped, so callers choose between strict and lenient handling.
type LoadResult struct {
	Posts    []content.Post
	Failures []Failure
}

type result struct {
	idx  int
	post content.Post
	fail *Failure
	err  error
}

// Load reads every markdown file under dir. Posts are sorted by publishedAt
// descending, then slug. A missing dir yields an empty result; other I/O
// errors are returned.
func Load(dir string, opts Options) (*LoadResult, error) {
	st, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return &LoadResult{}, nil
	}
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("content dir %s is not a directory", dir)
	}

	files, err := DiscoverSource(dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	jobs := make(chan int)
	results := make(chan result)

	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				sf := files[idx]
				raw, readErr := os.ReadFile(sf.Path)
				if readErr != nil {
					results <- result{idx: idx, err: readErr}
					continue
				}
				doc := ParseFrontmatter(raw)
				p, buildErr := BuildPost(sf.Slug, doc, opts)
				if buildErr != nil {
					results <- result{idx: idx, fail: &Failure{
						Path:   sf.Path,
						Slug:   sf.Slug,
						Reason: buildErr.Error(),
						Err:    buildErr,
					}}
					continue
				}
				p.SourcePath = sf.Path
				results <- result{idx: idx, post: p}
			}
		}()
	}

	go func() {
		for i := range files {
			jobs <- i
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	ordered := make([]result, len(files))
	var firstErr error
	for r := range results {
		if r.err != nil && firstErr == nil {
			firstErr = r.err
		}
		ordered[r.idx] = r
	}
	if firstErr != nil {
		return nil, firstErr
	}

	out := &LoadResult{}
	seen := make(map[string]string, len(files))
	for _, r := range ordered {
		if r.fail != nil {
			out.Failures = append(out.Failures, *r.fail)
			continue
		}
		if first, ok := seen[r.post.Slug]; ok {
			out.Failures = append(out.Failures, Failure{
				Path:   r.post.SourcePath,
				Slug:   r.post.Slug,
				Reason: "duplicate slug, already defined by " + first,
			})
			continue
		}
		seen[r.post.Slug] = r.post.SourcePath
		out.Posts = append(out.Posts, r.post)
	}

	SortPosts(out.Posts)
	return out, nil
}

// SortPosts orders posts newest first; equal dates fall back to slug.
func SortPosts(posts []content.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]
		if !a.PublishedAt.Equal(b.PublishedAt) {
			return a.PublishedAt.After(b.PublishedAt)
		}
		return a.Slug < b.Slug
	})
}
