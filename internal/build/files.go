package build

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/jongmin-chung/jamie/internal/app"
	"github.com/jongmin-chung/jamie/internal/domain/config"
	domainerr "github.com/jongmin-chung/jamie/internal/domain/errors"
	"github.com/jongmin-chung/jamie/internal/domain/site"
	"github.com/jongmin-chung/jamie/internal/logger"
)

// Artifacts lists the top-level files Run may write. Per-post page data lives
// under PostsDir.
var Artifacts = []string{
	SearchIndexFile,
	PostsMetadataFile,
	CategoriesFile,
	TagsFile,
	SiteStatsFile,
	SitemapFile,
	ManifestFile,
}

func writeFile(root, rel string, data []byte) error {
	full := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, data, 0o644)
}

func safePathSegment(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "untitled"
	}
	repl := func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		default:
			return '-'
		}
	}
	return strings.Map(repl, s)
}

// CleanStaticFiles removes generated artifacts from publicDir and leaves
// everything else alone. Missing files are ignored.
func CleanStaticFiles(publicDir string) error {
	log := logger.For("build")
	for _, name := range Artifacts {
		err := os.Remove(filepath.Join(publicDir, name))
		switch {
		case err == nil:
			log.Debug().Str("file", name).Msg("removed")
		case errors.Is(err, os.ErrNotExist):
		default:
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	if err := os.RemoveAll(filepath.Join(publicDir, PostsDir)); err != nil {
		return fmt.Errorf("remove %s: %w", PostsDir, err)
	}
	log.Info().Str("dir", publicDir).Msg("static data cleaned")
	return nil
}

// CheckRequirements reports every unmet precondition for a build: the content
// directory exists, at least one valid post is loaded and the public directory
// can be written.
func CheckRequirements(cfg config.Config, repo *app.Repository) error {
	var ve domainerr.ValidationError

	if fi, err := os.Stat(cfg.Content.Dir); err != nil || !fi.IsDir() {
		ve.Addf("content.dir", "%s is not a directory", cfg.Content.Dir)
	}
	if repo == nil || len(repo.All()) == 0 {
		ve.Add("posts", "no valid posts found")
	}
	if err := checkWritable(cfg.Build.PublicDir); err != nil {
		ve.Addf("build.public_dir", "not writable: %v", err)
	}

	if ve.HasAny() {
		return ve
	}
	return nil
}

func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".jamie-write-check-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

type BuildStats struct {
	PostsCount      int `json:"postsCount"`
	CategoriesCount int `json:"categoriesCount"`
	TagsCount       int `json:"tagsCount"`
	// TotalContentSize counts characters of raw markdown bodies.
	TotalContentSize int `json:"totalContentSize"`
}

// Stats counts distinct categories and tags actually used by posts.
func Stats(repo *app.Repository) BuildStats {
	cats := make(map[string]struct{})
	tags := make(map[string]struct{})
	var st BuildStats
	for _, p := range repo.All() {
		st.PostsCount++
		cats[p.Category] = struct{}{}
		for _, t := range p.Tags {
			tags[t] = struct{}{}
		}
		st.TotalContentSize += utf8.RuneCountInString(p.Content)
	}
	st.CategoriesCount = len(cats)
	st.TagsCount = len(tags)
	return st
}

// PostPaths returns one route per post for pre-rendering.
func PostPaths(repo *app.Repository) []site.Route {
	rb := &app.RouteBuilder{Repo: repo}
	return rb.PostRoutes(repo.All())
}
