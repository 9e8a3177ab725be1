package build

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jongmin-chung/jamie/internal/app"
	dbuild "github.com/jongmin-chung/jamie/internal/domain/build"
	"github.com/jongmin-chung/jamie/internal/domain/config"
	"github.com/jongmin-chung/jamie/internal/domain/content"
	domainerr "github.com/jongmin-chung/jamie/internal/domain/errors"
	"github.com/jongmin-chung/jamie/internal/render"
	"github.com/jongmin-chung/jamie/internal/search"
)

var body = "## 들어가며\n\n" + strings.Repeat("정적 데이터 생성기를 검증하기 위한 충분히 긴 본문입니다. ", 5) + "\n\n## 마치며\n\n끝."

var fixedNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func writePost(t *testing.T, dir, slug, header string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	doc := "---\n" + header + "---\n\n" + body
	require.NoError(t, os.WriteFile(filepath.Join(dir, slug+".md"), []byte(doc), 0o644))
}

func setup(t *testing.T) (config.Config, *app.Repository) {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Content.Dir = filepath.Join(root, "content", "posts")
	cfg.Build.PublicDir = filepath.Join(root, "public")
	cfg.Build.Now = fixedNow
	cfg.Site.SiteURL = "https://blog.example.com/"

	writePost(t, cfg.Content.Dir, "react-hooks", "title: React Hooks 완전 가이드\npublishedAt: \"2024-01-15\"\ncategory: frontend\ntags: [react, hooks]\n")
	writePost(t, cfg.Content.Dir, "react-state", "title: React 상태 관리 패턴\npublishedAt: \"2024-01-10\"\ncategory: frontend\ntags: [react]\nupdatedAt: \"2024-03-01\"\n")
	writePost(t, cfg.Content.Dir, "go-workers", "title: Go 워커 풀 만들기\npublishedAt: \"2024-02-01\"\ncategory: backend\ntags: [go]\n")

	repo := app.NewRepository(cfg, nil)
	_, err := repo.Reload(context.Background())
	require.NoError(t, err)
	require.Len(t, repo.All(), 3)
	return cfg, repo
}

func readJSON(t *testing.T, dir, name string, v any) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
	return data
}

func TestRunWritesArtifacts(t *testing.T) {
	cfg, repo := setup(t)
	g := &Generator{Cfg: cfg, Repo: repo, Now: func() time.Time { return fixedNow }}

	res, err := g.Run(context.Background())
	require.NoError(t, err)
	out := cfg.Build.PublicDir

	assert.Equal(t, 3, res.Posts)
	assert.Equal(t, []string{
		SearchIndexFile, PostsMetadataFile, CategoriesFile, TagsFile, SiteStatsFile,
		"posts/go-workers.json", "posts/react-hooks.json", "posts/react-state.json",
		SitemapFile, ManifestFile,
	}, res.Artifacts)

	raw, err := os.ReadFile(filepath.Join(out, SearchIndexFile))
	require.NoError(t, err)
	idx := search.Deserialize(raw)
	require.Len(t, idx, 3)
	assert.Equal(t, "go-workers", idx[0].ID)
	assert.Equal(t, len(raw), res.SearchIndexSize)

	var metas []content.PostMetadata
	readJSON(t, out, PostsMetadataFile, &metas)
	require.Len(t, metas, 3)
	assert.Equal(t, "react-hooks", metas[1].Slug)

	var cats []content.Category
	readJSON(t, out, CategoriesFile, &cats)
	require.Len(t, cats, len(cfg.Categories))
	assert.Equal(t, content.Category{ID: "frontend", Name: "프론트엔드", PostCount: 2}, cats[0])
	assert.Equal(t, 1, cats[1].PostCount)
	assert.Zero(t, cats[2].PostCount)

	var tags []content.Tag
	readJSON(t, out, TagsFile, &tags)
	assert.Equal(t, []content.Tag{
		{ID: "react", Name: "react", Count: 2},
		{ID: "go", Name: "go", Count: 1},
		{ID: "hooks", Name: "hooks", Count: 1},
	}, tags)

	var stats SiteStats
	data := readJSON(t, out, SiteStatsFile, &stats)
	assert.Contains(t, string(data), "\n  \"totalPosts\": 3")
	assert.Equal(t, 3, stats.TotalPosts)
	assert.Equal(t, len(cfg.Categories), stats.TotalCategories)
	assert.Equal(t, 3, stats.TotalTags)
	assert.Equal(t, 1, stats.AverageReadingTime)
	assert.True(t, fixedNow.Equal(stats.LastUpdated))
	assert.Equal(t, res.SearchIndexSize, stats.SearchIndexSize)

	var page render.PostPage
	readJSON(t, out, "posts/react-hooks.json", &page)
	assert.Equal(t, "react-hooks", page.Post.Slug)
	assert.Contains(t, page.HTML, `id="들어가며"`)
	assert.Len(t, page.TOC, 2)
	require.NotEmpty(t, page.Related)
	assert.Equal(t, "react-state", page.Related[0].Slug)

	var m dbuild.Manifest
	readJSON(t, out, ManifestFile, &m)
	assert.Equal(t, res.Manifest.BuildID, m.BuildID)
	assert.NotEmpty(t, m.BuildID)
	assert.Equal(t, repo.Version(), m.Version)
	assert.Len(t, m.Fingerprint.Files, len(res.Artifacts)-1)
	assert.Equal(t, dbuild.HashBytes(raw), m.Fingerprint.Files[SearchIndexFile])
	assert.NotEmpty(t, m.Fingerprint.Hash)
}

func TestRunSitemap(t *testing.T) {
	cfg, repo := setup(t)
	g := &Generator{Cfg: cfg, Repo: repo, Now: func() time.Time { return fixedNow }}
	_, err := g.Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(cfg.Build.PublicDir, SitemapFile))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<?xml"))

	var set urlSet
	require.NoError(t, xml.Unmarshal(data, &set))
	require.Len(t, set.URLs, 5)
	assert.Equal(t, "https://blog.example.com", set.URLs[0].Loc)
	assert.Equal(t, "1.0", set.URLs[0].Priority)
	assert.Equal(t, "daily", set.URLs[0].ChangeFreq)
	assert.Equal(t, "https://blog.example.com/blog", set.URLs[1].Loc)
	assert.Equal(t, "daily", set.URLs[1].ChangeFreq)
	assert.Equal(t, "0.9", set.URLs[1].Priority)
	assert.Equal(t, "weekly", set.URLs[2].ChangeFreq)
	assert.Equal(t, "0.8", set.URLs[2].Priority)
	assert.Equal(t, "https://blog.example.com/blog/go-workers", set.URLs[2].Loc)
	assert.Equal(t, "2024-02-01", set.URLs[2].LastMod)
	assert.Equal(t, "2024-03-01", set.URLs[4].LastMod, "updatedAt wins over publishedAt")
}

func TestRunOptionalArtifacts(t *testing.T) {
	cfg, repo := setup(t)
	cfg.Build.PageData = false
	cfg.Build.Sitemap = false
	res, err := (&Generator{Cfg: cfg, Repo: repo}).Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, res.Artifacts, 6)
	assert.NoFileExists(t, filepath.Join(cfg.Build.PublicDir, SitemapFile))
	assert.NoDirExists(t, filepath.Join(cfg.Build.PublicDir, PostsDir))
}

func TestRunEmptyRepository(t *testing.T) {
	cfg, _ := setup(t)
	repo := app.NewRepository(cfg, nil)
	_, err := (&Generator{Cfg: cfg, Repo: repo}).Run(context.Background())
	require.NoError(t, err)

	var stats SiteStats
	readJSON(t, cfg.Build.PublicDir, SiteStatsFile, &stats)
	assert.Zero(t, stats.TotalPosts)
	assert.Zero(t, stats.AverageReadingTime)

	raw, err := os.ReadFile(filepath.Join(cfg.Build.PublicDir, SearchIndexFile))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestRunCanceled(t *testing.T) {
	cfg, repo := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&Generator{Cfg: cfg, Repo: repo}).Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.NoFileExists(t, filepath.Join(cfg.Build.PublicDir, ManifestFile))
}

func TestRunFailsFastOnUnwritableDir(t *testing.T) {
	cfg, repo := setup(t)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	cfg.Build.PublicDir = filepath.Join(blocker, "public")

	_, err := (&Generator{Cfg: cfg, Repo: repo}).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), SearchIndexFile)
}

func TestCleanStaticFiles(t *testing.T) {
	cfg, repo := setup(t)
	_, err := (&Generator{Cfg: cfg, Repo: repo}).Run(context.Background())
	require.NoError(t, err)
	keep := filepath.Join(cfg.Build.PublicDir, "favicon.ico")
	require.NoError(t, os.WriteFile(keep, []byte("icon"), 0o644))

	require.NoError(t, CleanStaticFiles(cfg.Build.PublicDir))
	for _, name := range Artifacts {
		assert.NoFileExists(t, filepath.Join(cfg.Build.PublicDir, name))
	}
	assert.NoDirExists(t, filepath.Join(cfg.Build.PublicDir, PostsDir))
	assert.FileExists(t, keep)

	require.NoError(t, CleanStaticFiles(cfg.Build.PublicDir), "cleaning twice is fine")
	require.NoError(t, CleanStaticFiles(filepath.Join(t.TempDir(), "missing")))
}

func TestCheckRequirements(t *testing.T) {
	cfg, repo := setup(t)
	require.NoError(t, CheckRequirements(cfg, repo))

	bad := cfg
	bad.Content.Dir = filepath.Join(t.TempDir(), "nope")
	err := CheckRequirements(bad, app.NewRepository(bad, nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerr.ErrInvalid))
	var ve domainerr.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"content.dir", "posts"}, ve.Fields())
}

func TestStatsAndPostPaths(t *testing.T) {
	_, repo := setup(t)
	st := Stats(repo)
	assert.Equal(t, 3, st.PostsCount)
	assert.Equal(t, 2, st.CategoriesCount)
	assert.Equal(t, 3, st.TagsCount)
	assert.Equal(t, 3*len([]rune(body)), st.TotalContentSize)

	paths := PostPaths(repo)
	require.Len(t, paths, 3)
	assert.Equal(t, "/blog/go-workers", paths[0].Path)
}

func TestSafePathSegment(t *testing.T) {
	assert.Equal(t, "react-hooks", safePathSegment("react-hooks"))
	assert.Equal(t, "untitled", safePathSegment("  "))
	assert.Equal(t, "a-b", safePathSegment("a/b"))
}
