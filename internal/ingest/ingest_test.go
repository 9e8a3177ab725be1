package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jongmin-chung/jamie/internal/domain/content"
	domainerr "github.com/jongmin-chung/jamie/internal/domain/errors"
	"github.com/jongmin-chung/jamie/internal/render"
)

var longBody = strings.Repeat("리액트 훅은 함수 컴포넌트에서 상태를 다루는 방법입니다. ", 6)

func fixedNow() time.Time {
	return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
}

func testOptions() Options {
	return Options{Reading: render.DefaultReadingOptions(), Now: fixedNow, Workers: 2}
}

func writeDoc(t *testing.T, dir, name, header, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("---\n"+header+"\n---\n\n"+body), 0o644))
	return path
}

func TestParseFrontmatter(t *testing.T) {
	doc := ParseFrontmatter([]byte("---\ntitle: 안녕하세요 세계\npublishedAt: \"2024-01-15\"\ntags:\n  - react\n  - hooks\n---\n\n# 본문\n"))
	assert.Equal(t, "안녕하세요 세계", doc.Data["title"])
	assert.Equal(t, "2024-01-15", doc.Data["publishedAt"])
	assert.Equal(t, "# 본문\n", doc.Body)
}

func TestParseFrontmatterSkipsBOM(t *testing.T) {
	doc := ParseFrontmatter([]byte("\ufeff---\ntitle: Hello World\npublishedAt: \"2024-01-01\"\n---\nbody"))
	assert.Equal(t, "Hello World", doc.Data["title"])
	assert.Equal(t, "body", doc.Body)
	assert.True(t, IsValid(doc.Data))
}

func TestParseFrontmatterFailsSoft(t *testing.T) {
	empty := ParseFrontmatter(nil)
	assert.Empty(t, empty.Data)
	assert.Empty(t, empty.Body)

	plain := ParseFrontmatter([]byte("# 제목만 있는 문서\n"))
	assert.Empty(t, plain.Data)
	assert.Equal(t, "# 제목만 있는 문서\n", plain.Body)

	broken := "---\ntitle: [unclosed\n---\nbody\n"
	bad := ParseFrontmatter([]byte(broken))
	assert.Empty(t, bad.Data)
	assert.Equal(t, broken, bad.Body)
}

func TestValidateFrontmatter(t *testing.T) {
	ok := ValidateFrontmatter(map[string]any{
		"title":       "React Hooks 완전 가이드",
		"publishedAt": "2024-01-15",
		"tags":        []any{"react", "hooks"},
		"category":    "frontend",
	})
	require.True(t, ok.Valid)
	assert.NoError(t, ok.Err())
	assert.Equal(t, "frontend", ok.Record.Category)
	assert.Equal(t, []string{"react", "hooks"}, ok.Record.Tags)

	ts := ValidateFrontmatter(map[string]any{
		"title":       "날짜 타입",
		"publishedAt": time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	require.True(t, ts.Valid)
	assert.Equal(t, "2024-01-15", ts.Record.PublishedAt)

	bad := ValidateFrontmatter(map[string]any{
		"title":  "",
		"tags":   "react",
		"author": 42,
	})
	require.False(t, bad.Valid)
	assert.True(t, errors.Is(bad.Err(), domainerr.ErrInvalid))
	assert.True(t, bad.Violations.Has("title"))
	assert.True(t, bad.Violations.Has("publishedAt"))
	assert.True(t, bad.Violations.Has("tags"))
	assert.True(t, bad.Violations.Has("author"))

	assert.False(t, IsValid(map[string]any{"title": "t", "publishedAt": "2024-01-01", "tags": []any{"a", 1}}))
	assert.False(t, IsValid(map[string]any{"title": "t", "publishedAt": ""}))
	assert.False(t, IsValid(map[string]any{}))
}

func TestApplyDefaults(t *testing.T) {
	rec := ApplyDefaults(content.FrontmatterRecord{}, fixedNow())
	assert.Equal(t, content.FrontmatterRecord{
		Title:       "Untitled",
		PublishedAt: "2024-03-01",
		Category:    "general",
		Tags:        []string{},
		Author:      "Anonymous",
	}, rec)

	kept := ApplyDefaults(content.FrontmatterRecord{Title: "제목", PublishedAt: "2023-12-31", Tags: []string{" go ", "go", ""}}, fixedNow())
	assert.Equal(t, "2023-12-31", kept.PublishedAt)
	assert.Equal(t, []string{"go"}, kept.Tags)
}

func TestParsedThenDefaultedIsValid(t *testing.T) {
	doc := ParseFrontmatter([]byte("---\ntitle: 타입스크립트 기초\npublishedAt: 2024-02-01\n---\nbody"))
	res := ValidateFrontmatter(doc.Data)
	require.True(t, res.Valid)

	rec := ApplyDefaults(res.Record, fixedNow())
	data := map[string]any{
		"title":       rec.Title,
		"publishedAt": rec.PublishedAt,
		"description": rec.Description,
		"category":    rec.Category,
		"author":      rec.Author,
		"tags":        rec.Tags,
	}
	assert.True(t, IsValid(data))
}

func TestStringifyFrontmatter(t *testing.T) {
	out, err := StringifyFrontmatter(content.FrontmatterRecord{
		Title:       "새 글",
		PublishedAt: "2024-03-01",
		Category:    "backend",
		Author:      "jamie",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "---\n"))
	assert.True(t, strings.HasSuffix(out, "---\n"))
	assert.NotContains(t, out, "updatedAt")
	assert.Contains(t, out, "tags: []")

	doc := ParseFrontmatter([]byte(out + "\nbody"))
	assert.Equal(t, "새 글", doc.Data["title"])
	assert.Equal(t, "body", doc.Body)
}

func TestParseTime(t *testing.T) {
	for _, in := range []string{"2024-01-15", "2024-01-15T00:00:00Z", "2024-01-15 00:00"} {
		got, err := ParseTime(in)
		require.NoError(t, err, in)
		assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), got, in)
	}
	_, err := ParseTime("15/01/2024")
	assert.Error(t, err)
}

func TestBuildPost(t *testing.T) {
	doc := Document{
		Data: map[string]any{
			"title":       "React Hooks 완전 가이드",
			"description": "함수 컴포넌트의 상태 관리 방법을 정리합니다.",
			"publishedAt": "2024-01-15",
			"updatedAt":   "2024-01-20",
			"tags":        []any{"react", "hooks"},
		},
		Body: longBody,
	}
	p, err := BuildPost("react-hooks", doc, testOptions())
	require.NoError(t, err)
	assert.Equal(t, "react-hooks", p.Slug)
	assert.Equal(t, "general", p.Category)
	assert.Equal(t, "Anonymous", p.Author)
	assert.Equal(t, "2024-01-15", p.PublishedDate())
	require.NotNil(t, p.UpdatedAt)
	assert.Equal(t, 20, p.UpdatedAt.Day())
	assert.Equal(t, 1, p.ReadingTime)
}

func TestBuildPostWithoutFrontmatter(t *testing.T) {
	_, err := BuildPost("plain", ParseFrontmatter([]byte(longBody)), testOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoFrontmatter)
	assert.ErrorIs(t, err, domainerr.ErrInvalid)
}

func TestBuildPostRejectsShape(t *testing.T) {
	base := func() map[string]any {
		return map[string]any{"title": "올바른 제목입니다", "publishedAt": "2024-01-15"}
	}

	_, err := BuildPost("Bad_Slug", Document{Data: base(), Body: longBody}, testOptions())
	var ve domainerr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.Has("slug"))

	short := base()
	short["title"] = "짧음"
	_, err = BuildPost("ok", Document{Data: short, Body: "too short"}, testOptions())
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.Has("title"))
	assert.True(t, ve.Has("content"))

	many := base()
	many["tags"] = []any{"a", "b", "c", "d", "e", "f"}
	many["description"] = "짧다"
	_, err = BuildPost("ok", Document{Data: many, Body: longBody}, testOptions())
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.Has("tags"))
	assert.True(t, ve.Has("description"))

	badDate := base()
	badDate["publishedAt"] = "어제"
	_, err = BuildPost("ok", Document{Data: badDate, Body: longBody}, testOptions())
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.Has("publishedAt"))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "older.md", "title: 오래된 글입니다\npublishedAt: 2023-05-01\ncategory: backend", longBody)
	writeDoc(t, dir, "newer.md", "title: 새로 쓴 글입니다\npublishedAt: 2024-05-01\ncategory: frontend", longBody)
	writeDoc(t, dir, "same-day-b.md", "title: 같은 날 두번째\npublishedAt: 2024-01-01", longBody)
	writeDoc(t, dir, "same-day-a.md", "title: 같은 날 첫번째\npublishedAt: 2024-01-01", longBody)
	writeDoc(t, dir, "no-date.md", "title: 날짜 없는 글", longBody)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	res, err := Load(dir, testOptions())
	require.NoError(t, err)

	slugs := make([]string, 0, len(res.Posts))
	for _, p := range res.Posts {
		slugs = append(slugs, p.Slug)
		assert.NotEmpty(t, p.SourcePath)
	}
	assert.Equal(t, []string{"newer", "same-day-a", "same-day-b", "older"}, slugs)

	require.Len(t, res.Failures, 1)
	assert.Equal(t, "no-date", res.Failures[0].Slug)
	assert.Contains(t, res.Failures[0].Reason, "publishedAt")
}

func TestLoadDuplicateSlugs(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a/post.md", "title: 첫번째 경로의 글\npublishedAt: 2024-01-01", longBody)
	writeDoc(t, dir, "b/post.md", "title: 두번째 경로의 글\npublishedAt: 2024-02-01", longBody)

	res, err := Load(dir, testOptions())
	require.NoError(t, err)
	require.Len(t, res.Posts, 1)
	assert.Equal(t, "첫번째 경로의 글", res.Posts[0].Title)
	require.Len(t, res.Failures, 1)
	assert.Contains(t, res.Failures[0].Reason, "duplicate slug")
}

func TestLoadMissingDir(t *testing.T) {
	res, err := Load(filepath.Join(t.TempDir(), "missing"), testOptions())
	require.NoError(t, err)
	assert.Empty(t, res.Posts)
	assert.Empty(t, res.Failures)
}

func TestLoadRejectsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.md")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	_, err := Load(path, testOptions())
	assert.Error(t, err)
}

func TestDiscoverSourceSkipsHidden(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "visible.md", "title: x", "")
	writeDoc(t, dir, ".draft.md", "title: x", "")
	writeDoc(t, dir, ".git/readme.md", "title: x", "")
	writeDoc(t, dir, "nested/deep.markdown", "title: x", "")

	files, err := DiscoverSource(dir)
	require.NoError(t, err)
	var slugs []string
	for _, f := range files {
		slugs = append(slugs, f.Slug)
	}
	assert.ElementsMatch(t, []string{"visible", "deep"}, slugs)
}
