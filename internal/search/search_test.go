package search

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jongmin-chung/jamie/internal/domain/content"
)

func sampleIndex() Index {
	return Index{
		{
			ID:          "a",
			Title:       "React Hooks 완전 가이드",
			Description: "함수 컴포넌트에서 상태를 다루는 법",
			Content:     "useState와 useEffect를 중심으로 hooks의 동작 원리를 설명합니다.",
			Category:    "frontend",
			Tags:        []string{"react", "hooks"},
			PublishedAt: "2024-01-15",
		},
		{
			ID:          "b",
			Title:       "TypeScript 기초",
			Description: "타입 시스템 입문",
			Content:     "인터페이스와 제네릭을 예제로 살펴봅니다.",
			Category:    "frontend",
			Tags:        []string{"typescript"},
			PublishedAt: "2024-01-10",
		},
	}
}

func ids(results []Result) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.ID)
	}
	return out
}

func TestSearchExamples(t *testing.T) {
	e := NewEngine(sampleIndex())
	assert.Equal(t, []string{"a"}, ids(e.Search("react", 10)))
	assert.Equal(t, []string{}, ids(e.Search("nonexistent-token-xyz", 10)))
	assert.Empty(t, e.Search("   ", 10))
	assert.Empty(t, e.Search("!!!", 10))
}

func TestSearchTitleOutscoresContent(t *testing.T) {
	idx := Index{
		{ID: "content-only", Title: "다른 제목", Content: "여기에는 kubernetes 이야기가 있습니다", Tags: []string{}},
		{ID: "title-only", Title: "kubernetes 입문", Content: "여기에는 다른 이야기가 있습니다", Tags: []string{}},
	}
	res := NewEngine(idx).Search("kubernetes", 10)
	require.Len(t, res, 2)
	assert.Equal(t, "title-only", res[0].ID)
	assert.Equal(t, 10, res[0].Score)
	assert.Equal(t, 1, res[1].Score)
}

func TestSearchScoresSumAcrossFields(t *testing.T) {
	e := NewEngine(sampleIndex())
	res := e.Search("hooks", 10)
	require.Len(t, res, 1)
	// title + content ("hooks의" prefix-matches)
	assert.Equal(t, 11, res[0].Score)
}

func TestSearchKoreanAndCase(t *testing.T) {
	e := NewEngine(sampleIndex())
	assert.Equal(t, []string{"b"}, ids(e.Search("타입", 10)))
	assert.Equal(t, []string{"a"}, ids(e.Search("REACT 가이드", 10)))
	// both terms must appear in the same field
	assert.Empty(t, e.Search("react 제네릭", 10))
}

func TestSearchTiesKeepIndexOrder(t *testing.T) {
	idx := Index{
		{ID: "x", Title: "golang 동시성"},
		{ID: "y", Title: "golang 채널"},
		{ID: "z", Title: "golang 컨텍스트"},
	}
	e := NewEngine(idx)
	for i := 0; i < 5; i++ {
		assert.Equal(t, []string{"x", "y", "z"}, ids(e.Search("golang", 10)))
	}
	assert.Equal(t, []string{"x", "y"}, ids(e.Search("golang", 2)))
}

func TestByCategoryAndTags(t *testing.T) {
	e := NewEngine(sampleIndex())
	assert.Equal(t, []string{"a", "b"}, ids(e.ByCategory("frontend")))
	assert.Empty(t, e.ByCategory("backend"))
	assert.Equal(t, []string{"b"}, ids(e.ByTags([]string{"typescript", "rust"})))
	assert.Empty(t, e.ByTags(nil))
}

func TestSuggestions(t *testing.T) {
	e := NewEngine(sampleIndex())
	assert.Equal(t, []string{"React", "react"}, e.Suggestions("rea", 5))
	assert.Equal(t, []string{"React"}, e.Suggestions("rea", 1))
	assert.Empty(t, e.Suggestions("r", 5))
	assert.Empty(t, e.Suggestions("zzz", 5))
}

func TestRun(t *testing.T) {
	e := NewEngine(sampleIndex())

	resp := e.Run(Query{Term: "react"})
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, "react", resp.Query)

	resp = e.Run(Query{Category: "frontend", Limit: 1, Offset: 1})
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, []string{"b"}, ids(resp.Results))

	resp = e.Run(Query{Term: "react", Category: "backend"})
	assert.Zero(t, resp.Total)
	assert.NotNil(t, resp.Results)

	resp = e.Run(Query{Tags: []string{"hooks"}})
	assert.Equal(t, []string{"a"}, ids(resp.Results))

	resp = e.Run(Query{})
	assert.Zero(t, resp.Total)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "react hooks 가이드", Normalize("  React, Hooks!!   가이드 "))
	assert.Equal(t, "ㅎㅎ 한글", Normalize("ㅎㅎ~ 한글"))
	assert.Equal(t, "node_js 18", Normalize("node_js@18"))
	// decomposed jamo compose to the same syllable
	assert.Equal(t, "한", Normalize("\u1112\u1161\u11ab"))
	assert.Equal(t, "", Normalize(""))
}

func TestHighlight(t *testing.T) {
	out := Highlight("React is great", "React")
	assert.Equal(t, "<mark>React</mark> is great", out)
	assert.Equal(t, 1, strings.Count(out, "<mark>"))

	assert.Equal(t, "<mark>react</mark> and <mark>REACT</mark>", Highlight("react and REACT", "React"))
	assert.Equal(t, "a b c", Highlight("a b c", "a"))
	assert.Equal(t, "text", Highlight("text", "  "))
	assert.Equal(t, "1+1=<mark>2+</mark>", Highlight("1+1=2+", "2+"))
	assert.Equal(t, "훅", Highlight("훅", "훅"), "single-rune terms are skipped")
	assert.Equal(t, "<mark>리액트</mark> 훅", Highlight("리액트 훅", "리액트"))
}

func post(slug, title, body string, tags ...string) content.Post {
	return content.Post{
		Slug:        slug,
		Title:       title,
		Content:     body,
		Category:    "frontend",
		Tags:        tags,
		PublishedAt: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
	}
}

func TestBuildAndHelpers(t *testing.T) {
	idx := Build([]content.Post{
		post("a", "첫 글", "# 제목\n\n**굵은** 본문과 [링크](http://x)"),
		post("b", "둘째 글", "본문", "go"),
	})
	require.Len(t, idx, 2)
	assert.Equal(t, "제목\n굵은 본문과 링크", idx[0].Content)
	assert.Equal(t, "2024-01-15", idx[0].PublishedAt)
	assert.NotNil(t, idx[0].Tags)

	idx = Add(idx, post("a", "첫 글 수정", "새 본문"))
	assert.Equal(t, []string{"b", "a"}, recordIDs(idx))
	assert.Equal(t, "첫 글 수정", idx[1].Title)

	idx = Update(idx, post("c", "셋째", "본문"))
	assert.Equal(t, []string{"b", "a", "c"}, recordIDs(idx))

	idx = Remove(idx, "b")
	assert.Equal(t, []string{"a", "c"}, recordIDs(idx))
	assert.Len(t, Remove(idx, "missing"), 2)
}

func recordIDs(idx Index) []string {
	out := make([]string, 0, len(idx))
	for _, r := range idx {
		out = append(out, r.ID)
	}
	return out
}

func TestOptimize(t *testing.T) {
	long := "충분히 긴 본문 내용입니다"
	idx := Index{
		{ID: "a", Title: "first", Content: long},
		{ID: "a", Title: "dup", Content: long},
		{ID: "b", Title: "  ", Content: long},
		{ID: "c", Title: "short", Content: "0123456789"},
		{ID: "d", Title: "ok", Content: "01234567890"},
	}
	got := Optimize(idx)
	assert.Equal(t, []string{"a", "d"}, recordIDs(got))
	assert.Equal(t, "first", got[0].Title)
	assert.NotNil(t, got[1].Tags)
}

func TestSerializeRoundTripEqualsOptimize(t *testing.T) {
	idx := append(sampleIndex(), sampleIndex()[0], Record{ID: "tiny", Title: "t", Content: "x"})
	data, err := Serialize(idx)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "\n")
	assert.NotContains(t, string(data), "null")
	assert.Equal(t, Optimize(idx), Deserialize(data))

	empty, err := Serialize(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}

func TestDeserializeMalformed(t *testing.T) {
	for _, in := range []string{
		"",
		"not json",
		"null",
		`{"id":"a"}`,
		`[{"id":"a","title":"t","description":"d","content":"c","category":"x","publishedAt":"2024-01-01"}]`,
		`[{"id":"a","title":"t","description":"d","content":"c","category":"x","tags":null,"publishedAt":"2024-01-01"}]`,
		`[{"id":1,"title":"t","description":"d","content":"c","category":"x","tags":[],"publishedAt":"2024-01-01"}]`,
		`[{"id":"a","title":"t","description":"d","content":"c","category":"x","tags":[1],"publishedAt":"2024-01-01"}]`,
	} {
		got := Deserialize([]byte(in))
		assert.NotNil(t, got, in)
		assert.Empty(t, got, in)
	}
	assert.True(t, Validate([]byte("[]")))
}

func TestSummarize(t *testing.T) {
	st := Summarize(sampleIndex())
	assert.Equal(t, 2, st.TotalItems)
	assert.Equal(t, 1, st.Categories)
	assert.Equal(t, 3, st.Tags)
	assert.Equal(t, map[string]int{"frontend": 2}, st.CategoryDistribution)
	assert.Equal(t, 1, st.TagDistribution["react"])

	raw, err := json.Marshal(sampleIndex())
	require.NoError(t, err)
	assert.Equal(t, len(raw), st.IndexSize)

	empty := Summarize(nil)
	assert.Zero(t, empty.AverageContentLength)
	assert.Equal(t, 2, empty.IndexSize)
}

func TestQueryStats(t *testing.T) {
	s := NewQueryStats()
	s.Record("React", 2*time.Millisecond, 3)
	s.Record("react", 4*time.Millisecond, 1)
	s.Record("go", 3*time.Millisecond, 2)
	s.Record("없는검색어", time.Millisecond, 0)
	s.Record("rust", time.Millisecond, 0)
	s.Record("없는검색어", time.Millisecond, 0)
	s.Record("  ", time.Millisecond, 0)

	snap := s.Snapshot()
	assert.Equal(t, 6, snap.TotalQueries)
	assert.InDelta(t, 2.0, snap.AverageResponseTime, 0.001)
	assert.Equal(t, []string{"react", "없는검색어", "go", "rust"}, snap.PopularQueries)
	assert.Equal(t, []string{"없는검색어", "rust"}, snap.NoResultQueries)

	empty := NewQueryStats().Snapshot()
	assert.NotNil(t, empty.PopularQueries)
	assert.NotNil(t, empty.NoResultQueries)
}
