package search

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	DefaultLimit = 10

	titleWeight       = 10
	descriptionWeight = 5
	contentWeight     = 1
)

// fieldIndex maps each token of one field to the records containing it.
// terms is sorted so prefix lookups are a binary search plus a scan.
type fieldIndex struct {
	terms    []string
	postings map[string]map[int]int // term -> record -> frequency
}

func newFieldIndex(values []string) *fieldIndex {
	fi := &fieldIndex{postings: make(map[string]map[int]int)}
	for doc, v := range values {
		for _, tok := range Tokenize(v) {
			p, ok := fi.postings[tok]
			if !ok {
				p = make(map[int]int)
				fi.postings[tok] = p
				fi.terms = append(fi.terms, tok)
			}
			p[doc]++
		}
	}
	sort.Strings(fi.terms)
	return fi
}

// match returns frequency per record for tokens equal to or starting with term.
func (fi *fieldIndex) match(term string) map[int]int {
	out := make(map[int]int)
	i := sort.SearchStrings(fi.terms, term)
	for ; i < len(fi.terms) && strings.HasPrefix(fi.terms[i], term); i++ {
		for doc, n := range fi.postings[fi.terms[i]] {
			out[doc] += n
		}
	}
	return out
}

// search returns records matching every term, highest frequency first, then
// record order, capped at limit.
func (fi *fieldIndex) search(terms []string, limit int) []int {
	var acc map[int]int
	for _, term := range terms {
		hits := fi.match(term)
		if acc == nil {
			acc = hits
		} else {
			for doc, n := range acc {
				if m, ok := hits[doc]; ok {
					acc[doc] = n + m
				} else {
					delete(acc, doc)
				}
			}
		}
		if len(acc) == 0 {
			return nil
		}
	}

	docs := make([]int, 0, len(acc))
	for doc := range acc {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		a, b := docs[i], docs[j]
		if acc[a] != acc[b] {
			return acc[a] > acc[b]
		}
		return a < b
	})
	if len(docs) > limit {
		docs = docs[:limit]
	}
	return docs
}

// Engine answers ranked queries over one Index. It is immutable and safe for
// concurrent use.
type Engine struct {
	records     Index
	title       *fieldIndex
	description *fieldIndex
	content     *fieldIndex
}

func NewEngine(idx Index) *Engine {
	titles := make([]string, len(idx))
	descs := make([]string, len(idx))
	bodies := make([]string, len(idx))
	for i, r := range idx {
		titles[i] = r.Title
		descs[i] = r.Description
		bodies[i] = r.Content
	}
	return &Engine{
		records:     idx,
		title:       newFieldIndex(titles),
		description: newFieldIndex(descs),
		content:     newFieldIndex(bodies),
	}
}

func (e *Engine) Len() int {
	return len(e.records)
}

// Search scores title hits 10, description hits 5 and content hits 1, summed
// per record. Equal scores keep index order. Each field contributes at most
// limit*2 candidates.
func (e *Engine) Search(query string, limit int) []Result {
	if limit <= 0 {
		limit = DefaultLimit
	}
	terms := Tokenize(query)
	if len(terms) == 0 {
		return []Result{}
	}

	scores := make(map[int]int)
	for _, f := range []struct {
		fi     *fieldIndex
		weight int
	}{
		{e.title, titleWeight},
		{e.description, descriptionWeight},
		{e.content, contentWeight},
	} {
		for _, doc := range f.fi.search(terms, limit*2) {
			scores[doc] += f.weight
		}
	}

	docs := make([]int, 0, len(scores))
	for doc := range scores {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		a, b := docs[i], docs[j]
		if scores[a] != scores[b] {
			return scores[a] > scores[b]
		}
		return a < b
	})
	if len(docs) > limit {
		docs = docs[:limit]
	}

	out := make([]Result, 0, len(docs))
	for _, doc := range docs {
		out = append(out, e.records[doc].result(scores[doc]))
	}
	return out
}

func (e *Engine) ByCategory(category string) []Result {
	out := []Result{}
	for _, r := range e.records {
		if r.Category == category {
			out = append(out, r.result(0))
		}
	}
	return out
}

// ByTags returns records carrying at least one of tags.
func (e *Engine) ByTags(tags []string) []Result {
	out := []Result{}
	for _, r := range e.records {
		if r.hasAnyTag(tags) {
			out = append(out, r.result(0))
		}
	}
	return out
}

// Suggestions collects title words and tags of the best matches that contain
// query, case-insensitively, in result order.
func (e *Engine) Suggestions(query string, limit int) []string {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < 2 || limit <= 0 {
		return []string{}
	}
	needle := strings.ToLower(q)

	out := []string{}
	seen := make(map[string]struct{})
	add := func(s string) {
		if len(out) >= limit || !strings.Contains(strings.ToLower(s), needle) {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for _, res := range e.Search(q, limit*2) {
		for _, word := range strings.Fields(res.Title) {
			add(word)
		}
		for _, tag := range res.Tags {
			add(tag)
		}
	}
	return out
}

// Query is a search request with optional filters and paging.
type Query struct {
	Term     string   `json:"term"`
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Limit    int      `json:"limit,omitempty"`
	Offset   int      `json:"offset,omitempty"`
}

type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
	// Took is in milliseconds.
	Took float64 `json:"took"`
}

// Run executes q: ranked search when Term is set, otherwise the category and
// tag filters alone. Total counts matches before paging.
func (e *Engine) Run(q Query) Response {
	start := time.Now()
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	var hits []Result
	switch {
	case strings.TrimSpace(q.Term) != "":
		hits = e.Search(q.Term, len(e.records)+1)
	case q.Category != "":
		hits = e.ByCategory(q.Category)
	case len(q.Tags) > 0:
		hits = e.ByTags(q.Tags)
	default:
		hits = []Result{}
	}

	filtered := hits[:0:0]
	for _, h := range hits {
		if q.Category != "" && h.Category != q.Category {
			continue
		}
		if len(q.Tags) > 0 && !(Record{Tags: h.Tags}).hasAnyTag(q.Tags) {
			continue
		}
		filtered = append(filtered, h)
	}

	total := len(filtered)
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	page := make([]Result, end-offset)
	copy(page, filtered[offset:end])

	return Response{
		Results: page,
		Total:   total,
		Query:   q.Term,
		Took:    float64(time.Since(start).Microseconds()) / 1000,
	}
}
