package search

import (
	"encoding/json"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/jongmin-chung/jamie/internal/domain/content"
	"github.com/jongmin-chung/jamie/internal/render"
)

// minContentLength is the shortest plain-text content Optimize keeps.
const minContentLength = 10

func NewRecord(p content.Post) Record {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return Record{
		ID:          p.Slug,
		Title:       p.Title,
		Description: p.Description,
		Content:     render.PlainText(p.Content),
		Category:    p.Category,
		Tags:        tags,
		PublishedAt: p.PublishedDate(),
	}
}

// Build projects posts in order. It keeps no reference to them.
func Build(posts []content.Post) Index {
	idx := make(Index, 0, len(posts))
	for _, p := range posts {
		idx = append(idx, NewRecord(p))
	}
	return idx
}

// Add drops any record with the same id and appends the new projection.
func Add(idx Index, p content.Post) Index {
	return append(Remove(idx, p.Slug), NewRecord(p))
}

func Remove(idx Index, id string) Index {
	out := make(Index, 0, len(idx))
	for _, r := range idx {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}

func Update(idx Index, p content.Post) Index {
	return Add(idx, p)
}

// Optimize keeps the first record per id and drops records with an empty
// title or content of minContentLength characters or fewer.
func Optimize(idx Index) Index {
	seen := make(map[string]struct{}, len(idx))
	out := make(Index, 0, len(idx))
	for _, r := range idx {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		if strings.TrimSpace(r.Title) == "" {
			continue
		}
		if utf8.RuneCountInString(strings.TrimSpace(r.Content)) <= minContentLength {
			continue
		}
		if r.Tags == nil {
			r.Tags = []string{}
		}
		out = append(out, r)
	}
	return out
}

// Serialize optimizes idx and encodes it without indentation.
func Serialize(idx Index) ([]byte, error) {
	return json.Marshal(Optimize(idx))
}

// Validate reports whether data is a JSON array whose items carry every
// record field with the right primitive type.
func Validate(data []byte) bool {
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil || items == nil {
		return false
	}
	for _, item := range items {
		for _, key := range []string{"id", "title", "description", "content", "category", "publishedAt"} {
			var s string
			raw, ok := item[key]
			if !ok || json.Unmarshal(raw, &s) != nil || isNull(raw) {
				return false
			}
		}
		var tags []string
		raw, ok := item["tags"]
		if !ok || isNull(raw) || json.Unmarshal(raw, &tags) != nil {
			return false
		}
	}
	return true
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

// Deserialize decodes data, returning an empty Index for anything that does
// not pass Validate.
func Deserialize(data []byte) Index {
	if !Validate(data) {
		return Index{}
	}
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return Index{}
	}
	return idx
}

type IndexStats struct {
	TotalItems           int            `json:"totalItems"`
	Categories           int            `json:"categories"`
	Tags                 int            `json:"tags"`
	CategoryDistribution map[string]int `json:"categoryDistribution"`
	TagDistribution      map[string]int `json:"tagDistribution"`
	AverageContentLength int            `json:"averageContentLength"`
	IndexSize            int            `json:"indexSize"`
}

// Summarize reports totals and distributions for idx. IndexSize is the
// encoded size before Optimize.
func Summarize(idx Index) IndexStats {
	st := IndexStats{
		TotalItems:           len(idx),
		CategoryDistribution: map[string]int{},
		TagDistribution:      map[string]int{},
	}
	total := 0
	for _, r := range idx {
		st.CategoryDistribution[r.Category]++
		for _, t := range r.Tags {
			st.TagDistribution[t]++
		}
		total += utf8.RuneCountInString(r.Content)
	}
	st.Categories = len(st.CategoryDistribution)
	st.Tags = len(st.TagDistribution)
	if len(idx) > 0 {
		st.AverageContentLength = int(math.Round(float64(total) / float64(len(idx))))
	}
	if idx == nil {
		idx = Index{}
	}
	if b, err := json.Marshal(idx); err == nil {
		st.IndexSize = len(b)
	}
	return st
}
