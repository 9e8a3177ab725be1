package build

import (
	"sort"

	"github.com/jongmin-chung/jamie/internal/domain/config"
	"github.com/jongmin-chung/jamie/internal/domain/content"
)

// Categories lists every configured category in configured order, including
// those without posts.
func Categories(cfg config.Config, posts []content.Post) []content.Category {
	counts := make(map[string]int)
	for _, p := range posts {
		counts[p.Category]++
	}
	out := make([]content.Category, 0, len(cfg.Categories))
	for _, c := range cfg.Categories {
		out = append(out, content.Category{
			ID:        c.ID,
			Name:      c.Name,
			PostCount: counts[c.ID],
		})
	}
	return out
}

// Tags counts every tag used by posts, most used first, then by name.
func Tags(posts []content.Post) []content.Tag {
	counts := make(map[string]int)
	for _, p := range posts {
		for _, t := range p.Tags {
			counts[t]++
		}
	}
	out := make([]content.Tag, 0, len(counts))
	for name, n := range counts {
		out = append(out, content.Tag{ID: name, Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}
