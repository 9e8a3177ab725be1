// Package search builds the serialized search index from posts and answers
// weighted multi-field queries over it.
package search

// Record is the search projection of one post. ID is the post slug.
type Record struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	PublishedAt string   `json:"publishedAt"`
}

// Index is the ordered record list written to search-index.json.
type Index []Record

// Result is one ranked hit. Score is zero for unscored filters.
type Result struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	PublishedAt string   `json:"publishedAt"`
	Score       int      `json:"score,omitempty"`
}

func (r Record) result(score int) Result {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return Result{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		Tags:        tags,
		PublishedAt: r.PublishedAt,
		Score:       score,
	}
}

func (r Record) hasAnyTag(tags []string) bool {
	for _, want := range tags {
		for _, t := range r.Tags {
			if t == want {
				return true
			}
		}
	}
	return false
}
