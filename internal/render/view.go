package render

import (
	"context"

	"github.com/jongmin-chung/jamie/internal/domain/content"
)

// PostPage is the page data for one post, consumed by the presentation layer.
type PostPage struct {
	Post    content.PostMetadata   `json:"post"`
	HTML    string                 `json:"html"`
	TOC     []content.Heading      `json:"toc"`
	Related []content.PostMetadata `json:"related"`
	Version uint64                 `json:"version"`
}

// BuildPostPage renders p and attaches related metadata.
func (r *MarkdownRenderer) BuildPostPage(ctx context.Context, p content.Post, related []content.Post, version uint64) (PostPage, error) {
	res, err := r.Render(ctx, []byte(p.Content))
	if err != nil {
		return PostPage{}, err
	}
	toc := res.Headings
	if toc == nil {
		toc = []content.Heading{}
	}
	rel := make([]content.PostMetadata, 0, len(related))
	for _, q := range related {
		rel = append(rel, q.Metadata())
	}
	return PostPage{
		Post:    p.Metadata(),
		HTML:    string(res.HTML),
		TOC:     toc,
		Related: rel,
		Version: version,
	}, nil
}
