package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/jongmin-chung/jamie/internal/domain/content"
	domainerr "github.com/jongmin-chung/jamie/internal/domain/errors"
	"github.com/jongmin-chung/jamie/internal/render"
)

var slugRegex = regexp.MustCompile(`^[a-z0-9-]+$`)

// ErrNoFrontmatter marks documents without any header data.
var ErrNoFrontmatter = errors.New("no frontmatter")

// ValidSlug reports whether s is usable as a post slug.
func ValidSlug(s string) bool {
	return slugRegex.MatchString(s)
}

// SlugFromPath is the file base name without its markdown extension.
func SlugFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// BuildPost turns a parsed document into a Post: validate the header, apply
// defaults, parse dates, derive reading time, then check the post shape.
// Failures are returned as domainerr.ValidationError, additionally wrapping
// ErrNoFrontmatter when the document had no header.
func BuildPost(slug string, doc Document, opts Options) (content.Post, error) {
	fm := ValidateFrontmatter(doc.Data)
	if !fm.Valid {
		if len(doc.Data) == 0 {
			return content.Post{}, fmt.Errorf("%w: %w", ErrNoFrontmatter, fm.Violations)
		}
		return content.Post{}, fm.Violations
	}
	partial := fm.Record
	if partial.Category == "" {
		partial.Category = opts.DefaultCategory
	}
	rec := ApplyDefaults(partial, opts.now())

	var ve domainerr.ValidationError
	published, err := ParseTime(rec.PublishedAt)
	if err != nil {
		ve.Add("publishedAt", err.Error())
	}
	var updated *time.Time
	if rec.UpdatedAt != "" {
		t, err := ParseTime(rec.UpdatedAt)
		if err != nil {
			ve.Add("updatedAt", err.Error())
		} else {
			updated = &t
		}
	}
	if ve.HasAny() {
		return content.Post{}, ve
	}

	p := content.Post{
		Slug:        slug,
		Title:       rec.Title,
		Description: rec.Description,
		Content:     doc.Body,
		PublishedAt: published,
		UpdatedAt:   updated,
		Category:    rec.Category,
		Tags:        rec.Tags,
		Author:      rec.Author,
		ReadingTime: render.ReadingTime(doc.Body, opts.Reading),
	}
	if err := ValidatePost(&p); err != nil {
		return content.Post{}, err
	}
	return p, nil
}

// ValidatePost checks the shape constraints every stored post satisfies.
func ValidatePost(p *content.Post) error {
	err := validation.ValidateStruct(p,
		validation.Field(&p.Slug,
			validation.Required.Error("slug is required"),
			validation.Match(slugRegex).Error("must match [a-z0-9-]+"),
		),
		validation.Field(&p.Title,
			validation.Required.Error("title is required"),
			validation.RuneLength(5, 100).Error("must be 5 to 100 characters"),
		),
		validation.Field(&p.Description,
			validation.RuneLength(10, 200).Error("must be 10 to 200 characters"),
		),
		validation.Field(&p.Content,
			validation.Required.Error("content is required"),
			validation.RuneLength(100, 0).Error("must be at least 100 characters"),
		),
		validation.Field(&p.Tags,
			validation.Length(0, 5).Error("at most 5 tags"),
		),
	)
	if err == nil {
		return nil
	}

	var ve domainerr.ValidationError
	var fields validation.Errors
	if errors.As(err, &fields) {
		ve.AddMap(fields)
		return ve
	}
	ve.Add("post", err.Error())
	return ve
}
