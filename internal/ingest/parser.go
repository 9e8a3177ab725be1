package ingest

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"

	"github.com/jongmin-chung/jamie/internal/domain/content"
	domainerr "github.com/jongmin-chung/jamie/internal/domain/errors"
	"github.com/jongmin-chung/jamie/internal/logger"
)

// Document is a source file split into its header data and markdown body.
type Document struct {
	Data map[string]any
	Body string
}

// ParseFrontmatter splits a leading header block from the body. It never
// fails: a missing or malformed header yields empty data and the whole input
// as body.
func ParseFrontmatter(raw []byte) Document {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Document{Data: map[string]any{}}
	}

	// normalize line endings, drop a UTF-8 BOM
	norm := bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))
	norm = bytes.TrimPrefix(norm, []byte("\ufeff"))

	data := map[string]any{}
	body, err := frontmatter.Parse(bytes.NewReader(norm), &data)
	if err != nil {
		logger.For("ingest").Debug().Err(err).Msg("malformed frontmatter, treating input as body")
		return Document{Data: map[string]any{}, Body: string(norm)}
	}
	if data == nil {
		data = map[string]any{}
	}
	out := string(body)
	if len(body) < len(norm) {
		out = strings.TrimLeft(out, "\n")
	}
	return Document{Data: data, Body: out}
}

// FrontmatterResult is either a Valid record with the fields that were
// present, or the list of violated constraints.
type FrontmatterResult struct {
	Valid      bool
	Record     content.FrontmatterRecord
	Violations domainerr.ValidationError
}

func (r FrontmatterResult) Err() error {
	if r.Valid {
		return nil
	}
	return r.Violations
}

// ValidateFrontmatter checks header data: title and publishedAt are
// required, the remaining fields are optional but typed.
func ValidateFrontmatter(data map[string]any) FrontmatterResult {
	var (
		rec content.FrontmatterRecord
		ve  domainerr.ValidationError
	)

	switch v := data["title"].(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			ve.Add("title", "must not be empty")
		}
		rec.Title = strings.TrimSpace(v)
	case nil:
		ve.Add("title", "is required")
	default:
		ve.Addf("title", "must be a string, got %T", v)
	}

	if v, present := data["publishedAt"]; !present || v == nil {
		ve.Add("publishedAt", "is required")
	} else if s, ok := dateString(v); ok {
		if s == "" {
			ve.Add("publishedAt", "must not be empty")
		}
		rec.PublishedAt = s
	} else {
		ve.Addf("publishedAt", "must be a date string, got %T", v)
	}

	if v, present := data["updatedAt"]; present && v != nil {
		if s, ok := dateString(v); ok {
			rec.UpdatedAt = s
		} else {
			ve.Addf("updatedAt", "must be a date string, got %T", v)
		}
	}

	for _, field := range []struct {
		key string
		dst *string
	}{
		{"description", &rec.Description},
		{"category", &rec.Category},
		{"author", &rec.Author},
	} {
		v, present := data[field.key]
		if !present || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			ve.Addf(field.key, "must be a string, got %T", v)
			continue
		}
		*field.dst = strings.TrimSpace(s)
	}

	if v, present := data["tags"]; present && v != nil {
		tags, err := stringSlice(v)
		if err != nil {
			ve.Add("tags", err.Error())
		} else {
			rec.Tags = tags
		}
	}

	if ve.HasAny() {
		return FrontmatterResult{Violations: ve}
	}
	return FrontmatterResult{Valid: true, Record: rec}
}

// IsValid reports whether data passes ValidateFrontmatter.
func IsValid(data map[string]any) bool {
	return ValidateFrontmatter(data).Valid
}

// ApplyDefaults fills every empty optional field. PublishedAt falls back to
// now only when empty; the load path never reaches that branch because it
// validates first.
func ApplyDefaults(partial content.FrontmatterRecord, now time.Time) content.FrontmatterRecord {
	out := partial
	if out.Title == "" {
		out.Title = content.DefaultTitle
	}
	if out.PublishedAt == "" {
		out.PublishedAt = now.UTC().Format(content.DateLayout)
	}
	if out.Category == "" {
		out.Category = content.DefaultCategory
	}
	if out.Author == "" {
		out.Author = content.DefaultAuthor
	}
	out.Tags = content.NormalizeTags(out.Tags)
	return out
}

// StringifyFrontmatter renders rec as a `---` delimited YAML block.
func StringifyFrontmatter(rec content.FrontmatterRecord) (string, error) {
	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	b, err := yaml.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal frontmatter: %w", err)
	}
	return "---\n" + string(b) + "---\n", nil
}

// ParseTime accepts YYYY-MM-DD, RFC3339 and "YYYY-MM-DD HH:MM"; results are UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range []string{
		time.DateOnly,
		time.RFC3339,
		"2006-01-02 15:04",
		time.DateTime,
	} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func dateString(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return strings.TrimSpace(v), true
	case time.Time:
		return v.UTC().Format(content.DateLayout), true
	}
	return "", false
}

func stringSlice(v any) ([]string, error) {
	switch v := v.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("entry %d must be a string, got %T", i, item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("must be a sequence, got %T", v)
}
