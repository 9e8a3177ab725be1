package content

import (
	"strings"
	"time"
)

// DateLayout is the wire format of frontmatter and search-index dates.
const DateLayout = "2006-01-02"

const (
	DefaultTitle    = "Untitled"
	DefaultCategory = "general"
	DefaultAuthor   = "Anonymous"
)

// FrontmatterRecord is the header of a post after defaults were applied.
type FrontmatterRecord struct {
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description" json:"description"`
	PublishedAt string   `yaml:"publishedAt" json:"publishedAt"`
	UpdatedAt   string   `yaml:"updatedAt,omitempty" json:"updatedAt,omitempty"`
	Category    string   `yaml:"category" json:"category"`
	Tags        []string `yaml:"tags" json:"tags"`
	Author      string   `yaml:"author" json:"author"`
}

// Post is immutable once built by the ingest pipeline.
type Post struct {
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Content     string     `json:"content"`
	PublishedAt time.Time  `json:"publishedAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
	Category    string     `json:"category"`
	Tags        []string   `json:"tags"`
	Author      string     `json:"author"`
	ReadingTime int        `json:"readingTime"`

	SourcePath string `json:"sourcePath,omitempty"`
}

// PostMetadata is the client-facing projection written to posts-metadata.json.
type PostMetadata struct {
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	PublishedAt time.Time  `json:"publishedAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
	Category    string     `json:"category"`
	Tags        []string   `json:"tags"`
	Author      string     `json:"author"`
	ReadingTime int        `json:"readingTime"`
}

func (p Post) Metadata() PostMetadata {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return PostMetadata{
		Slug:        p.Slug,
		Title:       p.Title,
		Description: p.Description,
		PublishedAt: p.PublishedAt,
		UpdatedAt:   p.UpdatedAt,
		Category:    p.Category,
		Tags:        tags,
		Author:      p.Author,
		ReadingTime: p.ReadingTime,
	}
}

// PublishedDate formats PublishedAt as YYYY-MM-DD in UTC.
func (p Post) PublishedDate() string {
	return p.PublishedAt.UTC().Format(DateLayout)
}

func (p Post) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	Slug  string `json:"slug"`
}

// NormalizeTags trims entries and drops empty and repeated ones, keeping order.
func NormalizeTags(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
