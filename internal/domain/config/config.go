package config

import (
	"errors"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jongmin-chung/jamie/internal/domain/content"
	domainerr "github.com/jongmin-chung/jamie/internal/domain/errors"
)

type Config struct {
	Site       SiteConfig             `yaml:"site"`
	Content    ContentConfig          `yaml:"content"`
	Build      BuildConfig            `yaml:"build"`
	Search     SearchConfig           `yaml:"search"`
	Categories []content.CategoryInfo `yaml:"categories"`
	Log        LogConfig              `yaml:"log"`
}

type SiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	SiteURL     string `yaml:"site_url"`
	Language    string `yaml:"language"`
	Author      string `yaml:"author"`
}

type ContentConfig struct {
	Dir             string `yaml:"dir"`
	DefaultCategory string `yaml:"default_category"`
}

type BuildConfig struct {
	PublicDir     string    `yaml:"public_dir"`
	IndexPath     string    `yaml:"index_path"`
	RelatedLimit  int       `yaml:"related_limit"`
	FeaturedLimit int       `yaml:"featured_limit"`
	PageData      bool      `yaml:"page_data"`
	Sitemap       bool      `yaml:"sitemap"`
	Now           time.Time `yaml:"-"`
}

type ReadingModel string

const (
	ReadingWords ReadingModel = "words"
	ReadingMixed ReadingModel = "mixed"
)

type SearchConfig struct {
	DefaultLimit         int          `yaml:"default_limit"`
	WordsPerMinute       int          `yaml:"words_per_minute"`
	KoreanCharsPerMinute int          `yaml:"korean_chars_per_minute"`
	ReadingModel         ReadingModel `yaml:"reading_model"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

func Default() Config {
	return Config{
		Site: SiteConfig{
			Title:    "Jamie Tech Blog",
			SiteURL:  "https://tech.kakaopay.com",
			Language: "ko",
			Author:   content.DefaultAuthor,
		},
		Content: ContentConfig{
			Dir:             "content/posts",
			DefaultCategory: content.DefaultCategory,
		},
		Build: BuildConfig{
			PublicDir:     "public",
			IndexPath:     ".jamie/index.db",
			RelatedLimit:  3,
			FeaturedLimit: 5,
			PageData:      true,
			Sitemap:       true,
			Now:           time.Now(),
		},
		Search: SearchConfig{
			DefaultLimit:         10,
			WordsPerMinute:       200,
			KoreanCharsPerMinute: 500,
			ReadingModel:         ReadingWords,
		},
		Categories: content.DefaultCategories(),
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

func (c Config) Validate() error {
	var ve domainerr.ValidationError

	if strings.TrimSpace(c.Site.Title) == "" {
		ve.Add("site.title", "must not be empty")
	}
	if strings.TrimSpace(c.Site.SiteURL) == "" {
		ve.Add("site.site_url", "must not be empty")
	} else if !isValidAbsURL(c.Site.SiteURL) {
		ve.Add("site.site_url", "must be a valid absolute URL")
	}

	if strings.TrimSpace(c.Content.Dir) == "" {
		ve.Add("content.dir", "must not be empty")
	}
	if strings.TrimSpace(c.Build.PublicDir) == "" {
		ve.Add("build.public_dir", "must not be empty")
	}
	if strings.TrimSpace(c.Build.IndexPath) == "" {
		ve.Add("build.index_path", "must not be empty")
	}
	if c.Build.RelatedLimit < 0 {
		ve.Add("build.related_limit", "must not be negative")
	}
	if c.Build.FeaturedLimit < 0 {
		ve.Add("build.featured_limit", "must not be negative")
	}

	if c.Search.DefaultLimit <= 0 {
		ve.Add("search.default_limit", "must be positive")
	}
	if c.Search.WordsPerMinute <= 0 {
		ve.Add("search.words_per_minute", "must be positive")
	}
	switch c.Search.ReadingModel {
	case "", ReadingWords:
	case ReadingMixed:
		if c.Search.KoreanCharsPerMinute <= 0 {
			ve.Add("search.korean_chars_per_minute", "must be positive for the mixed reading model")
		}
	default:
		ve.Add("search.reading_model", "must be 'words' or 'mixed'")
	}

	seen := make(map[string]struct{}, len(c.Categories))
	for _, cat := range c.Categories {
		id := strings.TrimSpace(cat.ID)
		if id == "" {
			ve.Add("categories", "id must not be empty")
			continue
		}
		if _, ok := seen[id]; ok {
			ve.Addf("categories", "duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}

	if ve.HasAny() {
		return ve
	}
	return nil
}

func (c Config) CategoryName(id string) string {
	for _, cat := range c.Categories {
		if cat.ID == id {
			return cat.Name
		}
	}
	return id
}

func isValidAbsURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// Load reads path over Default, applies .env and JAMIE_* overrides, then validates.
// A missing file is not an error: defaults plus environment are used.
func Load(path string) (Config, error) {
	cfg := Default()

	// .env is optional
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, err
	}

	applyEnv(&cfg)

	if cfg.Build.Now.IsZero() {
		cfg.Build.Now = time.Now()
	}
	if cfg.Search.ReadingModel == "" {
		cfg.Search.ReadingModel = ReadingWords
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("JAMIE_SITE_URL")); v != "" {
		cfg.Site.SiteURL = v
	}
	if v := strings.TrimSpace(os.Getenv("JAMIE_CONTENT_DIR")); v != "" {
		cfg.Content.Dir = v
	}
	if v := strings.TrimSpace(os.Getenv("JAMIE_PUBLIC_DIR")); v != "" {
		cfg.Build.PublicDir = v
	}
	if v := strings.TrimSpace(os.Getenv("JAMIE_LOG_LEVEL")); v != "" {
		cfg.Log.Level = v
	}
}
