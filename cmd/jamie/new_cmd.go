package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jongmin-chung/jamie/internal/domain/content"
	"github.com/jongmin-chung/jamie/internal/ingest"
)

const postBodyTemplate = `
## 들어가며

## 본문

## 마치며
`

func newCmd() *cobra.Command {
	var rec content.FrontmatterRecord
	cmd := &cobra.Command{
		Use:   "new <slug>",
		Short: "Create a post skeleton in the content directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if rec.Author == "" {
				rec.Author = cfg.Site.Author
			}
			path, err := writeNewPost(cfg.Content.Dir, args[0], rec, cfg.Build.Now)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&rec.Title, "title", "", "Post title")
	cmd.Flags().StringVar(&rec.Description, "description", "", "Short summary")
	cmd.Flags().StringVar(&rec.Category, "category", "", "Category id")
	cmd.Flags().StringSliceVar(&rec.Tags, "tag", nil, "Tag (repeatable)")
	cmd.Flags().StringVar(&rec.Author, "author", "", "Author name")
	return cmd
}

// writeNewPost creates <dir>/<slug>.md and refuses to overwrite.
func writeNewPost(dir, slug string, rec content.FrontmatterRecord, now time.Time) (string, error) {
	if !ingest.ValidSlug(slug) {
		return "", fmt.Errorf("invalid slug %q: use lowercase letters, digits and dashes", slug)
	}
	header, err := ingest.StringifyFrontmatter(ingest.ApplyDefaults(rec, now))
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, slug+".md")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%s already exists", path)
		}
		return "", err
	}
	if _, err := f.WriteString(header + postBodyTemplate); err != nil {
		_ = f.Close()
		return "", err
	}
	return path, f.Close()
}
