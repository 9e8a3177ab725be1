package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jongmin-chung/jamie/internal/app"
	"github.com/jongmin-chung/jamie/internal/domain/content"
	"github.com/jongmin-chung/jamie/internal/index"
	"github.com/jongmin-chung/jamie/internal/render"
)

func listCmd() *cobra.Command {
	var (
		category, tag string
		opt           index.ListOptions
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Page through the indexed posts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeRepo, err := openRepository()
			if err != nil {
				return err
			}
			defer closeRepo()

			if err := ensureIndexed(cmd, repo); err != nil {
				return err
			}
			posts, err := repo.Page(category, tag, opt)
			if err != nil {
				return err
			}
			printPosts(cmd.OutOrStdout(), posts)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Only posts in this category")
	cmd.Flags().StringVar(&tag, "tag", "", "Only posts with this tag")
	cmd.Flags().IntVar(&opt.Page, "page", 1, "Page number, starting at 1")
	cmd.Flags().IntVar(&opt.Size, "size", 10, "Posts per page (max 100)")
	return cmd
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <slug>",
		Short: "Print the rendered page data for one indexed post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeRepo, err := openRepository()
			if err != nil {
				return err
			}
			defer closeRepo()

			if err := ensureIndexed(cmd, repo); err != nil {
				return err
			}
			p, err := repo.Stored(args[0])
			if errors.Is(err, index.ErrNotFound) {
				return fmt.Errorf("post %q is not indexed", args[0])
			}
			if err != nil {
				return err
			}

			md := render.NewMarkdownRenderer(render.DefaultOptions())
			page, err := md.BuildPostPage(cmd.Context(), p, repo.Related(p, cfg.Build.RelatedLimit), repo.Version())
			if err != nil {
				return err
			}
			return writeIndentedJSON(cmd.OutOrStdout(), page)
		},
	}
}

// ensureIndexed restores the catalog snapshot, reloading sources when the
// index is empty.
func ensureIndexed(cmd *cobra.Command, repo *app.Repository) error {
	info, err := repo.CatalogInfo()
	if err != nil {
		return err
	}
	if info.Indexed == 0 {
		if _, err := repo.Reload(cmd.Context()); err != nil {
			return fmt.Errorf("load content: %w", err)
		}
		return nil
	}
	return repo.Restore()
}

func printPosts(w io.Writer, posts []content.Post) {
	if len(posts) == 0 {
		fmt.Fprintln(w, "no posts")
		return
	}
	for _, p := range posts {
		fmt.Fprintf(w, "%s  %-12s %s  /blog/%s\n", p.PublishedAt.UTC().Format(content.DateLayout), p.Category, p.Title, p.Slug)
	}
}

func writeIndentedJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
