package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jongmin-chung/jamie/internal/app"
	"github.com/jongmin-chung/jamie/internal/build"
	"github.com/jongmin-chung/jamie/internal/domain/content"
	"github.com/jongmin-chung/jamie/internal/index"
	"github.com/jongmin-chung/jamie/internal/search"
)

func buildCmd() *cobra.Command {
	var clean, strict bool
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Load content and write the static data files",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, closeRepo, err := openRepository()
			if err != nil {
				return err
			}
			defer closeRepo()

			rep, err := repo.Reload(ctx)
			if err != nil {
				return fmt.Errorf("load content: %w", err)
			}
			if strict && len(rep.Failures) > 0 {
				for _, f := range rep.Failures {
					fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", f.Path, f.Reason)
				}
				return fmt.Errorf("%d invalid documents", len(rep.Failures))
			}

			if clean {
				if err := build.CleanStaticFiles(cfg.Build.PublicDir); err != nil {
					return err
				}
			}

			g := &build.Generator{Cfg: cfg, Repo: repo}
			res, err := g.Run(ctx)
			if err != nil {
				return fmt.Errorf("build failed: %w", err)
			}

			data, _ := json.MarshalIndent(struct {
				Posts    int              `json:"posts"`
				Skipped  int              `json:"skipped"`
				Version  uint64           `json:"version"`
				BuildID  string           `json:"buildId"`
				Files    []string         `json:"files"`
				Stats    build.BuildStats `json:"stats"`
				Duration string           `json:"duration"`
			}{
				Posts:    res.Posts,
				Skipped:  len(rep.Failures),
				Version:  res.Manifest.Version,
				BuildID:  res.Manifest.BuildID,
				Files:    res.Artifacts,
				Stats:    build.Stats(repo),
				Duration: res.Took.String(),
			}, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().BoolVar(&clean, "clean", false, "Remove previously generated files first")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when any document is invalid")
	return cmd
}

func cleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove generated static data files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return build.CleanStaticFiles(cfg.Build.PublicDir)
		},
	}
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify content and output directories before a build",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeRepo, err := openRepository()
			if err != nil {
				return err
			}
			defer closeRepo()

			rep, err := repo.Reload(cmd.Context())
			if err != nil {
				return fmt.Errorf("load content: %w", err)
			}
			out := cmd.OutOrStdout()
			for _, f := range rep.Failures {
				fmt.Fprintf(out, "skip %s: %s\n", f.Path, f.Reason)
			}
			if err := build.CheckRequirements(cfg, repo); err != nil {
				return err
			}
			st := build.Stats(repo)
			fmt.Fprintf(out, "ok: %d posts, %d categories, %d tags, %d skipped\n",
				st.PostsCount, st.CategoriesCount, st.TagsCount, len(rep.Failures))
			for _, r := range build.PostPaths(repo) {
				fmt.Fprintf(out, "  %s\n", r.Path)
			}
			rb := &app.RouteBuilder{Repo: repo}
			for _, r := range append(rb.CategoryRoutes(), rb.TagRoutes()...) {
				fmt.Fprintf(out, "  %s\n", r.Path)
			}

			idx := search.Summarize(search.Build(repo.All()))
			fmt.Fprintf(out, "index: %d records, %d bytes, avg content %d chars\n",
				idx.TotalItems, idx.IndexSize, idx.AverageContentLength)

			categories, tags, err := repo.Taxonomy()
			if err != nil {
				return fmt.Errorf("read catalog: %w", err)
			}
			printTerms(out, "category", categories)
			printTerms(out, "tag", tags)
			return nil
		},
	}
}

func printTerms(w io.Writer, kind string, terms []index.TermSummary) {
	for _, t := range terms {
		fmt.Fprintf(w, "%s %-20s %3d  latest %s\n", kind, t.Name, t.Count, t.Latest.UTC().Format(content.DateLayout))
	}
}
