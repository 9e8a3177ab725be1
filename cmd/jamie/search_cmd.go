package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jongmin-chung/jamie/internal/app"
	"github.com/jongmin-chung/jamie/internal/logger"
	"github.com/jongmin-chung/jamie/internal/search"
)

func searchCmd() *cobra.Command {
	var (
		limit    int
		category string
		tags     []string
		suggest  bool
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Query the search index from the terminal",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeRepo, err := openRepository()
			if err != nil {
				return err
			}
			defer closeRepo()

			if err := loadForSearch(cmd, repo); err != nil {
				return err
			}
			engine := search.NewEngine(search.Optimize(search.Build(repo.All())))
			query := strings.Join(args, " ")
			if !cmd.Flags().Changed("limit") {
				limit = cfg.Search.DefaultLimit
			}
			out := cmd.OutOrStdout()

			if suggest {
				for _, s := range engine.Suggestions(query, limit) {
					fmt.Fprintln(out, s)
				}
				return nil
			}

			resp := engine.Run(search.Query{Term: query, Category: category, Tags: tags, Limit: limit})
			fmt.Fprintf(out, "%d results for %q (%.2fms)\n", resp.Total, resp.Query, resp.Took)
			for i, r := range resp.Results {
				fmt.Fprintf(out, "%2d. [%3d] %s  /blog/%s\n", i+1, r.Score, r.Title, r.ID)
				if r.Description != "" {
					fmt.Fprintf(out, "         %s\n", r.Description)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", search.DefaultLimit, "Maximum results")
	cmd.Flags().StringVar(&category, "category", "", "Only posts in this category")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Only posts with any of these tags")
	cmd.Flags().BoolVar(&suggest, "suggest", false, "Print suggestions instead of results")
	return cmd
}

// loadForSearch restores the last indexed catalog and parses sources only
// when nothing was indexed yet.
func loadForSearch(cmd *cobra.Command, repo *app.Repository) error {
	if err := repo.Restore(); err == nil && len(repo.All()) > 0 {
		return nil
	} else if err != nil {
		logger.For("search").Debug().Err(err).Msg("restore failed, reloading sources")
	}
	_, err := repo.Reload(cmd.Context())
	return err
}
