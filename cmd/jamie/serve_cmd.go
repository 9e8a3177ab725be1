package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jongmin-chung/jamie/internal/serve"
)

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Preview server with search API and live reload",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeRepo, err := openRepository()
			if err != nil {
				return err
			}
			defer closeRepo()

			s := serve.New(cfg, repo)
			defer s.Close()

			if err := s.ListenAndServe(cmd.Context(), addr); err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	return cmd
}
