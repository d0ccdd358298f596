package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"shelve/internal/organize"
	"shelve/internal/store"
)

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	organizeCmd := &cobra.Command{
		Use:   "organize",
		Short: "Manual organization helpers",
	}

	organizeCmd.AddCommand(newOrganizeCandidatesCommand(ctx))
	return organizeCmd
}

func newOrganizeCandidatesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "candidates",
		Short: "List files awaiting manual organization",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			st, err := store.Open(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			candidates, err := organize.Candidates(cmd.Context(), cfg, st)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(candidates) == 0 {
				fmt.Fprintln(out, "No files awaiting organization.")
				return nil
			}
			for i, path := range candidates {
				fmt.Fprintf(out, "%d. %s (%s)\n", i+1, filepath.Base(path), filepath.Dir(path))
			}
			return nil
		},
	}
}
