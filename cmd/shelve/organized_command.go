package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newOrganizedCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var offset int

	cmd := &cobra.Command{
		Use:   "organized",
		Short: "List recently placed files",
		RunE: func(cmd *cobra.Command, args []string) error {
			var listing organizedListing
			path := fmt.Sprintf("/api/organized?limit=%d&offset=%d", limit, offset)
			if err := ctx.getJSON(path, &listing); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(listing.Records) == 0 {
				fmt.Fprintln(out, "No placement records.")
				return nil
			}

			rows := make([][]string, 0, len(listing.Records))
			for _, rec := range listing.Records {
				rows = append(rows, []string{
					strconv.FormatInt(rec.ID, 10),
					rec.Title,
					rec.Category,
					episodeLabel(rec),
					rec.Method,
					rec.CreatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "TITLE", "CATEGORY", "EPISODE", "METHOD", "PLACED"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			fmt.Fprintf(out, "Showing %d of %d records.\n", len(listing.Records), listing.Total)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum records to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "Records to skip")
	return cmd
}

func episodeLabel(rec organizedView) string {
	if rec.Season > 0 || rec.Episode > 0 {
		return fmt.Sprintf("S%02dE%02d", rec.Season, rec.Episode)
	}
	if rec.Year > 0 {
		return strconv.Itoa(rec.Year)
	}
	return "-"
}
