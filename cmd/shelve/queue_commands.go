package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and control the download queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueCancelCommand(ctx))
	queueCmd.AddCommand(newQueueDrainCommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show active and queued downloads",
		RunE: func(cmd *cobra.Command, args []string) error {
			var status statusView
			if err := ctx.getJSON("/api/status", &status); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if status.Draining {
				fmt.Fprintln(out, "Daemon is draining; no new downloads are admitted.")
			}
			if len(status.Active) == 0 && len(status.Queued) == 0 {
				fmt.Fprintln(out, "No downloads active or queued.")
			} else {
				rows := make([][]string, 0, len(status.Active)+len(status.Queued))
				for _, task := range status.Active {
					rows = append(rows, []string{
						strconv.FormatInt(task.TransferID, 10),
						task.Filename,
						task.State,
						fmt.Sprintf("%.1f%%", task.Percent),
						humanize.IBytes(uint64(task.Rate)) + "/s",
					})
				}
				for _, task := range status.Queued {
					rows = append(rows, []string{
						strconv.FormatInt(task.TransferID, 10),
						task.Filename,
						task.State,
						fmt.Sprintf("position %d", task.QueuePosition),
						"-",
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "FILE", "STATE", "PROGRESS", "RATE"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight},
				))
			}

			s := status.Stats
			fmt.Fprintf(out, "Handled %d files (%d placed, %d failed, %d cancelled, %d timed out), %s downloaded.\n",
				s.FilesHandled, s.Succeeded, s.Failed, s.Cancelled, s.TimedOut,
				humanize.IBytes(uint64(s.BytesDownloaded)))
			return nil
		},
	}
}

func newQueueCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <transfer-id>",
		Short: "Cancel an active or queued download",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("transfer id must be numeric: %q", args[0])
			}

			err = ctx.postJSON(fmt.Sprintf("/api/queue/%d/cancel", id), nil)
			var apiErr *statusError
			if errors.As(err, &apiErr) && apiErr.code == http.StatusNotFound {
				fmt.Fprintf(cmd.OutOrStdout(), "No active or queued transfer %d.\n", id)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cancelling transfer %d.\n", id)
			return nil
		},
	}
}

func newQueueDrainCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "drain",
		Short: "Stop admissions and let in-flight downloads finish",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.postJSON("/api/drain", nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Drain requested; the daemon stops admitting new downloads.")
			return nil
		},
	}
}
