package daemon

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"shelve/internal/downloader"
	"shelve/internal/logging"
	"shelve/internal/media"
	"shelve/internal/placement"
	"shelve/internal/transport"
)

// HandleFileEvent admits an inbound file transfer: allow-list guard,
// extension guard, then submission to the scheduler.
func (d *Daemon) HandleFileEvent(ctx context.Context, ev transport.FileEvent) {
	if !d.cfg.IsAdmin(ev.RequesterID) {
		d.logger.Warn("file from unauthorized user",
			logging.Int64("requester", ev.RequesterID),
			logging.String("filename", ev.Filename))
		d.send(ctx, ev.ChatID, "You are not authorized to send files here.")
		return
	}
	if !media.IsMediaFile(ev.Filename) {
		d.send(ctx, ev.ChatID, fmt.Sprintf("Ignoring %s: unsupported file type.", ev.Filename))
		return
	}
	if free, err := placement.FreeSpace(d.cfg.Paths.DownloadDir); err == nil && ev.Size > 0 && ev.Size > free {
		d.send(ctx, ev.ChatID, fmt.Sprintf(
			"Not enough free space for %s: %s needed, %s available.",
			ev.Filename, humanize.IBytes(uint64(ev.Size)), humanize.IBytes(uint64(free))))
		return
	}
	if err := d.store.AddUser(ctx, ev.RequesterID); err != nil {
		d.logger.Warn("user record failed", logging.Error(err))
	}

	task := downloader.NewTask(ev, d.cfg.LargeFileThresholdBytes(), d.cfg.Paths.DownloadDir)
	if !d.claim(task.DestPath()) {
		d.send(ctx, ev.ChatID, fmt.Sprintf(
			"Cannot accept %s: a transfer with that filename is already active or queued.",
			task.Filename()))
		return
	}
	result := d.scheduler.Submit(task)
	if result.Admission == downloader.AdmissionRejected {
		d.disown(task.DestPath())
	}
	d.collector.ObserveConcurrency(d.scheduler.ActiveCount())

	switch result.Admission {
	case downloader.AdmissionStarted:
		d.logger.Info("transfer admitted",
			logging.Int64(logging.FieldTransferID, ev.TransferID),
			logging.String("filename", task.Filename()),
			logging.String("size", humanize.IBytes(uint64(ev.Size))))
	case downloader.AdmissionQueued:
		d.send(ctx, ev.ChatID, fmt.Sprintf(
			"%s queued at position %d (%d downloads active).",
			task.Filename(), result.Position, d.scheduler.ActiveCount()))
	case downloader.AdmissionRejected:
		d.send(ctx, ev.ChatID, fmt.Sprintf(
			"Cannot accept %s right now: the daemon is shutting down or the transfer is already known.",
			task.Filename()))
	}
}

// HandleTextEvent routes a message: live dialogs first, then commands.
func (d *Daemon) HandleTextEvent(ctx context.Context, ev transport.TextEvent) {
	if !d.cfg.IsAdmin(ev.RequesterID) {
		return
	}
	if d.organizer.HandleText(ctx, ev) {
		return
	}

	fields := strings.Fields(ev.Text)
	if len(fields) == 0 {
		return
	}
	command := strings.ToLower(strings.TrimPrefix(fields[0], "/"))

	switch command {
	case "organize":
		if err := d.organizer.Start(ctx, ev.ChatID, ev.RequesterID); err != nil {
			d.logger.Error("organize start failed", logging.Error(err))
			d.send(ctx, ev.ChatID, "Starting the organize dialog failed; check the logs.")
		}
	case "bulk":
		if err := d.organizer.StartBulk(ctx, ev.ChatID, ev.RequesterID); err != nil {
			d.logger.Error("bulk start failed", logging.Error(err))
			d.send(ctx, ev.ChatID, "Starting bulk propagation failed; check the logs.")
		}
	case "queue":
		d.send(ctx, ev.ChatID, d.formatQueue())
	case "cancel":
		if len(fields) < 2 {
			d.send(ctx, ev.ChatID, "Usage: cancel <transfer id>")
			return
		}
		id, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			d.send(ctx, ev.ChatID, "Transfer id must be a number.")
			return
		}
		if d.Cancel(id) {
			d.send(ctx, ev.ChatID, fmt.Sprintf("Cancelling transfer %d.", id))
		} else {
			d.send(ctx, ev.ChatID, fmt.Sprintf("No active or queued transfer %d.", id))
		}
	case "stats":
		d.send(ctx, ev.ChatID, d.formatStats())
	case "help":
		d.send(ctx, ev.ChatID, "Commands: organize, bulk, queue, cancel <id>, stats, help.")
	}
}

func (d *Daemon) formatQueue() string {
	active, queued := d.scheduler.Status()
	if len(active) == 0 && len(queued) == 0 {
		return "No downloads active or queued."
	}
	var b strings.Builder
	for _, snap := range active {
		fmt.Fprintf(&b, "[%d] %s: %.1f%% (%s/s)\n",
			snap.TransferID, snap.Filename, snap.Percent, humanize.IBytes(uint64(snap.Rate)))
	}
	for _, snap := range queued {
		fmt.Fprintf(&b, "[%d] %s: queued at position %d\n",
			snap.TransferID, snap.Filename, snap.QueuePosition)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (d *Daemon) formatStats() string {
	s := d.collector.Snapshot()
	return fmt.Sprintf(
		"Handled %d files: %d placed, %d failed, %d cancelled, %d timed out.\nDownloaded %s total, peak %d concurrent, average %s/s.",
		s.FilesHandled, s.Succeeded, s.Failed, s.Cancelled, s.TimedOut,
		humanize.IBytes(uint64(s.BytesDownloaded)), s.PeakConcurrent, humanize.IBytes(uint64(s.AvgSpeed)))
}

func (d *Daemon) send(ctx context.Context, chatID int64, text string) {
	if _, err := d.transport.SendMessage(ctx, chatID, text); err != nil {
		d.logger.Warn("send failed", logging.Error(err))
	}
}
