package main

import "time"

// Local mirrors of the daemon API payloads; the CLI decodes JSON rather than
// importing the daemon wiring.

type taskView struct {
	TransferID    int64   `json:"transfer_id"`
	Filename      string  `json:"filename"`
	Size          int64   `json:"size"`
	Large         bool    `json:"large"`
	State         string  `json:"state"`
	Received      int64   `json:"received"`
	Percent       float64 `json:"percent"`
	Rate          float64 `json:"rate"`
	QueuePosition int     `json:"queue_position"`
	RequesterID   int64   `json:"requester_id"`
}

type statsView struct {
	FilesHandled    int64   `json:"files_handled"`
	Succeeded       int64   `json:"succeeded"`
	Failed          int64   `json:"failed"`
	Cancelled       int64   `json:"cancelled"`
	TimedOut        int64   `json:"timed_out"`
	BytesDownloaded int64   `json:"bytes_downloaded"`
	PeakConcurrent  int     `json:"peak_concurrent"`
	AvgSpeed        float64 `json:"avg_speed_bytes_sec"`
}

type statusView struct {
	Running      bool       `json:"running"`
	Draining     bool       `json:"draining"`
	Active       []taskView `json:"active"`
	Queued       []taskView `json:"queued"`
	Stats        statsView  `json:"stats"`
	DatabasePath string     `json:"database_path"`
	LockFilePath string     `json:"lock_file_path"`
}

type organizedView struct {
	ID         int64     `json:"id"`
	Path       string    `json:"path"`
	Title      string    `json:"title"`
	Category   string    `json:"category"`
	Year       int       `json:"year"`
	Season     int       `json:"season"`
	Episode    int       `json:"episode"`
	Resolution string    `json:"resolution"`
	Method     string    `json:"method"`
	CreatedAt  time.Time `json:"created_at"`
}

type organizedListing struct {
	Records []organizedView `json:"records"`
	Total   int             `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}
