package config

const (
	defaultBaseDir                 = "~/media"
	defaultDownloadDirName         = "Downloads"
	defaultLogDirName              = "logs"
	defaultMoviesDir               = "Movies"
	defaultTVDir                   = "TV"
	defaultAnimeDir                = "Anime"
	defaultMusicDir                = "Music"
	defaultOtherDir                = "Other"
	defaultAPIBind                 = "127.0.0.1:7787"
	defaultMaxConcurrent           = 3
	defaultMaxDurationSeconds      = 7200
	defaultLargeFileThresholdMiB   = 500
	defaultProgressIntervalSecs    = 15
	defaultLargeProgressIntervals  = 60
	defaultDrainTimeoutSeconds     = 30
	defaultTMDBBaseURL             = "https://api.themoviedb.org/3"
	defaultTMDBLanguage            = "en-US"
	defaultLowConfidence           = 0.6
	defaultHighConfidence          = 0.8
	defaultAuditLogName            = "low_confidence_log.csv"
	defaultSessionTTLMinutes       = 30
	defaultSessionSweepMinutes     = 5
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			BaseDir: defaultBaseDir,
			APIBind: defaultAPIBind,
		},
		Library: Library{
			MoviesDir: defaultMoviesDir,
			TVDir:     defaultTVDir,
			AnimeDir:  defaultAnimeDir,
			MusicDir:  defaultMusicDir,
			OtherDir:  defaultOtherDir,
		},
		Downloads: Downloads{
			MaxConcurrent:             defaultMaxConcurrent,
			MaxDurationSeconds:        defaultMaxDurationSeconds,
			LargeFileThresholdMiB:     defaultLargeFileThresholdMiB,
			ProgressIntervalSeconds:   defaultProgressIntervalSecs,
			LargeProgressIntervalSecs: defaultLargeProgressIntervals,
			DrainTimeoutSeconds:       defaultDrainTimeoutSeconds,
		},
		TMDB: TMDB{
			BaseURL:  defaultTMDBBaseURL,
			Language: defaultTMDBLanguage,
		},
		Confidence: Confidence{
			LowThreshold:  defaultLowConfidence,
			HighThreshold: defaultHighConfidence,
			AuditLogName:  defaultAuditLogName,
		},
		Sessions: Sessions{
			TTLMinutes:          defaultSessionTTLMinutes,
			SweepIntervalMinute: defaultSessionSweepMinutes,
		},
		Chat: Chat{
			WatchEnabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
