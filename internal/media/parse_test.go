package media

import "testing"

func TestParseFilename(t *testing.T) {
	tests := []struct {
		name string
		want Hints
	}{
		{
			name: "Breaking.Bad.S01E05.720p.HDTV.mkv",
			want: Hints{Title: "Breaking Bad", Season: 1, Episode: 5, Resolution: "720p"},
		},
		{
			name: "The.Matrix.1999.1080p.BluRay.x264.mkv",
			want: Hints{Title: "The Matrix", Year: 1999, Resolution: "1080p"},
		},
		{
			name: "show.name.2x07.hdtv.avi",
			want: Hints{Title: "Show Name", Season: 2, Episode: 7},
		},
		{
			name: "My Anime - Episode 12 [1080p].mkv",
			want: Hints{Title: "My Anime", Season: 1, Episode: 12, Resolution: "1080p"},
		},
		{
			name: "Inception (2010).mp4",
			want: Hints{Title: "Inception", Year: 2010},
		},
		{
			name: "2012.2009.720p.mkv",
			want: Hints{Title: "2012", Year: 2009, Resolution: "720p"},
		},
		{
			name: "...mkv",
			want: Hints{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseFilename(tt.name)
			if got != tt.want {
				t.Errorf("ParseFilename(%q) = %+v, want %+v", tt.name, got, tt.want)
			}
		})
	}
}

func TestParseFilenameEpisodic(t *testing.T) {
	if !ParseFilename("a.s01e01.mkv").Episodic() {
		t.Error("s01e01 should be episodic")
	}
	if ParseFilename("movie.2010.mkv").Episodic() {
		t.Error("movie should not be episodic")
	}
}

func TestDetectResolution(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Show.S01E01.1080p.mkv", "1080p"},
		{"Movie.2160P.mkv", "2160p"},
		{"plain.mkv", "Unknown"},
	}
	for _, tt := range tests {
		if got := DetectResolution(tt.name); got != tt.want {
			t.Errorf("DetectResolution(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestIsMediaFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"movie.mkv", true},
		{"movie.MP4", true},
		{"notes.txt", false},
		{"archive.zip", false},
	}
	for _, tt := range tests {
		if got := IsMediaFile(tt.name); got != tt.want {
			t.Errorf("IsMediaFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFileExtension(t *testing.T) {
	if got := FileExtension("video.mkv"); got != ".mkv" {
		t.Errorf("FileExtension = %q, want .mkv", got)
	}
	if got := FileExtension("blob"); got != ".bin" {
		t.Errorf("FileExtension = %q, want .bin", got)
	}
}
