package services

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	inner := errors.New("disk full")
	err := Wrap(ErrProcessing, "processing", "move file", "failed to relocate", inner)

	if !errors.Is(err, ErrProcessing) {
		t.Errorf("wrapped error should match ErrProcessing")
	}
	if !errors.Is(err, inner) {
		t.Errorf("wrapped error should match the inner error")
	}
	for _, want := range []string{"processing", "move file", "failed to relocate", "disk full"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err.Error(), want)
		}
	}
}

func TestWrapNilMarkerDefaultsTransient(t *testing.T) {
	err := Wrap(nil, "download", "", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Errorf("nil marker should default to ErrTransient")
	}
}

func TestWrapEmptyDetail(t *testing.T) {
	err := Wrap(ErrTimeout, "", "", "", nil)
	if !strings.Contains(err.Error(), "service failure") {
		t.Errorf("empty detail should render placeholder, got %q", err.Error())
	}
}
