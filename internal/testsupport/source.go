package testsupport

import "shelve/internal/transport"

// FakeSource feeds scripted platform events to the daemon's consume loop.
type FakeSource struct {
	files chan transport.FileEvent
	texts chan transport.TextEvent
}

// NewFakeSource returns a source with buffered event channels.
func NewFakeSource() *FakeSource {
	return &FakeSource{
		files: make(chan transport.FileEvent, 16),
		texts: make(chan transport.TextEvent, 16),
	}
}

func (s *FakeSource) FileEvents() <-chan transport.FileEvent { return s.files }

func (s *FakeSource) TextEvents() <-chan transport.TextEvent { return s.texts }

// EmitFile delivers a file event to the daemon.
func (s *FakeSource) EmitFile(ev transport.FileEvent) { s.files <- ev }

// EmitText delivers a text event to the daemon.
func (s *FakeSource) EmitText(ev transport.TextEvent) { s.texts <- ev }

// Close ends both streams, as a dropped platform connection would.
func (s *FakeSource) Close() {
	close(s.files)
	close(s.texts)
}

var _ transport.Source = (*FakeSource)(nil)
