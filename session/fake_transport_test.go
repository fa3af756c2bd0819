package session

import (
	"context"
	"io"
	"sync"

	"github.com/google/uuid"

	"trekconnect/domain"
	"trekconnect/transport"
)

// fakeTransport records written frames and lets tests script dial
// failures and inject inbound traffic.
type fakeTransport struct {
	mu       sync.Mutex
	frames   []transport.Frame
	inbound  chan transport.Frame
	closedCh chan struct{}
	dialErrs []error
	dials    int
	writeErr error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{inbound: make(chan transport.Frame, 16)}
}

func (f *fakeTransport) Name() string { return "fake" }

func (f *fakeTransport) Dial(_ context.Context, _ transport.Options) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dials++
	if len(f.dialErrs) > 0 {
		err := f.dialErrs[0]
		f.dialErrs = f.dialErrs[1:]
		if err != nil {
			return err
		}
	}
	f.closedCh = make(chan struct{})
	return nil
}

func (f *fakeTransport) ReadFrame(ctx context.Context) (transport.Frame, error) {
	f.mu.Lock()
	closed := f.closedCh
	f.mu.Unlock()
	if closed == nil {
		return transport.Frame{}, io.ErrClosedPipe
	}
	select {
	case <-ctx.Done():
		return transport.Frame{}, ctx.Err()
	case <-closed:
		return transport.Frame{}, io.EOF
	case fr := <-f.inbound:
		return fr, nil
	}
}

func (f *fakeTransport) WriteFrame(_ context.Context, fr transport.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closedCh != nil {
		close(f.closedCh)
		f.closedCh = nil
	}
	return nil
}

func (f *fakeTransport) sent() []transport.Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]transport.Frame, len(f.frames))
	copy(out, f.frames)
	return out
}

func (f *fakeTransport) sentOfType(ft transport.FrameType) []transport.Frame {
	var out []transport.Frame
	for _, fr := range f.sent() {
		if fr.Type == ft {
			out = append(out, fr)
		}
	}
	return out
}

func (f *fakeTransport) dialCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dials
}

func (f *fakeTransport) failWrites(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writeErr = err
}

func (f *fakeTransport) deliver(msg domain.Message) {
	f.inbound <- transport.Frame{Type: transport.FrameMessage, RoomID: msg.RoomID, Message: &msg}
}

// fakeStore is an in-memory MessageStore recording read receipts.
type fakeStore struct {
	mu     sync.Mutex
	marked []uuid.UUID
}

func (s *fakeStore) MessagesForRoom(_ context.Context, _ domain.RoomID) ([]domain.Message, error) {
	return nil, nil
}

func (s *fakeStore) MarkMessageAsRead(_ context.Context, messageID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, messageID)
	return true, nil
}

func (s *fakeStore) markCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.marked)
}
