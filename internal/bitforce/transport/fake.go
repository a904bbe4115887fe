package transport

import (
	"bytes"
	"sync"

	"github.com/jesterKing/bfgminer/internal/bitforce/errs"
)

// Fake is an in-memory Transport used by tests throughout this driver in
// place of real hardware. Scripted replies are queued with PushLine;
// writes are captured for assertions via Written.
type Fake struct {
	mu      sync.Mutex
	open    bool
	replies [][]byte
	written [][]byte

	// WriteHook, if set, is called synchronously from WriteAll and may
	// queue further replies, modelling a peer that reacts to writes.
	WriteHook func(data []byte)
}

func NewFake() *Fake { return &Fake{} }

// Open marks the fake live; it may be called again after Close to model a
// transport reopening (as control.Reinit does).
func (f *Fake) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = true
	return nil
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = false
	return nil
}

// PushLine queues a line (without trailing newline) to be returned by a
// future ReadLine call, in FIFO order.
func (f *Fake) PushLine(line string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, []byte(line))
}

func (f *Fake) ReadLine(buf []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open {
		return 0, errs.New("fake.readline", errs.KindTransportClosed)
	}
	if len(f.replies) == 0 {
		return 0, errs.New("fake.readline", errs.KindTimeout)
	}
	line := f.replies[0]
	f.replies = f.replies[1:]
	n := copy(buf, line)
	return n, nil
}

func (f *Fake) WriteAll(data []byte) error {
	f.mu.Lock()
	if !f.open {
		f.mu.Unlock()
		return errs.New("fake.writeall", errs.KindTransportClosed)
	}
	cp := bytes.Clone(data)
	f.written = append(f.written, cp)
	hook := f.WriteHook
	f.mu.Unlock()
	if hook != nil {
		hook(cp)
	}
	return nil
}

// Written returns every WriteAll payload observed so far, in order.
func (f *Fake) Written() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.written))
	copy(out, f.written)
	return out
}

// PendingReplies reports how many scripted lines remain unread.
func (f *Fake) PendingReplies() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.replies)
}

var _ Transport = (*Fake)(nil)
var _ Transport = (*SerialTransport)(nil)
var _ Transport = (*PCITransport)(nil)
