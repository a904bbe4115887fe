package minerloop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jesterKing/bfgminer/internal/bitforce/device"
	"github.com/jesterKing/bfgminer/internal/bitforce/transport"
	"github.com/jesterKing/bfgminer/internal/bitforce/work"
)

type noopSource struct{}

func (noopSource) NextWork(int) (*work.Work, bool)       { return nil, false }
func (noopSource) SubmitNonce(int, *work.Work, uint32) {}

func newLoopDevice(style device.Style) (*device.Device, *device.Processor) {
	ft := transport.NewFake()
	dev := device.NewDevice("/dev/ttyUSB0", transport.KindSerial, ft)
	dev.Style = style
	proc := &device.Processor{Device: dev, Index: 0, IsBoardHandler: true}
	dev.Processors = []*device.Processor{proc}
	return dev, proc
}

func TestNewSelectsAsyncDriverForFPGA(t *testing.T) {
	dev, proc := newLoopDevice(device.StyleFPGA)
	l := New(dev, proc, noopSource{}, false)

	require.NotNil(t, l.Async)
	require.Nil(t, l.Queue)
}

func TestNewSelectsQueueDriverForASIC(t *testing.T) {
	dev, proc := newLoopDevice(device.StyleA65)
	l := New(dev, proc, noopSource{}, false)

	require.Nil(t, l.Async)
	require.NotNil(t, l.Queue)
}

func TestRunStopsPromptlyOnContextCancel(t *testing.T) {
	dev, proc := newLoopDevice(device.StyleFPGA)
	l := New(dev, proc, noopSource{}, false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}

func TestSleepCtxReturnsFalseOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.False(t, sleepCtx(ctx, time.Second))
}

func TestSleepCtxReturnsTrueForZeroDuration(t *testing.T) {
	require.True(t, sleepCtx(context.Background(), 0))
}
