package async

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jesterKing/bfgminer/internal/bitforce/device"
	"github.com/jesterKing/bfgminer/internal/bitforce/transport"
	"github.com/jesterKing/bfgminer/internal/bitforce/work"
)

func newTestDevice(t *testing.T) (*device.Device, *transport.Fake, *device.Processor) {
	ft := transport.NewFake()
	require.NoError(t, ft.Open())
	dev := device.NewDevice("/dev/ttyUSB0", transport.KindSerial, ft)
	dev.IsOpen = true
	dev.Style = device.StyleFPGA
	proc := &device.Processor{Device: dev, Index: 0, IsBoardHandler: true}
	dev.Processors = []*device.Processor{proc}
	return dev, ft, proc
}

type collectingSink struct {
	results []work.Result
}

func (s *collectingSink) SubmitNonce(procIndex int, w *work.Work, nonce uint32) {
	s.results = append(s.results, work.Result{ProcIndex: procIndex, Nonce: nonce})
}

func TestStartJobAndPollFindsNonces(t *testing.T) {
	dev, ft, proc := newTestDevice(t)
	sink := &collectingSink{}
	d := NewDriver(dev, proc, sink, false)

	ft.PushLine("OK")
	ft.PushLine("OK")
	w := &work.Work{}
	require.NoError(t, d.StartJob(w))

	ft.PushLine("NONCE-FOUND:DEADBEEF,CAFEBABE")
	res, err := d.Poll()
	require.NoError(t, err)
	require.True(t, res.Done)
	require.Len(t, sink.results, 2)
	require.Equal(t, uint32(0xDEADBEEF), sink.results[0].Nonce)
	require.Equal(t, uint32(0xCAFEBABE), sink.results[1].Nonce)
}

func TestPollBusyDoesNotCompleteJob(t *testing.T) {
	dev, ft, proc := newTestDevice(t)
	d := NewDriver(dev, proc, nil, false)

	ft.PushLine("OK")
	ft.PushLine("OK")
	require.NoError(t, d.StartJob(&work.Work{}))

	ft.PushLine("B")
	res, err := d.Poll()
	require.NoError(t, err)
	require.False(t, res.Done)
	require.Equal(t, workCheckInterval, res.WaitMore)
}

func TestRangeFallbackDemotesToWork(t *testing.T) {
	dev, ft, proc := newTestDevice(t)
	d := NewDriver(dev, proc, nil, true)
	require.Equal(t, ProtoRange, d.proto)

	ft.PushLine("ERR:RANGE")
	ft.PushLine("OK")
	ft.PushLine("OK")
	require.NoError(t, d.StartJob(&work.Work{}))
	require.Equal(t, ProtoWork, d.proto)
	require.Equal(t, uint32(0xffffffff), d.AdvertisedNonceCount())
}

func TestOverheatDeclaredAfterLongTimeout(t *testing.T) {
	dev, _, proc := newTestDevice(t)
	d := NewDriver(dev, proc, nil, false)
	d.current = &work.Work{}
	d.jobStart = time.Now().Add(-(longTimeout + time.Second))
	d.state = statePolling

	res, err := d.Poll()
	require.NoError(t, err)
	require.True(t, res.Overheat)
	require.True(t, res.Done)
}

func TestNonceOutsideRangeDemotesDevice(t *testing.T) {
	dev, ft, proc := newTestDevice(t)
	sink := &collectingSink{}
	d := NewDriver(dev, proc, sink, true)
	w := &work.Work{NonceBase: 0x1000, NonceCount: 0x100}

	ft.PushLine("OK")
	ft.PushLine("OK")
	require.NoError(t, d.StartJob(w))
	require.Equal(t, ProtoRange, d.proto)

	ft.PushLine("NONCE-FOUND:FFFFFFFF")
	_, err := d.Poll()
	require.NoError(t, err)
	require.Equal(t, ProtoWork, d.proto)
	require.Empty(t, sink.results)
}
