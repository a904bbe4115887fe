package device

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jesterKing/bfgminer/internal/bitforce/transport"
)

func TestStyleQueuedMaxClampsToRange(t *testing.T) {
	require.Equal(t, 10, StyleA65.QueuedMax(1))
	require.Equal(t, 10, StyleA65.QueuedMax(4))
	require.Equal(t, 16, StyleA65.QueuedMax(8))
	require.Equal(t, 40, StyleA65.QueuedMax(32))
}

func TestStyleMaxQueueAtOnce(t *testing.T) {
	require.Equal(t, 5, StyleA65.MaxQueueAtOnce())
	require.Equal(t, 5, StyleFPGA.MaxQueueAtOnce())
	require.Equal(t, 20, StyleA28.MaxQueueAtOnce())
}

func TestStyleString(t *testing.T) {
	require.Equal(t, "fpga", StyleFPGA.String())
	require.Equal(t, "65nm", StyleA65.String())
	require.Equal(t, "28nm", StyleA28.String())
}

func TestStatsSnapshotOmitsAbsentSensors(t *testing.T) {
	var s Stats
	s.SleepMS.Store(500)
	s.HWErrors.Store(2)
	s.Temp0m.Store(45230)
	s.VoltsMilli.Store([]int64{1200, 1205})

	snap := s.Snapshot()
	require.Equal(t, int64(500), snap.SleepMS)
	require.Equal(t, int64(2), snap.HWErrors)
	require.Equal(t, []float64{45.23}, snap.TempC)
	require.Equal(t, []int64{1200, 1205}, snap.VoltsMilli)
}

func TestStatsSnapshotWithBothSensors(t *testing.T) {
	var s Stats
	s.Temp0m.Store(40000)
	s.Temp1m.Store(41500)

	snap := s.Snapshot()
	require.Equal(t, []float64{40.0, 41.5}, snap.TempC)
}

func TestNewDeviceStartsClosed(t *testing.T) {
	ft := transport.NewFake()
	dev := NewDevice("/dev/ttyUSB0", transport.KindSerial, ft)
	require.False(t, dev.IsOpen)
	require.NotNil(t, dev.Framer)
	require.Same(t, ft, dev.Framer.T)
}

func TestDeviceOpenCloseIdempotent(t *testing.T) {
	ft := transport.NewFake()
	dev := NewDevice("/dev/ttyUSB0", transport.KindSerial, ft)

	require.NoError(t, dev.Open())
	require.True(t, dev.IsOpen)

	require.NoError(t, dev.Close())
	require.False(t, dev.IsOpen)
	require.NoError(t, dev.Close())
}

func TestWithXLinkSharesTransportNotFramer(t *testing.T) {
	ft := transport.NewFake()
	dev := NewDevice("/dev/ttyUSB0", transport.KindSerial, ft)

	f := dev.WithXLink(3)
	require.Equal(t, 3, f.ID)
	require.Same(t, ft, f.T)
	require.NotSame(t, dev.Framer, f)
}

func TestTryLockRespectsHeldMutex(t *testing.T) {
	ft := transport.NewFake()
	dev := NewDevice("/dev/ttyUSB0", transport.KindSerial, ft)

	dev.Mu.Lock()
	require.False(t, dev.TryLock())
	dev.Mu.Unlock()
	require.True(t, dev.TryLock())
	dev.Mu.Unlock()
}
