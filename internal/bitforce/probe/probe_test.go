package probe

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jesterKing/bfgminer/internal/bitforce/device"
	"github.com/jesterKing/bfgminer/internal/bitforce/transport"
)

func TestProbeFPGASingleBoard(t *testing.T) {
	ft := transport.NewFake()
	ft.PushLine(">>>ID: BFL SHA256>>>")
	ft.PushLine("DEVICES IN CHAIN: 1")
	ft.PushLine("OK")

	dev, err := Probe("/dev/ttyUSB0", transport.KindSerial, ft)
	require.NoError(t, err)
	require.Equal(t, device.StyleFPGA, dev.Style)
	require.Equal(t, "BFL SHA256", dev.Name)
	require.Len(t, dev.Processors, 1)
	require.True(t, dev.Processors[0].IsBoardHandler)
}

func TestProbe28nmSixteenChannels(t *testing.T) {
	ft := transport.NewFake()
	ft.PushLine(">>>ID: BAJ SHA256>>>")
	ft.PushLine("DEVICES IN CHAIN: 1")
	ft.PushLine("ASIC CHANNELS:16")
	ft.PushLine("OK")

	dev, err := Probe("/dev/ttyUSB0", transport.KindSerial, ft)
	require.NoError(t, err)
	require.Equal(t, device.StyleA28, dev.Style)
	require.Len(t, dev.Processors, 16)
	require.Equal(t, 32, dev.Style.QueuedMax(16))
	require.Equal(t, 40, dev.Style.QueuedMax(32))
	require.Equal(t, 20, dev.Style.MaxQueueAtOnce())
}

func TestProbeRejectsNonSHA256Device(t *testing.T) {
	ft := transport.NewFake()
	ft.PushLine(">>>ID: SOMETHING ELSE>>>")

	_, err := Probe("/dev/ttyUSB0", transport.KindSerial, ft)
	require.Error(t, err)
}

func TestProbeMultiProcessorForcesA65(t *testing.T) {
	ft := transport.NewFake()
	ft.PushLine(">>>ID: BFL SHA256>>>")
	ft.PushLine("DEVICES IN CHAIN: 1")
	ft.PushLine("PROCESSOR 0")
	ft.PushLine("PROCESSOR 1")
	ft.PushLine("OK")

	dev, err := Probe("/dev/ttyUSB0", transport.KindSerial, ft)
	require.NoError(t, err)
	require.Equal(t, device.StyleA65, dev.Style)
	require.Len(t, dev.Processors, 2)
}
