package control

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jesterKing/bfgminer/internal/bitforce/device"
	"github.com/jesterKing/bfgminer/internal/bitforce/errs"
	"github.com/jesterKing/bfgminer/internal/bitforce/transport"
)

func newControlDevice(t *testing.T) (*device.Device, *transport.Fake) {
	ft := transport.NewFake()
	require.NoError(t, ft.Open())
	dev := device.NewDevice("/dev/ttyUSB0", transport.KindSerial, ft)
	dev.IsOpen = true
	return dev, ft
}

func TestReadTemperatureStoresBothSensors(t *testing.T) {
	dev, ft := newControlDevice(t)
	ft.PushLine("TEMP:45.5|TEMP:46.0")

	require.NoError(t, ReadTemperature(dev))
	snap := dev.Stats.Snapshot()
	require.Equal(t, []float64{45.5, 46.0}, snap.TempC)
}

func TestReadTemperatureSkipsWhenDeviceBusy(t *testing.T) {
	dev, _ := newControlDevice(t)
	dev.Mu.Lock()
	require.NoError(t, ReadTemperature(dev))
	dev.Mu.Unlock()
}

func TestReadTemperatureGarbledLineCountsHWError(t *testing.T) {
	dev, ft := newControlDevice(t)
	ft.PushLine("garbage")

	err := ReadTemperature(dev)
	require.True(t, errs.Is(err, errs.KindThermalThrottle))
	require.Equal(t, int64(1), dev.Stats.Snapshot().HWErrors)
}

func TestReadVoltagesParsesCSV(t *testing.T) {
	dev, ft := newControlDevice(t)
	ft.PushLine("1.20,1.25,1.19")

	require.NoError(t, ReadVoltages(dev))
	require.Equal(t, []int64{1200, 1250, 1190}, dev.Stats.Snapshot().VoltsMilli)
}

func TestReadVoltagesGarbledLineCountsHWError(t *testing.T) {
	dev, ft := newControlDevice(t)
	ft.PushLine("not,a,number")

	err := ReadVoltages(dev)
	require.True(t, errs.Is(err, errs.KindThermalThrottle))
}

func TestIdentifySendsLEDCommand(t *testing.T) {
	dev, ft := newControlDevice(t)
	ft.PushLine("OK")

	require.NoError(t, Identify(dev))
	require.Equal(t, [][]byte{[]byte("ZMX")}, ft.Written())
}

func TestProbeFanspeedSupportTrueOnCleanReply(t *testing.T) {
	dev, ft := newControlDevice(t)
	ft.PushLine("OK")

	require.True(t, ProbeFanspeedSupport(dev))
	require.True(t, dev.SupportsFanspeed)
}

func TestProbeFanspeedSupportFalseOnError(t *testing.T) {
	dev, ft := newControlDevice(t)
	ft.PushLine("ERR:UNKNOWN")

	require.False(t, ProbeFanspeedSupport(dev))
	require.False(t, dev.SupportsFanspeed)
}

func TestSetFanModeRejectsWhenUnsupported(t *testing.T) {
	dev, _ := newControlDevice(t)
	dev.SupportsFanspeed = false

	err := SetFanMode(dev, 2)
	require.True(t, errs.Is(err, errs.KindProtocolUnsupported))
}

func TestSetFanModeRejectsOutOfRange(t *testing.T) {
	dev, _ := newControlDevice(t)
	dev.SupportsFanspeed = true

	err := SetFanMode(dev, 6)
	require.True(t, errs.Is(err, errs.KindInvalidArgument))
}

func TestSetFanModeSendsCorrectCommandByte(t *testing.T) {
	dev, ft := newControlDevice(t)
	dev.SupportsFanspeed = true
	ft.PushLine("OK")

	require.NoError(t, SetFanMode(dev, 3))
	require.Equal(t, [][]byte{[]byte("Z3X")}, ft.Written())
}

func TestReinitReopensAndResyncsIdentity(t *testing.T) {
	dev, ft := newControlDevice(t)
	ft.PushLine(">>>ID: BFL SHA256>>>")

	require.NoError(t, Reinit(dev))
	require.True(t, dev.IsOpen)
}

func TestReinitFailsOnBadIdentity(t *testing.T) {
	dev, ft := newControlDevice(t)
	ft.PushLine("garbage")

	err := Reinit(dev)
	require.True(t, errs.Is(err, errs.KindUnexpectedResponse))
}
