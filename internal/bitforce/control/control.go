// Package control implements the BitForce control surface shared by every
// driver generation: temperature/voltage readback, LED identify, fan
// mode, and full device re-initialisation.
package control

import (
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/jesterKing/bfgminer/internal/bitforce/device"
	"github.com/jesterKing/bfgminer/internal/bitforce/errs"
)

var (
	cmdTemp    = [3]byte{'Z', 'T', 'X'}
	cmdVolts   = [3]byte{'Z', 'L', 'X'}
	cmdLED      = [3]byte{'Z', 'M', 'X'}
	cmdFanProbe = [3]byte{'Z', '9', 'X'}
	cmdIdentify = [3]byte{'Z', 'G', 'X'}
)

const ledHoldDuration = 4 * time.Second
const reinitSleep = 5 * time.Second

// ReadTemperature issues ZTX and stores up to two sensor readings on the
// device's lock-free Stats. A malformed reply is treated as a thermal
// throttle event: it is not retried, the read buffer is assumed dirty,
// and one hardware-error tick is recorded.
func ReadTemperature(dev *device.Device) error {
	if !dev.TryLock() {
		return nil
	}
	defer dev.Mu.Unlock()

	line, err := dev.WithXLink(0).CmdText(cmdTemp)
	if err != nil {
		return errs.Wrap("control.temp", errs.KindTransportClosed, err)
	}
	parts := strings.Split(line, "|")
	var temps [2]float64
	ok := true
	for i, p := range parts {
		if i >= 2 {
			break
		}
		p = strings.TrimSpace(p)
		if !strings.HasPrefix(strings.ToUpper(p), "TEMP:") {
			ok = false
			break
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(p[len("TEMP:"):]), 64)
		if err != nil {
			ok = false
			break
		}
		temps[i] = v
	}
	if !ok {
		dev.Stats.HWErrors.Add(1)
		return errs.New("control.temp", errs.KindThermalThrottle)
	}
	dev.Stats.Temp0m.Store(int64(temps[0] * 1000))
	if len(parts) > 1 {
		dev.Stats.Temp1m.Store(int64(temps[1] * 1000))
	}
	return nil
}

// ReadVoltages issues ZLX and stores the parsed millivolt readings.
func ReadVoltages(dev *device.Device) error {
	if !dev.TryLock() {
		return nil
	}
	defer dev.Mu.Unlock()

	line, err := dev.WithXLink(0).CmdText(cmdVolts)
	if err != nil {
		return errs.Wrap("control.volts", errs.KindTransportClosed, err)
	}
	fields := strings.Split(strings.TrimSpace(line), ",")
	volts := make([]int64, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			dev.Stats.HWErrors.Add(1)
			return errs.New("control.volts", errs.KindThermalThrottle)
		}
		volts = append(volts, int64(v*1000))
	}
	dev.Stats.VoltsMilli.Store(volts)
	return nil
}

// Identify flashes the board LED. It holds the device mutex for the full
// 4s the firmware needs to avoid interleaving with a job in flight. If the
// mutex is already held, the flash is skipped and nil is returned.
func Identify(dev *device.Device) error {
	if !dev.TryLock() {
		return nil
	}
	defer dev.Mu.Unlock()

	if _, err := dev.WithXLink(0).CmdText(cmdLED); err != nil {
		return errs.Wrap("control.identify", errs.KindTransportClosed, err)
	}
	time.Sleep(ledHoldDuration)
	return nil
}

// ProbeFanspeedSupport issues Z9X; a device that replies with an error
// does not support fan mode control.
func ProbeFanspeedSupport(dev *device.Device) bool {
	dev.Mu.Lock()
	defer dev.Mu.Unlock()

	line, err := dev.WithXLink(0).CmdText(cmdFanProbe)
	if err != nil {
		return false
	}
	supported := !strings.Contains(strings.ToUpper(line), "ERR")
	dev.SupportsFanspeed = supported
	return supported
}

// SetFanMode sets the fan mode (0-5, or 9) if the device previously
// reported support via ProbeFanspeedSupport.
func SetFanMode(dev *device.Device, mode int) error {
	if !dev.SupportsFanspeed {
		return errs.New("control.fanmode", errs.KindProtocolUnsupported)
	}
	if mode < 0 || (mode > 5 && mode != 9) {
		return errs.New("control.fanmode", errs.KindInvalidArgument)
	}
	dev.Mu.Lock()
	defer dev.Mu.Unlock()

	cmd := [3]byte{'Z', byte('0' + mode), 'X'}
	_, err := dev.WithXLink(0).CmdText(cmd)
	if err != nil {
		return errs.Wrap("control.fanmode", errs.KindTransportClosed, err)
	}
	return nil
}

// Reinit closes, waits reinitSleep, reopens, and resynchronises identity.
// It does not touch any driver-side job/queue state; callers that need
// that cleared build a new driver with async.NewDriver or queue.NewDriver.
func Reinit(dev *device.Device) error {
	dev.Mu.Lock()
	defer dev.Mu.Unlock()

	if err := dev.T.Close(); err != nil {
		log.Printf("bitforce: control: reinit close: %v", err)
	}
	dev.IsOpen = false
	time.Sleep(reinitSleep)

	if err := dev.T.Open(); err != nil {
		return errs.Wrap("control.reinit", errs.KindTransportClosed, err)
	}
	dev.IsOpen = true

	line, err := dev.WithXLink(0).CmdText(cmdIdentify)
	if err != nil {
		return errs.Wrap("control.reinit", errs.KindTransportClosed, err)
	}
	if !strings.Contains(strings.ToUpper(line), "SHA256") {
		return errs.New("control.reinit", errs.KindUnexpectedResponse)
	}
	return nil
}
