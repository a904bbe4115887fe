package transport

import (
	"errors"
	"time"

	serial "github.com/daedaluz/goserial"

	"github.com/jesterKing/bfgminer/internal/bitforce/errs"
)

// SerialTransport drives a BitForce board over a VCOM/USB-CDC serial port.
// It reads one byte at a time, tolerating the 250ms inter-byte gap the
// firmware leaves between characters of the same line.
type SerialTransport struct {
	path string
	port *serial.Port
}

// NewSerialTransport returns an unopened transport bound to path (e.g.
// "/dev/ttyUSB0"). Call Open before use.
func NewSerialTransport(path string) *SerialTransport {
	return &SerialTransport{path: path}
}

func (t *SerialTransport) Open() error {
	opts := serial.NewOptions().SetReadTimeout(InterByteTimeout)
	p, err := serial.Open(t.path, opts)
	if err != nil {
		return errs.Wrap("serial.open", errs.KindTransportClosed, err)
	}
	if err := p.MakeRaw(); err != nil {
		p.Close()
		return errs.Wrap("serial.makeraw", errs.KindTransportClosed, err)
	}
	t.port = p
	return nil
}

func (t *SerialTransport) Close() error {
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	return err
}

// ReadLine reads up to len(buf) bytes, one at a time, stopping at the first
// '\n' (exclusive) or when InterByteTimeout elapses with no further byte.
// A timeout with zero bytes read returns errs.KindTimeout; a timeout after
// at least one byte returns what was read with no error, matching the
// original driver's tolerance of a short, stalled line.
func (t *SerialTransport) ReadLine(buf []byte) (int, error) {
	if t.port == nil {
		return 0, errs.New("serial.readline", errs.KindTransportClosed)
	}
	n := 0
	one := make([]byte, 1)
	for n < len(buf) {
		rn, err := t.port.ReadTimeout(one, InterByteTimeout)
		if err != nil {
			if n == 0 {
				return 0, errs.Wrap("serial.readline", errs.KindTimeout, err)
			}
			return n, nil
		}
		if rn == 0 {
			if n == 0 {
				return 0, errs.New("serial.readline", errs.KindTimeout)
			}
			return n, nil
		}
		if one[0] == '\n' {
			return n, nil
		}
		buf[n] = one[0]
		n++
	}
	return n, nil
}

func (t *SerialTransport) WriteAll(data []byte) error {
	if t.port == nil {
		return errs.New("serial.writeall", errs.KindTransportClosed)
	}
	written := 0
	for written < len(data) {
		n, err := t.port.Write(data[written:])
		if err != nil {
			return errs.Wrap("serial.writeall", errs.KindTransportClosed, err)
		}
		if n == 0 {
			return errs.Wrap("serial.writeall", errs.KindTransportClosed, errors.New("short write"))
		}
		written += n
	}
	return nil
}
