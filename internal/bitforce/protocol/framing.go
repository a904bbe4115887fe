// Package protocol implements the line-oriented request/response framing
// shared by every BitForce generation: a 3-byte command, an optional
// payload gated on an "OK" acknowledgement, and an optional XLINK header
// for chained-board addressing.
package protocol

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jesterKing/bfgminer/internal/bitforce/errs"
	"github.com/jesterKing/bfgminer/internal/bitforce/transport"
)

const maxLineLen = 1024

// Framer wraps a Transport with the BitForce command/response primitives
// for a single XLINK-addressed processor. id 0 means "no XLINK wrapping".
type Framer struct {
	T  transport.Transport
	ID int
}

// wrap prefixes data with the XLINK envelope '@', len, id when ID != 0.
func (f *Framer) wrap(data []byte) ([]byte, error) {
	if f.ID == 0 {
		return data, nil
	}
	if len(data) > 255 {
		return nil, errs.Wrap("xlink.wrap", errs.KindInvalidArgument,
			fmt.Errorf("payload length %d exceeds XLINK max 255", len(data)))
	}
	out := make([]byte, 0, len(data)+3)
	out = append(out, '@', byte(len(data)), byte(f.ID))
	out = append(out, data...)
	return out, nil
}

// ReadLine reads one line with no preceding write, for protocols (queue
// polling, multi-line config dumps) where the peer streams several lines
// after a single command.
func (f *Framer) ReadLine() (string, error) {
	return f.readLine()
}

func (f *Framer) readLine() (string, error) {
	buf := make([]byte, maxLineLen)
	n, err := f.T.ReadLine(buf)
	if err != nil {
		return "", err
	}
	return string(buf[:n]), nil
}

// CmdText sends a 3-byte command and returns the single reply line.
func (f *Framer) CmdText(cmd [3]byte) (string, error) {
	wrapped, err := f.wrap(cmd[:])
	if err != nil {
		return "", err
	}
	if err := f.T.WriteAll(wrapped); err != nil {
		return "", errs.Wrap("cmd_text", errs.KindTransportClosed, err)
	}
	line, err := f.readLine()
	if err != nil {
		return "", err
	}
	return line, nil
}

// CmdBin behaves like CmdText but is used for binary (non-ASCII) command
// bytes; the distinction only affects how callers choose to log the
// outgoing bytes (as hex), framing is identical.
func (f *Framer) CmdBin(raw []byte) (string, error) {
	wrapped, err := f.wrap(raw)
	if err != nil {
		return "", err
	}
	if err := f.T.WriteAll(wrapped); err != nil {
		return "", errs.Wrap("cmd_bin", errs.KindTransportClosed, err)
	}
	return f.readLine()
}

// CmdWithPayload sends cmd, reads a line; if that line begins with "OK"
// (case-insensitive) it then sends payload and reads a second line,
// returning that one. Otherwise the first line is returned unchanged.
func (f *Framer) CmdWithPayload(cmd [3]byte, payload []byte) (string, error) {
	first, err := f.CmdText(cmd)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(first)), "OK") {
		return first, nil
	}
	wrapped, err := f.wrap(payload)
	if err != nil {
		return "", err
	}
	if err := f.T.WriteAll(wrapped); err != nil {
		return "", errs.Wrap("cmd_with_payload", errs.KindTransportClosed, err)
	}
	return f.readLine()
}

// ReadLinesUntil reads lines (via the framer's transport) until one of the
// given terminator prefixes is seen (case-insensitive, inclusive) or max
// lines have been read. The terminator line itself is included in the
// returned slice.
func (f *Framer) ReadLinesUntil(max int, terminators ...string) ([]string, error) {
	var lines []string
	for i := 0; i < max; i++ {
		line, err := f.readLine()
		if err != nil {
			return lines, err
		}
		lines = append(lines, line)
		upper := strings.ToUpper(strings.TrimSpace(line))
		for _, t := range terminators {
			if strings.HasPrefix(upper, strings.ToUpper(t)) {
				return lines, nil
			}
		}
	}
	return lines, errs.New("read_lines_until", errs.KindUnexpectedResponse)
}

// ReadLinesUntilAfterCmd sends cmd and then reads lines until one of the
// terminator prefixes is seen, combining CmdText's send step with
// ReadLinesUntil's multi-line collection (used by probe's ZCX exchange).
func (f *Framer) ReadLinesUntilAfterCmd(cmd [3]byte, max int, terminators ...string) ([]string, error) {
	wrapped, err := f.wrap(cmd[:])
	if err != nil {
		return nil, err
	}
	if err := f.T.WriteAll(wrapped); err != nil {
		return nil, errs.Wrap("read_lines_until_after_cmd", errs.KindTransportClosed, err)
	}
	return f.ReadLinesUntil(max, terminators...)
}

// HexEncode is a small helper matching the original driver's habit of
// logging binary payloads as uppercase hex.
func HexEncode(data []byte) string {
	var b bytes.Buffer
	const hexDigits = "0123456789ABCDEF"
	for _, c := range data {
		b.WriteByte(hexDigits[c>>4])
		b.WriteByte(hexDigits[c&0xf])
	}
	return b.String()
}
