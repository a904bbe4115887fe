package transport

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/jesterKing/bfgminer/internal/bitforce/errs"
)

// MaxPCIBlock is the largest payload block the PCI framing moves in one
// BAR1 transfer.
const MaxPCIBlock = 0x1000

// PCITransport talks to a BitForce board mapped behind three sysfs
// resource files: BAR0 (host->device payload staging), BAR1 (device->host
// payload), and BAR2 (a single control word: high byte is a rolling tag,
// low two bytes are a payload length).
type PCITransport struct {
	bar0Path, bar1Path, bar2Path string

	bar0, bar1, bar2 []byte
	f0, f1, f2       *os.File

	lastTag byte
	pending bytes.Buffer
}

// NewPCITransport binds to the three BAR resource paths under
// /sys/bus/pci/devices/<addr>/resourceN, conventionally.
func NewPCITransport(bar0, bar1, bar2 string) *PCITransport {
	return &PCITransport{bar0Path: bar0, bar1Path: bar1, bar2Path: bar2}
}

func mmapBAR(path string, size int, prot int) ([]byte, *os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, nil, err
	}
	data, err := unix.Mmap(int(f.Fd()), 0, size, prot, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return data, f, nil
}

func (t *PCITransport) Open() error {
	var err error
	if t.bar0, t.f0, err = mmapBAR(t.bar0Path, MaxPCIBlock, unix.PROT_READ|unix.PROT_WRITE); err != nil {
		return errs.Wrap("pci.open", errs.KindTransportClosed, err)
	}
	if t.bar1, t.f1, err = mmapBAR(t.bar1Path, MaxPCIBlock, unix.PROT_READ); err != nil {
		t.Close()
		return errs.Wrap("pci.open", errs.KindTransportClosed, err)
	}
	if t.bar2, t.f2, err = mmapBAR(t.bar2Path, 4, unix.PROT_READ|unix.PROT_WRITE); err != nil {
		t.Close()
		return errs.Wrap("pci.open", errs.KindTransportClosed, err)
	}
	t.lastTag = 0
	return nil
}

func (t *PCITransport) Close() error {
	if t.bar0 != nil {
		unix.Munmap(t.bar0)
		t.bar0 = nil
	}
	if t.bar1 != nil {
		unix.Munmap(t.bar1)
		t.bar1 = nil
	}
	if t.bar2 != nil {
		unix.Munmap(t.bar2)
		t.bar2 = nil
	}
	for _, f := range []*os.File{t.f0, t.f1, t.f2} {
		if f != nil {
			f.Close()
		}
	}
	t.f0, t.f1, t.f2 = nil, nil, nil
	return nil
}

func (t *PCITransport) controlWord() uint32 {
	return binary.LittleEndian.Uint32(t.bar2)
}

// fetchBlock reads the BAR2 control word once. If its tag byte still
// equals lastTag it returns a KindTimeout error at once, without waiting
// for the device; otherwise it records the new tag and pulls the announced
// length (clamped to MaxPCIBlock) from BAR1 into the internal line buffer.
func (t *PCITransport) fetchBlock() error {
	ctrl := t.controlWord()
	tag := byte(ctrl >> 16)
	if tag == t.lastTag {
		return errs.New("pci.fetch", errs.KindTimeout)
	}
	length := int(ctrl & 0xffff)
	if length > MaxPCIBlock {
		length = MaxPCIBlock
	}
	t.lastTag = tag
	t.pending.Write(t.bar1[:length])
	return nil
}

func (t *PCITransport) ReadLine(buf []byte) (int, error) {
	if t.bar1 == nil {
		return 0, errs.New("pci.readline", errs.KindTransportClosed)
	}
	if t.pending.Len() == 0 {
		if err := t.fetchBlock(); err != nil {
			return 0, err
		}
	}
	line, err := t.pending.ReadBytes('\n')
	if err != nil {
		// No newline yet: what we have is the whole remaining buffer,
		// treated the same as a short stalled line over serial.
		n := copy(buf, line)
		return n, nil
	}
	line = bytes.TrimRight(line, "\n")
	n := copy(buf, line)
	return n, nil
}

func (t *PCITransport) WriteAll(data []byte) error {
	if t.bar0 == nil {
		return errs.New("pci.writeall", errs.KindTransportClosed)
	}
	if len(data) > MaxPCIBlock {
		return errs.Wrap("pci.writeall", errs.KindInvalidArgument,
			fmt.Errorf("payload %d exceeds max block %d", len(data), MaxPCIBlock))
	}
	copy(t.bar0, data)
	tag := t.lastTag + 1
	if tag == 0 {
		tag = 1
	}
	ctrl := (uint32(tag) << 16) | uint32(len(data)&0xffff)
	binary.LittleEndian.PutUint32(t.bar2, ctrl)
	t.lastTag = tag
	return nil
}
