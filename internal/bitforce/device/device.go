// Package device holds the shared data model for a BitForce board: the
// transport binding, negotiated style, chip layout, and the mutex
// discipline every higher-level driver (async, queue) builds on.
package device

import (
	"sync"
	"sync/atomic"

	"github.com/jesterKing/bfgminer/internal/bitforce/protocol"
	"github.com/jesterKing/bfgminer/internal/bitforce/transport"
)

// Style is the negotiated device generation, discovered during probe.
type Style int

const (
	StyleFPGA Style = iota
	StyleA65
	StyleA28
)

func (s Style) String() string {
	switch s {
	case StyleA65:
		return "65nm"
	case StyleA28:
		return "28nm"
	default:
		return "fpga"
	}
}

// QueuedMax returns the bounded queue depth for the style given a parallel
// factor, matching BITFORCE_{MIN,MAX}_QUEUED_MAX from the original driver:
// 2*parallel clamped to [10,40].
func (s Style) QueuedMax(parallel int) int {
	q := 2 * parallel
	if q < 10 {
		q = 10
	}
	if q > 40 {
		q = 40
	}
	return q
}

// MaxQueueAtOnce is the per-append burst cap: 5 for 65nm boards, 20 for
// 28nm boards (28nm firmware drains its queue faster).
func (s Style) MaxQueueAtOnce() int {
	if s == StyleA28 {
		return 20
	}
	return 5
}

// Stats is the subset of device state read lock-free by the stats/RPC
// surface. Fields are atomics rather than plain ints specifically because
// Go's race detector (exercised by this driver's tests) would flag the
// deliberate torn read the original C implementation tolerated.
type Stats struct {
	SleepMS     atomic.Int64
	AvgWaitMS   atomic.Int64
	Temp0m      atomic.Int64 // millidegrees C, sensor 0; 0 = absent
	Temp1m      atomic.Int64 // millidegrees C, sensor 1; 0 = absent
	VoltsMilli  atomic.Value // []int64, millivolts per rail
	HWErrors    atomic.Int64
	QueuedCount atomic.Int64
}

// Snapshot is a point-in-time, race-free copy of Stats for callers (the
// gRPC stats surface, tests) that want a consistent view.
type Snapshot struct {
	SleepMS     int64
	AvgWaitMS   int64
	TempC       []float64
	VoltsMilli  []int64
	HWErrors    int64
	QueuedCount int64
}

func (s *Stats) Snapshot() Snapshot {
	var temps []float64
	if t := s.Temp0m.Load(); t != 0 {
		temps = append(temps, float64(t)/1000.0)
	}
	if t := s.Temp1m.Load(); t != 0 {
		temps = append(temps, float64(t)/1000.0)
	}
	volts, _ := s.VoltsMilli.Load().([]int64)
	return Snapshot{
		SleepMS:     s.SleepMS.Load(),
		AvgWaitMS:   s.AvgWaitMS.Load(),
		TempC:       temps,
		VoltsMilli:  volts,
		HWErrors:    s.HWErrors.Load(),
		QueuedCount: s.QueuedCount.Load(),
	}
}

// Device represents one physical board-group reachable over a single
// transport. Only the board handler processor (XLINK id 0, or the first
// processor enumerated) ever drives the transport or mutates queue state;
// every other Processor on the board holds a non-owning pointer here
// purely to surface results and stats for its own chip index.
type Device struct {
	Mu sync.Mutex

	Path    string
	Kind    transport.Kind
	T       transport.Transport
	Framer  *protocol.Framer
	IsOpen  bool
	Style   Style
	Name    string
	Manufacturer string

	// Negotiated at probe time.
	ChainPresenceMask uint32
	Processors        []*Processor

	// Capability flags.
	SupportsFanspeed bool
	MissingZWX       bool
	ParallelProtocol bool
	NonceRangeDemoted bool

	Stats Stats
}

// Processor is one logical compute unit on a Device. Boards with chip
// parallelism (A65 "CHIP PARALLELIZATION" / A28 "ASIC CHANNELS") report
// more than one; all share the board's single Device.
type Processor struct {
	Device   *Device
	Index    int // chip index within the board, 0-based
	XLinkID  int // 0 for the primary board, 1..N for chained boards
	Parallel int // abs(parallel factor); 0 or 1 means no chip parallelism
	IsBoardHandler bool
}

// NewDevice constructs a closed Device bound to a transport. Open must be
// called (typically by probe.Probe) before issuing any command.
func NewDevice(path string, kind transport.Kind, t transport.Transport) *Device {
	d := &Device{
		Path: path,
		Kind: kind,
		T:    t,
	}
	d.Framer = &protocol.Framer{T: t}
	return d
}

// Open opens the underlying transport and marks the device live.
func (d *Device) Open() error {
	d.Mu.Lock()
	defer d.Mu.Unlock()
	if err := d.T.Open(); err != nil {
		return err
	}
	d.IsOpen = true
	return nil
}

// Close closes the underlying transport. Safe to call more than once.
func (d *Device) Close() error {
	d.Mu.Lock()
	defer d.Mu.Unlock()
	if !d.IsOpen {
		return nil
	}
	err := d.T.Close()
	d.IsOpen = false
	return err
}

// WithXLink returns a Framer addressed to the given XLINK id, sharing the
// device's transport.
func (d *Device) WithXLink(id int) *protocol.Framer {
	return &protocol.Framer{T: d.T, ID: id}
}

// TryLock attempts the device mutex without blocking, for non-critical
// operations (LED identify, temperature poll) that should be skipped
// rather than queued when the device is busy running its job state
// machine.
func (d *Device) TryLock() bool { return d.Mu.TryLock() }
