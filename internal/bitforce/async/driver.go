// Package async implements the one-job-at-a-time state machine used by
// FPGA and older BitForce boards: prepare a job, send it, poll with
// adaptive backoff, parse the result line, report nonces upstream.
package async

import (
	"encoding/binary"
	"encoding/hex"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/jesterKing/bfgminer/internal/bitforce/device"
	"github.com/jesterKing/bfgminer/internal/bitforce/errs"
	"github.com/jesterKing/bfgminer/internal/bitforce/work"
)

// Proto is the wire protocol the driver currently speaks to the device.
type Proto int

const (
	ProtoWork Proto = iota
	ProtoRange
)

var (
	cmdWork  = [3]byte{'Z', 'D', 'X'}
	cmdRange = [3]byte{'Z', 'P', 'X'}
	cmdPoll  = [3]byte{'Z', 'F', 'X'}
)

const (
	sleepMSDefault       = 500 * time.Millisecond
	checkInterval        = 10 * time.Millisecond
	workCheckInterval    = 50 * time.Millisecond
	longTimeout          = 25 * time.Second
	timeAvgConstant      = 8
	fullNonceRange       = 0xffffffff
	rangeNonceCount      = 0x33333332 // advertised upstream when splitting into fifths
)

// state is the async job lifecycle.
type state int

const (
	stateIdle state = iota
	stateSending
	statePolling
)

// Driver drives one board-handler Processor through the WORK/RANGE
// protocol. It is not safe for concurrent use by more than one goroutine;
// the host's minerloop owns exactly one Driver per Processor.
type Driver struct {
	Dev  *device.Device
	Proc *device.Processor
	Sink work.Sink

	proto Proto

	sleepMS        time.Duration
	sleepMSDefault time.Duration
	avgWaitMS      int64

	state        state
	current      *work.Work
	jobStart     time.Time
	busyPolls    int
	busyDuration time.Duration

	// lastBase/lastNonces record the nonce window actually issued with the
	// most recent RANGE-protocol job, so returned nonces can be checked
	// against what was sent rather than the work item's static advertised
	// range.
	lastBase   uint32
	lastNonces uint32

	// bufferedLine holds an extra result line the previous poll received
	// that actually belongs to the job about to be started.
	bufferedLine string
}

// NewDriver constructs a driver for proc. allowRange seeds the initial
// protocol; a device that rejects RANGE is permanently demoted to WORK.
func NewDriver(dev *device.Device, proc *device.Processor, sink work.Sink, allowRange bool) *Driver {
	d := &Driver{
		Dev:            dev,
		Proc:           proc,
		Sink:           sink,
		sleepMS:        sleepMSDefault,
		sleepMSDefault: sleepMSDefault,
	}
	if allowRange {
		d.proto = ProtoRange
	}
	dev.Stats.SleepMS.Store(d.sleepMS.Milliseconds())
	return d
}

// AdvertisedNonceCount is the nonce-count the driver should advertise
// upstream for the current protocol: the full 32-bit range for WORK, or a
// fifth of it for RANGE (the original driver's 0x33333332 constant).
func (d *Driver) AdvertisedNonceCount() uint32 {
	if d.proto == ProtoRange {
		return rangeNonceCount
	}
	return fullNonceRange
}

func (d *Driver) buildPayload(w *work.Work) []byte {
	if d.proto == ProtoWork {
		buf := make([]byte, 0, 45)
		buf = append(buf, w.Midstate[:]...)
		buf = append(buf, w.Tail[:]...)
		buf = append(buf, 0xAA)
		return buf
	}
	buf := make([]byte, 0, 53)
	buf = append(buf, w.Midstate[:]...)
	buf = append(buf, w.Tail[:]...)
	nonces := uint32(rangeNonceCount)
	base := w.Cursor()
	var nb [4]byte
	binary.BigEndian.PutUint32(nb[:], base)
	buf = append(buf, nb[:]...)
	var cb [4]byte
	binary.BigEndian.PutUint32(cb[:], base+nonces)
	buf = append(buf, cb[:]...)
	buf = append(buf, 0xAA)
	w.Advance(nonces)
	d.lastBase = base
	d.lastNonces = nonces
	return buf
}

// demoteToWork permanently switches this board off RANGE mode, scaling
// sleepMS up by the original driver's x5 factor: the full-range WORK
// protocol takes roughly five times as long per job as a fifth-range one.
func (d *Driver) demoteToWork() {
	if d.proto != ProtoRange {
		return
	}
	d.proto = ProtoWork
	d.sleepMS *= 5
	log.Printf("bitforce: async: demoting proc %d to WORK protocol", d.Proc.Index)
}

// StartJob submits w to the device. A "busy" response leaves the job
// pending (caller should retry StartJob after workCheckInterval); any
// non-OK response while in RANGE triggers a one-shot demotion and retry.
func (d *Driver) StartJob(w *work.Work) error {
	d.Dev.Mu.Lock()
	defer d.Dev.Mu.Unlock()

	cmd := cmdWork
	if d.proto == ProtoRange {
		cmd = cmdRange
	}

	payload := d.buildPayload(w)
	resp, err := d.Dev.WithXLink(d.Proc.XLinkID).CmdWithPayload(cmd, payload)
	if err != nil {
		return errs.Wrap("async.start_job", errs.KindTransportClosed, err)
	}
	trimmed := strings.TrimSpace(resp)
	upper := strings.ToUpper(trimmed)

	switch {
	case trimmed == "" || upper == "B":
		d.state = stateSending
		return errs.New("async.start_job", errs.KindDeviceBusy)
	case d.proto == ProtoRange && !strings.HasPrefix(upper, "OK"):
		d.demoteToWork()
		// The retry takes the mutex itself; re-lock afterwards so the
		// deferred Unlock above stays balanced.
		d.Dev.Mu.Unlock()
		defer d.Dev.Mu.Lock()
		return d.StartJob(w)
	case !strings.HasPrefix(upper, "OK"):
		d.Dev.Stats.HWErrors.Add(1)
		return errs.New("async.start_job", errs.KindUnexpectedResponse)
	}

	d.current = w
	d.jobStart = time.Now()
	d.busyPolls = 0
	d.state = statePolling
	return nil
}

// PollResult is what Poll reports back to the minerloop.
type PollResult struct {
	Done     bool
	Overheat bool
	WaitMore time.Duration
}

// Poll issues one ZFX exchange and interprets COUNT/NONCE-FOUND/NO-NONCE/B.
func (d *Driver) Poll() (PollResult, error) {
	d.Dev.Mu.Lock()
	defer d.Dev.Mu.Unlock()

	elapsed := time.Since(d.jobStart)
	if elapsed > longTimeout {
		d.Dev.Stats.HWErrors.Add(1)
		d.state = stateIdle
		return PollResult{Done: true, Overheat: true}, nil
	}

	line, err := d.Dev.WithXLink(d.Proc.XLinkID).CmdText(cmdPoll)
	if err != nil {
		return PollResult{}, errs.Wrap("async.poll", errs.KindTransportClosed, err)
	}
	trimmed := strings.TrimSpace(line)
	upper := strings.ToUpper(trimmed)

	switch {
	case upper == "" || upper == "B":
		d.busyPolls++
		d.busyDuration = elapsed
		return PollResult{WaitMore: workCheckInterval}, nil
	case strings.HasPrefix(upper, "NO-NONCE"):
		d.finishJob(elapsed)
		return PollResult{Done: true}, nil
	case strings.HasPrefix(upper, "NONCE-FOUND:"):
		d.reportNonces(trimmed[len("NONCE-FOUND:"):])
		d.finishJob(elapsed)
		return PollResult{Done: true}, nil
	case strings.HasPrefix(upper, "COUNT:"):
		n, _ := strconv.Atoi(strings.TrimSpace(trimmed[len("COUNT:"):]))
		for i := 0; i < n; i++ {
			rl, err := d.Dev.WithXLink(d.Proc.XLinkID).ReadLine()
			if err != nil {
				break
			}
			if strings.HasPrefix(strings.ToUpper(rl), "NONCE-FOUND:") {
				d.reportNonces(rl[len("NONCE-FOUND:"):])
			}
		}
		d.finishJob(elapsed)
		return PollResult{Done: true}, nil
	default:
		d.Dev.Stats.HWErrors.Add(1)
		d.state = stateIdle
		return PollResult{Done: true}, nil
	}
}

func (d *Driver) reportNonces(csv string) {
	if d.Sink == nil || d.current == nil {
		return
	}
	for _, tok := range strings.Split(csv, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		raw, err := hex.DecodeString(tok)
		if err != nil || len(raw) != 4 {
			continue
		}
		nonce := binary.BigEndian.Uint32(raw)
		if d.proto == ProtoRange && !d.inWindow(nonce) {
			log.Printf("bitforce: async: nonce %08x outside issued range, demoting proc %d", nonce, d.Proc.Index)
			d.demoteToWork()
			continue
		}
		d.Sink.SubmitNonce(d.Proc.Index, d.current, nonce)
	}
}

// inWindow checks nonce against the window actually issued with the
// current RANGE job (lastBase/lastNonces), not the work item's static
// advertised range.
func (d *Driver) inWindow(nonce uint32) bool {
	if d.current == nil {
		return true
	}
	end := d.lastBase + d.lastNonces
	return nonce >= d.lastBase && nonce <= end
}

// finishJob updates the adaptive-timing state per the original driver's
// convergence rule: fast, clean completions keep sleepMS; completions
// after one or more busy polls settle near the observed busy duration.
func (d *Driver) finishJob(elapsed time.Duration) {
	if d.busyPolls == 0 {
		if elapsed < d.sleepMS+workCheckInterval {
			// keep sleepMS, overshoot was small
		} else {
			d.sleepMS = d.sleepMSDefault
			if d.sleepMS < checkInterval {
				d.sleepMS = checkInterval
			}
		}
	} else if d.busyDuration-d.sleepMS > workCheckInterval {
		d.sleepMS = d.busyDuration - workCheckInterval/2
	}
	d.avgWaitMS += (elapsed.Milliseconds() - d.avgWaitMS) / timeAvgConstant
	d.busyPolls = 0
	d.state = stateIdle
	d.Dev.Stats.SleepMS.Store(d.sleepMS.Milliseconds())
	d.Dev.Stats.AvgWaitMS.Store(d.avgWaitMS)
}

// NextDelay returns how long the minerloop should wait before the next
// StartJob/Poll call for this driver.
func (d *Driver) NextDelay() time.Duration {
	switch d.state {
	case stateSending:
		return workCheckInterval
	case statePolling:
		return d.sleepMS
	default:
		return 0
	}
}
