// Package queue implements the bulk-queue mining protocol used by 65nm
// and 28nm ASIC boards: a bounded in-flight queue of jobs sent in one
// binary payload, polled in batches, reconciled against the device's own
// in-progress report on flush.
package queue

import (
	"encoding/hex"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/jesterKing/bfgminer/internal/bitforce/device"
	"github.com/jesterKing/bfgminer/internal/bitforce/errs"
	"github.com/jesterKing/bfgminer/internal/bitforce/work"
)

var (
	cmdAppend        = [3]byte{'Z', 'W', 'X'}
	cmdAppendFallback = [3]byte{'Z', 'N', 'X'}
	cmdPoll          = [3]byte{'Z', 'O', 'X'}
	cmdFlushParallel = [3]byte{'Z', 'q', 'X'}
	cmdFlush         = [3]byte{'Z', 'Q', 'X'}
)

const (
	maxQResults      = 16
	goalQResults     = 5
	minQResultWaitMS = 10
	maxQResultWaitMS = 1000
	sleepMSDefault   = 100 * time.Millisecond
	backoffOnFailure = time.Second
)

// entry is one FIFO-ordered in-flight job.
type entry struct {
	w *work.Work
}

// Driver drives the board-handler Processor of a 65nm/28nm board through
// the PQUEUE/BQUEUE protocol. Not safe for concurrent use.
type Driver struct {
	Dev  *device.Device
	Proc *device.Processor
	Sink work.Sink

	isA28    bool
	parallel bool

	queuedMax      int
	maxQueueAtOnce int

	queued       int
	readyToQueue int
	fifo         []entry // in-flight, ordered oldest-first
	pending      []*work.Work
	justFlushed  bool
	wantSend     bool

	sleepMS time.Duration
}

// NewDriver constructs a driver for the board-handler processor. parallel
// should be proc.Parallel > 0 / the board's PQUEUE capability.
func NewDriver(dev *device.Device, proc *device.Processor, sink work.Sink) *Driver {
	parallel := proc.Parallel > 0
	queuedMax := dev.Style.QueuedMax(max(proc.Parallel, 1))
	d := &Driver{
		Dev:            dev,
		Proc:           proc,
		Sink:           sink,
		isA28:          dev.Style == device.StyleA28,
		parallel:       parallel,
		queuedMax:      queuedMax,
		maxQueueAtOnce: dev.Style.MaxQueueAtOnce(),
		sleepMS:        sleepMSDefault,
	}
	dev.Stats.SleepMS.Store(d.sleepMS.Milliseconds())
	return d
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Append queues w locally for the next Send. It returns false (and
// leaves w unqueued) if the bounded queue is already full.
func (d *Driver) Append(w *work.Work) bool {
	if d.queued+d.readyToQueue >= d.queuedMax {
		return false
	}
	d.pending = append(d.pending, w)
	d.readyToQueue++
	return true
}

// ShouldSend reports whether accumulated pending jobs should be flushed
// to the device now: idle device, burst cap reached, local queue full, or
// the device lacks multi-append (ZNX fallback, one job at a time).
func (d *Driver) ShouldSend() bool {
	if len(d.pending) == 0 {
		return false
	}
	if d.Dev.MissingZWX {
		return true
	}
	if d.queued == 0 {
		return true
	}
	if d.readyToQueue >= d.maxQueueAtOnce {
		return true
	}
	if d.queued+d.readyToQueue >= d.queuedMax {
		return true
	}
	return d.justFlushed
}

// Send appends the pending batch to the device, falling back from ZWX to
// ZNX on "ERROR: UNKNOWN" (which is sticky for the lifetime of the
// Device), and to a single-job ZNX send when MissingZWX is already set.
func (d *Driver) Send() error {
	d.Dev.Mu.Lock()
	defer d.Dev.Mu.Unlock()

	if len(d.pending) == 0 {
		return nil
	}

	batch := d.pending
	if d.Dev.MissingZWX && len(batch) > 1 {
		batch = batch[:1]
	}

	var resp string
	var err error
	framer := d.Dev.WithXLink(d.Proc.XLinkID)

	switch {
	case d.isA28:
		payload := buildPayload(true, batch)
		resp, err = framer.CmdBin(payload)
	case d.Dev.MissingZWX:
		payload := buildPayload(false, batch)
		// ZNX takes the body without the 3-byte header (length, 0xC1,
		// count): only the job bytes and the 0xFE trailer are sent.
		resp, err = framer.CmdWithPayload(cmdAppendFallback, payload[3:])
	default:
		payload := buildPayload(false, batch)
		resp, err = framer.CmdWithPayload(cmdAppend, payload)
	}
	if err != nil {
		d.wantSend = true
		return errs.Wrap("queue.send", errs.KindTransportClosed, err)
	}

	upper := strings.ToUpper(strings.TrimSpace(resp))
	switch {
	case strings.Contains(upper, "ERROR: UNKNOWN") && !d.Dev.MissingZWX:
		d.Dev.MissingZWX = true
		log.Printf("bitforce: queue: ZWX unsupported, falling back to ZNX permanently")
		// The retry takes the mutex itself; re-lock afterwards so the
		// deferred Unlock above stays balanced.
		d.Dev.Mu.Unlock()
		defer d.Dev.Mu.Lock()
		return d.Send()
	case strings.HasPrefix(upper, "ERR:QUEUE"):
		d.wantSend = true
		return errs.New("queue.send", errs.KindDeviceQueueFull)
	case strings.HasPrefix(upper, "OK:QUEUED"):
		n := len(batch)
		if d.Dev.MissingZWX {
			n = 1
		} else if parsed, ok := parseTrailingInt(upper); ok {
			n = parsed
		}
		for i := 0; i < n && i < len(batch); i++ {
			d.fifo = append(d.fifo, entry{w: batch[i]})
		}
		d.queued += n
		d.readyToQueue -= n
		d.pending = d.pending[min(n, len(d.pending)):]
		d.Dev.Stats.QueuedCount.Store(int64(d.queued))
		d.wantSend = false
		d.justFlushed = false
		return nil
	default:
		log.Printf("bitforce: queue: unexpected append response %q", resp)
		d.wantSend = true
		return errs.New("queue.send", errs.KindUnexpectedResponse)
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// parseTrailingInt extracts the run of decimal digits at the end of s,
// however it is separated from the rest of the line ("OK:QUEUED 3" by a
// space, "FLUSHED:2" by a colon).
func parseTrailingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	if i == len(s) {
		return 0, false
	}
	n, err := strconv.Atoi(s[i:])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Poll fetches and matches completed results via ZOX, looping (bounded,
// not recursive - see design notes) while a batch hits the maxQResults
// cap, since that signals more results are immediately available.
func (d *Driver) Poll() error {
	d.Dev.Mu.Lock()
	defer d.Dev.Mu.Unlock()
	return d.pollLocked()
}

// pollLocked is Poll's body, callable by callers that already hold
// d.Dev.Mu (Flush, to absorb late results before reconciling its fifo).
func (d *Driver) pollLocked() error {
	framer := d.Dev.WithXLink(d.Proc.XLinkID)
	totalFetched := 0
	for {
		line, err := framer.CmdText(cmdPoll)
		if err != nil {
			return errs.Wrap("queue.poll", errs.KindTransportClosed, err)
		}
		upper := strings.ToUpper(strings.TrimSpace(line))
		if !strings.HasPrefix(upper, "COUNT:") {
			return nil
		}
		n, _ := strconv.Atoi(strings.TrimSpace(line[len("COUNT:"):]))
		matchedUpTo := -1
		for i := 0; i < n; i++ {
			rl, err := framer.ReadLine()
			if err != nil {
				break
			}
			idx, matched := d.processResultLine(rl)
			if matched && idx > matchedUpTo {
				matchedUpTo = idx
			}
		}
		if !d.parallel && matchedUpTo >= 0 {
			d.fifo = d.fifo[matchedUpTo+1:]
		}
		d.queued -= n
		if d.queued < 0 {
			d.queued = 0
		}
		d.Dev.Stats.QueuedCount.Store(int64(d.queued))
		totalFetched += n
		d.adaptTiming(n)
		if n < maxQResults {
			break
		}
	}
	return nil
}

// processResultLine parses "midstate_hex,tail_hex[,chip_hex],count[,nonces]"
// and reports any nonces to the sink. It returns the matched entry's index
// in the FIFO (for non-parallel bulk deletion) and whether a match was
// found at all.
func (d *Driver) processResultLine(line string) (int, bool) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) < 3 {
		return -1, false
	}
	midHex, tailHex := fields[0], fields[1]
	mid, err1 := hex.DecodeString(midHex)
	tail, err2 := hex.DecodeString(tailHex)
	if err1 != nil || err2 != nil || len(mid) != 32 || len(tail) != 12 {
		return -1, false
	}
	key := string(mid) + string(tail)

	idx := -1
	var matchedWork *work.Work
	for i, e := range d.fifo {
		if e.w.Key() == key {
			idx = i
			matchedWork = e.w
			break
		}
	}

	rest := fields[2:]
	chipIdx := d.Proc.Index
	if d.parallel && len(rest) > 0 {
		if v, err := strconv.ParseInt(rest[0], 16, 32); err == nil {
			chipIdx = int(v)
			rest = rest[1:]
			if chipIdx >= d.Proc.Parallel {
				log.Printf("bitforce: queue: chip index %d out of range for parallel %d, using 0", chipIdx, d.Proc.Parallel)
				d.Dev.Stats.HWErrors.Add(1)
				chipIdx = 0
			}
		}
	}
	if len(rest) == 0 {
		if idx >= 0 && d.parallel {
			d.fifo = append(d.fifo[:idx], d.fifo[idx+1:]...)
		}
		return idx, idx >= 0
	}
	count, _ := strconv.Atoi(rest[0])
	nonces := rest[1:]
	if matchedWork != nil && d.Sink != nil {
		for i := 0; i < count && i < len(nonces); i++ {
			raw, err := hex.DecodeString(nonces[i])
			if err != nil || len(raw) != 4 {
				continue
			}
			nonce := uint32(raw[0])<<24 | uint32(raw[1])<<16 | uint32(raw[2])<<8 | uint32(raw[3])
			d.Sink.SubmitNonce(chipIdx, matchedWork, nonce)
		}
	}
	if idx >= 0 && d.parallel {
		d.fifo = append(d.fifo[:idx], d.fifo[idx+1:]...)
	}
	return idx, idx >= 0
}

// adaptTiming scales sleepMS toward a goalQResults yield per poll, only
// in non-parallel mode (parallel boards' yield varies with chip count and
// is not a useful signal), and only when more than one job is in flight.
func (d *Driver) adaptTiming(fetched int) {
	if d.parallel || d.queued <= 1 {
		return
	}
	if fetched == 0 {
		fetched = 1
	}
	ms := d.sleepMS.Milliseconds() * goalQResults / int64(fetched)
	if ms < minQResultWaitMS {
		ms = minQResultWaitMS
	}
	if ms > maxQResultWaitMS {
		ms = maxQResultWaitMS
	}
	d.sleepMS = time.Duration(ms) * time.Millisecond
	d.Dev.Stats.SleepMS.Store(ms)
}

// Flush asks the device to discard its queue, reconciling the driver's
// local FIFO against whatever in-progress jobs the device reports back.
func (d *Driver) Flush() error {
	d.Dev.Mu.Lock()
	defer d.Dev.Mu.Unlock()

	framer := d.Dev.WithXLink(d.Proc.XLinkID)
	cmd := cmdFlush
	if d.parallel {
		cmd = cmdFlushParallel
	}
	line, err := framer.CmdText(cmd)
	if err != nil {
		return errs.Wrap("queue.flush", errs.KindTransportClosed, err)
	}
	upper := strings.ToUpper(strings.TrimSpace(line))

	var flushed int
	var inProgress []string
	switch {
	case strings.HasPrefix(upper, "OK:FLUSHED"):
		flushed, _ = parseTrailingInt(upper)
	case strings.HasPrefix(upper, "COUNT:"):
		n, _ := strconv.Atoi(strings.TrimSpace(line[len("COUNT:"):]))
		flLine, _ := framer.ReadLine()
		flushed, _ = parseTrailingInt(strings.ToUpper(flLine))
		inProgress = make([]string, 0, n)
		for i := 0; i < n; i++ {
			l, err := framer.ReadLine()
			if err != nil {
				break
			}
			inProgress = append(inProgress, strings.TrimSpace(l))
		}
		// The in-progress list is terminated by a trailing OK that isn't
		// part of the listed jobs; consume it so it isn't misread as the
		// response to whatever command runs next on this device.
		framer.ReadLine()
	default:
		log.Printf("bitforce: queue: flush returned unrecognised %q", line)
	}

	d.queued -= flushed
	if d.queued < 0 {
		d.queued = 0
	}
	d.readyToQueue = 0
	d.pending = nil
	d.Dev.Stats.QueuedCount.Store(int64(d.queued))

	// Absorb any results the device finished between issuing the
	// flush and reading its response, before deleting fifo entries
	// the in-progress report doesn't account for.
	if err := d.pollLocked(); err != nil {
		log.Printf("bitforce: queue: poll during flush reconciliation failed: %v", err)
	}

	if inProgress != nil {
		keep := make(map[string]bool, len(inProgress))
		for _, l := range inProgress {
			fields := strings.Split(l, ",")
			if len(fields) < 2 {
				continue
			}
			mid, err1 := hex.DecodeString(fields[0])
			tail, err2 := hex.DecodeString(fields[1])
			if err1 != nil || err2 != nil {
				continue
			}
			keep[string(mid)+string(tail)] = true
		}

		var survivors []entry
		for _, e := range d.fifo {
			if keep[e.w.Key()] {
				survivors = append(survivors, e)
			} else {
				log.Printf("bitforce: queue: flush sanity mismatch, dropping untracked job")
			}
		}
		d.fifo = survivors
	} else {
		d.fifo = nil
	}

	d.justFlushed = true
	return nil
}

// NextDelay is how long the minerloop should wait before the next Poll.
func (d *Driver) NextDelay() time.Duration {
	if d.wantSend {
		return backoffOnFailure
	}
	return d.sleepMS
}
