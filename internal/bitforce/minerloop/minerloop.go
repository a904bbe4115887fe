// Package minerloop wires a probed Device to its active driver (async for
// FPGA boards, queue for 65nm/28nm ASIC boards) and drives it against a
// host.WorkSource on its own goroutine, keeping policy (when to act) out
// of the device/driver types themselves.
package minerloop

import (
	"context"
	"log"
	"time"

	"github.com/jesterKing/bfgminer/internal/bitforce/async"
	"github.com/jesterKing/bfgminer/internal/bitforce/control"
	"github.com/jesterKing/bfgminer/internal/bitforce/device"
	"github.com/jesterKing/bfgminer/internal/bitforce/queue"
	"github.com/jesterKing/bfgminer/internal/host"
)

const statsPollInterval = 30 * time.Second

// Loop drives exactly one board (its board-handler Processor). Secondary
// processors on a parallel board surface results through the same queue
// Driver and need no loop of their own.
type Loop struct {
	Dev    *device.Device
	Async  *async.Driver
	Queue  *queue.Driver
	Source host.WorkSource
	Proc   *device.Processor
}

// New selects the driver personality for proc's board: FPGA boards run
// the async WORK/RANGE state machine, ASIC boards run the bulk queue.
func New(dev *device.Device, proc *device.Processor, source host.WorkSource, allowRange bool) *Loop {
	l := &Loop{Dev: dev, Source: source, Proc: proc}
	sink := host.Sink(source)
	if dev.Style == device.StyleFPGA {
		l.Async = async.NewDriver(dev, proc, sink, allowRange)
	} else {
		l.Queue = queue.NewDriver(dev, proc, sink)
	}
	return l
}

// Run drives the loop until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	go l.statsLoop(ctx)
	if l.Async != nil {
		l.runAsync(ctx)
		return
	}
	l.runQueue(ctx)
}

func (l *Loop) runAsync(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		w, ok := l.Source.NextWork(l.Proc.Index)
		if !ok {
			if !sleepCtx(ctx, 50*time.Millisecond) {
				return
			}
			continue
		}

		if err := l.Async.StartJob(w); err != nil {
			if !sleepCtx(ctx, l.Async.NextDelay()) {
				return
			}
			continue
		}

		for {
			if !sleepCtx(ctx, l.Async.NextDelay()) {
				return
			}
			res, err := l.Async.Poll()
			if err != nil {
				log.Printf("bitforce: minerloop: poll error on proc %d: %v", l.Proc.Index, err)
				break
			}
			if res.Overheat {
				log.Printf("bitforce: minerloop: proc %d overheated, aborting job", l.Proc.Index)
				break
			}
			if res.Done {
				break
			}
		}
	}
}

func (l *Loop) runQueue(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		for {
			w, ok := l.Source.NextWork(l.Proc.Index)
			if !ok {
				break
			}
			if !l.Queue.Append(w) {
				break
			}
		}

		if l.Queue.ShouldSend() {
			if err := l.Queue.Send(); err != nil {
				log.Printf("bitforce: minerloop: queue send error: %v", err)
			}
		}

		if err := l.Queue.Poll(); err != nil {
			log.Printf("bitforce: minerloop: queue poll error: %v", err)
		}

		if !sleepCtx(ctx, l.Queue.NextDelay()) {
			return
		}
	}
}

func (l *Loop) statsLoop(ctx context.Context) {
	ticker := time.NewTicker(statsPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := control.ReadTemperature(l.Dev); err != nil {
				log.Printf("bitforce: minerloop: temp read failed: %v", err)
			}
			if err := control.ReadVoltages(l.Dev); err != nil {
				log.Printf("bitforce: minerloop: volts read failed: %v", err)
			}
		}
	}
}

// sleepCtx sleeps for d or until ctx is cancelled, returning false in the
// latter case so callers can unwind immediately.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
