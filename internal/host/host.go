// Package host defines the contract the external mining host implements
// to drive a bitforce board: handing out work and receiving nonces. It is
// a small interface in front of a concrete transport, except here the
// "remote" side is the physical device, not a gRPC peer.
package host

import "github.com/jesterKing/bfgminer/internal/bitforce/work"

// WorkSource is implemented by the mining host. NextWork returns the next
// job to submit, or ok=false if none is currently available (the
// minerloop should back off). SubmitNonce is called once per discovered
// nonce for a given processor/work pair.
type WorkSource interface {
	NextWork(procIndex int) (w *work.Work, ok bool)
	SubmitNonce(procIndex int, w *work.Work, nonce uint32)
}

// sourceSink adapts a WorkSource's SubmitNonce into a work.Sink, so
// drivers only need to depend on the narrower Sink interface.
type sourceSink struct{ src WorkSource }

func (s sourceSink) SubmitNonce(procIndex int, w *work.Work, nonce uint32) {
	s.src.SubmitNonce(procIndex, w, nonce)
}

// Sink adapts src to work.Sink.
func Sink(src WorkSource) work.Sink { return sourceSink{src: src} }
