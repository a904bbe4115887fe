package work

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyDistinguishesMidstateAndTail(t *testing.T) {
	a := &Work{}
	a.Midstate[0] = 1
	b := &Work{}
	b.Midstate[0] = 2

	require.NotEqual(t, a.Key(), b.Key())
}

func TestKeyEqualForIdenticalFields(t *testing.T) {
	a := &Work{}
	a.Midstate[5] = 9
	a.Tail[2] = 3
	b := &Work{}
	b.Midstate[5] = 9
	b.Tail[2] = 3

	require.Equal(t, a.Key(), b.Key())
}

func TestHexEncodersRoundTripLength(t *testing.T) {
	w := &Work{}
	require.Len(t, w.MidstateHex(), 64)
	require.Len(t, w.TailHex(), 24)
}

func TestCursorInitialisesToNonceBase(t *testing.T) {
	w := &Work{NonceBase: 0x1000}
	require.Equal(t, uint32(0x1000), w.Cursor())
}

func TestAdvanceMovesCursorPastIssuedWindow(t *testing.T) {
	w := &Work{NonceBase: 0x100}
	w.Advance(0x10)
	require.Equal(t, uint32(0x111), w.Cursor())

	w.Advance(0x10)
	require.Equal(t, uint32(0x122), w.Cursor())
}

func TestSinkFuncAdaptsPlainFunction(t *testing.T) {
	var got struct {
		proc  int
		nonce uint32
	}
	sink := SinkFunc(func(procIndex int, w *Work, nonce uint32) {
		got.proc = procIndex
		got.nonce = nonce
	})

	var s Sink = sink
	s.SubmitNonce(3, &Work{}, 0xABCD)
	require.Equal(t, 3, got.proc)
	require.Equal(t, uint32(0xABCD), got.nonce)
}
