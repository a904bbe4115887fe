package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jesterKing/bfgminer/internal/bitforce/transport"
)

func TestCmdTextSendsAndReadsLine(t *testing.T) {
	ft := transport.NewFake()
	require.NoError(t, ft.Open())
	ft.PushLine(">>>ID: BFL SHA256>>>")

	f := &Framer{T: ft}
	line, err := f.CmdText([3]byte{'Z', 'G', 'X'})
	require.NoError(t, err)
	require.Equal(t, ">>>ID: BFL SHA256>>>", line)
	require.Equal(t, [][]byte{[]byte("ZGX")}, ft.Written())
}

func TestXLinkWrapsNonZeroID(t *testing.T) {
	ft := transport.NewFake()
	require.NoError(t, ft.Open())
	ft.PushLine("OK")

	f := &Framer{T: ft, ID: 2}
	_, err := f.CmdText([3]byte{'Z', 'G', 'X'})
	require.NoError(t, err)
	require.Equal(t, []byte{'@', 3, 2, 'Z', 'G', 'X'}, ft.Written()[0])
}

func TestXLinkInvertibleAgainstDirectSend(t *testing.T) {
	direct := transport.NewFake()
	require.NoError(t, direct.Open())
	direct.PushLine("OK")
	wrapped := transport.NewFake()
	require.NoError(t, wrapped.Open())
	wrapped.PushLine("OK")

	_, err := (&Framer{T: direct}).CmdText([3]byte{'Z', 'G', 'X'})
	require.NoError(t, err)
	_, err = (&Framer{T: wrapped, ID: 3}).CmdText([3]byte{'Z', 'G', 'X'})
	require.NoError(t, err)

	// Strip the wrapped peer's XLINK envelope and confirm it matches the
	// direct send exactly.
	stripped := wrapped.Written()[0][3:]
	require.Equal(t, direct.Written()[0], stripped)
}

func TestCmdWithPayloadSendsPayloadOnlyAfterOK(t *testing.T) {
	ft := transport.NewFake()
	require.NoError(t, ft.Open())
	ft.PushLine("OK")
	ft.PushLine("NONCE-FOUND:DEADBEEF")

	f := &Framer{T: ft}
	line, err := f.CmdWithPayload([3]byte{'Z', 'D', 'X'}, []byte{0x01, 0x02})
	require.NoError(t, err)
	require.Equal(t, "NONCE-FOUND:DEADBEEF", line)
	require.Len(t, ft.Written(), 2)
	require.Equal(t, []byte{0x01, 0x02}, ft.Written()[1])
}

func TestCmdWithPayloadSkipsPayloadWithoutOK(t *testing.T) {
	ft := transport.NewFake()
	require.NoError(t, ft.Open())
	ft.PushLine("ERR:QUEUE")

	f := &Framer{T: ft}
	line, err := f.CmdWithPayload([3]byte{'Z', 'W', 'X'}, []byte{0xAA})
	require.NoError(t, err)
	require.Equal(t, "ERR:QUEUE", line)
	require.Len(t, ft.Written(), 1)
}

func TestReadLinesUntilStopsAtTerminator(t *testing.T) {
	ft := transport.NewFake()
	require.NoError(t, ft.Open())
	ft.PushLine("DEVICES IN CHAIN: 1")
	ft.PushLine("OK")
	ft.PushLine("this should not be consumed")

	f := &Framer{T: ft}
	lines, err := f.ReadLinesUntilAfterCmd([3]byte{'Z', 'C', 'X'}, 10, "OK")
	require.NoError(t, err)
	require.Equal(t, []string{"DEVICES IN CHAIN: 1", "OK"}, lines)
	require.Equal(t, 1, ft.PendingReplies())
}
