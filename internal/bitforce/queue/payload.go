package queue

import "github.com/jesterKing/bfgminer/internal/bitforce/work"

const jobWireLen = 45 // midstate(32) + tail(12) + terminator(1)

func encodeJob(w *work.Work) []byte {
	buf := make([]byte, 0, jobWireLen)
	buf = append(buf, w.Midstate[:]...)
	buf = append(buf, w.Tail[:]...)
	buf = append(buf, 0xAA)
	return buf
}

// buildPayload constructs the multi-job wire payload for style. The body
// (0xC1, count, jobs, 0xFE) is assembled first and the header is then
// prepended, so the length prefix is computed from the finished body. A28
// carries a 'W','X' marker and a
// 16-bit little-endian length; A65 carries a single length byte and no
// marker.
func buildPayload(isA28 bool, works []*work.Work) []byte {
	body := make([]byte, 0, 2+len(works)*jobWireLen+1)
	body = append(body, 0xC1, byte(len(works)))
	for _, w := range works {
		body = append(body, encodeJob(w)...)
	}
	body = append(body, 0xFE)

	if isA28 {
		out := make([]byte, 0, 4+len(body))
		out = append(out, 'W', 'X', byte(len(body)&0xff), byte((len(body)>>8)&0xff))
		out = append(out, body...)
		return out
	}

	out := make([]byte, 0, 1+len(body))
	out = append(out, byte(len(body)&0xff))
	out = append(out, body...)
	return out
}
