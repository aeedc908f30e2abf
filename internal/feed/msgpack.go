package feed

import (
	"math"

	"github.com/signalcore/signalcore/internal/model"
)

// AppendSignalMsgPack encodes an accepted Blueprint as a compact MsgPack
// array for the optional outbound signal_sink broadcaster (§4.10 feed
// boundary, §6 signal_sink). Adapted from the teacher's
// Snapshot.AppendMsgPack / Trade.AppendMsgPack hand-rolled encoders — same
// fixed-array wire shape, zero-allocation append-style API, new field
// layout for the Blueprint instead of candles/pressure/OI. Only the
// Blueprint fields below are encoded: decisionID is not written and no
// MetricSnapshot is carried.
//
// Format: FixArray(8)
//
//	[0] symbol      str
//	[1] direction   str ("Buy" | "Sell")
//	[2] entry       float64
//	[3] stop        float64
//	[4] target      float64
//	[5] score       float64
//	[6] size        int64
//	[7] ts_ms       int64
func AppendSignalMsgPack(b []byte, bp model.Blueprint, decisionID string) []byte {
	b = append(b, 0x98) // FixArray(8)
	b = appendStr(b, string(bp.Symbol))
	b = appendStr(b, bp.Direction.String())
	entry, _ := bp.Entry.Float64()
	stop, _ := bp.Stop.Float64()
	target, _ := bp.Target.Float64()
	b = appendFloat64(b, entry)
	b = appendFloat64(b, stop)
	b = appendFloat64(b, target)
	b = appendFloat64(b, bp.Score)
	b = appendInt64(b, bp.PositionSize)
	b = appendInt64(b, bp.TsMS)
	return b
}

func appendFloat64(b []byte, v float64) []byte {
	b = append(b, 0xcb)
	bits := math.Float64bits(v)
	return append(b, byte(bits>>56), byte(bits>>48), byte(bits>>40), byte(bits>>32),
		byte(bits>>24), byte(bits>>16), byte(bits>>8), byte(bits))
}

func appendInt64(b []byte, v int64) []byte {
	if v >= 0 && v <= 127 {
		return append(b, byte(v))
	}
	if v < 0 && v >= -32 {
		return append(b, byte(v))
	}
	b = append(b, 0xd3)
	return append(b, byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32),
		byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func appendStr(b []byte, s string) []byte {
	n := len(s)
	switch {
	case n <= 31:
		b = append(b, 0xa0|byte(n))
	case n <= 255:
		b = append(b, 0xd9, byte(n))
	default:
		b = append(b, 0xda, byte(n>>8), byte(n))
	}
	return append(b, s...)
}
