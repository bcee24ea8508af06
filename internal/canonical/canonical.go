// Package canonical turns fusion inputs into the deterministic byte string
// that conformance seals are computed over.
//
// The format is part of the wire contract shared by every implementation:
//
//	[{"t":<n>,"i":<n>,"f":<n>,"w":<n>},...]::<operator-id>
//
// Records appear in the stable ascending byte order of each judgment's first
// provenance source id. Keys appear in exactly the order t, i, f, w. There
// is no whitespace. Numbers use FormatNumber.
package canonical

import (
	"bytes"
	"sort"
	"strconv"

	"github.com/ppiankov/trustfuse/internal/model"
)

// Separator joins the serialized pairs and the operator id
const Separator = "::"

// Digits is the number of significant digits of every canonical number. 17
// digits tell every pair of distinct binary64 values apart.
const Digits = 17

const zero = "0.0000000000000000e+00"

type pair struct {
	key    string
	t, i, f float64
	weight float64
}

// Canonicalize builds the canonical byte string for a fusion call.
//
// judgments and weights must be non-empty and of equal length; fusion and
// verification check this before calling.
func Canonicalize(judgments []*model.Judgment, weights []float64, op model.Operator) []byte {
	pairs := make([]pair, len(judgments))
	for idx, j := range judgments {
		pairs[idx] = pair{
			key:    j.FirstSourceID(),
			t:      j.T(),
			i:      j.I(),
			f:      j.F(),
			weight: weights[idx],
		}
	}

	// Go string comparison is byte-wise, which is the documented order
	sort.SliceStable(pairs, func(a, b int) bool {
		return pairs[a].key < pairs[b].key
	})

	var buf bytes.Buffer
	buf.Grow(len(pairs)*80 + len(Separator) + len(op))
	buf.WriteByte('[')
	for idx, p := range pairs {
		if idx > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(`{"t":`)
		buf.WriteString(FormatNumber(p.t))
		buf.WriteString(`,"i":`)
		buf.WriteString(FormatNumber(p.i))
		buf.WriteString(`,"f":`)
		buf.WriteString(FormatNumber(p.f))
		buf.WriteString(`,"w":`)
		buf.WriteString(FormatNumber(p.weight))
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	buf.WriteString(Separator)
	buf.WriteString(string(op))

	return buf.Bytes()
}

// FormatNumber renders v in exponent form with Digits significant digits:
//
//	[-]d.dddddddddddddddde(+|-)XX
//
// The exact binary64 value is rounded half-to-even to 16 fractional mantissa
// digits. The exponent has at least two digits. Negative zero prints as zero.
func FormatNumber(v float64) string {
	if v == 0 {
		return zero
	}
	return strconv.FormatFloat(v, 'e', Digits-1, 64)
}
