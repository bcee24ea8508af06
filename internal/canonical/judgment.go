package canonical

import (
	"bytes"

	"github.com/ppiankov/trustfuse/internal/model"
)

const hexDigits = "0123456789abcdef"

// JudgmentBytes is the canonical form of a single judgment, used for judgment ids:
//
//	{"t":<n>,"i":<n>,"f":<n>,"provenance_chain":[{"source_id":<s>,"timestamp":<s>,"description":<s>|null},...]}
//
// Conformance seals are excluded so that an id does not change when a seal is
// attached or stripped. Chain order is preserved.
func JudgmentBytes(j *model.Judgment) []byte {
	return judgmentBytes(j, false)
}

// RecordBytes is JudgmentBytes plus a trailing "conformance_seal":<s> member
// on every entry that carries a seal. For a judgment without seals it equals
// JudgmentBytes.
func RecordBytes(j *model.Judgment) []byte {
	return judgmentBytes(j, true)
}

func judgmentBytes(j *model.Judgment, withSeals bool) []byte {
	var buf bytes.Buffer
	buf.WriteString(`{"t":`)
	buf.WriteString(FormatNumber(j.T()))
	buf.WriteString(`,"i":`)
	buf.WriteString(FormatNumber(j.I()))
	buf.WriteString(`,"f":`)
	buf.WriteString(FormatNumber(j.F()))
	buf.WriteString(`,"provenance_chain":[`)
	for idx, e := range j.Provenance() {
		if idx > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(`{"source_id":`)
		writeString(&buf, e.SourceID)
		buf.WriteString(`,"timestamp":`)
		writeString(&buf, e.Timestamp)
		buf.WriteString(`,"description":`)
		if e.Description == nil {
			buf.WriteString("null")
		} else {
			writeString(&buf, *e.Description)
		}
		if withSeals && e.HasSeal() {
			buf.WriteString(`,"conformance_seal":`)
			writeString(&buf, *e.ConformanceSeal)
		}
		buf.WriteByte('}')
	}
	buf.WriteString("]}")
	return buf.Bytes()
}

// writeString quotes s with the minimal pinned escaping: '"' and '\' are
// backslash-escaped, bytes below 0x20 become \u00XX, and every other byte is
// copied verbatim (UTF-8 is never re-encoded).
func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for idx := 0; idx < len(s); idx++ {
		c := s[idx]
		switch {
		case c == '"' || c == '\\':
			buf.WriteByte('\\')
			buf.WriteByte(c)
		case c < 0x20:
			buf.WriteString(`\u00`)
			buf.WriteByte(hexDigits[c>>4])
			buf.WriteByte(hexDigits[c&0xf])
		default:
			buf.WriteByte(c)
		}
	}
	buf.WriteByte('"')
}
