package cbor

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Diagnostic renders v as CBOR extended diagnostic notation (RFC 8949
// §8): unsigned/negative integers print as decimal, byte strings as
// h'...' hex, text strings as quoted Go strings, arrays as [...], maps as
// {...}, and tagged values as tag(nested). It is read-only tooling for
// test failure messages and debugging, not part of the wire format.
func Diagnostic(v Value) string {
	var b strings.Builder
	writeDiagnostic(&b, v)
	return b.String()
}

func writeDiagnostic(b *strings.Builder, v Value) {
	switch v.kind {
	case KindUnsigned:
		fmt.Fprintf(b, "%d", v.u)

	case KindNegative:
		if v.u > math.MaxInt64 {
			// Outside the signed 64-bit range; render via the defining
			// identity instead of overflowing.
			fmt.Fprintf(b, "-1-%d", v.u)
		} else {
			fmt.Fprintf(b, "%d", -1-int64(v.u))
		}

	case KindByteString:
		b.WriteString("h'")
		b.WriteString(hex.EncodeToString(v.bytes))
		b.WriteString("'")

	case KindTextString:
		b.WriteString(strconv.Quote(v.text))

	case KindArray:
		b.WriteString("[")
		for i, item := range v.items {
			if i > 0 {
				b.WriteString(", ")
			}
			writeDiagnostic(b, item)
		}
		b.WriteString("]")

	case KindMap:
		b.WriteString("{")
		for i, p := range v.pairs {
			if i > 0 {
				b.WriteString(", ")
			}
			writeDiagnostic(b, p.Key)
			b.WriteString(": ")
			writeDiagnostic(b, p.Value)
		}
		b.WriteString("}")

	case KindTagged:
		fmt.Fprintf(b, "%d(", v.u)
		writeDiagnostic(b, *v.inner)
		b.WriteString(")")

	case KindSimple:
		fmt.Fprintf(b, "simple(%d)", v.u)

	case KindBool:
		fmt.Fprintf(b, "%t", v.b)

	case KindNull:
		b.WriteString("null")

	case KindUndefined:
		b.WriteString("undefined")

	case KindHalf:
		fmt.Fprintf(b, "%s_1", formatDiagnosticFloat(float64(float16BitsToFloat32(uint16(v.u)))))

	case KindFloat:
		fmt.Fprintf(b, "%s_2", formatDiagnosticFloat(float64(math.Float32frombits(uint32(v.u)))))

	case KindDouble:
		fmt.Fprintf(b, "%s_3", formatDiagnosticFloat(math.Float64frombits(v.u)))

	default:
		b.WriteString("<unknown>")
	}
}

func formatDiagnosticFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}
