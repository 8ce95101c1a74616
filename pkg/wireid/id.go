// Package wireid implements the wrapping 16-bit sequence-number arithmetic
// shared by the MessageId and PacketId spaces: cyclic distance, cyclic
// ordering, and wrap-safe addition. Fragment indices are plain uint8
// values (message.FragmentID) and do not use this type.
package wireid

import "fmt"

// ID is a sequence number that wraps around 65536. Comparisons and
// arithmetic must go through Diff/Less/Add — never compare the raw uint16
// fields directly, since that breaks as soon as a session wraps.
type ID uint16

// String implements fmt.Stringer for readable test failures and logs.
func (i ID) String() string {
	return fmt.Sprintf("%d", uint16(i))
}

// Add returns i+delta, wrapping modulo 2^16.
func (i ID) Add(delta uint16) ID {
	return ID(uint16(i) + delta)
}

// Next returns i+1, wrapping modulo 2^16.
func (i ID) Next() ID {
	return i.Add(1)
}

// Diff returns the signed cyclic distance b-a: positive means b follows a,
// negative means b precedes a. The pair exactly 32768 apart is the
// diametral tie, which has no well-defined sign; Diff resolves it to
// -32768 (a treated as following b, in either argument order) rather than
// leaving it ambiguous.
func Diff(a, b ID) int16 {
	const adjust int32 = int32(^uint16(0)) + 1 // 65536

	ai, bi := int32(a), int32(b)
	result := bi - ai
	if result >= int32(int16(-32768)) && result <= int32(int16(32767)) {
		return int16(result)
	}
	if bi > ai {
		result = bi - (ai + adjust)
	} else {
		result = (bi + adjust) - ai
	}
	return int16(result)
}

// Less reports whether a precedes b in cyclic order.
func Less(a, b ID) bool {
	return Diff(a, b) > 0
}

// Greater reports whether a follows b in cyclic order.
func Greater(a, b ID) bool {
	return Diff(a, b) < 0
}

// Compare returns -1, 0, or 1 per cyclic ordering (a<b, a==b, a>b). It never
// returns 0 unless a==b exactly; the diametral pair is broken by Diff so
// that Compare returns 1 in both argument orders, never "equal".
func Compare(a, b ID) int {
	d := Diff(a, b)
	switch {
	case d == 0:
		return 0
	case d > 0:
		return -1
	default:
		return 1
	}
}
