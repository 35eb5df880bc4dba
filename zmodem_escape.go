package transferengine

// ZMODEM escaping, expressed as push-driven encode/decode functions
// instead of the teacher's blocking zsendlineEscaper/zdlreadUnescaper
// (which write/read directly against an io.Writer/io.Reader). The wire
// rule is exactly spec.md §4.5's Escaping/Unescaping rules.

// needsEscape reports whether b must be ZDLE-escaped on the wire, per
// spec.md: escaped iff ZDLE, or < 0x20, or 0x7F, or 0xFF.
func needsEscape(b byte) bool {
	return b == zdle || b < 0x20 || b == 0x7F || b == 0xFF
}

// escapeByte appends the wire encoding of b to dst and returns the result.
// ZDLE itself is sent as ZDLE ZDLEE; since ZDLEE is defined as ZDLE^0x40,
// this is the same byte pair the general rule would produce.
func escapeByte(dst []byte, b byte) []byte {
	if b == zdle {
		return append(dst, zdle, zdlee)
	}
	if needsEscape(b) {
		return append(dst, zdle, b^0x40)
	}
	return append(dst, b)
}

// escapeBytes escapes every byte of data, appending to dst.
func escapeBytes(dst []byte, data []byte) []byte {
	for _, b := range data {
		dst = escapeByte(dst, b)
	}
	return dst
}

// terminatorByte reports whether b is one of the four ZMODEM subpacket
// terminator markers.
func terminatorByte(b byte) bool {
	switch b {
	case zcrce, zcrcg, zcrcq, zcrcw:
		return true
	default:
		return false
	}
}

// zdleDecoder is a push-driven ZDLE unescape state machine: Feed is called
// once per raw wire byte and reports what, if anything, was decoded. This
// replaces the teacher's blocking zdlreadUnescaper.ReadByte/readByte2/
// readEscapeSequence with an explicit residual-state struct so a Session
// can feed it from process_data without ever blocking on I/O.
type zdleDecoder struct {
	pendingZDLE bool
}

// decodeKind tags the result of zdleDecoder.Feed.
type decodeKind int

const (
	decodeNone       decodeKind = iota // escape lead consumed, need next byte
	decodeData                         // ordinary data byte decoded
	decodeTerminator                   // ZDLE + subpacket terminator decoded
)

// Feed processes one raw wire byte. It returns the decoded value (only
// meaningful when kind != decodeNone) and the decode kind.
//
// Per spec.md's Open Question on whether 'h'..'k' are terminators or plain
// escaped bytes: this implementation recognizes them as terminators
// whenever they immediately follow a ZDLE, since that is required for the
// receiver to ever detect the end of a data subpacket; see DESIGN.md.
func (d *zdleDecoder) Feed(b byte) (value byte, kind decodeKind) {
	if !d.pendingZDLE {
		if b == zdle {
			d.pendingZDLE = true
			return 0, decodeNone
		}
		return b, decodeData
	}

	d.pendingZDLE = false
	if terminatorByte(b) {
		return b, decodeTerminator
	}
	if b == zdlee {
		return zdle, decodeData
	}
	return b ^ 0x40, decodeData
}

// reset clears any partially-consumed ZDLE escape lead, used when a
// machine abandons a frame mid-parse (e.g. on cancellation).
func (d *zdleDecoder) reset() {
	d.pendingZDLE = false
}
