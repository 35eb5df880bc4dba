package transferengine

// ZMODEM wire vocabulary, frame types, and bit masks — kept close to the
// teacher's zmodem/zmodem.go, these are normative wire constants, not a
// matter of style.

// Frame format indicators.
const (
	zpad   = '*'        // frame lead padding
	zdle   = 0x18        // ZDLE escape lead (Ctrl-X)
	zdlee  = zdle ^ 0x40 // escaped ZDLE as transmitted
	zbin   = 'A'         // binary frame, 16-bit CRC
	zhex   = 'B'         // hex-encoded frame
	zbin32 = 'C'         // binary frame, 32-bit CRC
)

// Frame types (spec.md §4.5).
const (
	zrqinit    = iota // Request receive init
	zrinit            // Receive init
	zsinit            // Send init sequence (optional)
	zack              // ACK to above
	zfile             // File name from sender
	zskip             // To sender: skip this file
	znak              // Last packet was garbled
	zabort            // Abort batch transfers
	zfin              // Finish session
	zrpos             // Resume data transfer at this position
	zdata             // Data packet(s) follow
	zeof              // End of file
	zferr             // Fatal read/write error
	zcrc              // Request for file CRC / response
	zchallenge        // Receiver's challenge
	zcompl            // Request is complete
	zcan              // Other end cancelled session (CAN*5)
	zfreecnt          // Request for free bytes on filesystem
	zcommand          // Command from sending program
	zstderr           // Output to standard error, data follows
)

var frameTypeNames = []string{
	"ZRQINIT", "ZRINIT", "ZSINIT", "ZACK", "ZFILE", "ZSKIP", "ZNAK",
	"ZABORT", "ZFIN", "ZRPOS", "ZDATA", "ZEOF", "ZFERR", "ZCRC",
	"ZCHALLENGE", "ZCOMPL", "ZCAN", "ZFREECNT", "ZCOMMAND", "ZSTDERR",
}

// frameTypeName returns the human-readable name for a ZMODEM frame type,
// for log lines only.
func frameTypeName(frameType int) string {
	if frameType < 0 || frameType >= len(frameTypeNames) {
		return "UNKNOWN"
	}
	return frameTypeNames[frameType]
}

// Data-subpacket terminators. Byte assignments follow spec.md §4.5's wire
// vocabulary exactly (ZCRCE='i', ZCRCG='j', ZCRCQ='k', ZCRCW='h').
const (
	zcrce = 'i' // end: no more data follows
	zcrcg = 'j' // more data follows, no response expected
	zcrcq = 'k' // more data follows, ZACK expected (respond)
	zcrcw = 'h' // wait: sender pauses, ZACK expected, end of frame
)

// ZRINIT capability flags (byte ZF0).
const (
	canfdx  = 0x01 // can send and receive full duplex
	canovio = 0x02 // can receive data during disk I/O
	canbrk  = 0x04 // can send a break signal
	canfc32 = 0x20 // receiver can use 32-bit frame check
	escctl  = 0x40 // receiver expects control chars escaped
	esc8    = 0x80 // receiver expects 8th bit escaped
)

// maxZBlockSize is MAX_BLOCK_SIZE from spec.md §3.
const maxZBlockSize = 8192

// cancelSequence is the 18-byte ZMODEM cancellation wire sequence from
// spec.md §4.5: eight ZDLE bytes followed by ten 0x08 bytes.
func cancelSequence() []byte {
	buf := make([]byte, 18)
	for i := 0; i < 8; i++ {
		buf[i] = zdle
	}
	for i := 8; i < 18; i++ {
		buf[i] = 0x08
	}
	return buf
}

// xmodemCancelSequence is three consecutive CAN bytes (spec.md §3, §4.3).
func xmodemCancelSequence() []byte {
	return []byte{CAN, CAN, CAN}
}
