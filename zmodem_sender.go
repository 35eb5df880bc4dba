package transferengine

import "strconv"

// zmodem_sender.go holds the zmodemMachine type (shared by both directions)
// plus the send-side state chart from spec.md §4.5. The byte-by-byte frame
// scanner lives here too since both directions need it; zmodem_receiver.go
// holds only the receive-side frame handling. This replaces the teacher's
// blocking Sender/Receiver (zmodem/receiver.go, zmodem/session.go SendFile)
// with a push-driven scanner built on zmodem_frame.go/zmodem_escape.go.

// zTopState is the protocol-level state (spec.md §4.5's named states),
// independent of the byte-scanner state below.
type zTopState int

const (
	zSendWaitZRInit zTopState = iota
	zSendWaitZRPos
	zSendWaitZFin

	zRecvWaitZFile
	zRecvWaitZData

	zDone
)

// scanState is the byte-scanner's own state: hunting for a frame lead,
// accumulating a hex frame's digits, accumulating a binary frame's
// ZDLE-escaped body, or accumulating a data subpacket.
type scanState int

const (
	scanLead scanState = iota
	scanHexDigits
	scanBinary
	scanSubpacket
)

// subPurpose tells the subpacket completion handler how to interpret the
// bytes that were just accumulated.
type subPurpose int

const (
	subPurposeFileMeta subPurpose = iota
	subPurposeFileData
)

type zmodemMachine struct {
	s         *Session
	direction Direction
	top       zTopState
	useCRC32  bool

	// sender
	data       []byte
	fileOffset uint32

	// receiver
	filePos uint32

	// byte scanner (shared)
	scan        scanState
	zpads       int
	hexBuf      []byte
	binDecoder  zdleDecoder
	binBuf      []byte
	binNeed     int
	subDecoder  zdleDecoder
	subBuf      []byte
	subTrailer  []byte
	subPurpose  subPurpose
	subInTrailer bool
	subTerminator byte
}

func newZmodemMachine(s *Session, direction Direction) *zmodemMachine {
	return &zmodemMachine{s: s, direction: direction, useCRC32: s.config.use32BitCRC()}
}

func (m *zmodemMachine) setData(data []byte) { m.data = data }

func (m *zmodemMachine) active() bool { return m.top != zDone }

func (m *zmodemMachine) start() {
	if m.direction == DirectionSend {
		m.top = zSendWaitZRInit
		m.s.emit(sendDataEvent(encodeHexFrame(zrqinit, encodeFlags(0))))
		return
	}
	m.top = zRecvWaitZFile
	m.s.emit(sendDataEvent(encodeHexFrame(zrinit, encodeFlags(m.capsByte()))))
}

// capsByte builds the receiver's ZRINIT ZF0 capability byte. CANFC32 is
// only set when this receiver actually intends to decode 32-bit subpacket
// trailers, so a peer reading the bit can rely on it — the receiver alone
// decides the trailer width since nothing else on the wire signals it.
func (m *zmodemMachine) capsByte() byte {
	caps := byte(canfdx | canovio)
	if m.useCRC32 {
		caps |= canfc32
	}
	return caps
}

func (m *zmodemMachine) cancel() {
	if m.top == zDone {
		return
	}
	m.s.emit(sendDataEvent(cancelSequence()))
	m.s.emit(cancelledEvent())
	m.top = zDone
	m.s.markTerminal()
}

func (m *zmodemMachine) fail(message string) {
	m.s.emit(sendDataEvent(cancelSequence()))
	m.s.emit(failedEvent(message))
	m.top = zDone
	m.s.markTerminal()
}

// processData is the byte-by-byte frame scanner. It feeds each raw wire
// byte through lead detection, hex/binary frame accumulation, or data
// subpacket accumulation, dispatching complete frames/subpackets as they
// are assembled.
func (m *zmodemMachine) processData(data []byte) {
	for _, b := range data {
		if m.top == zDone {
			return
		}
		switch m.scan {
		case scanLead:
			m.stepLead(b)
		case scanHexDigits:
			m.stepHexDigits(b)
		case scanBinary:
			m.stepBinary(b)
		case scanSubpacket:
			m.stepSubpacket(b)
		}
	}
}

func (m *zmodemMachine) stepLead(b byte) {
	switch {
	case b == zpad:
		m.zpads++
	case b == zdle && m.zpads >= 1:
		// awaiting the encoding byte; peek via a one-shot flag encoded in
		// zpads staying >=1 and checking the next byte directly below.
		m.zpads = -1 // sentinel: "just saw the lead ZDLE"
	case m.zpads == -1 && b == zhex:
		m.hexBuf = m.hexBuf[:0]
		m.scan = scanHexDigits
		m.zpads = 0
	case m.zpads == -1 && b == zbin:
		m.binDecoder.reset()
		m.binBuf = m.binBuf[:0]
		m.binNeed = 7
		m.scan = scanBinary
		m.zpads = 0
	case m.zpads == -1 && b == zbin32:
		m.binDecoder.reset()
		m.binBuf = m.binBuf[:0]
		m.binNeed = 9
		m.scan = scanBinary
		m.zpads = 0
	case b == 0x0D || b == 0x0A || b == xonByte || b == 0x13:
		// trailing CR/LF/XON/XOFF noise between frames; ignore.
	default:
		m.zpads = 0
	}
}

func (m *zmodemMachine) stepHexDigits(b byte) {
	m.hexBuf = append(m.hexBuf, b)
	if len(m.hexBuf) < 14 {
		return
	}
	frameType, data, err := decodeHexFrame(m.hexBuf)
	m.scan = scanLead
	m.zpads = 0
	if err != nil {
		return
	}
	m.dispatchFrame(frameType, data)
}

func (m *zmodemMachine) stepBinary(b byte) {
	value, kind := m.binDecoder.Feed(b)
	if kind == decodeNone {
		return
	}
	m.binBuf = append(m.binBuf, value)
	if len(m.binBuf) < m.binNeed {
		return
	}
	var frameType int
	var data [4]byte
	var err error
	if m.binNeed == 7 {
		frameType, data, err = decodeBinaryFrame16(m.binBuf)
	} else {
		frameType, data, err = decodeBinaryFrame32(m.binBuf)
	}
	m.scan = scanLead
	m.zpads = 0
	if err != nil {
		return
	}
	m.dispatchFrame(frameType, data)
}

// dispatchFrame routes a fully-decoded frame to the send- or receive-side
// handler, per direction.
func (m *zmodemMachine) dispatchFrame(frameType int, data [4]byte) {
	if m.direction == DirectionSend {
		m.handleSendFrame(frameType, data)
	} else {
		m.handleRecvFrame(frameType, data)
	}
}

// enterSubpacket switches the scanner straight into data-subpacket mode,
// used after a ZFILE/ZDATA frame whose subpacket follows immediately on
// the wire with no further frame lead-in.
func (m *zmodemMachine) enterSubpacket(purpose subPurpose) {
	m.subDecoder.reset()
	m.subBuf = m.subBuf[:0]
	m.subTrailer = m.subTrailer[:0]
	m.subInTrailer = false
	m.subPurpose = purpose
	m.scan = scanSubpacket
}

func (m *zmodemMachine) stepSubpacket(b byte) {
	// A hex frame's CR LF XON trailer (encodeHexFrame) lands here raw
	// whenever a subpacket follows a ZFILE/ZDATA with no further lead-in;
	// a literal, unescaped 0x0D/0x0A/0x11/0x13 can never be real subpacket
	// content (those values always travel ZDLE-escaped), so it is always
	// discarded noise, the same tolerance stepLead already gives it.
	if !m.subDecoder.pendingZDLE && (b == 0x0D || b == 0x0A || b == xonByte || b == 0x13) {
		return
	}
	value, kind := m.subDecoder.Feed(b)
	if kind == decodeNone {
		return
	}
	if !m.subInTrailer {
		if kind == decodeTerminator {
			m.subTerminator = value
			m.subInTrailer = true
			return
		}
		m.subBuf = append(m.subBuf, value)
		return
	}
	m.subTrailer = append(m.subTrailer, value)
	need := 2
	if m.useCRC32 {
		need = 4
	}
	if len(m.subTrailer) < need {
		return
	}
	var ok bool
	if m.useCRC32 {
		ok = verifySubpacketCRC32(m.subBuf, m.subTerminator, m.subTrailer)
	} else {
		ok = verifySubpacketCRC16(m.subBuf, m.subTerminator, m.subTrailer)
	}
	if !ok {
		m.onSubpacketError()
		return
	}
	m.onSubpacketComplete(m.subTerminator)
}

// --- sender ---

func (m *zmodemMachine) handleSendFrame(frameType int, data [4]byte) {
	switch m.top {
	case zSendWaitZRInit:
		if frameType == zcan {
			m.cancel()
			return
		}
		if frameType != zrinit {
			return
		}
		// The receiver alone decides the subpacket trailer width and
		// advertises it truthfully in ZF0; the sender just follows.
		m.useCRC32 = data[0]&canfc32 != 0
		m.s.emit(sendDataEvent(encodeHexFrame(zfile, encodeFlags(0))))
		meta := buildZmodemFileMeta(m.s.fileName, m.s.fileSize)
		m.s.emit(sendDataEvent(m.encodeSubpacket(meta, zcrcw)))
		m.top = zSendWaitZRPos

	case zSendWaitZRPos:
		switch frameType {
		case zrpos:
			m.fileOffset = decodeOffset(data)
			m.s.emit(sendDataEvent(encodeHexFrame(zdata, encodeOffset(m.fileOffset))))
			m.streamChunks()
		case zskip:
			m.s.emit(completedEvent())
			m.top = zDone
			m.s.markTerminal()
		case zcan:
			m.cancel()
		}

	case zSendWaitZFin:
		switch frameType {
		case zfin:
			m.s.emit(completedEvent())
			m.top = zDone
			m.s.markTerminal()
		case zrpos:
			// The receiver flagged a corrupted subpacket after the whole
			// stream had already gone out; rewind and resend from there.
			m.fileOffset = decodeOffset(data)
			m.s.emit(sendDataEvent(encodeHexFrame(zdata, encodeOffset(m.fileOffset))))
			m.streamChunks()
		case zcan:
			m.cancel()
		}
	}
}

// streamChunks emits data subpackets back-to-back from the current
// file_offset through end of file — ZCRCG on every chunk but the last,
// ZCRCE on the last — without waiting for a per-chunk ZACK, since neither
// terminator solicits one (spec.md §4.5's streaming discipline: only
// ZCRCW/ZCRCQ ask the receiver to respond). Once the data is exhausted it
// emits ZEOF and ZFIN immediately and waits for the receiver's ZFIN.
func (m *zmodemMachine) streamChunks() {
	for m.fileOffset < uint32(len(m.data)) {
		m.sendNextChunk()
	}
	m.s.emit(sendDataEvent(encodeHexFrame(zeof, encodeOffset(m.fileOffset))))
	m.s.emit(sendDataEvent(encodeHexFrame(zfin, encodeFlags(0))))
	m.top = zSendWaitZFin
}

// sendNextChunk emits the next data subpacket of up to zBlockSize() bytes
// (1024 by default), terminated
// ZCRCE when it is the final chunk of the file, ZCRCG otherwise.
func (m *zmodemMachine) sendNextChunk() {
	size := m.s.config.zBlockSize()
	end := int(m.fileOffset) + size
	if end > len(m.data) {
		end = len(m.data)
	}
	chunk := m.data[m.fileOffset:end]
	terminator := byte(zcrcg)
	if end >= len(m.data) {
		terminator = zcrce
	}
	m.s.emit(sendDataEvent(m.encodeSubpacket(chunk, terminator)))
	m.fileOffset = uint32(end)
}

func (m *zmodemMachine) encodeSubpacket(payload []byte, terminator byte) []byte {
	if m.useCRC32 {
		return encodeSubpacket32(payload, terminator)
	}
	return encodeSubpacket16(payload, terminator)
}

// buildZmodemFileMeta builds the ZFILE data subpacket payload: filename,
// NUL, decimal file size, NUL (spec.md §4.5 step 2).
func buildZmodemFileMeta(fileName string, fileSize uint64) []byte {
	payload := make([]byte, 0, len(fileName)+24)
	payload = append(payload, fileName...)
	payload = append(payload, 0)
	payload = append(payload, strconv.FormatUint(fileSize, 10)...)
	payload = append(payload, 0)
	return payload
}
