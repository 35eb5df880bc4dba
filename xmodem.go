package transferengine

// xmodem.go implements the XMODEM sender and receiver state machines from
// spec.md §4.3 (checksum / CRC-16 / 1K variants share this one machine,
// selected by blockMode). There is no XMODEM code in the teacher repo to
// adapt directly (it only ships ZMODEM); this machine follows the
// teacher's naming register (control-byte constants, small state-driven
// dispatch, terminal-state idempotence) while the block wire format comes
// straight from spec.md and block_codec.go.

type xmodemState int

const (
	xSendWaitInit xmodemState = iota
	xSendWaitAck
	xSendWaitEOTAck
	xRecvWaitHeader
	xRecvAccum
	xDone
)

type xmodemMachine struct {
	s         *Session
	direction Direction
	variant   blockMode // requested variant: modeChecksum/modeCRC negotiate; modeCRC1K forces 1K-CRC
	state     xmodemState
	retry     int

	// sender
	mode       blockMode
	data       []byte
	sendOffset int
	blockNum   byte

	// receiver
	expectBlockNum byte
	blockBuf       []byte
	payloadSize    int
	headerByte     byte
}

func newXmodemMachine(s *Session, direction Direction, variant blockMode) *xmodemMachine {
	return &xmodemMachine{s: s, direction: direction, variant: variant}
}

func (m *xmodemMachine) setData(data []byte) { m.data = data }

func (m *xmodemMachine) active() bool { return m.state != xDone }

func (m *xmodemMachine) start() {
	if m.direction == DirectionSend {
		m.state = xSendWaitInit
		return
	}
	m.expectBlockNum = 1
	m.blockBuf = make([]byte, 0, 3+1024+2)
	m.state = xRecvWaitHeader
	m.s.emit(sendDataEvent([]byte{CNak}))
}

func (m *xmodemMachine) processData(data []byte) {
	for _, b := range data {
		if m.state == xDone {
			return
		}
		if m.direction == DirectionSend {
			m.stepSend(b)
		} else {
			m.stepRecv(b)
		}
	}
}

func (m *xmodemMachine) cancel() {
	if m.state == xDone {
		return
	}
	m.s.emit(sendDataEvent(xmodemCancelSequence()))
	m.s.emit(cancelledEvent())
	m.state = xDone
	m.s.markTerminal()
}

func (m *xmodemMachine) fail(message string) {
	m.s.emit(sendDataEvent(xmodemCancelSequence()))
	m.s.emit(failedEvent(message))
	m.state = xDone
	m.s.markTerminal()
}

// --- sender ---

func (m *xmodemMachine) stepSend(b byte) {
	switch m.state {
	case xSendWaitInit:
		switch {
		case b == CAN:
			m.cancel()
		case b == NAK && m.variant != modeCRC1K:
			m.mode = modeChecksum
			m.blockNum = 1
			m.sendOffset = 0
			m.sendBlock()
			m.state = xSendWaitAck
		case b == CNak:
			if m.variant == modeCRC1K {
				m.mode = modeCRC1K
			} else {
				m.mode = modeCRC
			}
			m.blockNum = 1
			m.sendOffset = 0
			m.sendBlock()
			m.state = xSendWaitAck
		}
	case xSendWaitAck:
		switch b {
		case ACK:
			m.retry = 0
			if m.sendOffset >= len(m.data) {
				m.s.emit(sendDataEvent([]byte{EOT}))
				m.state = xSendWaitEOTAck
				return
			}
			m.blockNum++
			m.sendBlock()
		case NAK:
			m.retry++
			if m.retry > m.s.config.maxRetries() {
				m.fail("Too many retries")
				return
			}
			size := m.mode.payloadSize()
			if m.sendOffset >= size {
				m.sendOffset -= size
			} else {
				m.sendOffset = 0
			}
			m.sendBlock()
		case CAN:
			m.cancel()
		}
	case xSendWaitEOTAck:
		switch b {
		case ACK:
			m.s.emit(completedEvent())
			m.state = xDone
			m.s.markTerminal()
		case NAK:
			m.retry++
			if m.retry > m.s.config.maxRetries() {
				m.fail("Too many retries")
				return
			}
			m.s.emit(sendDataEvent([]byte{EOT}))
		case CAN:
			m.cancel()
		}
	}
}

// sendBlock builds and emits the block at m.sendOffset, then advances
// sendOffset by one payload (spec.md §4.3: "resend decrements send_offset
// by one payload, clamped to >= 0" implies the offset is advanced
// optimistically right after sending).
func (m *xmodemMachine) sendBlock() {
	size := m.mode.payloadSize()
	end := m.sendOffset + size
	if end > len(m.data) {
		end = len(m.data)
	}
	payload := m.data[m.sendOffset:end]
	block := buildBlock(m.blockNum, payload, m.mode)
	m.s.emit(sendDataEvent(block))
	m.sendOffset += size
}

// --- receiver ---

func (m *xmodemMachine) stepRecv(b byte) {
	switch m.state {
	case xRecvWaitHeader:
		switch b {
		case SOH:
			m.payloadSize = 128
			m.headerByte = SOH
			m.blockBuf = m.blockBuf[:0]
			m.blockBuf = append(m.blockBuf, b)
			m.state = xRecvAccum
		case STX:
			m.payloadSize = 1024
			m.headerByte = STX
			m.blockBuf = m.blockBuf[:0]
			m.blockBuf = append(m.blockBuf, b)
			m.state = xRecvAccum
		case EOT:
			m.s.emit(sendDataEvent([]byte{ACK}))
			m.s.emit(completedEvent())
			m.state = xDone
			m.s.markTerminal()
		case CAN:
			m.cancel()
		}
	case xRecvAccum:
		m.blockBuf = append(m.blockBuf, b)
		need := 3 + m.payloadSize + 2
		if len(m.blockBuf) < need {
			return
		}
		m.finishBlock()
	}
}

func (m *xmodemMachine) finishBlock() {
	buf := m.blockBuf
	payload := buf[3 : 3+m.payloadSize]
	trailer := buf[3+m.payloadSize:]

	if !validBlockHeader(buf[1], buf[2]) {
		m.sendNak()
		m.state = xRecvWaitHeader
		return
	}
	if !verifyBlockTrailer(payload, trailer, modeCRC) {
		m.sendNak()
		m.state = xRecvWaitHeader
		return
	}

	recvBlockNum := buf[1]
	switch recvBlockNum {
	case m.expectBlockNum:
		m.s.appendReceived(payload)
		m.expectBlockNum++
		m.retry = 0
		m.s.emit(sendDataEvent([]byte{ACK}))
		m.s.emit(progressEvent(Progress{
			State:            StateActive,
			BytesTransferred: uint64(len(m.s.received)),
			CurrentBlock:     uint32(recvBlockNum),
			FileName:         m.s.fileName,
		}))
	case m.expectBlockNum - 1:
		m.s.emit(sendDataEvent([]byte{ACK}))
	default:
		m.sendNak()
	}
	m.state = xRecvWaitHeader
}

func (m *xmodemMachine) sendNak() {
	m.retry++
	if m.retry > m.s.config.maxRetries() {
		m.fail("Too many errors")
		return
	}
	m.s.emit(sendDataEvent([]byte{NAK}))
}
