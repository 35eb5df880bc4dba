package transferengine

import (
	"bytes"
	"strconv"
)

// ymodem.go implements the YMODEM batch machine from spec.md §4.4: XMODEM
// 1K-CRC extended with a block-0 metadata header and a batch terminator.
// No YMODEM code exists in the teacher repo either; this follows the same
// push-driven shape as xmodem.go and reuses block_codec.go's header/CRC
// helpers for the data blocks, only block 0 gets its own zero-padded (not
// SUB-padded) codec below.

type ymodemState int

const (
	ySendWaitInit ymodemState = iota
	ySendWaitBlock0Ack
	ySendWaitDataInit
	ySendWaitAck
	ySendWaitEOTAck
	ySendWaitFinalAck

	yRecvWaitBlock0
	yRecvAccumBlock0
	yRecvWaitData
	yRecvAccumData
	yRecvWaitSecondEOT

	yDone
)

type ymodemMachine struct {
	s     *Session
	state ymodemState
	retry int

	// sender
	data       []byte
	sendOffset int
	blockNum   byte

	// receiver
	expectBlockNum byte
	blockBuf       []byte
	payloadSize    int
	bytesRemaining uint64
}

func newYmodemMachine(s *Session, direction Direction) *ymodemMachine {
	m := &ymodemMachine{s: s}
	if direction == DirectionReceive {
		m.blockBuf = make([]byte, 0, 3+1024+2)
	}
	return m
}

func (m *ymodemMachine) setData(data []byte) { m.data = data }

func (m *ymodemMachine) active() bool { return m.state != yDone }

func (m *ymodemMachine) start() {
	if m.s.direction == DirectionSend {
		m.state = ySendWaitInit
		return
	}
	m.state = yRecvWaitBlock0
	m.s.emit(sendDataEvent([]byte{CNak}))
}

func (m *ymodemMachine) processData(data []byte) {
	for _, b := range data {
		if m.state == yDone {
			return
		}
		if m.s.direction == DirectionSend {
			m.stepSend(b)
		} else {
			m.stepRecv(b)
		}
	}
}

func (m *ymodemMachine) cancel() {
	if m.state == yDone {
		return
	}
	m.s.emit(sendDataEvent(xmodemCancelSequence()))
	m.s.emit(cancelledEvent())
	m.state = yDone
	m.s.markTerminal()
}

func (m *ymodemMachine) fail(message string) {
	m.s.emit(sendDataEvent(xmodemCancelSequence()))
	m.s.emit(failedEvent(message))
	m.state = yDone
	m.s.markTerminal()
}

// --- sender ---

func (m *ymodemMachine) stepSend(b byte) {
	switch m.state {
	case ySendWaitInit:
		if b == CAN {
			m.cancel()
			return
		}
		if b != CNak {
			return
		}
		meta := buildYmodemMetaBlock(m.s.fileName, m.s.fileSize)
		m.s.emit(sendDataEvent(meta))
		m.state = ySendWaitBlock0Ack

	case ySendWaitBlock0Ack:
		switch b {
		case ACK:
			m.state = ySendWaitDataInit
		case CAN:
			m.cancel()
		}

	case ySendWaitDataInit:
		if b == CAN {
			m.cancel()
			return
		}
		if b != CNak {
			return
		}
		m.blockNum = 1
		m.sendOffset = 0
		m.sendDataBlock()
		m.state = ySendWaitAck

	case ySendWaitAck:
		switch b {
		case ACK:
			m.retry = 0
			if m.sendOffset >= len(m.data) {
				m.s.emit(sendDataEvent([]byte{EOT}))
				m.state = ySendWaitEOTAck
				return
			}
			m.blockNum++
			m.sendDataBlock()
		case NAK:
			m.retry++
			if m.retry > m.s.config.maxRetries() {
				m.fail("Too many retries")
				return
			}
			size := modeCRC1K.payloadSize()
			if m.sendOffset >= size {
				m.sendOffset -= size
			} else {
				m.sendOffset = 0
			}
			m.sendDataBlock()
		case CAN:
			m.cancel()
		}

	case ySendWaitEOTAck:
		switch b {
		case NAK:
			m.s.emit(sendDataEvent([]byte{EOT}))
		case ACK:
			m.s.emit(sendDataEvent(buildYmodemTerminatorBlock()))
			m.state = ySendWaitFinalAck
		case CAN:
			m.cancel()
		}

	case ySendWaitFinalAck:
		switch b {
		case ACK:
			m.s.emit(completedEvent())
			m.state = yDone
			m.s.markTerminal()
		case CAN:
			m.cancel()
		}
	}
}

func (m *ymodemMachine) sendDataBlock() {
	size := modeCRC1K.payloadSize()
	end := m.sendOffset + size
	if end > len(m.data) {
		end = len(m.data)
	}
	payload := m.data[m.sendOffset:end]
	block := buildBlock(m.blockNum, payload, modeCRC1K)
	m.s.emit(sendDataEvent(block))
	m.sendOffset += size
}

// --- receiver ---

func (m *ymodemMachine) stepRecv(b byte) {
	switch m.state {
	case yRecvWaitBlock0:
		switch b {
		case SOH:
			m.payloadSize = 128
			m.blockBuf = m.blockBuf[:0]
			m.blockBuf = append(m.blockBuf, b)
			m.state = yRecvAccumBlock0
		case STX:
			m.payloadSize = 1024
			m.blockBuf = m.blockBuf[:0]
			m.blockBuf = append(m.blockBuf, b)
			m.state = yRecvAccumBlock0
		case CAN:
			m.cancel()
		}

	case yRecvAccumBlock0:
		m.blockBuf = append(m.blockBuf, b)
		if len(m.blockBuf) < 3+m.payloadSize+2 {
			return
		}
		m.finishBlock0()

	case yRecvWaitData:
		switch b {
		case SOH:
			m.payloadSize = 128
			m.blockBuf = m.blockBuf[:0]
			m.blockBuf = append(m.blockBuf, b)
			m.state = yRecvAccumData
		case STX:
			m.payloadSize = 1024
			m.blockBuf = m.blockBuf[:0]
			m.blockBuf = append(m.blockBuf, b)
			m.state = yRecvAccumData
		case EOT:
			m.s.emit(sendDataEvent([]byte{NAK}))
			m.state = yRecvWaitSecondEOT
		case CAN:
			m.cancel()
		}

	case yRecvAccumData:
		m.blockBuf = append(m.blockBuf, b)
		if len(m.blockBuf) < 3+m.payloadSize+2 {
			return
		}
		m.finishDataBlock()

	case yRecvWaitSecondEOT:
		if b == EOT {
			m.s.emit(sendDataEvent([]byte{ACK}))
			m.s.emit(sendDataEvent([]byte{CNak}))
			m.state = yRecvWaitBlock0
		}
	}
}

func (m *ymodemMachine) finishBlock0() {
	buf := m.blockBuf
	payload := buf[3 : 3+m.payloadSize]
	trailer := buf[3+m.payloadSize:]

	if !validBlockHeader(buf[1], buf[2]) || buf[1] != 0 {
		m.s.emit(sendDataEvent([]byte{NAK}))
		m.state = yRecvWaitBlock0
		return
	}
	if !verifyBlockTrailer(payload, trailer, modeCRC) {
		m.s.emit(sendDataEvent([]byte{NAK}))
		m.state = yRecvWaitBlock0
		return
	}

	name, size, ok := parseYmodemMetaPayload(payload)
	if !ok {
		// Batch terminator: empty filename.
		m.s.emit(sendDataEvent([]byte{ACK}))
		m.s.emit(completedEvent())
		m.state = yDone
		m.s.markTerminal()
		return
	}
	if len(name) > MaxFileNameLen {
		m.fail("Filename too long")
		return
	}

	m.s.emit(sendDataEvent([]byte{ACK}))
	m.s.emit(sendDataEvent([]byte{CNak}))
	m.s.setFileName(name)
	m.s.setFileSize(size)
	m.bytesRemaining = size
	m.expectBlockNum = 1
	m.s.emit(startedEvent(name, size))
	m.state = yRecvWaitData
}

func (m *ymodemMachine) finishDataBlock() {
	buf := m.blockBuf
	payload := buf[3 : 3+m.payloadSize]
	trailer := buf[3+m.payloadSize:]

	if !validBlockHeader(buf[1], buf[2]) {
		m.sendNak()
		m.state = yRecvWaitData
		return
	}
	if !verifyBlockTrailer(payload, trailer, modeCRC) {
		m.sendNak()
		m.state = yRecvWaitData
		return
	}

	recvBlockNum := buf[1]
	switch recvBlockNum {
	case m.expectBlockNum:
		n := uint64(len(payload))
		if n > m.bytesRemaining {
			n = m.bytesRemaining
		}
		m.s.appendReceived(payload[:n])
		m.bytesRemaining -= n
		m.expectBlockNum++
		m.retry = 0
		m.s.emit(sendDataEvent([]byte{ACK}))
		m.s.emit(progressEvent(Progress{
			State:            StateActive,
			BytesTransferred: uint64(len(m.s.received)),
			TotalBytes:       m.s.fileSize,
			CurrentBlock:     uint32(recvBlockNum),
			FileName:         m.s.fileName,
		}))
	case m.expectBlockNum - 1:
		m.s.emit(sendDataEvent([]byte{ACK}))
	default:
		m.sendNak()
	}
	m.state = yRecvWaitData
}

func (m *ymodemMachine) sendNak() {
	m.retry++
	if m.retry > m.s.config.maxRetries() {
		m.fail("Too many errors")
		return
	}
	m.s.emit(sendDataEvent([]byte{NAK}))
}

// --- block 0 codec ---

// buildYmodemMetaBlock builds the initial 1024-byte block-0 metadata block:
// NUL-terminated filename, decimal file size, NUL, zero padding, CRC-16.
func buildYmodemMetaBlock(fileName string, fileSize uint64) []byte {
	payload := make([]byte, 0, len(fileName)+24)
	payload = append(payload, fileName...)
	payload = append(payload, 0)
	payload = append(payload, strconv.FormatUint(fileSize, 10)...)
	payload = append(payload, 0)
	return buildZeroPaddedBlock(0, payload, 1024)
}

// buildYmodemTerminatorBlock is the empty 128-byte all-zero final block 0
// that ends a YMODEM batch.
func buildYmodemTerminatorBlock() []byte {
	return buildZeroPaddedBlock(0, nil, 128)
}

// buildZeroPaddedBlock is block_codec.go's buildBlock with zero padding
// instead of SUB padding, per spec.md §4.4 ("zero padding", not SUB).
func buildZeroPaddedBlock(blockNum byte, payload []byte, size int) []byte {
	header := byte(SOH)
	if size == 1024 {
		header = STX
	}
	buf := make([]byte, 0, 3+size+2)
	buf = append(buf, header, blockNum, ^blockNum)

	padded := make([]byte, size)
	copy(padded, payload)
	buf = append(buf, padded...)

	crc := crc16(padded)
	buf = append(buf, byte(crc>>8), byte(crc))
	return buf
}

// parseYmodemMetaPayload extracts filename and size from a block-0 payload.
// ok is false when the filename is empty (batch terminator).
func parseYmodemMetaPayload(payload []byte) (name string, size uint64, ok bool) {
	nameEnd := bytes.IndexByte(payload, 0)
	if nameEnd <= 0 {
		return "", 0, false
	}
	name = string(payload[:nameEnd])

	rest := payload[nameEnd+1:]
	sizeEnd := bytes.IndexByte(rest, 0)
	if sizeEnd < 0 {
		sizeEnd = len(rest)
	}
	size, _ = strconv.ParseUint(string(rest[:sizeEnd]), 10, 64)
	return name, size, true
}
