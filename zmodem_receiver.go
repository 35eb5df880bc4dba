package transferengine

import "bytes"

// zmodem_receiver.go holds the receive-side frame and subpacket handling
// for zmodemMachine (struct and scanner defined in zmodem_sender.go).

func (m *zmodemMachine) handleRecvFrame(frameType int, data [4]byte) {
	switch m.top {
	case zRecvWaitZFile:
		switch frameType {
		case zrqinit:
			m.s.emit(sendDataEvent(encodeHexFrame(zrinit, encodeFlags(m.capsByte()))))
		case zfile:
			m.enterSubpacket(subPurposeFileMeta)
		case zfin:
			m.s.emit(sendDataEvent(encodeHexFrame(zfin, encodeFlags(0))))
			m.s.emit(completedEvent())
			m.top = zDone
			m.s.markTerminal()
		case zcan:
			m.cancel()
		}

	case zRecvWaitZData:
		switch frameType {
		case zdata:
			m.filePos = decodeOffset(data)
			m.enterSubpacket(subPurposeFileData)
		case zeof:
			m.s.emit(sendDataEvent(encodeHexFrame(zrinit, encodeFlags(m.capsByte()))))
			m.top = zRecvWaitZFile
		case zfin:
			m.s.emit(sendDataEvent(encodeHexFrame(zfin, encodeFlags(0))))
			m.s.emit(completedEvent())
			m.top = zDone
			m.s.markTerminal()
		case zcan:
			m.cancel()
		}
	}
}

// onSubpacketError is called when a subpacket's CRC fails to verify. It
// requests retransmission from the last confirmed offset for file data,
// or simply drops a bad metadata subpacket and waits for the sender to
// retry ZFILE (real senders retry on missing ZRPOS).
func (m *zmodemMachine) onSubpacketError() {
	if m.subPurpose == subPurposeFileData {
		m.s.emit(sendDataEvent(encodeHexFrame(zrpos, encodeOffset(m.filePos))))
		m.top = zRecvWaitZData
	}
	m.scan = scanLead
	m.zpads = 0
}

func (m *zmodemMachine) onSubpacketComplete(terminator byte) {
	switch m.subPurpose {
	case subPurposeFileMeta:
		name, size := parseZmodemFileMeta(m.subBuf)
		if len(name) > MaxFileNameLen {
			m.fail("Filename too long")
			return
		}
		m.s.setFileName(name)
		m.s.setFileSize(size)
		m.s.emit(startedEvent(name, size))
		m.s.emit(sendDataEvent(encodeHexFrame(zrpos, encodeOffset(0))))
		m.top = zRecvWaitZData
		m.scan = scanLead
		m.zpads = 0

	case subPurposeFileData:
		m.s.appendReceived(m.subBuf)
		m.filePos += uint32(len(m.subBuf))
		m.s.emit(progressEvent(Progress{
			State:            StateActive,
			BytesTransferred: uint64(len(m.s.received)),
			TotalBytes:       m.s.fileSize,
			FileName:         m.s.fileName,
		}))
		switch terminator {
		case zcrce:
			m.top = zRecvWaitZData
			m.scan = scanLead
			m.zpads = 0
		case zcrcw:
			m.s.emit(sendDataEvent(encodeHexFrame(zack, encodeOffset(m.filePos))))
			m.top = zRecvWaitZData
			m.scan = scanLead
			m.zpads = 0
		case zcrcq:
			m.s.emit(sendDataEvent(encodeHexFrame(zack, encodeOffset(m.filePos))))
			m.enterSubpacket(subPurposeFileData)
		case zcrcg:
			m.enterSubpacket(subPurposeFileData)
		}
	}
}

// parseZmodemFileMeta extracts filename and size from a ZFILE subpacket
// payload: filename up to the first NUL, then decimal size up to the next
// NUL or whitespace (spec.md §4.5 step 3).
func parseZmodemFileMeta(payload []byte) (name string, size uint64) {
	nameEnd := bytes.IndexByte(payload, 0)
	if nameEnd < 0 {
		nameEnd = len(payload)
	}
	name = string(payload[:nameEnd])
	if nameEnd >= len(payload) {
		return name, 0
	}
	rest := payload[nameEnd+1:]
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	size = parseDecimalUint(rest[:end])
	return name, size
}

func parseDecimalUint(digits []byte) uint64 {
	var v uint64
	for _, d := range digits {
		v = v*10 + uint64(d-'0')
	}
	return v
}
