package transferengine

import "testing"

func TestEncodeDecodeHexFrameRoundTrip(t *testing.T) {
	data := encodeFlags(0x42)
	wire := encodeHexFrame(zrinit, data)

	// ZPAD ZPAD ZDLE ZHEX prefix, 14 hex digits, CR LF XON suffix.
	if wire[0] != zpad || wire[1] != zpad || wire[2] != zdle || wire[3] != zhex {
		t.Fatalf("unexpected frame lead-in: %v", wire[:4])
	}
	hexPart := wire[4 : 4+14]
	gotType, gotData, err := decodeHexFrame(hexPart)
	if err != nil {
		t.Fatalf("decodeHexFrame: %v", err)
	}
	if gotType != zrinit {
		t.Fatalf("frame type = %d, want %d", gotType, zrinit)
	}
	if gotData != data {
		t.Fatalf("frame data = %v, want %v", gotData, data)
	}
}

func TestDecodeHexFrameRejectsBadCRC(t *testing.T) {
	wire := encodeHexFrame(zfile, encodeFlags(1))
	hexPart := append([]byte(nil), wire[4:4+14]...)
	// Corrupt the last CRC hex digit.
	if hexPart[13] == '0' {
		hexPart[13] = '1'
	} else {
		hexPart[13] = '0'
	}
	if _, _, err := decodeHexFrame(hexPart); err == nil {
		t.Fatal("expected a CRC mismatch error")
	}
}

func TestEncodeOffsetRoundTrip(t *testing.T) {
	want := uint32(0x01020304)
	got := decodeOffset(encodeOffset(want))
	if got != want {
		t.Fatalf("offset round-trip = %#x, want %#x", got, want)
	}
}

func TestSubpacket16RoundTrip(t *testing.T) {
	payload := []byte("a chunk of file data")
	wire := encodeSubpacket16(payload, zcrce)

	var dec zdleDecoder
	var decodedPayload []byte
	var terminator byte
	var trailer []byte
	inTrailer := false
	for _, b := range wire {
		value, kind := dec.Feed(b)
		switch kind {
		case decodeNone:
			continue
		case decodeTerminator:
			terminator = value
			inTrailer = true
		case decodeData:
			if inTrailer {
				trailer = append(trailer, value)
			} else {
				decodedPayload = append(decodedPayload, value)
			}
		}
	}

	if terminator != zcrce {
		t.Fatalf("terminator = %#02x, want zcrce", terminator)
	}
	if string(decodedPayload) != string(payload) {
		t.Fatalf("decoded payload = %q, want %q", decodedPayload, payload)
	}
	if !verifySubpacketCRC16(decodedPayload, terminator, trailer) {
		t.Fatal("CRC-16 subpacket verification failed on a freshly built subpacket")
	}
}

func TestSubpacket32RoundTrip(t *testing.T) {
	payload := make([]byte, 64)
	for i := range payload {
		payload[i] = byte(i)
	}
	wire := encodeSubpacket32(payload, zcrcg)

	var dec zdleDecoder
	var decodedPayload []byte
	var terminator byte
	var trailer []byte
	inTrailer := false
	for _, b := range wire {
		value, kind := dec.Feed(b)
		switch kind {
		case decodeNone:
			continue
		case decodeTerminator:
			terminator = value
			inTrailer = true
		case decodeData:
			if inTrailer {
				trailer = append(trailer, value)
			} else {
				decodedPayload = append(decodedPayload, value)
			}
		}
	}

	if !verifySubpacketCRC32(decodedPayload, terminator, trailer) {
		t.Fatal("CRC-32 subpacket verification failed on a freshly built subpacket")
	}
}

func TestSubpacketCRCDetectsCorruption(t *testing.T) {
	payload := []byte("corrupt me")
	wire := encodeSubpacket16(payload, zcrce)
	wire[2] ^= 0xFF // flip a payload byte inside the escaped wire form

	var dec zdleDecoder
	var decodedPayload []byte
	var terminator byte
	var trailer []byte
	inTrailer := false
	for _, b := range wire {
		value, kind := dec.Feed(b)
		switch kind {
		case decodeNone:
			continue
		case decodeTerminator:
			terminator = value
			inTrailer = true
		case decodeData:
			if inTrailer {
				trailer = append(trailer, value)
			} else {
				decodedPayload = append(decodedPayload, value)
			}
		}
	}
	if verifySubpacketCRC16(decodedPayload, terminator, trailer) {
		t.Fatal("expected corrupted subpacket to fail CRC verification")
	}
}
