package transferengine

import "testing"

func TestEscapeByteRoundTrip(t *testing.T) {
	for b := 0; b < 256; b++ {
		encoded := escapeByte(nil, byte(b))
		var dec zdleDecoder
		var got byte
		var gotKind decodeKind
		for _, wb := range encoded {
			got, gotKind = dec.Feed(wb)
		}
		if gotKind != decodeData {
			t.Fatalf("byte %#02x: decode kind = %v, want decodeData", b, gotKind)
		}
		if got != byte(b) {
			t.Fatalf("byte %#02x round-tripped as %#02x", b, got)
		}
	}
}

func TestZdleDecoderRecognizesTerminators(t *testing.T) {
	var dec zdleDecoder
	dec.Feed(zdle)
	value, kind := dec.Feed(zcrce)
	if kind != decodeTerminator || value != zcrce {
		t.Fatalf("got (%v, %v), want (decodeTerminator, zcrce)", value, kind)
	}
}

func TestZdleDecoderDoesNotConfusePlainDataWithTerminator(t *testing.T) {
	// 'i' (zcrce) is only a terminator immediately after ZDLE; as plain
	// data it passes straight through undecoded.
	var dec zdleDecoder
	value, kind := dec.Feed('i')
	if kind != decodeData || value != 'i' {
		t.Fatalf("got (%v, %v), want (decodeData, 'i')", value, kind)
	}
}

func TestNeedsEscapeBoundaries(t *testing.T) {
	cases := map[byte]bool{
		0x00: true,
		0x1F: true,
		0x20: false,
		0x7E: false,
		0x7F: true,
		0xFE: false,
		0xFF: true,
		zdle: true,
	}
	for b, want := range cases {
		if got := needsEscape(b); got != want {
			t.Fatalf("needsEscape(%#02x) = %v, want %v", b, got, want)
		}
	}
}
