package transferengine

import "testing"

func TestDetectZmodemAutostartTrigraph(t *testing.T) {
	if !DetectZmodemAutostart([]byte("some prompt\r\nrz\r")) {
		t.Fatal("expected the rz\\r trigraph to trigger autostart detection")
	}
}

func TestDetectZmodemAutostartHexLeadIn(t *testing.T) {
	data := []byte{'x', 'y', zpad, zpad, zdle, zhex, '1', '1'}
	if !DetectZmodemAutostart(data) {
		t.Fatal("expected the ZPAD ZPAD ZDLE ZHEX lead-in to trigger autostart detection")
	}
}

func TestDetectZmodemAutostartNegative(t *testing.T) {
	if DetectZmodemAutostart([]byte("ordinary shell prompt $ ")) {
		t.Fatal("did not expect autostart detection on plain text")
	}
}

func TestDetectZmodemAutostartIgnoresPartialLeadIn(t *testing.T) {
	if DetectZmodemAutostart([]byte{zpad, zdle, zhex}) {
		t.Fatal("a single ZPAD should not trigger the two-ZPAD hex lead-in")
	}
}
