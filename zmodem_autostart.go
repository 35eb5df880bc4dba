package transferengine

// DetectZmodemAutostart reports whether data contains a ZMODEM auto-start
// cue: the ASCII trigraph "rz\r", or the raw hex-frame lead-in bytes
// "**"+ZDLE+"B" (spec.md §4.5). This is stateless and safe to call on any
// candidate buffer the host is considering replaying into a new receive
// session; grounded on the teacher's TerminalIO scan-buffer approach in
// terminal.go, but exposed as a pure function per spec.md §6.
func DetectZmodemAutostart(data []byte) bool {
	for i := range data {
		if i+3 <= len(data) && data[i] == 'r' && data[i+1] == 'z' && data[i+2] == '\r' {
			return true
		}
		if i+4 <= len(data) && data[i] == zpad && data[i+1] == zpad && data[i+2] == zdle && data[i+3] == zhex {
			return true
		}
	}
	return false
}
