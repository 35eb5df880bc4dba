// Package serial describes the serial-port collaborator the engine writes
// through but never opens or configures itself, per spec.md §6's "Serial
// Port Collaborator (consumed from below)" table. This mirrors
// original_source/include/serialterm.h's C surface as a Go interface, the
// way the teacher's zmodem package treats io.Reader/io.Writer as the
// transport collaborator it drives without owning.
package serial

import (
	"errors"
	"time"
)

// Parity modes, from SerialParity.
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

// FlowControl modes, from SerialFlowControl.
type FlowControl int

const (
	FlowNone FlowControl = iota
	FlowHardware // RTS/CTS
	FlowSoftware // XON/XOFF
)

// LineEnding modes, from SerialLineEnding.
type LineEnding int

const (
	LineCR LineEnding = iota
	LineLF
	LineCRLF
)

// Config carries the same fields as SerialConfig.
type Config struct {
	BaudRate    uint32
	DataBits    uint8 // 5, 6, 7, or 8
	Parity      Parity
	StopBits    uint8 // 1 or 2
	FlowControl FlowControl
	LocalEcho   bool
	LineEnding  LineEnding
}

// DefaultConfig mirrors serial_config_default: 115200 8N1, no flow control.
func DefaultConfig() Config {
	return Config{BaudRate: 115200, DataBits: 8, Parity: ParityNone, StopBits: 1, LineEnding: LineCR}
}

// ArduinoConfig mirrors serial_config_arduino: 9600 8N1.
func ArduinoConfig() Config {
	c := DefaultConfig()
	c.BaudRate = 9600
	return c
}

// ModemStatus mirrors ModemStatus's six status lines.
type ModemStatus struct {
	DTR, RTS, CTS, DSR, DCD, RI bool
}

// ErrPortClosed is returned by Read/Write once Close has been called.
var ErrPortClosed = errors.New("serial: port closed")

// Port is the collaborator surface an engine host drives: open a device,
// read bytes into the engine's process_data, write the engine's
// send_data bytes back out, and manage the modem control lines XMODEM/
// YMODEM/ZMODEM implementations traditionally rely on for flow control.
// The engine (Session in the parent package) never sees this interface;
// only the host package does.
type Port interface {
	Read(buf []byte) (n int, err error)
	Write(data []byte) (n int, err error)
	WriteAll(data []byte) error

	SendBreak() error
	SetDTR(state bool) error
	SetRTS(state bool) error
	ModemStatus() (ModemStatus, error)

	FlushInput() error
	FlushOutput() error
	Flush() error
	BytesAvailable() int
	WaitForData(timeout time.Duration) bool

	Close() error
}

// EnumeratePorts lists candidate serial device paths. The real
// implementation is platform-specific (scanning /dev on Unix, the
// registry on Windows); left unimplemented here since the engine and its
// tests never call it — only a real host binary would.
func EnumeratePorts() ([]string, error) {
	return nil, errors.New("serial: EnumeratePorts requires a platform backend")
}
