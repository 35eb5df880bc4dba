package transferengine

import "time"

// MaxRetries is the retry ceiling from spec.md §3: retry_count > MaxRetries
// always transitions to failed.
const MaxRetries = 10

// MaxFileNameLen is the longest filename a receiving YMODEM or ZMODEM
// machine accepts; a longer one fails the session (spec.md §3, §7). The
// send side does not check it.
const MaxFileNameLen = 255

// Control bytes shared by XMODEM and YMODEM (spec.md §4.3).
const (
	SOH = 0x01
	STX = 0x02
	EOT = 0x04
	ACK = 0x06
	NAK = 0x15
	CAN = 0x18
	SUB = 0x1A // CPMEOF padding byte
	CNak = 0x43 // 'C' — request CRC-16 mode
)

// Config holds engine-wide tuning knobs, generalizing the teacher's
// Config/SenderConfig/ReceiverConfig trio into one struct shared by all
// three protocol machines.
type Config struct {
	// MaxRetries overrides the default retry ceiling (0 = use MaxRetries).
	MaxRetries int

	// Use32BitCRC selects ZMODEM's CRC-32 data-subpacket trailers when
	// true, CRC-16 otherwise. A receiver uses this setting and advertises
	// it via CANFC32; a sender adopts whatever the receiver advertises.
	// Hex frames always carry CRC-16.
	Use32BitCRC bool

	// ZBlockSize is the maximum ZMODEM data-subpacket size in bytes
	// (spec.md §3: MAX_BLOCK_SIZE = 8192).
	ZBlockSize int

	// ProgressInterval is not consulted by the machines: EventProgress is
	// emitted on every accepted block or subpacket whatever its value.
	ProgressInterval time.Duration
}

// DefaultConfig returns the engine's default configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:       MaxRetries,
		Use32BitCRC:      true,
		ZBlockSize:       1024,
		ProgressInterval: 0,
	}
}

func (c *Config) maxRetries() int {
	if c == nil || c.MaxRetries <= 0 {
		return MaxRetries
	}
	return c.MaxRetries
}

func (c *Config) zBlockSize() int {
	if c == nil || c.ZBlockSize <= 0 {
		return 1024
	}
	if c.ZBlockSize > maxZBlockSize {
		return maxZBlockSize
	}
	return c.ZBlockSize
}

func (c *Config) use32BitCRC() bool {
	return c == nil || c.Use32BitCRC
}

// Option configures a Session at Create time, matching the teacher's
// functional-option pattern (WithConfig/WithCallbacks/WithContext).
type Option func(*Session)

// WithConfig sets the session configuration.
func WithConfig(config *Config) Option {
	return func(s *Session) { s.config = config }
}

// WithLogger sets a logger for protocol debugging.
func WithLogger(logger Logger) Option {
	return func(s *Session) { s.logger = logger }
}
