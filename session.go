package transferengine

// Protocol selects which wire variant a Session drives. It mirrors
// original_source/include/transfer.h's TransferProtocol enum; the three
// XMODEM variants share one state machine (block_codec.go's blockMode
// distinguishes them).
type Protocol int

const (
	ProtocolXmodem Protocol = iota
	ProtocolXmodemCRC
	ProtocolXmodem1K
	ProtocolYmodem
	ProtocolZmodem
)

// Direction is send or receive, fixed for the life of a Session.
type Direction int

const (
	DirectionSend Direction = iota
	DirectionReceive
)

// machine is the interface every protocol state machine implements. A
// Session tag-dispatches to whichever one Protocol selected at Create,
// per spec.md §9's "trait/interface with one implementation per protocol"
// guidance for languages without native sum types (used here even though
// Go could use a type switch, to keep xmodem/ymodem/zmodem symmetric).
type machine interface {
	start()
	processData(data []byte)
	cancel()
	active() bool
}

// Session is the top-level engine handle (spec.md §3/§6). It owns the
// accumulated receive buffer and current filename; the active machine
// only ever calls back into it to append bytes, record metadata, and
// emit events — it never touches a file or a socket itself.
type Session struct {
	protocol  Protocol
	direction Direction
	sink      Sink
	config    *Config
	logger    Logger

	received []byte
	fileName string
	fileSize uint64

	started    bool
	terminated bool

	m machine
}

// Create constructs a new Session for protocol/direction, wired to sink.
// It does not start the transfer; call StartSend or StartReceive.
func Create(protocol Protocol, direction Direction, sink Sink, opts ...Option) *Session {
	s := &Session{
		protocol:  protocol,
		direction: direction,
		sink:      sink,
		config:    DefaultConfig(),
		logger:    NoopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}

	switch protocol {
	case ProtocolXmodem:
		s.m = newXmodemMachine(s, direction, modeChecksum)
	case ProtocolXmodemCRC:
		s.m = newXmodemMachine(s, direction, modeCRC)
	case ProtocolXmodem1K:
		s.m = newXmodemMachine(s, direction, modeCRC1K)
	case ProtocolYmodem:
		s.m = newYmodemMachine(s, direction)
	case ProtocolZmodem:
		s.m = newZmodemMachine(s, direction)
	}
	return s
}

// Destroy releases session resources. The Go garbage collector does the
// actual freeing; Destroy exists to match spec.md §6's C-shaped surface
// and to make terminal-state bookkeeping explicit at call sites.
func (s *Session) Destroy() {
	s.terminated = true
	s.m = nil
}

// StartSend begins sending fileName (optional for plain XMODEM) with the
// given data, emitting EventStarted.
func (s *Session) StartSend(fileName string, data []byte) {
	if s.started || s.terminated {
		return
	}
	s.started = true
	s.fileName = fileName
	s.fileSize = uint64(len(data))
	if sm, ok := s.m.(dataSetter); ok {
		sm.setData(data)
	}
	s.emit(startedEvent(fileName, uint64(len(data))))
	s.m.start()
}

// StartReceive begins receiving, emitting the protocol's initial
// handshake bytes via the sink.
func (s *Session) StartReceive() {
	if s.started || s.terminated {
		return
	}
	s.started = true
	s.m.start()
}

// ProcessData drives the machine with newly-arrived bytes. It is defined
// for any number of bytes, including zero, and consumes every byte (or
// transitions to terminal) within this call. A no-op once terminal.
func (s *Session) ProcessData(data []byte) {
	if s.terminated || s.m == nil {
		return
	}
	if !s.m.active() {
		return
	}
	s.m.processData(data)
}

// Cancel is idempotent in any state. From an active state it emits a
// protocol-appropriate cancel sequence, then EventCancelled, then enters
// the terminal state. From a terminal or idle state it is a no-op.
func (s *Session) Cancel() {
	if s.terminated || s.m == nil || !s.started {
		return
	}
	if !s.m.active() {
		return
	}
	s.m.cancel()
}

// IsActive reports whether the machine is in neither idle nor a terminal
// state.
func (s *Session) IsActive() bool {
	return s.m != nil && s.started && s.m.active()
}

// GetReceivedData returns the accumulated received payload. The slice is
// borrowed; callers that retain it across further ProcessData calls must
// copy it first.
func (s *Session) GetReceivedData() []byte {
	return s.received
}

// GetFileName returns the current filename, or "" if none has been set.
func (s *Session) GetFileName() string {
	return s.fileName
}

// dataSetter is implemented by machines that need the sender's payload
// handed to them at StartSend time.
type dataSetter interface {
	setData(data []byte)
}

// --- host callback surface used by machines ---

func (s *Session) emit(evt Event) {
	if s.sink != nil {
		s.sink(evt)
	}
}

func (s *Session) appendReceived(b []byte) {
	s.received = append(s.received, b...)
}

func (s *Session) setFileName(name string) {
	s.fileName = name
}

func (s *Session) setFileSize(size uint64) {
	s.fileSize = size
}

func (s *Session) markTerminal() {
	s.terminated = true
}
