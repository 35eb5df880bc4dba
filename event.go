package transferengine

// EventType tags the variant carried by an Event.
type EventType int

const (
	// EventStarted announces a new transfer with an optional file name and
	// declared size (0 = unknown).
	EventStarted EventType = iota

	// EventProgress reports transfer counters. Emitted by a receiving
	// machine after every accepted block/subpacket; senders do not emit it.
	EventProgress

	// EventSendData asks the host to write Bytes to the wire. Bytes is
	// borrowed from the session's internal scratch region and is only
	// valid for the duration of the Sink call; the host must copy it if
	// it needs to retain it past the callback.
	EventSendData

	// EventCompleted marks a clean terminal state.
	EventCompleted

	// EventFailed marks a fatal terminal state with a short message.
	EventFailed

	// EventCancelled marks a host- or peer-initiated terminal state.
	EventCancelled
)

// State is a protocol-neutral, host-facing summary of machine state used
// in Progress events. Machine-internal state names are not exposed.
type State int

const (
	StateIdle State = iota
	StateActive
	StateCompleted
	StateFailed
	StateCancelled
)

// Progress carries the counters from spec.md's `progress` event, extended
// with TotalBlocks per original_source/include/transfer.h's
// TransferProgress struct (dropped from the distilled spec, restored here).
// No machine fills in TotalBlocks; it is always 0.
type Progress struct {
	State            State
	BytesTransferred uint64
	TotalBytes       uint64
	CurrentBlock     uint32
	TotalBlocks      uint32
	ErrorCount       uint32
	FileName         string
}

// Event is the tagged union emitted to the host Sink. Only the field(s)
// relevant to Type are populated.
type Event struct {
	Type EventType

	// EventStarted
	FileName string
	FileSize uint64

	// EventProgress
	Progress Progress

	// EventSendData
	Bytes []byte

	// EventFailed
	Message string
}

// Sink is the single callable a host provides to receive engine events.
// It is invoked synchronously from inside Session.ProcessData / StartSend /
// StartReceive / Cancel. The engine tolerates re-entrant calls to
// Session.Cancel from within a Sink invocation.
type Sink func(evt Event)

func startedEvent(fileName string, fileSize uint64) Event {
	return Event{Type: EventStarted, FileName: fileName, FileSize: fileSize}
}

func progressEvent(p Progress) Event {
	return Event{Type: EventProgress, Progress: p}
}

func sendDataEvent(b []byte) Event {
	return Event{Type: EventSendData, Bytes: b}
}

func completedEvent() Event {
	return Event{Type: EventCompleted}
}

func failedEvent(message string) Event {
	return Event{Type: EventFailed, Message: message}
}

func cancelledEvent() Event {
	return Event{Type: EventCancelled}
}
