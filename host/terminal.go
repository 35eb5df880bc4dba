package host

import (
	"context"
	"io"

	"golang.org/x/term"

	"github.com/serialbridge/transferengine"
)

// TerminalMiddleware is the push-driven counterpart to the teacher's
// TerminalIO (zmodem/terminal.go): it scans a terminal's incoming byte
// stream for a ZMODEM auto-start cue via
// transferengine.DetectZmodemAutostart, and when found, replays the
// triggering buffer into a freshly created receive Session instead of the
// terminal's normal output path. Unlike the teacher's version it starts no
// goroutine of its own: the transfer runs to completion inside the Read
// call that detected the cue, driven by the caller's own loop.
type TerminalMiddleware struct {
	reader     io.Reader
	writer     io.Writer
	logger     transferengine.Logger
	scanBuffer []byte

	inTransfer bool
	session    *transferengine.Session
}

// NewTerminalMiddleware wraps reader/writer, watching every Read for a
// ZMODEM auto-start cue.
func NewTerminalMiddleware(reader io.Reader, writer io.Writer, logger transferengine.Logger) *TerminalMiddleware {
	if logger == nil {
		logger = transferengine.NoopLogger{}
	}
	return &TerminalMiddleware{reader: reader, writer: writer, logger: logger}
}

// Read passes bytes through to the terminal display path, but on
// detecting a ZMODEM auto-start cue it instead creates a receive Session,
// feeds it the triggering buffer, and pumps the underlying reader/writer
// until the transfer reaches a terminal state before resuming normal
// terminal output.
func (t *TerminalMiddleware) Read(ctx context.Context, p []byte, sink transferengine.Sink) (n int, err error) {
	n, err = t.reader.Read(p)
	if n == 0 {
		return n, err
	}

	if !t.inTransfer && transferengine.DetectZmodemAutostart(p[:n]) {
		t.logger.Info("ZMODEM auto-start detected, switching to receive session")
		t.session = transferengine.Create(transferengine.ProtocolZmodem, transferengine.DirectionReceive, NewWriterSink(t.writer, sink))
		t.session.StartReceive()
		t.inTransfer = true
		t.session.ProcessData(p[:n])
		if err := Pump(ctx, t.session, t.reader, t.writer); err != nil {
			return 0, err
		}
		t.inTransfer = false
		return 0, nil
	}

	return n, err
}

// RawMode puts fd (typically os.Stdin's descriptor) into raw mode for the
// duration of a transfer, restoring it on Close. Grounded on the
// teacher's TerminalIO comment about disabling local echo/line discipline
// during a transfer, but implemented with golang.org/x/term (the
// teacher's terminal.go only sketches this; it never actually calls into
// x/term) since raw-mode syscalls are exactly what that package wraps.
type RawMode struct {
	fd    int
	state *term.State
}

// EnterRawMode switches fd into raw mode.
func EnterRawMode(fd int) (*RawMode, error) {
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	return &RawMode{fd: fd, state: state}, nil
}

// Close restores the terminal's prior mode.
func (r *RawMode) Close() error {
	return term.Restore(r.fd, r.state)
}
