// Package host is the transport-owning glue the engine deliberately leaves
// out (spec.md §1's "Deliberately OUT of scope" list): it owns an
// io.Reader/io.Writer pair and a poll loop, and drives a
// *transferengine.Session with the bytes it reads. The
// engine itself never imports this package.
package host

import (
	"bufio"
	"context"
	"io"

	"github.com/serialbridge/transferengine"
)

// Pump drives session with bytes read from r until ctx is cancelled or the
// session reaches a terminal state. Pump does not write to w itself:
// send_data bytes reach w only through the session's Sink, so the session
// must be created with a Sink from NewWriterSink(w, ...).
// This is the "host owns the serial line and a timer" loop from spec.md
// §2, expressed against any io.Reader/io.Writer — a real host wires r/w to
// a serial.Port, an SSH session (sshdemo.go), or a terminal (terminal.go).
func Pump(ctx context.Context, session *transferengine.Session, r io.Reader, w io.Writer) error {
	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			session.Cancel()
			return ctx.Err()
		default:
		}

		n, err := r.Read(buf)
		if n > 0 {
			session.ProcessData(buf[:n])
		}
		if !session.IsActive() {
			return nil
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

// NewWriterSink returns a Sink that writes every send_data event's bytes
// to w synchronously, buffering with bufio the way the teacher's
// LoggingWriter wraps a raw io.Writer.
func NewWriterSink(w io.Writer, inner transferengine.Sink) transferengine.Sink {
	bw := bufio.NewWriter(w)
	return func(evt transferengine.Event) {
		if evt.Type == transferengine.EventSendData {
			bw.Write(evt.Bytes)
			bw.Flush()
		}
		if inner != nil {
			inner(evt)
		}
	}
}
