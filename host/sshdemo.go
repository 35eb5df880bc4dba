package host

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/crypto/ssh"

	"github.com/serialbridge/transferengine"
)

// SSHTransfer wraps an *ssh.Session the way the teacher's SSHSession does
// (zmodem/ssh.go), but drives a push-driven Session through Pump instead
// of calling teacher-style blocking SendFile/ReceiveFile methods. It
// demonstrates the domain stack's golang.org/x/crypto/ssh dependency
// exercising a real transferengine.Session end to end.
type SSHTransfer struct {
	sshSession *ssh.Session
	stdin      io.WriteCloser
	stdout     io.Reader
	stderr     io.Reader
}

// NewSSHTransfer opens the stdin/stdout/stderr pipes of an established SSH
// session, ready for use with Send or Receive.
func NewSSHTransfer(sshSession *ssh.Session) (*SSHTransfer, error) {
	stdin, err := sshSession.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := sshSession.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, err
	}
	stderr, err := sshSession.StderrPipe()
	if err != nil {
		stdin.Close()
		return nil, err
	}
	return &SSHTransfer{sshSession: sshSession, stdin: stdin, stdout: stdout, stderr: stderr}, nil
}

// Send starts the remote receiver command and streams fileName/data to it
// over a ZMODEM (or other) Session, returning once the transfer reaches a
// terminal state or ctx is cancelled.
func (t *SSHTransfer) Send(ctx context.Context, protocol transferengine.Protocol, fileName string, data []byte, sink transferengine.Sink) error {
	if err := t.sshSession.Start("rz --zmodem"); err != nil {
		return fmt.Errorf("host: start remote receiver: %w", err)
	}
	done := make(chan error, 1)
	go func() { done <- t.sshSession.Wait() }()

	session := transferengine.Create(protocol, transferengine.DirectionSend, NewWriterSink(t.stdin, sink))
	session.StartSend(fileName, data)

	err := Pump(ctx, session, t.stdout, t.stdin)
	t.stdin.Close()

	select {
	case remoteErr := <-done:
		if err == nil {
			err = remoteErr
		}
	case <-ctx.Done():
		return ctx.Err()
	}
	return err
}

// Receive starts the remote sender command and drives a receive Session
// until terminal, returning the accumulated bytes.
func (t *SSHTransfer) Receive(ctx context.Context, protocol transferengine.Protocol, sink transferengine.Sink) ([]byte, error) {
	if err := t.sshSession.Start("sz --zmodem"); err != nil {
		return nil, fmt.Errorf("host: start remote sender: %w", err)
	}
	done := make(chan error, 1)
	go func() { done <- t.sshSession.Wait() }()

	session := transferengine.Create(protocol, transferengine.DirectionReceive, NewWriterSink(t.stdin, sink))
	session.StartReceive()

	err := Pump(ctx, session, t.stdout, t.stdin)
	t.stdin.Close()
	if err != nil {
		return nil, err
	}

	select {
	case remoteErr := <-done:
		if remoteErr != nil {
			return nil, remoteErr
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return session.GetReceivedData(), nil
}

// Stderr exposes the remote command's stderr for diagnostics.
func (t *SSHTransfer) Stderr() io.Reader { return t.stderr }

// Close releases the SSH session's pipes.
func (t *SSHTransfer) Close() error {
	t.stdin.Close()
	return t.sshSession.Close()
}
