// Command xfersend sends a single file over stdin/stdout, the sending
// counterpart to xferrecv, in the shape of the teacher's cmd/gsz.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/serialbridge/transferengine"
	"github.com/serialbridge/transferengine/host"
)

var (
	verbose  = flag.Bool("v", false, "verbose mode")
	quiet    = flag.Bool("q", false, "quiet mode")
	protocol = flag.String("proto", "zmodem", "protocol: xmodem, xmodem-crc, xmodem-1k, ymodem, zmodem")
	help     = flag.Bool("h", false, "show help")
)

const versionString = "xfersend version 0.1.0"

func main() {
	flag.Parse()
	if *help || flag.NArg() != 1 {
		showUsage(usageExitCode())
	}

	level := slog.LevelInfo
	if *quiet {
		level = slog.LevelError
	} else if *verbose {
		level = slog.LevelDebug
	}
	logger := transferengine.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	proto, err := parseProtocol(*protocol)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	path := flag.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", path, err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sink := func(evt transferengine.Event) {
		switch evt.Type {
		case transferengine.EventProgress:
			if *verbose {
				fmt.Fprintf(os.Stderr, "\r%s: %d/%d bytes", evt.Progress.FileName, evt.Progress.BytesTransferred, evt.Progress.TotalBytes)
			}
		case transferengine.EventCompleted:
			if !*quiet {
				fmt.Fprintln(os.Stderr, "\nTransfer complete")
			}
		case transferengine.EventFailed:
			fmt.Fprintf(os.Stderr, "\nTransfer failed: %s\n", evt.Message)
		case transferengine.EventCancelled:
			fmt.Fprintln(os.Stderr, "\nTransfer cancelled")
		}
	}

	session := transferengine.Create(proto, transferengine.DirectionSend, host.NewWriterSink(os.Stdout, sink), transferengine.WithLogger(logger))
	session.StartSend(filepath.Base(path), data)

	if err := host.Pump(ctx, session, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseProtocol(name string) (transferengine.Protocol, error) {
	switch name {
	case "xmodem":
		return transferengine.ProtocolXmodem, nil
	case "xmodem-crc":
		return transferengine.ProtocolXmodemCRC, nil
	case "xmodem-1k":
		return transferengine.ProtocolXmodem1K, nil
	case "ymodem":
		return transferengine.ProtocolYmodem, nil
	case "zmodem":
		return transferengine.ProtocolZmodem, nil
	default:
		return 0, fmt.Errorf("unknown protocol %q", name)
	}
}

func usageExitCode() int {
	if *help {
		return 0
	}
	return 2
}

func showUsage(exitcode int) {
	fmt.Fprintf(os.Stderr, `%s - send a file over stdin/stdout

Usage: %s [options] <file>

Options:
  -proto NAME   protocol: xmodem, xmodem-crc, xmodem-1k, ymodem, zmodem (default zmodem)
  -q            quiet mode
  -v            verbose mode
  -h            show this help message

`, versionString, os.Args[0])
	os.Exit(exitcode)
}
