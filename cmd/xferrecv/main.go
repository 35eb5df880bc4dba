// Command xferrecv receives a single file over stdin/stdout using one of
// the engine's protocol variants, in the shape of the teacher's cmd/grz:
// a flag-parsed CLI, signal-driven cancellation, and verbose/quiet output
// toggles, adapted to the push-driven Session/host.Pump API instead of
// grz's blocking zmodem.Session.ReceiveFiles.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/serialbridge/transferengine"
	"github.com/serialbridge/transferengine/host"
)

var (
	verbose  = flag.Bool("v", false, "verbose mode")
	quiet    = flag.Bool("q", false, "quiet mode")
	protocol = flag.String("proto", "zmodem", "protocol: xmodem, xmodem-crc, xmodem-1k, ymodem, zmodem")
	outPath  = flag.String("o", "", "output file path (defaults to the sender's declared name)")
	help     = flag.Bool("h", false, "show help")
)

const versionString = "xferrecv version 0.1.0"

func main() {
	flag.Parse()
	if *help {
		showUsage(0)
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

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var out *os.File
	sink := func(evt transferengine.Event) {
		switch evt.Type {
		case transferengine.EventStarted:
			name := evt.FileName
			if *outPath != "" {
				name = *outPath
			}
			if name == "" {
				name = "received.bin"
			}
			f, ferr := os.Create(name)
			if ferr != nil {
				logger.Error("create output file: %v", ferr)
				return
			}
			out = f
			if !*quiet {
				fmt.Fprintf(os.Stderr, "Receiving: %s (%d bytes)\n", name, evt.FileSize)
			}
		case transferengine.EventProgress:
			if *verbose {
				fmt.Fprintf(os.Stderr, "\r%s: %d bytes", evt.Progress.FileName, evt.Progress.BytesTransferred)
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

	session := transferengine.Create(proto, transferengine.DirectionReceive, host.NewWriterSink(os.Stdout, sink), transferengine.WithLogger(logger))
	session.StartReceive()

	if err := host.Pump(ctx, session, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if out == nil && len(session.GetReceivedData()) > 0 {
		name := *outPath
		if name == "" {
			name = "received.bin"
		}
		f, ferr := os.Create(name)
		if ferr != nil {
			fmt.Fprintf(os.Stderr, "Error creating output: %v\n", ferr)
			os.Exit(1)
		}
		out = f
	}

	if out != nil {
		defer out.Close()
		if _, err := out.Write(session.GetReceivedData()); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			os.Exit(1)
		}
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

func showUsage(exitcode int) {
	fmt.Fprintf(os.Stderr, `%s - receive a file over stdin/stdout

Usage: %s [options]

Options:
  -proto NAME   protocol: xmodem, xmodem-crc, xmodem-1k, ymodem, zmodem (default zmodem)
  -o PATH       output file path (defaults to the sender's declared name)
  -q            quiet mode
  -v            verbose mode
  -h            show this help message

`, versionString, os.Args[0])
	os.Exit(exitcode)
}
