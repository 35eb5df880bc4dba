package transferengine

import "testing"

func TestYmodemSendReceiveRoundTrip(t *testing.T) {
	data := make([]byte, 1024) // one full 1K-CRC block, no padding ambiguity
	for i := range data {
		data[i] = byte(i % 251)
	}

	var senderOut, receiverOut []byte
	senderTerminal, receiverTerminal := EventProgress, EventProgress // sentinel != any terminal type used below
	senderDone, receiverDone := false, false
	var startedName string
	var startedSize uint64

	senderSink := func(evt Event) {
		if evt.Type == EventSendData {
			senderOut = append(senderOut, evt.Bytes...)
		}
		if evt.Type == EventCompleted || evt.Type == EventFailed || evt.Type == EventCancelled {
			senderTerminal = evt.Type
			senderDone = true
		}
	}
	receiverSink := func(evt Event) {
		if evt.Type == EventSendData {
			receiverOut = append(receiverOut, evt.Bytes...)
		}
		if evt.Type == EventStarted {
			startedName = evt.FileName
			startedSize = evt.FileSize
		}
		if evt.Type == EventCompleted || evt.Type == EventFailed || evt.Type == EventCancelled {
			receiverTerminal = evt.Type
			receiverDone = true
		}
	}

	sender := Create(ProtocolYmodem, DirectionSend, senderSink)
	receiver := Create(ProtocolYmodem, DirectionReceive, receiverSink)

	sender.StartSend("payload.bin", data)
	receiver.StartReceive()

	for round := 0; round < 500 && !(senderDone && receiverDone); round++ {
		if len(receiverOut) > 0 {
			b := receiverOut
			receiverOut = nil
			sender.ProcessData(b)
		}
		if len(senderOut) > 0 {
			b := senderOut
			senderOut = nil
			receiver.ProcessData(b)
		}
	}

	if senderTerminal != EventCompleted {
		t.Fatalf("sender terminal event = %v, want EventCompleted", senderTerminal)
	}
	if receiverTerminal != EventCompleted {
		t.Fatalf("receiver terminal event = %v, want EventCompleted", receiverTerminal)
	}
	if startedName != "payload.bin" {
		t.Fatalf("started file name = %q, want payload.bin", startedName)
	}
	if startedSize != uint64(len(data)) {
		t.Fatalf("started file size = %d, want %d", startedSize, len(data))
	}
	if string(receiver.GetReceivedData()) != string(data) {
		t.Fatalf("received %d bytes, want %d bytes matching input", len(receiver.GetReceivedData()), len(data))
	}
}

func TestYmodemMetaBlockParsesTerminator(t *testing.T) {
	block := buildYmodemTerminatorBlock()
	payload := block[3 : 3+128]
	_, _, ok := parseYmodemMetaPayload(payload)
	if ok {
		t.Fatal("terminator block should not parse as a filename")
	}
}

func TestYmodemMetaBlockRoundTrip(t *testing.T) {
	block := buildYmodemMetaBlock("notes.txt", 4096)
	payload := block[3 : 3+1024]
	name, size, ok := parseYmodemMetaPayload(payload)
	if !ok {
		t.Fatal("expected a real metadata block to parse")
	}
	if name != "notes.txt" || size != 4096 {
		t.Fatalf("parsed (%q, %d), want (notes.txt, 4096)", name, size)
	}
}
