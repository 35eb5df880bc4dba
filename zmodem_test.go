package transferengine

import "testing"

func TestZmodemSendReceiveRoundTrip(t *testing.T) {
	data := make([]byte, 3000) // spans multiple 1024-byte chunks
	for i := range data {
		data[i] = byte(i * 7)
	}

	var senderOut, receiverOut []byte
	var senderTerminal, receiverTerminal EventType
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

	sender := Create(ProtocolZmodem, DirectionSend, senderSink)
	receiver := Create(ProtocolZmodem, DirectionReceive, receiverSink)

	sender.StartSend("archive.tar", data)
	receiver.StartReceive()

	for round := 0; round < 2000 && !(senderDone && receiverDone); round++ {
		if len(senderOut) > 0 {
			b := senderOut
			senderOut = nil
			receiver.ProcessData(b)
		}
		if len(receiverOut) > 0 {
			b := receiverOut
			receiverOut = nil
			sender.ProcessData(b)
		}
	}

	if senderTerminal != EventCompleted {
		t.Fatalf("sender terminal event = %v, want EventCompleted", senderTerminal)
	}
	if receiverTerminal != EventCompleted {
		t.Fatalf("receiver terminal event = %v, want EventCompleted", receiverTerminal)
	}
	if startedName != "archive.tar" {
		t.Fatalf("started file name = %q, want archive.tar", startedName)
	}
	if startedSize != uint64(len(data)) {
		t.Fatalf("started file size = %d, want %d", startedSize, len(data))
	}
	if string(receiver.GetReceivedData()) != string(data) {
		t.Fatalf("received %d bytes, want %d bytes matching input", len(receiver.GetReceivedData()), len(data))
	}
}

func TestZmodemCancelEmitsCancelSequence(t *testing.T) {
	var out []byte
	var cancelledCount int
	sink := func(evt Event) {
		if evt.Type == EventSendData {
			out = append(out, evt.Bytes...)
		}
		if evt.Type == EventCancelled {
			cancelledCount++
		}
	}
	sender := Create(ProtocolZmodem, DirectionSend, sink)
	sender.StartSend("f.bin", []byte("hello"))
	out = nil // discard the initial ZRQINIT

	sender.Cancel()
	sender.Cancel()

	if cancelledCount != 1 {
		t.Fatalf("cancelledCount = %d, want 1", cancelledCount)
	}
	want := cancelSequence()
	if string(out) != string(want) {
		t.Fatalf("cancel wire bytes = %v, want %v", out, want)
	}
}
