package transferengine

import "testing"

func newCollectingSink(out *[]byte) Sink {
	return func(evt Event) {
		if evt.Type == EventSendData {
			*out = append(*out, evt.Bytes...)
		}
	}
}

func TestXmodemSendReceiveRoundTrip(t *testing.T) {
	data := make([]byte, 256) // two full 128-byte blocks, no padding ambiguity
	for i := range data {
		data[i] = byte(i)
	}

	var senderOut, receiverOut []byte
	var senderTerminal, receiverTerminal EventType
	senderDone, receiverDone := false, false

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
		if evt.Type == EventCompleted || evt.Type == EventFailed || evt.Type == EventCancelled {
			receiverTerminal = evt.Type
			receiverDone = true
		}
	}

	sender := Create(ProtocolXmodemCRC, DirectionSend, senderSink)
	receiver := Create(ProtocolXmodemCRC, DirectionReceive, receiverSink)

	sender.StartSend("", data)
	receiver.StartReceive()

	for round := 0; round < 200 && !(senderDone && receiverDone); round++ {
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
	if string(receiver.GetReceivedData()) != string(data) {
		t.Fatalf("received %d bytes, want %d bytes matching input", len(receiver.GetReceivedData()), len(data))
	}
}

func TestXmodemDuplicateBlockTolerance(t *testing.T) {
	var out []byte
	sink := newCollectingSink(&out)
	receiver := Create(ProtocolXmodemCRC, DirectionReceive, sink)
	receiver.StartReceive()

	payload := make([]byte, 128)
	copy(payload, []byte("first block"))
	block1 := buildBlock(1, payload, modeCRC)

	receiver.ProcessData(block1)
	if got := len(receiver.GetReceivedData()); got != 128 {
		t.Fatalf("after first block, buffer len = %d, want 128", got)
	}

	// Resend the same block (simulating a lost ACK).
	receiver.ProcessData(block1)
	if got := len(receiver.GetReceivedData()); got != 128 {
		t.Fatalf("after duplicate block, buffer len = %d, want 128 (no growth)", got)
	}

	payload2 := make([]byte, 128)
	copy(payload2, []byte("second block"))
	block2 := buildBlock(2, payload2, modeCRC)
	receiver.ProcessData(block2)
	if got := len(receiver.GetReceivedData()); got != 256 {
		t.Fatalf("after next block, buffer len = %d, want 256", got)
	}
}

func TestXmodemCancelIsIdempotent(t *testing.T) {
	var cancelledCount int
	sink := func(evt Event) {
		if evt.Type == EventCancelled {
			cancelledCount++
		}
	}
	receiver := Create(ProtocolXmodemCRC, DirectionReceive, sink)
	receiver.StartReceive()

	receiver.Cancel()
	receiver.Cancel()

	if cancelledCount != 1 {
		t.Fatalf("cancelledCount = %d, want 1", cancelledCount)
	}
	if receiver.IsActive() {
		t.Fatal("session should not be active after cancel")
	}
}

func TestXmodemProgressMonotonic(t *testing.T) {
	var last uint64
	sink := func(evt Event) {
		if evt.Type == EventProgress {
			if evt.Progress.BytesTransferred < last {
				t.Fatalf("bytes_transferred decreased: %d -> %d", last, evt.Progress.BytesTransferred)
			}
			last = evt.Progress.BytesTransferred
		}
	}
	receiver := Create(ProtocolXmodemCRC, DirectionReceive, sink)
	receiver.StartReceive()

	for i := byte(1); i <= 3; i++ {
		payload := make([]byte, 128)
		payload[0] = i
		receiver.ProcessData(buildBlock(i, payload, modeCRC))
	}
	if last != 384 {
		t.Fatalf("final bytes_transferred = %d, want 384", last)
	}
}
