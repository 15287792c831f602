package domain

import (
	"encoding/json"
	"testing"
)

func TestChangePayloadDefinedAndRawCloning(t *testing.T) {
	undefined := UndefinedChangePayload()
	if undefined.Defined() || !undefined.IsEmpty() || undefined.Raw() != nil {
		t.Fatalf("undefined payload misbehaves: %+v", undefined)
	}

	raw := json.RawMessage(`{"id":"t-1"}`)
	payload := NewChangePayload(raw)
	if !payload.Defined() || payload.IsEmpty() {
		t.Fatal("payload should be defined and non-empty")
	}
	raw[2] = 'x'
	if string(payload.Raw()) != `{"id":"t-1"}` {
		t.Fatalf("payload shared caller bytes: %s", payload.Raw())
	}

	clone := payload.Raw()
	clone[2] = 'y'
	if string(payload.Raw()) != `{"id":"t-1"}` {
		t.Fatalf("Raw returned shared bytes: %s", payload.Raw())
	}
}

func TestChangePayloadFromValue(t *testing.T) {
	payload, err := NewChangePayloadFromValue(Ticket{TicketID: "T-abc-1", Status: TicketStatusGenerated})
	if err != nil {
		t.Fatalf("from value: %v", err)
	}
	var decoded Ticket
	if err := json.Unmarshal(payload.Raw(), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.TicketID != "T-abc-1" || decoded.Status != TicketStatusGenerated {
		t.Fatalf("unexpected decode: %+v", decoded)
	}

	if _, err := NewChangePayloadFromValue(make(chan int)); err == nil {
		t.Fatal("expected marshal error for channel value")
	}
}
