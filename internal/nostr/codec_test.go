package nostr_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/nostrforge/relay/internal/nostr"
)

func TestDecodeEvent(t *testing.T) {
	raw := []byte(`["EVENT",{"id":"","pubkey":"","created_at":1,"kind":1,"tags":[],"content":"hi","sig":""}]`)
	msg, err := nostr.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	evt, ok := msg.(nostr.EventMessage)
	if !ok {
		t.Fatalf("Decode returned %T, want EventMessage", msg)
	}
	if evt.Event.Content != "hi" || evt.Event.Kind != 1 {
		t.Errorf("decoded event mismatch: %+v", evt.Event)
	}
}

func TestDecodeReq(t *testing.T) {
	raw := []byte(`["REQ","sub-1",{"kinds":[1]},{"authors":["abc"]}]`)
	msg, err := nostr.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	req, ok := msg.(nostr.ReqMessage)
	if !ok {
		t.Fatalf("Decode returned %T, want ReqMessage", msg)
	}
	if req.SubscriptionID != "sub-1" || len(req.Filters) != 2 {
		t.Errorf("decoded REQ mismatch: %+v", req)
	}
}

func TestDecodeClose(t *testing.T) {
	raw := []byte(`["CLOSE","sub-1"]`)
	msg, err := nostr.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	c, ok := msg.(nostr.CloseMessage)
	if !ok || c.SubscriptionID != "sub-1" {
		t.Errorf("decoded CLOSE mismatch: %+v", msg)
	}
}

func TestDecodeMalformedFrame(t *testing.T) {
	cases := [][]byte{
		[]byte(`not json`),
		[]byte(`[]`),
		[]byte(`[1,2]`),
		[]byte(`["REQ","sub-1"]`),
		[]byte(`["CLOSE"]`),
	}
	for _, raw := range cases {
		if _, err := nostr.Decode(raw); err == nil {
			t.Errorf("Decode(%s) expected error, got nil", raw)
		}
	}
}

func TestDecodeUnknownTypeIsDistinguished(t *testing.T) {
	_, err := nostr.Decode([]byte(`["AUTH","token"]`))
	if err == nil {
		t.Fatalf("expected error for unrecognized discriminator")
	}
	var unknown *nostr.UnknownTypeError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected *UnknownTypeError, got %T: %v", err, err)
	}
	if unknown.Kind != "AUTH" {
		t.Errorf("unknown.Kind = %q, want AUTH", unknown.Kind)
	}
}

func TestEncodeRoundTrips(t *testing.T) {
	eventFrame, err := nostr.EncodeEvent("sub-1", nostr.Event{ID: "abc", Kind: 1})
	if err != nil {
		t.Fatalf("EncodeEvent: %v", err)
	}
	var decoded []json.RawMessage
	if err := json.Unmarshal(eventFrame, &decoded); err != nil {
		t.Fatalf("unmarshal EVENT frame: %v", err)
	}
	var discriminator string
	json.Unmarshal(decoded[0], &discriminator)
	if discriminator != "EVENT" || len(decoded) != 3 {
		t.Errorf("EVENT frame shape wrong: %s", eventFrame)
	}

	noticeFrame, err := nostr.EncodeNotice("boom")
	if err != nil {
		t.Fatalf("EncodeNotice: %v", err)
	}
	if err := json.Unmarshal(noticeFrame, &decoded); err != nil {
		t.Fatalf("unmarshal NOTICE frame: %v", err)
	}
	json.Unmarshal(decoded[0], &discriminator)
	if discriminator != "NOTICE" || len(decoded) != 2 {
		t.Errorf("NOTICE frame shape wrong: %s", noticeFrame)
	}

	eoseFrame, err := nostr.EncodeEOSE("sub-1")
	if err != nil {
		t.Fatalf("EncodeEOSE: %v", err)
	}
	if err := json.Unmarshal(eoseFrame, &decoded); err != nil {
		t.Fatalf("unmarshal EOSE frame: %v", err)
	}
	json.Unmarshal(decoded[0], &discriminator)
	if discriminator != "EOSE" || len(decoded) != 2 {
		t.Errorf("EOSE frame shape wrong: %s", eoseFrame)
	}
}
