package storage_test

import (
	"path/filepath"
	"testing"

	"github.com/nostrforge/relay/internal/nostr"
	"github.com/nostrforge/relay/internal/storage"
)

func openTestStore(t *testing.T) *storage.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relay.db")
	s, err := storage.Open(path, false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func fakeID(b byte) string {
	id := make([]byte, 32)
	for i := range id {
		id[i] = b
	}
	return hexEncode(id)
}

func hexEncode(b []byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = digits[c>>4]
		out[i*2+1] = digits[c&0x0f]
	}
	return string(out)
}

func TestPutDeduplicatesByID(t *testing.T) {
	s := openTestStore(t)
	e := nostr.Event{ID: fakeID(1), Kind: 1, CreatedAt: 100}

	result, err := s.Put(e)
	if err != nil {
		t.Fatalf("first Put: %v", err)
	}
	if result != storage.Added {
		t.Errorf("first Put result = %v, want Added", result)
	}

	result, err = s.Put(e)
	if err != nil {
		t.Fatalf("second Put: %v", err)
	}
	if result != storage.Duplicate {
		t.Errorf("second Put result = %v, want Duplicate", result)
	}
}

func TestPutRejectsMalformedID(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Put(nostr.Event{ID: "not-hex", Kind: 1})
	if err == nil {
		t.Fatalf("expected error for malformed id")
	}
}

func TestQueryReturnsNewestFirst(t *testing.T) {
	s := openTestStore(t)
	events := []nostr.Event{
		{ID: fakeID(1), Kind: 1, CreatedAt: 100},
		{ID: fakeID(2), Kind: 1, CreatedAt: 300},
		{ID: fakeID(3), Kind: 1, CreatedAt: 200},
	}
	for _, e := range events {
		if _, err := s.Put(e); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	got, err := s.Query([]nostr.Filter{{Kinds: []int{1}}})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d events, want 3", len(got))
	}
	wantOrder := []int64{300, 200, 100}
	for i, want := range wantOrder {
		if got[i].CreatedAt != want {
			t.Errorf("position %d: CreatedAt = %d, want %d", i, got[i].CreatedAt, want)
		}
	}
}

func TestQueryHonorsPerFilterLimit(t *testing.T) {
	s := openTestStore(t)
	for i := byte(1); i <= 5; i++ {
		e := nostr.Event{ID: fakeID(i), Kind: 1, CreatedAt: int64(i) * 100}
		if _, err := s.Put(e); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	limit := 2
	got, err := s.Query([]nostr.Filter{{Kinds: []int{1}, Limit: &limit}})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].CreatedAt != 500 || got[1].CreatedAt != 400 {
		t.Errorf("unexpected results: %+v", got)
	}
}

func TestQueryDedupsEventsMatchingMultipleFilters(t *testing.T) {
	s := openTestStore(t)
	e := nostr.Event{ID: fakeID(9), Kind: 1, CreatedAt: 100}
	if _, err := s.Put(e); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Query([]nostr.Filter{{Kinds: []int{1}}, {IDs: []string{e.ID}}})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d events, want 1 (deduplicated)", len(got))
	}
}

func TestIterAllVisitsEveryStoredEvent(t *testing.T) {
	s := openTestStore(t)
	want := map[string]bool{fakeID(1): false, fakeID(2): false}
	for id := range want {
		if _, err := s.Put(nostr.Event{ID: id, Kind: 1}); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	seen := map[string]bool{}
	err := s.IterAll(func(e nostr.Event) error {
		seen[e.ID] = true
		return nil
	})
	if err != nil {
		t.Fatalf("IterAll: %v", err)
	}
	for id := range want {
		if !seen[id] {
			t.Errorf("IterAll did not visit %s", id)
		}
	}
}
