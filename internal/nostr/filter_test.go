package nostr_test

import (
	"encoding/json"
	"testing"

	"github.com/nostrforge/relay/internal/nostr"
)

func TestFilterMatchesKindsAndAuthorPrefix(t *testing.T) {
	e := nostr.Event{ID: "abcdef01", PubKey: "f00dcafe1234", Kind: 1, CreatedAt: 100}

	cases := []struct {
		name string
		f    nostr.Filter
		want bool
	}{
		{"empty filter matches everything", nostr.Filter{}, true},
		{"kind matches", nostr.Filter{Kinds: []int{1}}, true},
		{"kind mismatch", nostr.Filter{Kinds: []int{2}}, false},
		{"author prefix matches", nostr.Filter{Authors: []string{"f00dca"}}, true},
		{"author prefix mismatch", nostr.Filter{Authors: []string{"deadbe"}}, false},
		{"id prefix matches", nostr.Filter{IDs: []string{"abcd"}}, true},
	}
	for _, tc := range cases {
		if got := nostr.Matches(tc.f, e); got != tc.want {
			t.Errorf("%s: Matches() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestFilterSinceUntilBounds(t *testing.T) {
	e := nostr.Event{CreatedAt: 500}
	since := int64(400)
	until := int64(600)

	if !nostr.Matches(nostr.Filter{Since: &since, Until: &until}, e) {
		t.Errorf("event within [since,until] should match")
	}

	tooOld := int64(501)
	if nostr.Matches(nostr.Filter{Since: &tooOld}, e) {
		t.Errorf("event older than since should not match")
	}

	tooNew := int64(499)
	if nostr.Matches(nostr.Filter{Until: &tooNew}, e) {
		t.Errorf("event newer than until should not match")
	}
}

func TestFilterTagMatching(t *testing.T) {
	e := nostr.Event{
		Tags: []nostr.Tag{{"e", "root-id"}, {"p", "some-pubkey"}},
	}
	f := nostr.Filter{Tags: map[string][]string{"e": {"root-id", "other-id"}}}
	if !nostr.Matches(f, e) {
		t.Errorf("expected #e filter to match tag value present on event")
	}

	f2 := nostr.Filter{Tags: map[string][]string{"e": {"unrelated-id"}}}
	if nostr.Matches(f2, e) {
		t.Errorf("expected #e filter to reject event without matching tag value")
	}
}

func TestFilterUnmarshalJSONFoldsHashTags(t *testing.T) {
	raw := []byte(`{"kinds":[1],"#e":["abc","def"],"#p":["xyz"]}`)
	var f nostr.Filter
	if err := json.Unmarshal(raw, &f); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(f.Kinds) != 1 || f.Kinds[0] != 1 {
		t.Errorf("kinds not decoded: %+v", f.Kinds)
	}
	if got := f.Tags["e"]; len(got) != 2 || got[0] != "abc" || got[1] != "def" {
		t.Errorf("#e tag not folded correctly: %+v", f.Tags)
	}
	if got := f.Tags["p"]; len(got) != 1 || got[0] != "xyz" {
		t.Errorf("#p tag not folded correctly: %+v", f.Tags)
	}
}

func TestMatchesAnyEmptySliceMatchesNothing(t *testing.T) {
	if nostr.MatchesAny(nil, nostr.Event{}) {
		t.Errorf("MatchesAny with no filters should not match")
	}
}

func TestSubscriptionMatchesIsDisjunctive(t *testing.T) {
	sub := nostr.Subscription{
		ID: "sub1",
		Filters: []nostr.Filter{
			{Kinds: []int{9999}},
			{Kinds: []int{1}},
		},
	}
	if !sub.Matches(nostr.Event{Kind: 1}) {
		t.Errorf("subscription should match if any filter matches")
	}
	if sub.Matches(nostr.Event{Kind: 2}) {
		t.Errorf("subscription should not match if no filter matches")
	}
}
