package nostr

import (
	"encoding/json"
	"strings"
)

// Filter is a conjunctive predicate over events. Tags maps a
// single-letter tag name ("e", "p", ...) to the set of
// acceptable values for that tag.
type Filter struct {
	IDs     []string            `json:"ids,omitempty"`
	Authors []string            `json:"authors,omitempty"`
	Kinds   []int               `json:"kinds,omitempty"`
	Since   *int64              `json:"since,omitempty"`
	Until   *int64              `json:"until,omitempty"`
	Limit   *int                `json:"limit,omitempty"`
	Tags    map[string][]string `json:"-"`
}

// filterAlias exists so UnmarshalJSON can decode the fixed fields with
// encoding/json's default behavior and then separately scan for "#<X>"
// keys, which do not fit a static struct tag.
type filterAlias Filter

// UnmarshalJSON decodes the fixed clauses normally, then folds every
// "#<letter>" key present in the object into f.Tags.
func (f *Filter) UnmarshalJSON(data []byte) error {
	var alias filterAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	*f = Filter(alias)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key, val := range raw {
		if len(key) != 2 || key[0] != '#' {
			continue
		}
		var values []string
		if err := json.Unmarshal(val, &values); err != nil {
			continue
		}
		if f.Tags == nil {
			f.Tags = make(map[string][]string)
		}
		f.Tags[key[1:]] = values
	}
	return nil
}

// hasPrefix reports whether any entry in candidates is a hex prefix of s.
func hasPrefix(candidates []string, s string) bool {
	for _, c := range candidates {
		if c != "" && strings.HasPrefix(s, c) {
			return true
		}
	}
	return false
}

func intIn(set []int, v int) bool {
	for _, k := range set {
		if k == v {
			return true
		}
	}
	return false
}

// Matches reports whether every declared clause of f is satisfied by e.
// A filter with no declared clauses matches every event.
func Matches(f Filter, e Event) bool {
	if len(f.IDs) > 0 && !hasPrefix(f.IDs, e.ID) {
		return false
	}
	if len(f.Authors) > 0 && !hasPrefix(f.Authors, e.PubKey) {
		return false
	}
	if len(f.Kinds) > 0 && !intIn(f.Kinds, e.Kind) {
		return false
	}
	if f.Since != nil && e.CreatedAt < *f.Since {
		return false
	}
	if f.Until != nil && e.CreatedAt > *f.Until {
		return false
	}
	for name, values := range f.Tags {
		if len(values) == 0 {
			continue
		}
		if !eventHasTagValue(e, name, values) {
			return false
		}
	}
	return true
}

func eventHasTagValue(e Event, name string, values []string) bool {
	for _, tag := range e.Tags {
		if tag.Name() != name {
			continue
		}
		v := tag.Value()
		for _, want := range values {
			if v == want {
				return true
			}
		}
	}
	return false
}

// MatchesAny reports whether any filter in the slice matches e.
func MatchesAny(filters []Filter, e Event) bool {
	for _, f := range filters {
		if Matches(f, e) {
			return true
		}
	}
	return false
}
