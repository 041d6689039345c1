package nostr

// Subscription is a named disjunction of filters scoped to one session.
// It matches an event iff any of its filters matches.
type Subscription struct {
	ID      string
	Filters []Filter
}

// Matches reports whether the subscription matches e.
func (s Subscription) Matches(e Event) bool {
	return MatchesAny(s.Filters, e)
}
