package relay

import (
	"strconv"

	apperrors "github.com/nostrforge/relay/internal/errors"
	"github.com/nostrforge/relay/internal/metrics"
	"github.com/nostrforge/relay/internal/nostr"
	"github.com/nostrforge/relay/internal/storage"
)

// ingest is the EVENT path: validate, then persist-and-fan-out via the
// registry. It runs inline on the receive loop (see handleEvent), so the
// session's next frame is not read until it returns.
func (s *Session) ingest(event nostr.Event) {
	switch v := nostr.Verify(event); v {
	case nostr.VerifyInvalidID:
		metrics.InvalidEvents.WithLabelValues("invalid_id").Inc()
		s.sendNotice(apperrors.InvalidID().Message)
		return
	case nostr.VerifyInvalidSignature:
		metrics.InvalidEvents.WithLabelValues("invalid_signature").Inc()
		s.sendNotice(apperrors.InvalidSignature().Message)
		return
	}

	result, err := s.reg.Publish(event)
	if err != nil {
		s.sendNotice(apperrors.StoreError("put", err).Message)
		return
	}
	if result != storage.Added {
		return
	}

	metrics.EventsProcessed.WithLabelValues(strconv.Itoa(event.Kind)).Inc()
}
