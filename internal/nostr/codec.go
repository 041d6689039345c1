package nostr

import (
	"encoding/json"
	"fmt"
)

// EventMessage is a decoded client->server ["EVENT", <event>] frame.
type EventMessage struct {
	Event Event
}

// ReqMessage is a decoded client->server ["REQ", <sub-id>, <filter>, ...] frame.
type ReqMessage struct {
	SubscriptionID string
	Filters        []Filter
}

// CloseMessage is a decoded client->server ["CLOSE", <sub-id>] frame.
type CloseMessage struct {
	SubscriptionID string
}

// UnknownTypeError marks a well-formed frame whose discriminator isn't
// one Decode recognizes, distinct from a structurally malformed one.
type UnknownTypeError struct {
	Kind string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown message type %q", e.Kind)
}

// Decode parses one client->server wire frame. It returns EventMessage,
// ReqMessage or CloseMessage, or a plain error describing the structural
// defect; the caller maps that to a MalformedMessage or
// UnknownMessageType AppError.
func Decode(raw []byte) (interface{}, error) {
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}
	if len(arr) == 0 {
		return nil, fmt.Errorf("malformed frame: empty array")
	}

	var kind string
	if err := json.Unmarshal(arr[0], &kind); err != nil {
		return nil, fmt.Errorf("malformed frame: discriminator must be a string")
	}

	switch kind {
	case "EVENT":
		if len(arr) < 2 {
			return nil, fmt.Errorf("malformed EVENT: missing event object")
		}
		var evt Event
		if err := json.Unmarshal(arr[1], &evt); err != nil {
			return nil, fmt.Errorf("malformed EVENT: %w", err)
		}
		return EventMessage{Event: evt}, nil

	case "REQ":
		if len(arr) < 3 {
			return nil, fmt.Errorf("malformed REQ: need a subscription id and at least one filter")
		}
		var subID string
		if err := json.Unmarshal(arr[1], &subID); err != nil {
			return nil, fmt.Errorf("malformed REQ: subscription id must be a string")
		}
		filters := make([]Filter, 0, len(arr)-2)
		for _, raw := range arr[2:] {
			var f Filter
			if err := json.Unmarshal(raw, &f); err != nil {
				return nil, fmt.Errorf("malformed REQ: %w", err)
			}
			filters = append(filters, f)
		}
		return ReqMessage{SubscriptionID: subID, Filters: filters}, nil

	case "CLOSE":
		if len(arr) < 2 {
			return nil, fmt.Errorf("malformed CLOSE: missing subscription id")
		}
		var subID string
		if err := json.Unmarshal(arr[1], &subID); err != nil {
			return nil, fmt.Errorf("malformed CLOSE: subscription id must be a string")
		}
		return CloseMessage{SubscriptionID: subID}, nil

	default:
		return nil, &UnknownTypeError{Kind: kind}
	}
}

// EncodeEvent builds a server->client ["EVENT", <sub-id>, <event>] frame.
func EncodeEvent(subID string, e Event) ([]byte, error) {
	return json.Marshal([]interface{}{"EVENT", subID, e})
}

// EncodeNotice builds a server->client ["NOTICE", <message>] frame.
func EncodeNotice(message string) ([]byte, error) {
	return json.Marshal([]interface{}{"NOTICE", message})
}

// EncodeEOSE builds a server->client ["EOSE", <sub-id>] frame.
func EncodeEOSE(subID string) ([]byte, error) {
	return json.Marshal([]interface{}{"EOSE", subID})
}
