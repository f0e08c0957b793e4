package tokenring

import (
	"fmt"
	"strings"
)

// A message encapsulates the token, heartbeats, and piggybacked broadcast
// events sent between processes. The event types are listed individually
// to simplify implementation. Codec implementations are assumed to omit
// empty fields for efficiency.
type Message struct {
	From  uint64 // The process sending this message
	To    uint64 // The process to which this message is intended
	View  Seq    // Ring view version at the sender
	Trace string // Per-message trace ID stamped by the broker

	Token       *TokenEvent       // Token hand-off, at most one
	Heartbeat   *HeartbeatEvent   // Liveness signal, at most one
	Suspects    []SuspectEvent    // Suspect broadcasts
	Elections   []ElectionEvent   // Election broadcasts
	Memberships []MembershipEvent // View resynchronization broadcasts
}

// Add events to the message. Token and heartbeat events replace any
// previous occupant of their slot; broadcast events accumulate.
func (m *Message) AddEvent(events ...interface{}) {
	for _, event := range events {
		switch event := event.(type) {
		case TokenEvent:
			m.Token = &event

		case *TokenEvent:
			m.Token = event

		case HeartbeatEvent:
			m.Heartbeat = &event

		case *HeartbeatEvent:
			m.Heartbeat = event

		case SuspectEvent:
			m.Suspects = append(m.Suspects, event)

		case ElectionEvent:
			m.Elections = append(m.Elections, event)

		case MembershipEvent:
			m.Memberships = append(m.Memberships, event)

		default:
			panic(fmt.Sprintf("unknown event type %T", event))
		}
	}
}

// List the events attached to the message in processing order: membership
// updates first so later events are evaluated against the freshest view,
// the token last so forwarding happens against updated routing.
func (m *Message) Events() []interface{} {
	events := []interface{}{}
	for _, event := range m.Memberships {
		events = append(events, event)
	}
	if m.Heartbeat != nil {
		events = append(events, *m.Heartbeat)
	}
	for _, event := range m.Suspects {
		events = append(events, event)
	}
	for _, event := range m.Elections {
		events = append(events, event)
	}
	if m.Token != nil {
		events = append(events, *m.Token)
	}
	return events
}

// Default format output.
func (m *Message) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Message{ From: %v, To: %v, View: %v", m.From, m.To, m.View)
	for _, event := range m.Events() {
		fmt.Fprintf(&b, ", %v", event)
	}
	b.WriteString(" }")
	return b.String()
}

// A coded message encapsulates a message for encoding and decoding.
type CodedMessage struct {
	Message *Message // The contained message, which may be nil
	Bytes   []byte   // The byte-encoded message
	Size    int      // The size of the encoded message
}
