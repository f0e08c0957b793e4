package tokenring

import (
	"testing"
)

func TestMessageAddEvent(t *testing.T) {
	msg := &Message{From: 1, To: 2}

	msg.AddEvent(
		HeartbeatEvent{From: 1, Epoch: 3},
		SuspectEvent{From: 1, Id: 4, Epoch: 3},
		ElectionEvent{From: 1, Candidate: 1, Epoch: 4},
		MembershipEvent{From: 1, View: 2},
		TokenEvent{From: 1, Token: Token{Epoch: 3, Rotation: 9}},
	)

	if msg.Token == nil || msg.Token.Token.Epoch != 3 {
		t.Fatalf("expected token event got %v", msg.Token)
	}
	if msg.Heartbeat == nil || msg.Heartbeat.Epoch != 3 {
		t.Fatalf("expected heartbeat event got %v", msg.Heartbeat)
	}
	if len(msg.Suspects) != 1 || len(msg.Elections) != 1 || len(msg.Memberships) != 1 {
		t.Fatalf("expected one broadcast of each kind got %v", msg)
	}

	// singleton slots replace, broadcast slots accumulate
	msg.AddEvent(
		TokenEvent{From: 2, Token: Token{Epoch: 4}},
		SuspectEvent{From: 1, Id: 5, Epoch: 3},
	)
	if msg.Token.Token.Epoch != 4 {
		t.Fatalf("expected token to be replaced got %v", msg.Token)
	}
	if len(msg.Suspects) != 2 {
		t.Fatalf("expected suspects to accumulate got %v", msg.Suspects)
	}
}

func TestMessageAddEventUnknownType(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on unknown event type")
		}
	}()
	msg := &Message{}
	msg.AddEvent(42)
}

func TestMessageEventOrder(t *testing.T) {
	msg := &Message{From: 1, To: 2}
	msg.AddEvent(
		TokenEvent{From: 1, Token: Token{Epoch: 3}},
		SuspectEvent{From: 1, Id: 4, Epoch: 3},
		HeartbeatEvent{From: 1, Epoch: 3},
		ElectionEvent{From: 1, Candidate: 1, Epoch: 4},
		MembershipEvent{From: 1, View: 2},
	)

	events := msg.Events()
	if len(events) != 5 {
		t.Fatalf("expected 5 events got %v", len(events))
	}
	// memberships first, token last
	if _, ok := events[0].(MembershipEvent); !ok {
		t.Fatalf("expected membership first got %T", events[0])
	}
	if _, ok := events[1].(HeartbeatEvent); !ok {
		t.Fatalf("expected heartbeat second got %T", events[1])
	}
	if _, ok := events[4].(TokenEvent); !ok {
		t.Fatalf("expected token last got %T", events[4])
	}
}

func TestBroadcastTags(t *testing.T) {
	suspect := SuspectEvent{From: 1, Id: 4, Epoch: 3}
	if suspect.Tag() != (BroadcastTag{4, bcastSuspect}) {
		t.Fatalf("unexpected suspect tag %v", suspect.Tag())
	}
	if suspect.Source() != 1 || suspect.Rank() != 3 {
		t.Fatalf("unexpected suspect source/rank")
	}

	election := ElectionEvent{From: 2, Candidate: 1, Epoch: 4}
	if election.Tag() != (BroadcastTag{1, bcastElection}) {
		t.Fatalf("unexpected election tag %v", election.Tag())
	}
	if election.Source() != 2 || election.Rank() != 4 {
		t.Fatalf("unexpected election source/rank")
	}

	membership := MembershipEvent{From: 5, View: 7}
	if membership.Tag() != (BroadcastTag{5, bcastMembership}) {
		t.Fatalf("unexpected membership tag %v", membership.Tag())
	}
	if membership.Rank() != 7 {
		t.Fatalf("unexpected membership rank %v", membership.Rank())
	}
}
