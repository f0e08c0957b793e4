package tokenring

import (
	"reflect"
	"testing"
	"time"
)

func testCodec(t *testing.T, codec Codec) {
	msg := new(Message)

	test := func() {
		encode := &CodedMessage{Message: msg}
		if err := codec.Encode(encode); err != nil {
			t.Fatal(err)
		}

		decode := &CodedMessage{Bytes: encode.Bytes}
		if err := codec.Decode(decode); err != nil {
			t.Fatal(err)
		} else if events := decode.Message.Events(); len(events) != len(msg.Events()) {
			t.Fatalf("Expected %v events in message got %v", len(msg.Events()), len(events))
		}

		events := decode.Message.Events()
		fixtures := msg.Events()

		for i, event := range events {
			t.Log(event)
			t.Log(fixtures[i])
			if !reflect.DeepEqual(event, fixtures[i]) {
				t.Fatalf("Expected %v got %v", fixtures, events)
			}
		}

		if encode.Size != len(encode.Bytes) {
			t.Fatalf("Size does not match byte length")
		}
	}

	// no events
	test()

	// heartbeat event, monotonic clock stripped for the round trip
	msg.AddEvent(HeartbeatEvent{From: 12, Epoch: 9, Rotation: 7, Time: time.Now().Round(0)})
	test()

	// suspect event
	msg.AddEvent(SuspectEvent{From: 13, Id: 14, Epoch: 9})
	test()

	// election event
	msg.AddEvent(ElectionEvent{From: 13, Candidate: 12, Epoch: 10, View: Seq(3)})
	test()

	// membership event
	msg.AddEvent(MembershipEvent{
		From: 12, View: Seq(3),
		Members: []Member{{Id: 12, Addr: "12"}, {Id: 13, Addr: "13"}},
	})
	test()

	// token event
	msg.AddEvent(TokenEvent{From: 12, Token: Token{Epoch: 9, Rotation: Seq(41)}})
	test()
}

func TestGobCodec(t *testing.T) {
	testCodec(t, &GobCodec{})
}

func TestLZ4Codec(t *testing.T) {
	testCodec(t, &LZ4Codec{Codec: &GobCodec{}})
}

func TestFlateCodec(t *testing.T) {
	testCodec(t, &FlateCodec{Codec: &GobCodec{}})
}
