package tokenring

import (
	"testing"
	"time"
)

func testBrokerPair(router *SimRouter) (a, b *Broker) {
	// a generous size hint keeps the fit estimate from limiting
	// piggybacking in these tests
	router.MaxMessageLen = 65536
	a = &Broker{
		Transport:      router.NewTransport("a"),
		Codec:          &LZ4Codec{Codec: &GobCodec{}},
		BroadcastLimit: 2,
		Broadcasts:     NewBroadcastQueue(),
	}
	b = &Broker{
		Transport:      router.NewTransport("b"),
		Codec:          &LZ4Codec{Codec: &GobCodec{}},
		BroadcastLimit: 2,
		Broadcasts:     NewBroadcastQueue(),
	}
	return a, b
}

func brokerRecv(t *testing.T, b *Broker) *Message {
	type result struct {
		msg *Message
		err error
	}
	ch := make(chan result, 1)
	go func() {
		msg, err := b.Recv()
		ch <- result{msg, err}
	}()
	select {
	case r := <-ch:
		if r.err != nil {
			t.Fatal(r.err)
		}
		return r.msg
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for message")
		return nil
	}
}

func TestBrokerDirect(t *testing.T) {
	router := NewSimRouter()
	a, b := testBrokerPair(router)

	sent := &Message{From: 1, To: 2}
	sent.AddEvent(HeartbeatEvent{From: 1, Epoch: 3})
	if err := a.DirectTo("b", sent); err != nil {
		t.Fatal(err)
	}

	msg := brokerRecv(t, b)
	if msg.From != 1 || msg.To != 2 {
		t.Fatalf("unexpected message %v", msg)
	}
	if msg.Heartbeat == nil || msg.Heartbeat.Epoch != 3 {
		t.Fatalf("expected heartbeat got %v", msg)
	}
	if msg.Trace == "" {
		t.Fatalf("expected trace ID to be stamped")
	}
}

func TestBrokerPiggyback(t *testing.T) {
	router := NewSimRouter()
	a, b := testBrokerPair(router)

	a.Broadcast(2, SuspectEvent{From: 1, Id: 4, Epoch: 0})
	a.Broadcast(1, ElectionEvent{From: 1, Candidate: 1, Epoch: 1})

	// first send carries both broadcasts
	if err := a.SendTo("b", &Message{From: 1, To: 2}); err != nil {
		t.Fatal(err)
	}
	msg := brokerRecv(t, b)
	if len(msg.Suspects) != 1 || len(msg.Elections) != 1 {
		t.Fatalf("expected piggybacked broadcasts got %v", msg)
	}

	// broadcasts are pruned after the transmission limit
	if err := a.SendTo("b", &Message{From: 1, To: 2}); err != nil {
		t.Fatal(err)
	}
	msg = brokerRecv(t, b)
	if len(msg.Suspects) != 1 || len(msg.Elections) != 1 {
		t.Fatalf("expected second transmission got %v", msg)
	}
	if a.Broadcasts.Len() != 0 {
		t.Fatalf("expected queue drained after limit got %v", a.Broadcasts.Len())
	}

	if err := a.SendTo("b", &Message{From: 1, To: 2}); err != nil {
		t.Fatal(err)
	}
	msg = brokerRecv(t, b)
	if len(msg.Suspects) != 0 || len(msg.Elections) != 0 {
		t.Fatalf("expected no piggybacked broadcasts got %v", msg)
	}
}

func TestBrokerPiggybackLimit(t *testing.T) {
	router := NewSimRouter()
	a, b := testBrokerPair(router)

	for id := uint64(1); id <= kMaxPiggyback+2; id += 1 {
		a.Broadcast(2, SuspectEvent{From: 1, Id: id, Epoch: 0})
	}

	if err := a.SendTo("b", &Message{From: 1, To: 2}); err != nil {
		t.Fatal(err)
	}
	msg := brokerRecv(t, b)
	if len(msg.Suspects) != kMaxPiggyback {
		t.Fatalf("expected %v piggybacked events got %v",
			kMaxPiggyback, len(msg.Suspects))
	}
}
