package tokenring

import (
	"github.com/google/uuid"
)

// How many broadcast events at most ride along on a single message.
const kMaxPiggyback = 8

// Broker handles piggybacked broadcast events, transport, and encoding.
// Every outgoing message is stamped with a UUID trace ID for log
// correlation across processes.
type Broker struct {
	Transport                      // The transport implementation to use
	Codec          Codec           // The codec implementation to use
	BroadcastLimit uint            // The broadcast transmission limit
	Broadcasts     *BroadcastQueue // Broadcast queue

	// Trailing estimate of how many events fit in one encoded message
	// under the transport's size hint.
	bEstimate float64
}

// Receive and decode a message from the network.
func (b *Broker) Recv() (*Message, error) {

	// receive message
	coded, err := b.Transport.Recv()
	if err != nil {
		return nil, err
	}

	// decode message
	if err := b.Codec.Decode(coded); err != nil {
		return nil, err
	}

	// deliver message
	return coded.Message, nil
}

// Send a direct message to the given address without piggybacking
// broadcasts.
func (b *Broker) DirectTo(addr string, msg *Message) error {
	msg.Trace = uuid.NewString()
	coded := &CodedMessage{Message: msg}

	// encode the message without piggybacked broadcasts
	if err := b.Codec.Encode(coded); err != nil {
		return err
	}

	// feed the estimate of how many events fit in one message, counting
	// the envelope as one event
	if maxLen := b.Transport.MaxMessageLen(); maxLen > 0 && coded.Size > 0 {
		count := float64(len(msg.Events()) + 1)
		perEvent := float64(coded.Size) / count
		b.bEstimate = 0.75*b.bEstimate + 0.25*float64(maxLen)/perEvent
	}

	// send the message
	return b.Transport.SendTo(addr, coded)
}

// Send a message to the given address. Broadcasts are piggybacked onto
// the message in priority order, up to the number the size estimate says
// fits under the transport's message length, at least one and at most
// the piggyback limit.
func (b *Broker) SendTo(addr string, msg *Message) error {

	// attach broadcasts
	max := kMaxPiggyback
	if b.bEstimate > 0 {
		if m := int(b.bEstimate) - len(msg.Events()); m < 1 {
			max = 1
		} else if m < max {
			max = m
		}
	}
	for _, bcast := range b.Broadcasts.List() {
		if uint(bcast.Attempts) >= b.BroadcastLimit {
			continue
		}
		if max -= 1; max < 0 {
			break
		}
		msg.AddEvent(bcast.Event)
		bcast.Attempts += 1
	}

	// prune broadcasts that have reached the transmission limit
	b.Prune()

	return b.DirectTo(addr, msg)
}

// Queue a broadcast event for piggybacked dissemination.
func (b *Broker) Broadcast(class int, event BroadcastEvent) {
	b.Broadcasts.Push(&Broadcast{Class: class, Event: event})
}

// Prune broadcasts that have been transmitted enough times.
func (b *Broker) Prune() {
	limit := int(b.BroadcastLimit)
	b.Broadcasts.Prune(func(bcast *Broadcast) bool {
		return bcast.Attempts >= limit
	})
}

// Close the underlying transport.
func (b *Broker) Close() error {
	return b.Transport.Close()
}
