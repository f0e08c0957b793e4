package tokenring

// A transport implements reliable-enough point-to-point delivery between
// process addresses. Delivery may be arbitrarily delayed and is not
// assumed ordered across distinct sender/receiver pairs; epoch and
// rotation counters at the protocol layer compensate for reordering and
// duplication.
type Transport interface {

	// A hint of the maximum byte length of a message for this transport.
	// This value is used to limit the number of piggybacked broadcasts
	// attached to messages. A negative number indicates unlimited message
	// length.
	MaxMessageLen() int

	// Send the given message to the address. The message is guaranteed to
	// already have been encoded by the codec.
	SendTo(addr string, message *CodedMessage) error

	// Receive a message from the network, blocking until the next message
	// arrives. If the transport is closed, an appropriate error should be
	// returned.
	Recv() (*CodedMessage, error)

	// Close the transport.
	Close() error
}
