package tokenring

import (
	"net"
)

// Conservative datagram size to stay under common MTUs.
const kUDPMessageLen = 1400

const kUDPBufferLen = 65536

// UDPTransport implements Transport over a single UDP socket. Datagram
// semantics match the protocol's delivery assumptions: unordered,
// arbitrarily delayed, occasionally dropped on congested links.
type UDPTransport struct {
	conn net.PacketConn
}

// Create a new UDPTransport listening on the given address.
func NewUDPTransport(bind string) (*UDPTransport, error) {
	conn, err := net.ListenPacket("udp", bind)
	if err != nil {
		return nil, err
	}
	return &UDPTransport{conn: conn}, nil
}

// Return the local address the transport is bound to.
func (t *UDPTransport) LocalAddr() string {
	return t.conn.LocalAddr().String()
}

// Return the maximum datagram length hint.
func (t *UDPTransport) MaxMessageLen() int {
	return kUDPMessageLen
}

// Send a message to the UDP address.
func (t *UDPTransport) SendTo(addr string, message *CodedMessage) error {
	udp, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return err
	}
	_, err = t.conn.WriteTo(message.Bytes, udp)
	return err
}

// Receive a message from the socket, blocking until a datagram arrives.
func (t *UDPTransport) Recv() (*CodedMessage, error) {
	buf := make([]byte, kUDPBufferLen)
	n, _, err := t.conn.ReadFrom(buf)
	if err != nil {
		return nil, err
	}
	return &CodedMessage{Bytes: buf[:n], Size: n}, nil
}

// Close the socket.
func (t *UDPTransport) Close() error {
	return t.conn.Close()
}
