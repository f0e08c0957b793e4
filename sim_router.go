package tokenring

import (
	"math/rand"
	"time"
)

const kNetDelay = 5 * time.Millisecond
const kNetStdDev = 1 * time.Millisecond
const kMaxMessageLen = 1024

// SimRouter routes messages between SimTransports for the network
// simulator. Packets are delayed by a normally distributed interval to
// model a real network and are silently dropped when the destination is
// unknown or closed, as UDP would.
type SimRouter struct {
	Routes        map[string]*SimTransport
	Rand          *rand.Rand
	NetDelay      time.Duration
	NetStdDev     time.Duration
	MaxMessageLen int
}

// Create a new SimRouter.
func NewSimRouter() *SimRouter {
	return &SimRouter{
		Routes:        make(map[string]*SimTransport),
		Rand:          rand.New(rand.NewSource(time.Now().UnixNano())),
		NetDelay:      kNetDelay,
		NetStdDev:     kNetStdDev,
		MaxMessageLen: kMaxMessageLen,
	}
}

// Create a new SimTransport associated with the given address. If an open
// transport is already associated with the address, the existing instance
// is returned; a closed transport is replaced, which models a crashed
// process restarting at its old address.
func (r *SimRouter) NewTransport(addr string) *SimTransport {
	t, ok := r.Routes[addr]
	if !ok || t.Closed {
		t = NewSimTransport(r)
		r.Routes[addr] = t
	}
	return t
}

// Send a message to the transport matching the address.
func (r *SimRouter) SendTo(addr string, message *CodedMessage) error {

	// delay the packet to simulate a "real" network
	time.AfterFunc(r.Delay(), func() {
		defer func() { recover() }()
		if t, ok := r.Routes[addr]; ok && !t.Closed {
			t.RecvCh <- message
		}
	})

	// silently fail to simulate UDP
	return nil
}

// Generate a normally distributed time delay with a mean of NetDelay and
// standard deviation of NetStdDev.
func (r *SimRouter) Delay() time.Duration {
	return time.Duration(r.Rand.NormFloat64()*float64(r.NetStdDev)) + r.NetDelay
}
