package tokenring

import "fmt"

// Member describes a process in the ring. IDs are 64-bit, unique, and
// totally ordered; the ordering doubles as the ring position and the
// election tie-break.
type Member struct {
	Id   uint64 // Process ID
	Addr string // Transport address of the process
}

// Default format output.
func (m Member) String() string {
	return fmt.Sprintf("Member{ Id: %v, Addr: %q }", m.Id, m.Addr)
}

// A member can have one of three liveness states: alive, suspect, or dead.
type State uint8

const (
	_       State = iota
	Alive         // Member is believed alive
	Suspect       // Member is suspected of failure
	Dead          // Member is confirmed as failed
)

// Default format output.
func (s State) String() string {
	switch s {
	case Alive:
		return "alive"
	case Suspect:
		return "suspect"
	case Dead:
		return "dead"
	}
	return "unknown"
}

// CSState is the critical-section state of the local process. A process is
// idle, has requested entry and is waiting for the token, or holds the
// token and may execute its critical section.
type CSState uint8

const (
	Idle CSState = iota
	Requesting
	Holding
)

// Default format output.
func (s CSState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Requesting:
		return "requesting"
	case Holding:
		return "holding"
	}
	return "unknown"
}
