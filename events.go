package tokenring

import (
	"fmt"
	"time"
)

// A token event hands the token to the receiving process. Possession
// transfers on delivery: the sender relinquishes before sending, and the
// receiver either enters its critical section or forwards along the ring.
type TokenEvent struct {
	From  uint64 // ID of the relinquishing process
	Token Token  // The token itself
}

// Default format output.
func (e TokenEvent) String() string {
	return fmt.Sprintf("TokenEvent{ From: %v, %v }", e.From, e.Token)
}

// A heartbeat event tells the successor that the sender is alive. The
// maximum epoch and rotation watermark observed by the sender ride along
// for anti-entropy: a receiver that knows a higher epoch answers with its
// own heartbeat, which silences stale election candidates and catches up
// recovered processes, and a nonzero watermark tells a restarting initial
// holder that a token generation is already in progress.
type HeartbeatEvent struct {
	From     uint64    // ID of the sending process
	Epoch    uint64    // Maximum epoch observed by the sender
	Rotation Seq       // Rotation watermark at the sender within its epoch
	Time     time.Time // Local time at the sending process
}

// Default format output.
func (e HeartbeatEvent) String() string {
	return fmt.Sprintf("HeartbeatEvent{ From: %v, Epoch: %v, Rotation: %v, Time: %v }",
		e.From, e.Epoch, e.Rotation, e.Time)
}

// Broadcast tags are used to efficiently invalidate queued broadcasts.
type BroadcastTag struct {
	Id   uint64
	Type int
}

const (
	_ = iota
	bcastSuspect
	bcastElection
	bcastMembership
)

// A broadcast event is disseminated to the whole ring, piggybacked on
// outgoing messages until the retransmit limit is reached.
type BroadcastEvent interface {
	Source() uint64
	Tag() BroadcastTag
	Rank() uint64
}

// A suspect event spreads word that a member has not been heard from
// within the suspicion timeout. The epoch names the token generation the
// suspicion was raised under so stale suspicions rank below fresh ones.
type SuspectEvent struct {
	From  uint64 // ID of the suspecting process
	Id    uint64 // ID of the suspected member
	Epoch uint64 // Maximum epoch observed by the suspecting process
}

// Default format output.
func (e SuspectEvent) String() string {
	return fmt.Sprintf("SuspectEvent{ From: %v, Id: %v, Epoch: %v }",
		e.From, e.Id, e.Epoch)
}

// Get the source for this broadcast event.
func (e SuspectEvent) Source() uint64 {
	return e.From
}

// Get the tag for the suspect event.
func (e SuspectEvent) Tag() BroadcastTag {
	return BroadcastTag{e.Id, bcastSuspect}
}

// Get the invalidation rank for the suspect event.
func (e SuspectEvent) Rank() uint64 {
	return e.Epoch
}

// An election event proposes the candidate as the minter of the next
// token. Higher proposed epochs outrank lower ones; among equal proposals
// the lowest candidate ID wins.
type ElectionEvent struct {
	From      uint64 // ID of the broadcasting process
	Candidate uint64 // ID of the proposed token minter
	Epoch     uint64 // Proposed epoch, one past the candidate's maximum
	View      Seq    // Ring view version at the candidate
}

// Default format output.
func (e ElectionEvent) String() string {
	return fmt.Sprintf("ElectionEvent{ From: %v, Candidate: %v, Epoch: %v, View: %v }",
		e.From, e.Candidate, e.Epoch, e.View)
}

// Get the source for this broadcast event.
func (e ElectionEvent) Source() uint64 {
	return e.From
}

// Get the tag for the election event.
func (e ElectionEvent) Tag() BroadcastTag {
	return BroadcastTag{e.Candidate, bcastElection}
}

// Get the invalidation rank for the election event.
func (e ElectionEvent) Rank() uint64 {
	return e.Epoch
}

// A membership event carries a full ring view for resynchronization.
// Views are versioned; the higher version wins on receipt, and a receiver
// holding a higher version answers with its own view.
type MembershipEvent struct {
	From    uint64   // ID of the process publishing the view
	View    Seq      // Version of the view
	Members []Member // Believed-alive members in ring order
}

// Default format output.
func (e MembershipEvent) String() string {
	return fmt.Sprintf("MembershipEvent{ From: %v, View: %v, Members: %v }",
		e.From, e.View, e.Members)
}

// Get the source for this broadcast event.
func (e MembershipEvent) Source() uint64 {
	return e.From
}

// Get the tag for the membership event.
func (e MembershipEvent) Tag() BroadcastTag {
	return BroadcastTag{e.From, bcastMembership}
}

// Get the invalidation rank for the membership event.
func (e MembershipEvent) Rank() uint64 {
	return uint64(e.View)
}
