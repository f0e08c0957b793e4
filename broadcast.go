package tokenring

// A broadcast describes an event to be disseminated to the ring.
type Broadcast struct {
	Class    int            // Priority class of the broadcast
	Attempts int            // Number of transmissions attempted
	Event    BroadcastEvent // The event to broadcast
	Done     chan struct{}  // The channel on which to signal removal

	q *BroadcastQueue
}

// Calculate the overall priority for the broadcast. Broadcasts with lower
// class values have priority over higher class values. The overall
// priority is calculated as:
//
//	Priority = Class * Attempts
//
// Thus, a broadcast with class 0 always has higher priority, regardless
// of the number of transmission attempts. Elections and membership
// updates are queued at class 1, suspicions at class 2.
func (b *Broadcast) Priority() int {
	return b.Class * b.Attempts
}

// Determine if this broadcast invalidates that broadcast. A broadcast
// invalidates another broadcast carrying the same tag with a lower rank:
// a fresher view supersedes a stale one, a higher-epoch suspicion
// supersedes last generation's.
func (b *Broadcast) Invalidates(that *Broadcast) bool {
	return b.Event.Tag() == that.Event.Tag() && that.Event.Rank() < b.Event.Rank()
}
