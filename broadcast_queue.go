package tokenring

import (
	"container/heap"
)

// A broadcast queue implements a priority queue ordered on the number of
// transmission attempts and the priority class of the broadcasts.
type BroadcastQueue struct {
	sourceMap map[BroadcastTag]*Broadcast
	bcasts    bcastQueue
}

func NewBroadcastQueue() *BroadcastQueue {
	return &BroadcastQueue{
		sourceMap: make(map[BroadcastTag]*Broadcast),
	}
}

// Initialize the priority queue by fixing the heap invariants.
func (q *BroadcastQueue) Init() {
	heap.Init(&q.bcasts)
}

// Return the highest priority broadcast without removing it.
func (q *BroadcastQueue) Peek() *Broadcast {
	if len(q.bcasts) == 0 {
		return nil
	}
	return q.bcasts[0]
}

// Push a broadcast onto the queue. A queued broadcast with the same tag
// is replaced if the new broadcast invalidates it, otherwise the new
// broadcast is dropped as stale.
func (q *BroadcastQueue) Push(bcast *Broadcast) {

	// broadcast does not belong to a queue or it belongs to this one
	if bcast.q != nil && bcast.q != q {
		panic("broadcast belongs to a different queue")
	}

	// this broadcast now belongs to this queue
	bcast.q = q

	// invalidate an existing broadcast or add it to the queue
	tag := bcast.Event.Tag()
	if that, ok := q.sourceMap[tag]; ok {
		if bcast.Invalidates(that) {
			if that.Done != nil {
				close(that.Done)
			}
			*that = *bcast
			q.Init()
		}
	} else {
		q.sourceMap[tag] = bcast
		q.bcasts = append(q.bcasts, bcast)
		q.Init()
	}
}

// Remove the highest priority broadcast from the queue.
func (q *BroadcastQueue) Pop() *Broadcast {
	bcast := heap.Pop(&q.bcasts).(*Broadcast)
	bcast.q = nil
	delete(q.sourceMap, bcast.Event.Tag())
	if bcast.Done != nil {
		close(bcast.Done)
	}
	return bcast
}

// List the queued broadcasts in heap order. The returned slice references
// the internal storage and should not be modified.
func (q *BroadcastQueue) List() []*Broadcast {
	return q.bcasts
}

// Remove broadcasts matching the predicate.
func (q *BroadcastQueue) Prune(matches func(*Broadcast) bool) {
	keep := q.bcasts[:0]
	for _, bcast := range q.bcasts {
		if matches(bcast) {
			bcast.q = nil
			delete(q.sourceMap, bcast.Event.Tag())
			if bcast.Done != nil {
				close(bcast.Done)
			}
		} else {
			keep = append(keep, bcast)
		}
	}
	q.bcasts = keep
	q.Init()
}

// Get the number of queued broadcasts.
func (q *BroadcastQueue) Len() int {
	return len(q.bcasts)
}

type bcastQueue []*Broadcast

// Get the number of queued broadcasts.
func (q bcastQueue) Len() int {
	return len(q)
}

// Determine if the broadcast at index i has a lower priority value, and
// therefore a higher priority, than the broadcast at index j.
func (q bcastQueue) Less(i, j int) bool {
	return q[i].Priority() < q[j].Priority()
}

// Swap the broadcast at index i with the broadcast at index j.
func (q bcastQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
}

// Implementation of heap.Interface.Push().
func (q *bcastQueue) Push(x interface{}) {
	*q = append(*q, x.(*Broadcast))
}

// Implementation of heap.Interface.Pop().
func (q *bcastQueue) Pop() interface{} {
	old := *q
	l := len(old) - 1
	b := old[l]
	*q = old[:l]
	return b
}
