package tokenring

import (
	"sort"
)

// Ring maintains the local view of the ordered cycle of believed-alive
// members. The order is ascending by ID; the successor of the highest ID
// wraps to the lowest. Views are versioned with a windowed sequence
// number so diverging views across processes can be reconciled: the
// higher version wins. The methods are not safe to run concurrently.
type Ring struct {
	version Seq
	members []*ringMember // sorted ascending by ID
	index   map[uint64]*ringMember
}

type ringMember struct {
	Member
	State State
}

// Create a new ring with the given initial membership, all believed
// alive. The initial view version is 1.
func NewRing(members []Member) *Ring {
	r := &Ring{index: make(map[uint64]*ringMember)}
	for _, m := range members {
		r.insert(m, Alive)
	}
	r.version.Increment()
	return r
}

func (r *Ring) insert(m Member, state State) {
	node := &ringMember{Member: m, State: state}
	r.index[m.Id] = node
	i := sort.Search(len(r.members), func(i int) bool {
		return r.members[i].Id >= m.Id
	})
	r.members = append(r.members, nil)
	copy(r.members[i+1:], r.members[i:])
	r.members[i] = node
}

// Get the current view version.
func (r *Ring) Version() Seq {
	return r.version.Get()
}

// Get the liveness state of a member. Unknown members report as dead.
func (r *Ring) State(id uint64) State {
	if node, ok := r.index[id]; ok {
		return node.State
	}
	return Dead
}

// Get the transport address of a member.
func (r *Ring) Addr(id uint64) (string, bool) {
	node, ok := r.index[id]
	if !ok {
		return "", false
	}
	return node.Addr, true
}

// Count the believed-alive members, including suspects.
func (r *Ring) Size() (n int) {
	for _, node := range r.members {
		if node.State != Dead {
			n += 1
		}
	}
	return
}

// List the believed-alive members in ring order, including suspects.
// Suspects remain routable until confirmed dead.
func (r *Ring) Members() []Member {
	members := make([]Member, 0, len(r.members))
	for _, node := range r.members {
		if node.State != Dead {
			members = append(members, node.Member)
		}
	}
	return members
}

// Get the next believed-alive member after the given ID, cyclically. The
// second return value is false when no other member is alive.
func (r *Ring) SuccessorOf(id uint64) (Member, bool) {
	start := sort.Search(len(r.members), func(i int) bool {
		return r.members[i].Id > id
	})
	for i := 0; i < len(r.members); i += 1 {
		node := r.members[(start+i)%len(r.members)]
		if node.Id != id && node.State != Dead {
			return node.Member, true
		}
	}
	return Member{}, false
}

// Get the previous believed-alive member before the given ID, cyclically.
// The second return value is false when no other member is alive.
func (r *Ring) PredecessorOf(id uint64) (Member, bool) {
	start := sort.Search(len(r.members), func(i int) bool {
		return r.members[i].Id >= id
	}) - 1
	for i := 0; i < len(r.members); i += 1 {
		j := start - i
		for j < 0 {
			j += len(r.members)
		}
		node := r.members[j]
		if node.Id != id && node.State != Dead {
			return node.Member, true
		}
	}
	return Member{}, false
}

// Mark a member as suspected of failure. Suspicion is transient and does
// not bump the view version. Reports whether the state changed.
func (r *Ring) MarkSuspect(id uint64) bool {
	node, ok := r.index[id]
	if !ok || node.State != Alive {
		return false
	}
	node.State = Suspect
	return true
}

// Retract a suspicion after a contradicting sighting. Reports whether the
// state changed.
func (r *Ring) ClearSuspect(id uint64) bool {
	node, ok := r.index[id]
	if !ok || node.State != Suspect {
		return false
	}
	node.State = Alive
	return true
}

// Remove a confirmed-dead member from the view and bump the version.
// Reports whether the state changed.
func (r *Ring) MarkDead(id uint64) bool {
	node, ok := r.index[id]
	if !ok || node.State == Dead {
		return false
	}
	node.State = Dead
	r.version.Increment()
	return true
}

// Re-insert a recovered member into its ring position and bump the
// version. Unknown members are added. Reports whether the state changed.
func (r *Ring) MarkAlive(m Member) bool {
	node, ok := r.index[m.Id]
	if !ok {
		r.insert(m, Alive)
		r.version.Increment()
		return true
	}
	if node.State == Alive {
		return false
	}
	node.State = Alive
	r.version.Increment()
	return true
}

// Adopt a remote view if its version is strictly newer than the local
// one. Members present in the remote view are believed alive, known
// members absent from it are confirmed dead. Reports whether the view was
// adopted.
func (r *Ring) Apply(view Seq, members []Member) bool {
	if r.version.Compare(view) >= 0 {
		return false
	}
	alive := make(map[uint64]bool, len(members))
	for _, m := range members {
		alive[m.Id] = true
		if node, ok := r.index[m.Id]; ok {
			node.State = Alive
		} else {
			r.insert(m, Alive)
		}
	}
	for _, node := range r.members {
		if !alive[node.Id] {
			node.State = Dead
		}
	}
	r.version.Witness(view)
	return true
}
