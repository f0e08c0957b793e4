package tokenring

import (
	"time"
)

// election tracks the local process's pending regeneration proposal. At
// most one proposal is outstanding at a time; it is withdrawn when a
// higher-priority concurrent proposal or a token of equal or higher epoch
// is observed.
type election struct {
	active   bool
	proposed uint64    // proposed epoch, one past the local maximum
	view     Seq       // ring view version at proposal time
	deadline time.Time // proposal wins if still standing at this time
}

// beats reports whether proposal a outranks proposal b. A higher proposed
// epoch always wins; among equal proposals the lower candidate ID wins.
// The comparison is pure and identical at every process, which is what
// makes concurrent regeneration safe.
func beats(aEpoch, aCandidate, bEpoch, bCandidate uint64) bool {
	if aEpoch != bEpoch {
		return aEpoch > bEpoch
	}
	return aCandidate < bCandidate
}

// Propose this process as the minter of the replacement token. No-op if a
// proposal is already outstanding.
func (p *Process) startElection(now time.Time) {
	if p.elect.active {
		return
	}

	p.elect = election{
		active:   true,
		proposed: p.epoch + 1,
		view:     p.ring.Version(),
		deadline: now.Add(p.ElectionTimeout),
	}

	if p.Logger != nil {
		p.Logger.Printf("[ring:%v] election: proposing epoch %v", p.LocalId, p.elect.proposed)
	}

	p.fanout(1, ElectionEvent{
		From:      p.LocalId,
		Candidate: p.LocalId,
		Epoch:     p.elect.proposed,
		View:      p.elect.view,
	})
}

// Withdraw the pending proposal, if any.
func (p *Process) withdrawElection(why string) {
	if !p.elect.active {
		return
	}
	p.elect.active = false
	if p.Logger != nil {
		p.Logger.Printf("[ring:%v] election: withdrawing epoch %v: %s",
			p.LocalId, p.elect.proposed, why)
	}
	p.notify(Update{Kind: ElectionLost, Id: p.LocalId, Epoch: p.elect.proposed})
}

// Conclude a proposal that survived its election timeout: mint the
// replacement token with the proposed epoch and proceed per the token
// state machine.
func (p *Process) finishElection(now time.Time) {
	p.elect.active = false
	p.setEpoch(p.elect.proposed)
	p.rotation = 0
	p.token = &Token{Epoch: p.epoch}
	p.setHolder(p.LocalId)

	if p.Logger != nil {
		p.Logger.Printf("[ring:%v] election: minted %v", p.LocalId, *p.token)
	}
	p.notify(Update{Kind: Regenerated, Id: p.LocalId, Epoch: p.epoch})

	if p.pending {
		p.acquire(now)
	} else {
		p.forwardToken(now)
	}
}

// Handle an election event.
func (p *Process) handleElection(now time.Time, ev ElectionEvent) {

	// a token of this epoch already exists; answer with a heartbeat so the
	// stray candidate learns the current epoch and withdraws
	if ev.Epoch <= p.epoch {
		if addr, ok := p.ring.Addr(ev.Candidate); ok {
			p.broker.DirectTo(addr, p.envelope(ev.Candidate, p.heartbeat(now)))
		}
		return
	}

	if p.elect.active {
		if beats(ev.Epoch, ev.Candidate, p.elect.proposed, p.LocalId) {
			p.withdrawElection("outranked by concurrent proposal")
		} else {
			// our proposal outranks; our own broadcast silences theirs
			return
		}
	}

	// gossip the surviving proposal; the queue drops duplicates by tag
	p.broker.Broadcast(1, ev)
}
