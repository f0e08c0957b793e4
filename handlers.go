package tokenring

import (
	"time"
)

// Dispatch an incoming message to the event handlers.
func (p *Process) dispatch(now time.Time, msg *Message) {
	p.observe(now, msg)

	for _, event := range msg.Events() {
		switch event := event.(type) {
		case MembershipEvent:
			p.handleMembership(event)

		case HeartbeatEvent:
			p.handleHeartbeat(now, event)

		case SuspectEvent:
			p.handleSuspect(now, event)

		case ElectionEvent:
			p.handleElection(now, event)

		case TokenEvent:
			p.handleToken(now, event)
		}
	}
}

// Record the sighting of the sender: any message contradicts a pending
// suspicion of its sender, revives a confirmed-dead sender, and exposes
// ring view divergence via the version attached to the envelope.
func (p *Process) observe(now time.Time, msg *Message) {
	p.lastHeard[msg.From] = now
	p.retractSuspicion(msg.From)

	// a confirmed-dead member is heard from again: it recovered
	if p.ring.State(msg.From) == Dead {
		if addr, ok := p.ring.Addr(msg.From); ok {
			p.ring.MarkAlive(Member{Id: msg.From, Addr: addr})
			if p.Logger != nil {
				p.Logger.Printf("[ring:%v] member %v rejoined", p.LocalId, msg.From)
			}
			p.notify(Update{Kind: MemberAlive, Id: msg.From, Epoch: p.epoch})
			p.viewChanged()
		}
	}

	// a version gap in either direction starts a view exchange: we send
	// ours, and whoever holds the newer view wins (the membership handler
	// answers a stale view with the fresher one)
	if len(msg.Memberships) == 0 {
		v := p.ring.Version()
		if v.Compare(msg.View) != 0 {
			if addr, ok := p.ring.Addr(msg.From); ok {
				p.broker.DirectTo(addr, p.envelope(msg.From, MembershipEvent{
					From:    p.LocalId,
					View:    v,
					Members: p.ring.Members(),
				}))
			}
		}
	}
}

// Handle a token hand-off.
func (p *Process) handleToken(now time.Time, ev TokenEvent) {
	p.circulated = true

	// discard a superseded token silently; this is what makes a resurfaced
	// token from a falsely-suspected holder harmless
	if ev.Token.Stale(p.epoch, p.rotation) {
		if p.Logger != nil {
			p.Logger.Printf("[ring:%v] discarding stale %v", p.LocalId, ev.Token)
		}
		p.notify(Update{Kind: TokenStale, Id: ev.From, Epoch: p.epoch})
		return
	}

	// adopt the token's epoch; any pending proposal for an equal or lower
	// epoch is moot
	if ev.Token.Epoch > p.epoch {
		p.setEpoch(ev.Token.Epoch)
		p.rotation = ev.Token.Rotation
	} else {
		p.rotation.Witness(ev.Token.Rotation)
	}
	if p.elect.active && p.elect.proposed <= p.epoch {
		p.withdrawElection("token observed")
	}

	// the token sighting feeds the rotation estimate and resets the
	// circulation timer
	if !p.lastToken.IsZero() {
		p.estimate.Sample(now.Sub(p.lastToken))
	}
	p.lastToken = now
	p.circDeadline = now.Add(p.circTimeout())

	tok := ev.Token
	p.token = &tok
	p.setHolder(p.LocalId)

	if p.pending {
		p.acquire(now)
		return
	}

	// already inside the critical section under the previous epoch: the
	// fresher token replaces the held one without interrupting the
	// application and is forwarded on release as usual
	if p.CS() == Holding {
		return
	}

	// no local interest; keep the token circulating
	p.setCS(Idle)
	if p.ForwardDelay > 0 {
		p.forwardAt = now.Add(p.ForwardDelay)
	} else {
		p.forwardToken(now)
	}
}

// Handle a heartbeat: epoch anti-entropy in both directions.
func (p *Process) handleHeartbeat(now time.Time, ev HeartbeatEvent) {
	if ev.Epoch > 0 || ev.Rotation != 0 {
		p.circulated = true
	}

	if ev.Epoch > p.epoch {
		p.setEpoch(ev.Epoch)
		p.rotation = ev.Rotation
		p.discardStaleToken()
		// best holder guess until the fresh token is sighted
		p.setHolder(ev.From)
		p.circDeadline = now.Add(p.circTimeout())
		if p.elect.active && p.elect.proposed <= p.epoch {
			p.withdrawElection("higher epoch observed")
		}
	} else if ev.Epoch < p.epoch {
		// the sender is behind; answer with our watermark
		if addr, ok := p.ring.Addr(ev.From); ok {
			p.broker.DirectTo(addr, p.envelope(ev.From, p.heartbeat(now)))
		}
	}
}

// Handle a suspicion broadcast.
func (p *Process) handleSuspect(now time.Time, ev SuspectEvent) {

	// rebut a suspicion of ourselves to the whole ring
	if ev.Id == p.LocalId {
		if p.Logger != nil {
			p.Logger.Printf("[ring:%v] rebutting suspicion from %v", p.LocalId, ev.From)
		}
		for _, m := range p.ring.Members() {
			if m.Id != p.LocalId {
				p.broker.DirectTo(m.Addr, p.envelope(m.Id, p.heartbeat(now)))
			}
		}
		return
	}

	// stale generation or already removed
	if ev.Epoch < p.epoch || p.ring.State(ev.Id) == Dead {
		return
	}

	// a recent sighting contradicts the suspicion
	if heard, ok := p.lastHeard[ev.Id]; ok && now.Sub(heard) <= p.SuspectTimeout {
		return
	}

	p.suspectMember(now, ev.Id)

	// gossip the suspicion onward; the queue drops duplicates by tag
	p.broker.Broadcast(2, ev)
}

// Handle a membership view exchange.
func (p *Process) handleMembership(ev MembershipEvent) {
	v := p.ring.Version()

	// the sender is behind; answer with the fresher view
	if v.Compare(ev.View) > 0 {
		if addr, ok := p.ring.Addr(ev.From); ok {
			p.broker.DirectTo(addr, p.envelope(ev.From, MembershipEvent{
				From:    p.LocalId,
				View:    v,
				Members: p.ring.Members(),
			}))
		}
		return
	}

	if !p.ring.Apply(ev.View, ev.Members) {
		return
	}

	// drop suspicions the adopted view resolved
	for id := range p.suspects {
		if p.ring.State(id) != Suspect {
			delete(p.suspects, id)
		}
	}

	if p.Logger != nil {
		p.Logger.Printf("[ring:%v] adopted view %v from %v", p.LocalId, ev.View, ev.From)
	}
	p.notify(Update{Kind: ViewChanged, Epoch: p.epoch, View: p.ring.Version()})

	// gossip the adopted view onward
	p.broker.Broadcast(1, ev)
}
