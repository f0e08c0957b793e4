package tokenring

import (
	"log"
	"sync/atomic"
	"time"
)

const kInboxSize = 16
const kCommandSize = 8

// Update kinds reported on the update channel.
type UpdateKind int

const (
	Acquired      UpdateKind = iota + 1 // the local process entered its critical section
	Released                            // the local process released the token
	TokenPassed                         // the token was forwarded to the successor
	TokenStale                          // a superseded token message was discarded
	MemberSuspect                       // a member is suspected of failure
	MemberDead                          // a member was confirmed dead
	MemberAlive                         // a member recovered and rejoined
	ViewChanged                         // the local ring view version changed
	Regenerated                         // the local process minted a replacement token
	ElectionLost                        // the local regeneration proposal was withdrawn
)

// Default format output.
func (k UpdateKind) String() string {
	switch k {
	case Acquired:
		return "acquired"
	case Released:
		return "released"
	case TokenPassed:
		return "token-passed"
	case TokenStale:
		return "token-stale"
	case MemberSuspect:
		return "member-suspect"
	case MemberDead:
		return "member-dead"
	case MemberAlive:
		return "member-alive"
	case ViewChanged:
		return "view-changed"
	case Regenerated:
		return "regenerated"
	case ElectionLost:
		return "election-lost"
	}
	return "unknown"
}

// An Update describes a protocol transition observed at the local process.
type Update struct {
	Kind   UpdateKind
	Id     uint64 // the member concerned, when applicable
	Epoch  uint64 // maximum epoch observed at the time of the update
	View   Seq    // ring view version at the time of the update
	Forced bool   // set when a held token was forcibly released
}

type commandKind int

const (
	cmdRequest commandKind = iota + 1
	cmdRelease
)

// Process implements one member of the token ring. Remember to close the
// process before discarding it to free resources.
//
// The process runs as a single logical actor: all protocol state is owned
// by one event-loop goroutine and all interaction happens via messages,
// commands, and timers. Requesting the critical section never blocks the
// actor; entry is granted by token arrival and signaled on UpdateCh.
type Process struct {
	broker Broker
	ring   *Ring

	// Critical-section state machine.
	cs      uint32 // CSState, read atomically by observers
	pending bool
	token   *Token

	// Token staleness watermarks.
	epoch    uint64 // maximum epoch observed, mirrored atomically
	rotation Seq    // maximum rotation observed within the epoch

	// Bootstrap minting at the initial holder.
	mintAt     time.Time // quiet-period deadline, zero once decided
	circulated bool      // a token generation has been observed

	// Failure detection.
	holder       uint64 // believed current token holder
	lastHeard    map[uint64]time.Time
	lastToken    time.Time
	circDeadline time.Time
	suspects     map[uint64]time.Time // suspect ID to confirmation deadline
	estimate     Estimate

	elect election

	holdDeadline time.Time
	forwardAt    time.Time

	// States for signaling the event loop.
	state    int
	started  bool
	stopping chan bool
	stopped  chan bool
	inbox    chan *Message
	commands chan commandKind

	// The local process ID. Must appear in Members.
	LocalId uint64

	// The initial ring membership, including the local process. The list
	// comes from the bootstrap configuration and is identical at every
	// process.
	Members []Member

	// The member holding the initial epoch-0 token.
	InitialHolder uint64

	// The heartbeat interval paces the event loop: heartbeats are sent and
	// deadlines are checked once per interval. Timeouts should be
	// multiples of it.
	HeartbeatInterval time.Duration

	// How long a member may go unheard before it is suspected. Must exceed
	// the maximum expected message delay plus the maximum critical-section
	// duration; the adaptive rotation estimate raises the effective
	// circulation timeout above this floor.
	SuspectTimeout time.Duration

	// How long a suspicion may stand uncontradicted before the suspect is
	// confirmed dead.
	ConfirmTimeout time.Duration

	// How long a regeneration proposal must survive before the candidate
	// mints the replacement token. Must exceed a broadcast round trip.
	ElectionTimeout time.Duration

	// The maximum critical-section duration. A token held past this
	// deadline is forcibly released. Zero disables forced release.
	MaxHold time.Duration

	// Optional pacing delay before an idle process forwards the token,
	// keeping an all-idle ring from spinning the network. Zero forwards
	// immediately.
	ForwardDelay time.Duration

	// The retransmission multiplier controls how many times broadcast
	// events are piggybacked onto outgoing messages. The limit is
	// calculated as RetransmitMult * log2(N+1).
	RetransmitMult uint

	Transport Transport // The transport implementation to use
	Codec     Codec     // The codec implementation to use

	// If not nil, log protocol transitions and receipt of messages.
	Logger *log.Logger

	// If not nil, protocol transitions are reported on this channel. The
	// consumer must keep up; use a buffered channel.
	UpdateCh chan Update
}

// Start the process.
func (p *Process) Start() {

	// initialize
	if p.stopping == nil {
		p.stopping = make(chan bool, 1)
		p.stopped = make(chan bool, 1)
		p.inbox = make(chan *Message, kInboxSize)
		p.commands = make(chan commandKind, kCommandSize)

		p.ring = NewRing(p.Members)
		p.lastHeard = make(map[uint64]time.Time)
		p.suspects = make(map[uint64]time.Time)

		p.broker = Broker{
			Transport:  p.Transport,
			Codec:      p.Codec,
			Broadcasts: NewBroadcastQueue(),
		}

		p.setHolder(p.InitialHolder)
	}

	// don't call multiple times!
	if p.started {
		panic("already started")
	}

	// flag as started
	p.state += 1
	p.started = true

	now := time.Now()
	p.estimate.Hint(p.SuspectTimeout)

	// the initial token is minted by the designated process only after a
	// quiet period with no sign of a generation already in progress; the
	// first circulation deadline covers the quiet period
	if p.LocalId == p.InitialHolder && p.token == nil && p.epoch == 0 {
		p.mintAt = now.Add(p.ElectionTimeout)
	}
	p.circDeadline = now.Add(p.ElectionTimeout + p.circTimeout())
	p.forwardAt = now.Add(p.ForwardDelay)
	for _, m := range p.Members {
		p.lastHeard[m.Id] = now
	}
	p.broker.BroadcastLimit = p.retransmitLimit()

	// receive messages asynchronously
	go p.recv()

	// run everything in a single goroutine event loop to avoid locks
	// (except for channel locks)
	go p.loop()
}

// Stop the process.
func (p *Process) Stop() {

	// don't call multiple times!
	if !p.started {
		panic("not started")
	}

	// signal goroutine to stop
	p.stopping <- true

	// receive acknowledgement
	<-p.stopped

	// the message receiver won't stop until a message is received...
	p.started = false
}

// Stop the process and close the underlying transport.
func (p *Process) Close() error {
	if p.started {
		p.Stop()
	}
	return p.broker.Close()
}

// Request entry to the critical section. Entry is granted when the token
// next arrives and is signaled with an Acquired update; the call never
// blocks on the token.
func (p *Process) Request() {
	if !p.started {
		panic("not started")
	}
	p.commands <- cmdRequest
}

// Release the token after critical-section execution, handing it to the
// current successor.
func (p *Process) Release() {
	if !p.started {
		panic("not started")
	}
	p.commands <- cmdRelease
}

// Get the critical-section state of the local process.
func (p *Process) CS() CSState {
	return CSState(atomic.LoadUint32(&p.cs))
}

// Get the maximum epoch observed by the local process.
func (p *Process) Epoch() uint64 {
	return atomic.LoadUint64(&p.epoch)
}

// Get the ID of the believed current token holder.
func (p *Process) Holder() uint64 {
	return atomic.LoadUint64(&p.holder)
}

// Get the local ring view version.
func (p *Process) View() Seq {
	return p.ring.Version()
}

// Receive messages from the network.
func (p *Process) recv() {

	// loop while we're active
	// the state prevents multiple concurrent goroutines
	for state := p.state; p.started && p.state == state; {

		// receive message from broker
		msg, err := p.broker.Recv()
		if err != nil {
			if p.Logger != nil {
				p.Logger.Printf("[ring:%v] recv: %v", p.LocalId, err)
			}
			continue
		}

		// log the message
		if p.Logger != nil {
			p.Logger.Printf("[ring:%v] recv: %v", p.LocalId, msg)
		}

		p.inbox <- msg
	}
}

// Run the process event loop.
func (p *Process) loop() {
	ticker := time.NewTicker(p.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopping: // stop signal
			p.stopped <- true
			return

		case cmd := <-p.commands: // application commands
			p.command(time.Now(), cmd)

		case msg := <-p.inbox: // incoming messages
			p.dispatch(time.Now(), msg)

		case now := <-ticker.C: // protocol period
			p.tick(now)
		}
	}
}

// Handle an application command.
func (p *Process) command(now time.Time, cmd commandKind) {
	switch cmd {
	case cmdRequest:
		if p.CS() == Holding {
			return
		}
		p.pending = true
		// ring algorithms grant entry purely by token arrival; a passively
		// held token grants immediately, provided it still matches the
		// epoch watermark
		if p.token != nil && p.token.Epoch >= p.epoch {
			p.acquire(now)
		} else {
			p.setCS(Requesting)
		}

	case cmdRelease:
		p.release(now, false)
	}
}

// Run one protocol period: forward a paced token, heartbeat the
// successor, and check every deadline.
func (p *Process) tick(now time.Time) {

	// mint the initial token once the bootstrap quiet period passes
	// without evidence of an existing generation
	if !p.mintAt.IsZero() && now.After(p.mintAt) {
		p.mintAt = time.Time{}
		if p.token == nil && p.epoch == 0 && !p.circulated {
			p.token = &Token{}
			p.setHolder(p.LocalId)
			if p.Logger != nil {
				p.Logger.Printf("[ring:%v] minted initial %v", p.LocalId, *p.token)
			}
			if p.pending {
				p.acquire(now)
			} else {
				p.forwardToken(now)
			}
		}
	}

	// forward a paced or retained token
	if p.token != nil && p.CS() != Holding && now.After(p.forwardAt) {
		p.forwardToken(now)
	}

	// forced release of an overheld token
	if p.CS() == Holding && p.MaxHold > 0 && now.After(p.holdDeadline) {
		if p.Logger != nil {
			p.Logger.Printf("[ring:%v] forced release after %v", p.LocalId, p.MaxHold)
		}
		p.release(now, true)
	}

	// heartbeat the current successor
	if succ, ok := p.ring.SuccessorOf(p.LocalId); ok {
		p.broker.SendTo(succ.Addr, p.envelope(succ.Id, p.heartbeat(now)))
	}

	// monitor the predecessor for heartbeat silence
	if pred, ok := p.ring.PredecessorOf(p.LocalId); ok {
		if heard, ok := p.lastHeard[pred.Id]; ok && now.Sub(heard) > p.SuspectTimeout {
			p.suspectMember(now, pred.Id)
		}
	}

	// monitor token circulation
	if p.token == nil && p.CS() != Holding && now.After(p.circDeadline) {
		if holder := p.Holder(); holder != p.LocalId && p.ring.State(holder) != Dead {
			p.suspectMember(now, holder)
		} else {
			// the holder is already gone and the token with it
			p.startElection(now)
		}
		p.circDeadline = now.Add(p.circTimeout())
	}

	// confirm suspects whose contradiction window has passed
	for id, deadline := range p.suspects {
		if now.After(deadline) {
			p.confirmDead(now, id)
		}
	}

	// conclude a surviving regeneration proposal
	if p.elect.active && now.After(p.elect.deadline) {
		p.finishElection(now)
	}
}

// Suspect a member and open its confirmation window.
func (p *Process) suspectMember(now time.Time, id uint64) {
	if id == p.LocalId || p.ring.State(id) != Alive {
		return
	}
	if _, ok := p.suspects[id]; ok {
		return
	}

	p.suspects[id] = now.Add(p.ConfirmTimeout)
	p.ring.MarkSuspect(id)

	if p.Logger != nil {
		p.Logger.Printf("[ring:%v] suspecting %v", p.LocalId, id)
	}
	p.notify(Update{Kind: MemberSuspect, Id: id, Epoch: p.epoch})

	p.fanout(2, SuspectEvent{From: p.LocalId, Id: id, Epoch: p.epoch})
}

// Retract a suspicion after a contradicting sighting.
func (p *Process) retractSuspicion(id uint64) {
	if _, ok := p.suspects[id]; !ok {
		return
	}
	delete(p.suspects, id)
	p.ring.ClearSuspect(id)
	if p.Logger != nil {
		p.Logger.Printf("[ring:%v] suspicion of %v contradicted", p.LocalId, id)
	}
}

// Confirm a suspect as dead, update the ring, and regenerate if the token
// died with it.
func (p *Process) confirmDead(now time.Time, id uint64) {
	delete(p.suspects, id)
	if !p.ring.MarkDead(id) {
		return
	}

	if p.Logger != nil {
		p.Logger.Printf("[ring:%v] confirmed %v dead", p.LocalId, id)
	}
	p.notify(Update{Kind: MemberDead, Id: id, Epoch: p.epoch})
	p.viewChanged()

	// the token died with its holder; regenerate
	if id == p.Holder() && p.token == nil && p.CS() != Holding {
		p.startElection(now)
	}
}

// Report and disseminate a ring view change.
func (p *Process) viewChanged() {
	p.notify(Update{Kind: ViewChanged, Epoch: p.epoch, View: p.ring.Version()})
	p.fanout(1, MembershipEvent{
		From:    p.LocalId,
		View:    p.ring.Version(),
		Members: p.ring.Members(),
	})
}

// Enter the critical section with the held token.
func (p *Process) acquire(now time.Time) {
	p.pending = false
	p.setCS(Holding)
	if p.MaxHold > 0 {
		p.holdDeadline = now.Add(p.MaxHold)
	}
	if p.Logger != nil {
		p.Logger.Printf("[ring:%v] acquired %v", p.LocalId, *p.token)
	}
	p.notify(Update{Kind: Acquired, Id: p.LocalId, Epoch: p.epoch})
}

// Leave the critical section and forward the token.
func (p *Process) release(now time.Time, forced bool) {
	if p.CS() != Holding {
		return
	}
	p.setCS(Idle)
	p.notify(Update{Kind: Released, Id: p.LocalId, Epoch: p.epoch, Forced: forced})
	p.forwardToken(now)
}

// Discard a held token whose epoch has fallen below the watermark. An
// application inside its critical section under the superseded token
// has lost exclusivity and is forcibly released.
func (p *Process) discardStaleToken() {
	if p.token == nil || p.token.Epoch >= p.epoch {
		return
	}

	if p.Logger != nil {
		p.Logger.Printf("[ring:%v] discarding held %v at epoch %v",
			p.LocalId, *p.token, p.epoch)
	}
	p.token = nil
	p.notify(Update{Kind: TokenStale, Id: p.LocalId, Epoch: p.epoch})

	if p.CS() == Holding {
		p.pending = false
		p.setCS(Idle)
		p.notify(Update{Kind: Released, Id: p.LocalId, Epoch: p.epoch, Forced: true})
	}
}

// Forward the held token to the current successor. With no live
// successor the token is retained and forwarding is retried each
// protocol period.
func (p *Process) forwardToken(now time.Time) {
	succ, ok := p.ring.SuccessorOf(p.LocalId)
	if !ok {
		// alone in the ring; keep the token
		p.setHolder(p.LocalId)
		p.forwardAt = now.Add(p.HeartbeatInterval)
		return
	}

	// every hand-off advances the rotation counter
	token := *p.token
	token.Rotation = p.rotation.Increment()

	p.token = nil
	p.setHolder(succ.Id)
	p.lastToken = now
	p.circDeadline = now.Add(p.circTimeout())

	p.broker.SendTo(succ.Addr, p.envelope(succ.Id, TokenEvent{From: p.LocalId, Token: token}))

	if p.Logger != nil {
		p.Logger.Printf("[ring:%v] passed %v to %v", p.LocalId, token, succ.Id)
	}
	p.notify(Update{Kind: TokenPassed, Id: succ.Id, Epoch: p.epoch})
}

// Build a message envelope addressed to the given member.
func (p *Process) envelope(to uint64, events ...interface{}) *Message {
	msg := &Message{From: p.LocalId, To: to, View: p.ring.Version()}
	msg.AddEvent(events...)
	return msg
}

// Build a heartbeat carrying the local staleness watermarks.
func (p *Process) heartbeat(now time.Time) HeartbeatEvent {
	return HeartbeatEvent{
		From:     p.LocalId,
		Epoch:    p.epoch,
		Rotation: p.rotation.Get(),
		Time:     now,
	}
}

// Queue a broadcast event and send it directly to every believed-alive
// member. The direct fan-out delivers promptly; the queued copy rides
// along on subsequent messages for redundancy.
func (p *Process) fanout(class int, event BroadcastEvent) {
	p.broker.Broadcast(class, event)
	for _, m := range p.ring.Members() {
		if m.Id == p.LocalId {
			continue
		}
		p.broker.DirectTo(m.Addr, p.envelope(m.Id, event))
	}
}

// The effective circulation timeout: the configured floor raised by the
// adaptive rotation estimate.
func (p *Process) circTimeout() time.Duration {
	if t := p.estimate.Timeout(); t > p.SuspectTimeout {
		return t
	}
	return p.SuspectTimeout
}

func (p *Process) retransmitLimit() uint {
	mult := p.RetransmitMult
	if mult == 0 {
		mult = 3
	}
	return mult * uint(log2ceil(len(p.Members)+1))
}

func (p *Process) setCS(state CSState) {
	atomic.StoreUint32(&p.cs, uint32(state))
}

func (p *Process) setEpoch(epoch uint64) {
	atomic.StoreUint64(&p.epoch, epoch)
}

func (p *Process) setHolder(id uint64) {
	atomic.StoreUint64(&p.holder, id)
}

func (p *Process) notify(update Update) {
	if p.UpdateCh != nil {
		update.View = p.ring.Version()
		p.UpdateCh <- update
	}
}
