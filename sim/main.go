// Command sim runs a token ring in one OS process over the simulated
// network, kills the holder mid-rotation, and reports the regeneration.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	ring "github.com/mikepb/go-tokenring"
)

func main() {
	n := flag.Int("n", 5, "number of processes")
	warmup := flag.Duration("warmup", 2*time.Second, "time to circulate before killing the holder")
	verbose := flag.Bool("v", false, "log every message")
	flag.Parse()

	router := ring.NewSimRouter()
	codec := &ring.LZ4Codec{Codec: new(ring.GobCodec)}

	members := make([]ring.Member, *n)
	for i := range members {
		members[i] = ring.Member{
			Id:   uint64(i + 1),
			Addr: fmt.Sprintf("n%04d", i+1),
		}
	}

	procs := map[uint64]*ring.Process{}
	for _, m := range members {
		p := &ring.Process{
			LocalId:           m.Id,
			Members:           members,
			InitialHolder:     1,
			HeartbeatInterval: 20 * time.Millisecond,
			SuspectTimeout:    250 * time.Millisecond,
			ConfirmTimeout:    250 * time.Millisecond,
			ElectionTimeout:   100 * time.Millisecond,
			MaxHold:           time.Second,
			ForwardDelay:      10 * time.Millisecond,
			Transport:         router.NewTransport(m.Addr),
			Codec:             codec,
			UpdateCh:          make(chan ring.Update, 1024),
		}
		if *verbose {
			p.Logger = log.New(os.Stdout, "", log.Lmicroseconds)
		}
		procs[m.Id] = p
	}

	for _, p := range procs {
		p.Start()
	}

	// every process wants the critical section, does a little work, and
	// releases
	for _, p := range procs {
		go func(p *ring.Process) {
			// releasing on a process killed mid-acquire panics; that is
			// exactly the crash being simulated
			defer func() { recover() }()
			for u := range p.UpdateCh {
				switch u.Kind {
				case ring.Acquired:
					time.Sleep(5 * time.Millisecond)
					p.Release()
					p.Request()
				case ring.Regenerated:
					log.Printf("### process %v minted epoch %v", u.Id, u.Epoch)
				case ring.MemberDead:
					log.Printf("### process %v confirmed %v dead", p.LocalId, u.Id)
				}
			}
		}(p)
		p.Request()
	}

	time.Sleep(*warmup)

	// kill the current holder mid-rotation
	victim := procs[1].Holder()
	log.Printf("### killing holder %v", victim)
	procs[victim].Close()
	delete(procs, victim)

	time.Sleep(3 * time.Second)

	for id, p := range procs {
		log.Printf("### process %v: epoch %v view %v holder %v cs %v",
			id, p.Epoch(), p.View(), p.Holder(), p.CS())
		p.Close()
	}
}
