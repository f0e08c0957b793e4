// Command ringd runs one token-ring process over UDP, configured from a
// TOML settings file shared by every member.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	ring "github.com/mikepb/go-tokenring"
)

func main() {
	config := flag.String("config", "settings.toml", "path to the settings file")
	id := flag.Uint64("id", 0, "local member id")
	demo := flag.Bool("demo", false, "periodically enter the critical section")
	verbose := flag.Bool("v", false, "log every message")
	flag.Parse()

	logger := log.New(os.Stderr, "ringd ", log.LstdFlags)

	cfg, err := ring.ReadConfig(*config)
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	addr := ""
	for _, m := range cfg.Members {
		if m.Id == *id {
			addr = m.Addr
		}
	}
	if addr == "" {
		logger.Fatalf("id %v is not in the member list", *id)
	}

	transport, err := ring.NewUDPTransport(addr)
	if err != nil {
		logger.Fatalf("listen: %v", err)
	}

	p, err := cfg.NewProcess(*id, transport)
	if err != nil {
		logger.Fatalf("process: %v", err)
	}
	p.UpdateCh = make(chan ring.Update, 1024)
	if *verbose {
		p.Logger = logger
	}

	p.Start()
	logger.Printf("process %v listening on %v", *id, transport.LocalAddr())

	go func() {
		for u := range p.UpdateCh {
			switch u.Kind {
			case ring.Acquired:
				logger.Printf("acquired epoch %v", u.Epoch)
				if *demo {
					time.Sleep(100 * time.Millisecond)
					p.Release()
					time.Sleep(time.Second)
					p.Request()
				}
			case ring.Regenerated:
				logger.Printf("minted replacement token, epoch %v", u.Epoch)
			case ring.MemberSuspect:
				logger.Printf("suspecting member %v", u.Id)
			case ring.MemberDead:
				logger.Printf("member %v confirmed dead", u.Id)
			case ring.MemberAlive:
				logger.Printf("member %v rejoined", u.Id)
			}
		}
	}()

	if *demo {
		p.Request()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Printf("shutting down")
	if err := p.Close(); err != nil {
		logger.Printf("close: %v", err)
	}
}
