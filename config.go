package tokenring

import (
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

var ErrNotMember = errors.New("local id is not in the member list")

// Config is the bootstrap configuration for a ring process, read from a
// TOML settings file. Intervals are in milliseconds. The same file is
// distributed to every member.
type Config struct {
	Members       []MemberConfig
	InitialHolder uint64

	HeartbeatIntervalMs int
	SuspectTimeoutMs    int
	ConfirmTimeoutMs    int
	ElectionTimeoutMs   int
	MaxHoldMs           int
	ForwardDelayMs      int

	RetransmitMult uint

	// Codec selects the wire encoding: "gob", "lz4", or "flate". LZ4 and
	// DEFLATE wrap the gob encoding. Defaults to "lz4".
	Codec string
}

type MemberConfig struct {
	Id   uint64
	Addr string
}

// Read a configuration from a TOML settings file.
func ReadConfig(path string) (*Config, error) {
	config := &Config{}
	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate the configuration.
func (c *Config) Validate() error {
	if len(c.Members) == 0 {
		return errors.New("no members configured")
	}

	seen := make(map[uint64]bool)
	holder := false
	for _, m := range c.Members {
		if m.Addr == "" {
			return fmt.Errorf("member %v has no address", m.Id)
		}
		if seen[m.Id] {
			return fmt.Errorf("duplicate member id %v", m.Id)
		}
		seen[m.Id] = true
		if m.Id == c.InitialHolder {
			holder = true
		}
	}
	if !holder {
		return fmt.Errorf("initial holder %v is not a member", c.InitialHolder)
	}

	if c.HeartbeatIntervalMs <= 0 {
		return errors.New("heartbeat interval must be positive")
	}
	if c.SuspectTimeoutMs <= c.HeartbeatIntervalMs {
		return errors.New("suspect timeout must exceed the heartbeat interval")
	}
	if c.ConfirmTimeoutMs <= 0 || c.ElectionTimeoutMs <= 0 {
		return errors.New("confirmation and election timeouts must be positive")
	}

	switch c.Codec {
	case "", "gob", "lz4", "flate":
	default:
		return fmt.Errorf("unknown codec %q", c.Codec)
	}

	return nil
}

// Build the codec selected by the configuration.
func (c *Config) NewCodec() Codec {
	switch c.Codec {
	case "gob":
		return new(GobCodec)
	case "flate":
		return &FlateCodec{new(GobCodec)}
	default:
		return &LZ4Codec{new(GobCodec)}
	}
}

// Build a process for the given local member ID over the given transport.
func (c *Config) NewProcess(id uint64, t Transport) (*Process, error) {
	members := make([]Member, 0, len(c.Members))
	local := false
	for _, m := range c.Members {
		members = append(members, Member{Id: m.Id, Addr: m.Addr})
		if m.Id == id {
			local = true
		}
	}
	if !local {
		return nil, ErrNotMember
	}

	return &Process{
		LocalId:           id,
		Members:           members,
		InitialHolder:     c.InitialHolder,
		HeartbeatInterval: time.Duration(c.HeartbeatIntervalMs) * time.Millisecond,
		SuspectTimeout:    time.Duration(c.SuspectTimeoutMs) * time.Millisecond,
		ConfirmTimeout:    time.Duration(c.ConfirmTimeoutMs) * time.Millisecond,
		ElectionTimeout:   time.Duration(c.ElectionTimeoutMs) * time.Millisecond,
		MaxHold:           time.Duration(c.MaxHoldMs) * time.Millisecond,
		ForwardDelay:      time.Duration(c.ForwardDelayMs) * time.Millisecond,
		RetransmitMult:    c.RetransmitMult,
		Transport:         t,
		Codec:             c.NewCodec(),
	}, nil
}
