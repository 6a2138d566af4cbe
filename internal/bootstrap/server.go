package bootstrap

import (
	"crypto/tls"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/otley/rbnet/internal/protocol/server"
	"github.com/otley/rbnet/internal/registry"
	"github.com/otley/rbnet/internal/replica"
	"github.com/otley/rbnet/internal/sim"
	"github.com/otley/rbnet/internal/transport"
	"github.com/otley/rbnet/internal/transport/quictransport"
	"github.com/otley/rbnet/internal/wire"
	"github.com/otley/rbnet/mathx"
	"github.com/otley/rbnet/physics"
	"github.com/otley/rbnet/protocol"
)

// encodeScratchSize bounds the scratch buffer EncodeSnapshot's forward
// ADD-record writer uses; generous relative to one connection's worth of
// a tick's diff.
const encodeScratchSize = 64 * 1024

// NewScene constructs the physics engine backing one server run.
// physics.Scene is an external collaborator (spec §1): this repository
// ships no concrete engine, only the physics package's interfaces and
// the test-only physics/physicstest fake, which a production server
// build must never link (see DESIGN.md). A deployment wires a real
// engine by setting this to a constructor from its own package before
// calling RunServer; it is nil in the binary as shipped here.
var NewScene func() physics.Scene

// SceneSeed populates an initial scene (the "what blocks and balls
// exist at start" pluggable callback named in spec §1). Left nil by
// default: an empty scene with no primitives, just the world itself.
type SceneSeed func(scene physics.Scene, reg *registry.Registry)

// RunServer wires every component (transport, registry, replica cache,
// tick scheduler) and runs the tick loop until the process is killed; once
// the listener is up it does not return. It is the server binary's entire
// body - cmd/server's main only parses flags into cfg and calls this.
func RunServer(cfg ServerConfig, seed SceneSeed) error {
	if NewScene == nil {
		return errors.New("bootstrap: no physics engine wired (bootstrap.NewScene is nil) - physics.Scene is an external collaborator; see DESIGN.md")
	}

	cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return fmt.Errorf("bootstrap: load tls keypair %s/%s: %w", cfg.CertFile, cfg.KeyFile, err)
	}
	tlsConf := &tls.Config{Certificates: []tls.Certificate{cert}}

	ln := quictransport.NewListener(tlsConf, cfg.ALPN, 5*time.Second, cfg.MaxRecv, cfg.MaxDecomp)
	if err := ln.Listen(cfg.Port); err != nil {
		return err
	}
	defer ln.Stop()

	scene := NewScene()
	reg := registry.New()
	if seed != nil {
		seed(scene, reg)
	}
	conns := transport.NewConns()
	loop := sim.New(scene, reg, conns, encodeAdapter, cfg.TickInterval, cfg.NetInterval)

	var nextPID atomic.Uint32
	go acceptLoop(ln, scene, loop, conns, &nextPID)

	glog.Infof("bootstrap: listening on :%d (alpn=%s, tick=%s, net=%s)", cfg.Port, cfg.ALPN, cfg.TickInterval, cfg.NetInterval)

	ticker := time.NewTicker(cfg.TickInterval)
	defer ticker.Stop()
	for now := range ticker.C {
		loop.RunTick(now)
	}
	return nil
}

func acceptLoop(ln transport.Listener, scene physics.Scene, loop *sim.Loop, conns *transport.Conns, nextPID *atomic.Uint32) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, transport.ErrListenerStopped) {
				return
			}
			glog.Errorf("bootstrap: accept: %v", err)
			continue
		}
		pid := nextPID.Add(1)
		handleConnection(pid, conn, scene, loop, conns)
	}
}

func handleConnection(pid uint32, conn transport.Connection, scene physics.Scene, loop *sim.Loop, conns *transport.Conns) {
	ctl := scene.AddCharacterController(mathx.Vec3{})
	player, err := loop.Connect(pid, ctl)
	if err != nil {
		glog.Warningf("bootstrap: connect pid %d: %v", pid, err)
		conn.Disconnect()
		return
	}
	conns.Add(pid, conn)

	conn.OnData(func(view []byte) {
		r := wire.NewReader(view)
		in := protocol.DecodeInput(r)
		if r.Failed() {
			glog.Warningf("bootstrap: malformed input from pid %d, disconnecting", pid)
			conn.Disconnect()
			return
		}
		player.SetInput(in)
	})
	conn.OnDisconnect(func() {
		conns.Remove(pid)
		loop.Disconnect(pid)
	})
	conn.OnError(func(err error) {
		glog.Warningf("bootstrap: connection pid %d error: %v", pid, err)
	})

	glog.Infof("bootstrap: pid %d connected", pid)
}

func encodeAdapter(recipient *registry.Player, others []*registry.Player, cache *replica.Cache, reg *registry.Registry) ([]byte, error) {
	w := wire.NewWriter(encodeScratchSize)
	if err := server.EncodeSnapshot(w, time.Now().UnixMilli(), recipient, others, cache, reg, encodeScratchSize); err != nil {
		return nil, err
	}
	return w.Finalize(), nil
}
