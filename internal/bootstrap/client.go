package bootstrap

import (
	"crypto/tls"
	"time"

	"github.com/golang/glog"

	"github.com/otley/rbnet/internal/interp"
	"github.com/otley/rbnet/internal/protocol/client"
	"github.com/otley/rbnet/internal/transport"
	"github.com/otley/rbnet/internal/transport/quictransport"
	"github.com/otley/rbnet/internal/wire"
	"github.com/otley/rbnet/protocol"
)

// inputScratchSize bounds the scratch buffer SendInput writes the §6.2
// payload into: 1 bit-packed byte plus two f32s, rounded well up.
const inputScratchSize = 16

// RunClient dials the server and wires the connection's received bytes
// into a client.Decoder driving mirror. It returns once connected;
// thereafter snapshots arrive on conn's own callback goroutine and
// mirror is safe to read from a separate render loop (internal/interp's
// Mirror owns its own lock).
func RunClient(cfg ClientConfig, mirror *interp.Mirror) (transport.Connection, error) {
	tlsConf := &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}
	cl := quictransport.NewClient(tlsConf, cfg.ALPN, 5*time.Second, cfg.MaxRecv, cfg.MaxDecomp)

	conn, err := cl.Connect(cfg.Host, cfg.Port)
	if err != nil {
		return nil, err
	}

	dec := client.NewDecoder(mirror)
	conn.OnData(func(view []byte) {
		if err := dec.Decode(wire.NewReader(view)); err != nil {
			glog.Errorf("bootstrap: decode snapshot: %v", err)
			conn.Disconnect()
		}
	})
	conn.OnError(func(err error) {
		glog.Errorf("bootstrap: connection error: %v", err)
	})
	conn.OnDisconnect(func() {
		glog.Infof("bootstrap: disconnected from %s:%d", cfg.Host, cfg.Port)
	})

	return conn, nil
}

// SendInput encodes and sends one §6.2 PlayerInput record. Called on
// every key transition (and optionally every frame), per spec.
func SendInput(conn transport.Connection, in protocol.Input) error {
	w := wire.NewWriter(inputScratchSize)
	protocol.EncodeInput(w, in)
	if err := w.Err(); err != nil {
		return err
	}
	return conn.Send(w.Finalize(), transport.FreeAfterSend, transport.CompressNone)
}
