// Package bootstrap wires every component into the two runnable
// binaries (cmd/server, cmd/client): flag parsing, TLS/transport setup,
// and the accept/tick/decode loops. cmd/server and cmd/client themselves
// stay thin - argv in, an App.Run out - matching the teacher's own
// main.go, which does nothing but call into the package that does the
// real work.
package bootstrap

import (
	"runtime"
	"time"
)

// Defaults per spec §6.3.
const (
	DefaultPort        = 6969
	DefaultNetInterval = 100 * time.Millisecond
	DefaultALPN        = "physx-quic"
	DefaultCertFile    = "server.cert"
	DefaultKeyFile     = "server.key"
	DefaultMaxRecv     = 1 << 20 // 1 MiB declared-payload ceiling
	DefaultMaxDecomp   = 4 << 20 // 4 MiB LZ4 decompression buffer
)

// DefaultTickInterval is 15ms on Windows, 20ms elsewhere, per §6.3.
func DefaultTickInterval() time.Duration {
	if runtime.GOOS == "windows" {
		return 15 * time.Millisecond
	}
	return 20 * time.Millisecond
}

// ServerConfig is the server binary's full flag surface.
type ServerConfig struct {
	Port         int
	TickInterval time.Duration
	NetInterval  time.Duration
	ALPN         string
	CertFile     string
	KeyFile      string
	MaxRecv      uint64
	MaxDecomp    uint64
}

// ClientConfig is the client binary's full flag surface.
type ClientConfig struct {
	Host               string
	Port               int
	ALPN               string
	InsecureSkipVerify bool
	MaxRecv            uint64
	MaxDecomp          uint64
	NetInterval        time.Duration
}
