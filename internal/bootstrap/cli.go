package bootstrap

import (
	"github.com/urfave/cli/v2"
)

// NewServerApp builds the server binary's CLI surface: --port,
// --tick-interval, --net-interval, --alpn, --cert, --key, --max-recv,
// --max-decomp, matching the §6.3 defaults. seed is passed through to
// RunServer unchanged - it's the pluggable initial-scene callback, not a
// flag (spec.md treats scene content as a programmatic collaborator).
func NewServerApp(seed SceneSeed) *cli.App {
	return &cli.App{
		Name:  "rbnet-server",
		Usage: "authoritative rigid-body replication server",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Value: DefaultPort, Usage: "UDP port to listen on"},
			&cli.DurationFlag{Name: "tick-interval", Value: DefaultTickInterval(), Usage: "physics simulation step"},
			&cli.DurationFlag{Name: "net-interval", Value: DefaultNetInterval, Usage: "snapshot broadcast interval"},
			&cli.StringFlag{Name: "alpn", Value: DefaultALPN, Usage: "QUIC ALPN protocol identifier"},
			&cli.StringFlag{Name: "cert", Value: DefaultCertFile, Usage: "TLS certificate file"},
			&cli.StringFlag{Name: "key", Value: DefaultKeyFile, Usage: "TLS private key file"},
			&cli.Uint64Flag{Name: "max-recv", Value: DefaultMaxRecv, Usage: "maximum declared framer payload length"},
			&cli.Uint64Flag{Name: "max-decomp", Value: DefaultMaxDecomp, Usage: "per-connection LZ4 decompression buffer size"},
		},
		Action: func(c *cli.Context) error {
			cfg := ServerConfig{
				Port:         c.Int("port"),
				TickInterval: c.Duration("tick-interval"),
				NetInterval:  c.Duration("net-interval"),
				ALPN:         c.String("alpn"),
				CertFile:     c.String("cert"),
				KeyFile:      c.String("key"),
				MaxRecv:      c.Uint64("max-recv"),
				MaxDecomp:    c.Uint64("max-decomp"),
			}
			return RunServer(cfg, seed)
		},
	}
}

// NewClientApp builds the client binary's CLI surface: --host, --port,
// --alpn, --insecure-skip-verify, --max-recv, --max-decomp, --net-interval.
// The Action only parses the flags into a ClientConfig and calls run;
// cmd/client's run connects through RunClient and drives its own status
// loop (see cmd/client/main.go).
func NewClientApp(run func(cfg ClientConfig) error) *cli.App {
	return &cli.App{
		Name:  "rbnet-client",
		Usage: "thin replication client",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Value: "127.0.0.1", Usage: "server host"},
			&cli.IntFlag{Name: "port", Value: DefaultPort, Usage: "server port"},
			&cli.StringFlag{Name: "alpn", Value: DefaultALPN, Usage: "QUIC ALPN protocol identifier"},
			&cli.BoolFlag{Name: "insecure-skip-verify", Value: false, Usage: "skip TLS peer verification (testing only)"},
			&cli.Uint64Flag{Name: "max-recv", Value: DefaultMaxRecv, Usage: "maximum declared framer payload length"},
			&cli.Uint64Flag{Name: "max-decomp", Value: DefaultMaxDecomp, Usage: "per-connection LZ4 decompression buffer size"},
			&cli.DurationFlag{Name: "net-interval", Value: DefaultNetInterval, Usage: "server's broadcast interval, for interpolation pacing"},
		},
		Action: func(c *cli.Context) error {
			cfg := ClientConfig{
				Host:               c.String("host"),
				Port:               c.Int("port"),
				ALPN:               c.String("alpn"),
				InsecureSkipVerify: c.Bool("insecure-skip-verify"),
				MaxRecv:            c.Uint64("max-recv"),
				MaxDecomp:          c.Uint64("max-decomp"),
				NetInterval:        c.Duration("net-interval"),
			}
			return run(cfg)
		},
	}
}
