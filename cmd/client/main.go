// Command rbnet-client is a thin replication client: it connects, decodes
// snapshots into a local mirror, and logs how many objects it tracks. It has
// no renderer or input device of its own - those are external
// collaborators (spec §1) - so it stands in for whatever UI a real
// frontend would drive off internal/interp.Mirror.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"

	"github.com/otley/rbnet/internal/bootstrap"
	"github.com/otley/rbnet/internal/interp"
)

func run(cfg bootstrap.ClientConfig) error {
	mirror := interp.NewMirror()
	conn, err := bootstrap.RunClient(cfg, mirror)
	if err != nil {
		return err
	}
	defer conn.Disconnect()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	statusTick := time.NewTicker(time.Second)
	defer statusTick.Stop()

	for {
		select {
		case <-sig:
			glog.Infof("rbnet-client: shutting down")
			return nil
		case <-statusTick.C:
			handles := mirror.Handles()
			now := time.Now().UnixMilli()
			netIntervalMs := cfg.NetInterval.Milliseconds()
			for _, h := range handles {
				if _, ok := mirror.At(h, now, netIntervalMs); !ok {
					continue
				}
			}
			glog.Infof("rbnet-client: tracking %d objects", len(handles))
		}
	}
}

func main() {
	defer glog.Flush()

	app := bootstrap.NewClientApp(run)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "rbnet-client: %v\n", err)
		os.Exit(1)
	}
}
