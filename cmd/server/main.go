// Command rbnet-server is the authoritative replication server.
package main

import (
	"fmt"
	"os"

	"github.com/golang/glog"

	"github.com/otley/rbnet/internal/bootstrap"
)

func main() {
	defer glog.Flush()

	app := bootstrap.NewServerApp(nil)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "rbnet-server: %v\n", err)
		os.Exit(1)
	}
}
