// Command h2c-inject is the host-side injection planner: it issues a
// certificate bundle, synthesises a service-account bundle, probes for a
// usable container-runtime socket, and rewrites a compose file's graph so
// every service can reach the façade as if it were a real cluster.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
