// Command rds-topology inspects the single-instance RDS environment without
// synthesizing it.
//
// Usage:
//
//	rds-topology validate --file rds.yaml     Check options
//	rds-topology plan --file rds.yaml         Summarize the planned environment
//	rds-topology graph --file rds.yaml        Emit the dependency graph
//	rds-topology resolve --group-id sg-...    Look up a database private address
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
