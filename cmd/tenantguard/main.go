// Command tenantguard inspects the tenant guard's view of a project.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lawclick/tenantguard/internal/tools/guardcli"
)

func main() {
	cfg, err := guardcli.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		exitf("%v", err)
	}
	if err := guardcli.Run(cfg, os.Stdout); err != nil {
		exitf("tenantguard %s: %v", cfg.Command, err)
	}
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
