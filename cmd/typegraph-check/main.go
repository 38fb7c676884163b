// typegraph-check evaluates queries against control-flow graphs and
// variable bindings described in scenario files.
package main // import "honnef.co/go/typegraph/cmd/typegraph-check"

import (
	"os"

	"honnef.co/go/typegraph/checkcmd"
)

func main() {
	cmd := checkcmd.NewCommand("typegraph-check")
	if err := cmd.ParseFlags(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	cmd.Run()
}
