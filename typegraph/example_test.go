package typegraph_test

import (
	"fmt"

	"honnef.co/go/typegraph/typegraph"
)

func Example() {
	// if cond:
	//   x = 1
	// else:
	//   x = "one"
	// use(x)
	prog := typegraph.NewProgram()
	entry := prog.NewCFGNode("entry")
	then := entry.ConnectNew("then")
	els := entry.ConnectNew("else")
	join := then.ConnectNew("join")
	els.ConnectTo(join)

	x := prog.NewVariable()
	x.AddBinding("int", then)
	x.AddBinding("str", els)

	fmt.Println(x.FilteredData(then))
	fmt.Println(x.FilteredData(join))
	fmt.Println(x.FilteredData(entry))
	// Output:
	// [int]
	// [int str]
	// []
}
