// Command peoplenet serves the people/relationship API, seeds example data,
// and exposes the graph to assistants over MCP.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := Execute(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "peoplenet:", err)
		os.Exit(1)
	}
}
