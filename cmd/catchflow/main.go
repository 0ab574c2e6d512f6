package main

import (
	"fmt"
	"os"

	"github.com/xlandscape/catchflow/internal/cli"
)

func main() {
	root := cli.NewRootCommand()
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(cli.ExitCodeFor(err))
}
