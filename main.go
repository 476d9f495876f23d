package main

import (
	"github.com/streamkit/ranged/cmd"
)

func main() {
	cmd.Execute()
}
