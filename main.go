package main

import (
	"github.com/tebeka/atexit"

	"github.com/karlding/canbittiming/cmd"
)

func main() {
	cmd.Execute()
	atexit.Exit(0)
}
