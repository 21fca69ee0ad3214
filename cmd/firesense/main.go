package main

import (
	"github.com/livp123/firesense/cmd/firesense/commands"
)

func main() {
	commands.Execute()
}
