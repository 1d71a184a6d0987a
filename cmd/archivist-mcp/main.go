package main

import (
	"os"

	"archivist/cmd/archivist/cmd"
)

func main() {
	os.Exit(cmd.ExecuteMCP())
}
