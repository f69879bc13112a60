package main

import (
	"os"

	"github.com/tannerhall/repowatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
