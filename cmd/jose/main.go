package main

import (
	"os"

	"github.com/modscleo4/jose/cmd/jose/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
