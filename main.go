package main

import (
	"os"

	"github.com/msequeira/fitmesh/cmd/fitmesh"
)

func main() {
	if err := fitmesh.Execute(); err != nil {
		os.Exit(1)
	}
}
