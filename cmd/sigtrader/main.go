package main

import (
	"os"

	"github.com/quantden/sigtrader/cmd/sigtrader/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
