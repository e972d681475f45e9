package main

import (
	"os"

	"github.com/marben/mandelview/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
