package main

import (
	"os"

	"github.com/ishitcode/hire/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
