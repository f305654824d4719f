package main

import (
	"os"

	"github.com/bookmapapp/bookmap/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
