package main

import (
	"os"

	"fileproof/cmd/fileproof/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
