package main

import (
	"os"

	"opengeo/cmd/opengeo/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		if commands.IsUsageError(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
