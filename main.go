package main

import (
	"os"

	"github.com/dbatools/dbadm/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
