package main

import (
	"os"

	"github.com/wgfold/wgfold/internal/commands"
	"github.com/wgfold/wgfold/internal/log"
)

var (
	version = "dev"
	commit  = "n/a"
	date    = "n/a"
)

func main() {
	cmd := commands.NewRootCommand(version + " (" + commit + ", " + date + ")")
	if err := cmd.Execute(); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}
