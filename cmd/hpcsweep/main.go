package main

import (
	"os"

	"github.com/ddimmery/NYU-HPC/cmd/hpcsweep/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
