package main

import (
	"os"

	"github.com/openbatchproject/openbatch/cmd/datastore/cmd"
	"github.com/openbatchproject/openbatch/internal/common"
)

func main() {
	common.ConfigureLogging()
	if err := cmd.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
