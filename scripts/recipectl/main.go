package main

import (
	"os"

	"github.com/franciscosanchezn/gin-recipe-api/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
