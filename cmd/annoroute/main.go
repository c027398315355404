package main

import (
	"os"

	"github.com/toyz/annoroute/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
