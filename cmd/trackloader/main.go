package main

import (
	"os"

	"github.com/tansive/trackcatalog/internal/loader/cli"
)

func main() {
	os.Exit(cli.Execute())
}
