package main

import (
	"os"

	"github.com/pathakanu/myAgenda/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
