package main

import (
	"os"

	"github.com/duynguyendang/semacro/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
