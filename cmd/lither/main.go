package main

import (
	"github.com/wesleyorama2/lither/internal/cli"
)

func main() {
	cli.Execute()
}
