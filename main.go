package main

import (
	"os"

	"library-rentals/cli"
)

func main() {
	os.Exit(cli.Main(os.Args[1:]))
}
