package main

import (
	"os"

	"clrhost/internal/cli"
)

func main() { os.Exit(cli.Main()) }
