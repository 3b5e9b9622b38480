package main

import (
	"os"

	"primesha.org/primesha/cmd/primesha/cmd"
)

func main() {
	os.Exit(cmd.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
