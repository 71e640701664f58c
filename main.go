package main

import (
	"github.com/AzielCF/az-invert/cmd"
)

func main() {
	cmd.Execute()
}
