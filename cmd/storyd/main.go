package main

import (
	"storyd/internal/cmd"
)

func main() {
	cmd.Run()
}
