package main

import "safespace/internal/cmd"

func main() {
	cmd.Run()
}
