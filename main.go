package main

import "github.com/ccpulse/ccpulse/cmd"

func main() {
	cmd.Execute()
}
