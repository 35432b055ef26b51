package main

import "github.com/bz888/pubgqna/cmd"

func main() {
	cmd.Execute()
}
