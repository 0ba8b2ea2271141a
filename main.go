package main

import "github.com/baflo/kanbn-sub002/cmd"

func main() {
	cmd.Execute()
}
