package main

import "github.com/shelfscout/shelfscout/cmd"

func main() {
	cmd.Execute()
}
