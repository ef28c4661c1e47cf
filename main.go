package main

import "github.com/vishwaraja/gmail-cli/cmd"

func main() {
	cmd.Execute()
}
