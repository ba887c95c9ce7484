package main

import "tinysh/cmd"

func main() {
	cmd.Execute()
}
