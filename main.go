package main

import "stub-server/cmd"

func main() {
	cmd.Execute()
}
