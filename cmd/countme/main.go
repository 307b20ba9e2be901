package main

import "countme/cmd/countme/cmd"

func main() {
	cmd.Execute()
}
