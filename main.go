package main

import "social-client/cmd"

func main() {
	cmd.Execute()
}
