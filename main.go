package main

import "bioshop/cmd"

func main() {
	cmd.Execute()
}
